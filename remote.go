package remote

import (
	"errors"
	"fmt"

	"github.com/go-git/go-remote/config"
	"github.com/go-git/go-remote/plumbing"
	"github.com/go-git/go-remote/plumbing/transport"
)

// Remote represents a connection to a remote repository. A Remote without
// name is transient: it is never saved and it downloads no tags.
//
// A Remote is not safe for concurrent use.
type Remote struct {
	repo *Repository

	name    string
	url     string
	pushURL string
	fetch   config.RefSpec
	push    config.RefSpec
	tags    TagPolicy

	checkCert bool
	auth      transport.AuthMethod
	proxy     transport.ProxyOptions
	callbacks Callbacks
	progress  *progressWriter
	cancel    *transport.CancelToken

	// present while connected
	conn  transport.Connection
	stats TransferProgress
}

func newRemote(repo *Repository, name string) *Remote {
	return &Remote{
		repo:      repo,
		name:      name,
		checkCert: true,
		progress:  &progressWriter{},
		cancel:    &transport.CancelToken{},
	}
}

// New creates a remote of the repository, without saving it. The name is
// optional, an empty fetch means no fetch refspec.
func New(repo *Repository, name, url, fetch string) (*Remote, error) {
	if url == "" {
		return nil, ErrInvalidURL
	}

	r := newRemote(repo, name)
	r.url = url

	if fetch != "" {
		spec, err := config.ParseRefSpec(fetch, plumbing.Fetch)
		if err != nil {
			return nil, err
		}

		r.fetch = spec
	}

	if name == "" {
		r.tags = TagsNone
	}

	return r, nil
}

// Load reads the remote with the given name from the repository
// configuration. ErrRemoteNotFound is returned when remote.<name>.url is not
// set.
func Load(repo *Repository, name string) (*Remote, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty name", ErrInvalidRemoteName)
	}

	cfg := repo.Storer.Config()
	url, err := cfg.GetString(config.RemoteURLKey(name))
	if errors.Is(err, config.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %q", ErrRemoteNotFound, name)
	}

	if err != nil {
		return nil, err
	}

	r := newRemote(repo, name)
	r.url = url

	if r.pushURL, err = optionalString(cfg, config.RemotePushURLKey(name)); err != nil {
		return nil, err
	}

	if r.fetch, err = loadRefSpec(cfg, config.RemoteFetchKey(name), plumbing.Fetch); err != nil {
		return nil, err
	}

	if r.push, err = loadRefSpec(cfg, config.RemotePushKey(name), plumbing.Push); err != nil {
		return nil, err
	}

	if err := resolveTagPolicy(r, cfg); err != nil {
		return nil, err
	}

	return r, nil
}

func optionalString(cfg config.ConfigStorer, key string) (string, error) {
	v, err := cfg.GetString(key)
	if errors.Is(err, config.ErrKeyNotFound) {
		return "", nil
	}

	return v, err
}

func loadRefSpec(cfg config.ConfigStorer, key string, dir plumbing.Direction) (config.RefSpec, error) {
	v, err := cfg.GetString(key)
	if errors.Is(err, config.ErrKeyNotFound) {
		return config.RefSpec{}, nil
	}

	if err != nil {
		return config.RefSpec{}, err
	}

	return config.ParseRefSpec(v, dir)
}

// Save writes the remote to the repository configuration.
func (r *Remote) Save() error {
	if err := config.ValidateRemoteName(r.name); err != nil {
		return err
	}

	cfg := r.repo.Storer.Config()
	if err := cfg.SetString(config.RemoteURLKey(r.name), r.url); err != nil {
		return err
	}

	if err := savePushURL(cfg, r.name, r.pushURL); err != nil {
		return err
	}

	if err := saveRefSpec(cfg, config.RemoteFetchKey(r.name), r.fetch); err != nil {
		return err
	}

	if err := saveRefSpec(cfg, config.RemotePushKey(r.name), r.push); err != nil {
		return err
	}

	return saveTagPolicy(r, cfg)
}

func savePushURL(cfg config.ConfigStorer, name, url string) error {
	key := config.RemotePushURLKey(name)
	if url != "" {
		return cfg.SetString(key, url)
	}

	err := cfg.Delete(key)
	if errors.Is(err, config.ErrKeyNotFound) {
		return nil
	}

	return err
}

func saveRefSpec(cfg config.ConfigStorer, key string, spec config.RefSpec) error {
	if spec.IsEmpty() {
		return nil
	}

	return cfg.SetString(key, spec.String())
}

// Name returns the name of the remote, empty for a transient one.
func (r *Remote) Name() string {
	return r.name
}

// URL returns the fetch url.
func (r *Remote) URL() string {
	return r.url
}

// PushURL returns the push url, empty when pushes use URL.
func (r *Remote) PushURL() string {
	return r.pushURL
}

// FetchRefSpec returns the fetch refspec, IsEmpty when there is none.
func (r *Remote) FetchRefSpec() config.RefSpec {
	return r.fetch
}

// PushRefSpec returns the push refspec, IsEmpty when there is none.
func (r *Remote) PushRefSpec() config.RefSpec {
	return r.push
}

// TagPolicy returns the tag download policy.
func (r *Remote) TagPolicy() TagPolicy {
	return r.tags
}

// Stats returns the statistics of the last connection.
func (r *Remote) Stats() TransferProgress {
	return r.stats
}

// SetURL replaces the fetch url, that cannot be empty.
func (r *Remote) SetURL(url string) error {
	if url == "" {
		return ErrInvalidURL
	}

	r.url = url
	return nil
}

// SetPushURL replaces the push url, an empty url clears it.
func (r *Remote) SetPushURL(url string) {
	r.pushURL = url
}

// SetFetchRefSpec replaces the fetch refspec. The current one is kept when
// text cannot be parsed.
func (r *Remote) SetFetchRefSpec(text string) error {
	spec, err := config.ParseRefSpec(text, plumbing.Fetch)
	if err != nil {
		return err
	}

	r.fetch = spec
	return nil
}

// SetPushRefSpec replaces the push refspec. The current one is kept when
// text cannot be parsed.
func (r *Remote) SetPushRefSpec(text string) error {
	spec, err := config.ParseRefSpec(text, plumbing.Push)
	if err != nil {
		return err
	}

	r.push = spec
	return nil
}

// SetTagPolicy sets the tag download policy. It is ignored by transient
// remotes, which never download tags.
func (r *Remote) SetTagPolicy(p TagPolicy) {
	if r.name == "" {
		return
	}

	r.tags = p
}

// SetCheckCertificate sets whether the certificate of the server is
// verified, true by default.
func (r *Remote) SetCheckCertificate(check bool) {
	r.checkCert = check
}

// SetAuth sets the credentials used by the next connection.
func (r *Remote) SetAuth(auth transport.AuthMethod) {
	r.auth = auth
}

// SetProxy sets the proxy used by the next connection.
func (r *Remote) SetProxy(proxy transport.ProxyOptions) {
	r.proxy = proxy
}

// SetCallbacks replaces the callbacks, taking effect on an open connection
// too.
func (r *Remote) SetCallbacks(cb Callbacks) {
	r.callbacks = cb
	r.progress.set(cb.Progress)
}

// URLForDirection returns the url used to fetch from or push to the remote.
func (r *Remote) URLForDirection(dir plumbing.Direction) string {
	if dir == plumbing.Push && r.pushURL != "" {
		return r.pushURL
	}

	return r.url
}

func (r *Remote) String() string {
	fetch := r.URLForDirection(plumbing.Fetch)
	push := r.URLForDirection(plumbing.Push)

	return fmt.Sprintf("%s\t%s (fetch)\n%[1]s\t%s (push)", r.name, fetch, push)
}
