package remote

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/go-git/go-remote/config"
	"github.com/go-git/go-remote/internal/transporttest"
	"github.com/go-git/go-remote/plumbing"
	"github.com/go-git/go-remote/plumbing/protocol/packp"
	"github.com/go-git/go-remote/plumbing/storer"
	"github.com/go-git/go-remote/plumbing/transport"
	"github.com/go-git/go-remote/storage/memory"
)

const (
	hashX = "6ecf0ef2c2dffb796033e5a02219af86ec6584e5"
	hashY = "e8d3ffab552895c19b9fcf7aa264d277cde33881"
	hashZ = "918c48b83bd081e863dbe1b80f8998f058cd8294"
)

type BaseSuite struct {
	suite.Suite
	Storer    *memory.Storage
	Transport *transporttest.Transport
	Repo      *Repository
}

func (s *BaseSuite) SetupTest() {
	s.Storer = memory.NewStorage()
	s.Transport = transporttest.New()
	s.Repo = &Repository{Storer: s.Storer, Transport: s.Transport}
}

func (s *BaseSuite) set(key, value string) {
	s.Require().NoError(s.Storer.Config().SetString(key, value))
}

func (s *BaseSuite) get(key string) string {
	v, err := s.Storer.Config().GetString(key)
	s.Require().NoError(err)
	return v
}

func (s *BaseSuite) absent(key string) {
	_, err := s.Storer.Config().GetString(key)
	s.ErrorIs(err, config.ErrKeyNotFound, key)
}

func (s *BaseSuite) setRef(name, hash string) {
	ref := plumbing.NewReferenceFromStrings(name, hash)
	s.Require().NoError(s.Storer.SetReference(ref, true))
}

func (s *BaseSuite) ref(name string) *plumbing.Reference {
	ref, err := s.Storer.Reference(plumbing.ReferenceName(name))
	s.Require().NoError(err, name)
	return ref
}

func (s *BaseSuite) noRef(name string) {
	_, err := s.Storer.Reference(plumbing.ReferenceName(name))
	s.ErrorIs(err, plumbing.ErrReferenceNotFound, name)
}

type RemoteSuite struct {
	BaseSuite
}

func TestRemoteSuite(t *testing.T) {
	suite.Run(t, new(RemoteSuite))
}

func (s *RemoteSuite) TestNew() {
	r, err := New(s.Repo, "origin", "https://example.com/repo.git", "+refs/heads/*:refs/remotes/origin/*")
	s.Require().NoError(err)

	s.Equal("origin", r.Name())
	s.Equal("https://example.com/repo.git", r.URL())
	s.Equal("", r.PushURL())
	s.Equal(config.DefaultFetchRefSpec("origin"), r.FetchRefSpec())
	s.True(r.PushRefSpec().IsEmpty())
	s.Equal(TagsUnset, r.TagPolicy())
	s.False(r.Connected())
}

func (s *RemoteSuite) TestNewWithoutURL() {
	_, err := New(s.Repo, "origin", "", "")
	s.ErrorIs(err, ErrInvalidURL)
}

func (s *RemoteSuite) TestNewMalformedRefSpec() {
	r, err := New(s.Repo, "origin", "https://example.com/repo.git", "refs/heads/*:refs/remotes/origin/foo")
	s.ErrorIs(err, config.ErrRefSpecMalformed)
	s.Nil(r)
}

func (s *RemoteSuite) TestNewTransientHasNoTags() {
	r, err := New(s.Repo, "", "https://example.com/repo.git", "")
	s.Require().NoError(err)
	s.Equal(TagsNone, r.TagPolicy())

	r.SetTagPolicy(TagsAll)
	s.Equal(TagsNone, r.TagPolicy())
}

func (s *RemoteSuite) TestLoad() {
	s.set("remote.origin.url", "https://example.com/repo.git")
	s.set("remote.origin.pushurl", "ssh://git@example.com/repo.git")
	s.set("remote.origin.fetch", "+refs/heads/*:refs/remotes/origin/*")
	s.set("remote.origin.push", "refs/heads/master:refs/heads/master")

	r, err := Load(s.Repo, "origin")
	s.Require().NoError(err)

	s.Equal("origin", r.Name())
	s.Equal("https://example.com/repo.git", r.URL())
	s.Equal("ssh://git@example.com/repo.git", r.PushURL())
	s.Equal("+refs/heads/*:refs/remotes/origin/*", r.FetchRefSpec().String())
	s.Equal("refs/heads/master:refs/heads/master", r.PushRefSpec().String())
	s.Equal(plumbing.Push, r.PushRefSpec().Direction)
	s.Equal(TagsAuto, r.TagPolicy())
}

func (s *RemoteSuite) TestLoadOnlyURL() {
	s.set("remote.origin.url", "https://example.com/repo.git")

	r, err := Load(s.Repo, "origin")
	s.Require().NoError(err)
	s.Equal("", r.PushURL())
	s.True(r.FetchRefSpec().IsEmpty())
	s.True(r.PushRefSpec().IsEmpty())
}

func (s *RemoteSuite) TestLoadNotFound() {
	s.set("remote.origin.fetch", "+refs/heads/*:refs/remotes/origin/*")

	r, err := Load(s.Repo, "origin")
	s.ErrorIs(err, ErrRemoteNotFound)
	s.Nil(r)

	_, err = Load(s.Repo, "")
	s.ErrorIs(err, ErrInvalidRemoteName)
}

func (s *RemoteSuite) TestLoadMalformedRefSpec() {
	s.set("remote.origin.url", "https://example.com/repo.git")
	s.set("remote.origin.fetch", "refs/heads/a:refs/heads/b:refs/heads/c")

	_, err := Load(s.Repo, "origin")
	s.ErrorIs(err, config.ErrRefSpecMalformed)
}

func (s *RemoteSuite) TestLoadConfigError() {
	backendErr := errors.New("backend")
	s.Repo.Storer = &failingConfigStorage{
		Storage: s.Storer,
		keys:    map[string]error{"remote.origin.pushurl": backendErr},
	}
	s.set("remote.origin.url", "https://example.com/repo.git")

	_, err := Load(s.Repo, "origin")
	s.ErrorIs(err, backendErr)
}

func (s *RemoteSuite) TestLoadTagPolicy() {
	for opt, policy := range map[string]TagPolicy{
		"--tags":    TagsAll,
		"--no-tags": TagsNone,
		"--foo":     TagsAuto,
	} {
		s.set("remote.origin.url", "https://example.com/repo.git")
		s.set("remote.origin.tagopt", opt)

		r, err := Load(s.Repo, "origin")
		s.Require().NoError(err)
		s.Equal(policy, r.TagPolicy(), opt)
	}
}

func (s *RemoteSuite) TestSave() {
	r, err := New(s.Repo, "origin", "https://example.com/repo.git", "+refs/heads/*:refs/remotes/origin/*")
	s.Require().NoError(err)
	r.SetPushURL("ssh://git@example.com/repo.git")
	s.Require().NoError(r.SetPushRefSpec("refs/heads/master:refs/heads/master"))

	s.Require().NoError(r.Save())

	s.Equal("https://example.com/repo.git", s.get("remote.origin.url"))
	s.Equal("ssh://git@example.com/repo.git", s.get("remote.origin.pushurl"))
	s.Equal("+refs/heads/*:refs/remotes/origin/*", s.get("remote.origin.fetch"))
	s.Equal("refs/heads/master:refs/heads/master", s.get("remote.origin.push"))
	s.absent("remote.origin.tagopt")

	loaded, err := Load(s.Repo, "origin")
	s.Require().NoError(err)
	s.Equal(r.FetchRefSpec(), loaded.FetchRefSpec())
	s.Equal(r.PushRefSpec(), loaded.PushRefSpec())
}

func (s *RemoteSuite) TestSaveClearsPushURL() {
	s.set("remote.origin.url", "https://example.com/repo.git")
	s.set("remote.origin.pushurl", "ssh://git@example.com/repo.git")

	r, err := Load(s.Repo, "origin")
	s.Require().NoError(err)
	r.SetPushURL("")
	s.Require().NoError(r.Save())
	s.absent("remote.origin.pushurl")

	s.Require().NoError(r.Save())
	s.absent("remote.origin.pushurl")
}

func (s *RemoteSuite) TestSaveInvalidName() {
	for _, name := range []string{"", "a b", "a:b", "foo..bar", "foo/"} {
		r, err := New(s.Repo, name, "https://example.com/repo.git", "")
		s.Require().NoError(err)

		s.ErrorIs(r.Save(), ErrInvalidRemoteName, name)
	}

	s.NoError(s.Storer.Config().ForEach("", func(e *config.Entry) error {
		s.Fail("unexpected config entry", e.Key)
		return nil
	}))
}

func (s *RemoteSuite) TestSaveTagPolicyMatrix() {
	r, err := New(s.Repo, "origin", "https://example.com/repo.git", "")
	s.Require().NoError(err)

	r.SetTagPolicy(TagsAuto)
	s.Require().NoError(r.Save())
	s.absent("remote.origin.tagopt")

	r.SetTagPolicy(TagsAll)
	s.Require().NoError(r.Save())
	s.Equal("--tags", s.get("remote.origin.tagopt"))

	r.SetTagPolicy(TagsNone)
	s.Require().NoError(r.Save())
	s.Equal("--no-tags", s.get("remote.origin.tagopt"))

	r.SetTagPolicy(TagsAuto)
	s.Require().NoError(r.Save())
	s.absent("remote.origin.tagopt")

	s.Require().NoError(r.Save())
	s.absent("remote.origin.tagopt")
}

func (s *RemoteSuite) TestSaveTagPolicyAllThenAuto() {
	r, err := New(s.Repo, "origin", "https://example.com/repo.git", "")
	s.Require().NoError(err)

	r.SetTagPolicy(TagsAll)
	s.Require().NoError(r.Save())
	r.SetTagPolicy(TagsAuto)
	s.Require().NoError(r.Save())
	s.Require().NoError(r.Save())

	s.absent("remote.origin.tagopt")
}

func (s *RemoteSuite) TestSetters() {
	r, err := New(s.Repo, "origin", "https://example.com/repo.git", "+refs/heads/*:refs/remotes/origin/*")
	s.Require().NoError(err)

	s.ErrorIs(r.SetURL(""), ErrInvalidURL)
	s.NoError(r.SetURL("https://example.com/other.git"))
	s.Equal("https://example.com/other.git", r.URL())

	before := r.FetchRefSpec()
	s.ErrorIs(r.SetFetchRefSpec("refs/heads/*:refs/remotes/origin/foo"), config.ErrRefSpecMalformed)
	s.Equal(before, r.FetchRefSpec())

	s.NoError(r.SetFetchRefSpec("refs/heads/master:refs/remotes/origin/master"))
	s.Equal("refs/heads/master:refs/remotes/origin/master", r.FetchRefSpec().String())

	s.Error(r.SetPushRefSpec("a:b:c"))
	s.True(r.PushRefSpec().IsEmpty())
}

func (s *RemoteSuite) TestURLForDirection() {
	r, err := New(s.Repo, "origin", "https://example.com/repo.git", "")
	s.Require().NoError(err)

	s.Equal("https://example.com/repo.git", r.URLForDirection(plumbing.Fetch))
	s.Equal("https://example.com/repo.git", r.URLForDirection(plumbing.Push))

	r.SetPushURL("ssh://git@example.com/repo.git")
	s.Equal("https://example.com/repo.git", r.URLForDirection(plumbing.Fetch))
	s.Equal("ssh://git@example.com/repo.git", r.URLForDirection(plumbing.Push))
}

func (s *RemoteSuite) TestString() {
	r, err := New(s.Repo, "origin", "https://example.com/repo.git", "")
	s.Require().NoError(err)
	r.SetPushURL("ssh://git@example.com/repo.git")

	s.Equal("origin\thttps://example.com/repo.git (fetch)\norigin\tssh://git@example.com/repo.git (push)", r.String())
}

func (s *RemoteSuite) TestConnect() {
	s.Transport.Entries = []*packp.Entry{
		transporttest.Comment("# service=git-upload-pack"),
		transporttest.Ref("HEAD", hashX),
		transporttest.Ref("refs/heads/master", hashX),
	}
	s.Transport.ReceivedBytes = 128
	s.Transport.Progress = "remote: Counting objects: 3, done.\n"

	r, err := New(s.Repo, "origin", "https://example.com/repo.git", "")
	s.Require().NoError(err)
	r.SetCheckCertificate(false)

	var progress bytes.Buffer
	r.SetCallbacks(Callbacks{Progress: &progress})

	s.Require().NoError(r.Connect(context.Background(), plumbing.Fetch))
	s.True(r.Connected())
	s.Equal("remote: Counting objects: 3, done.\n", progress.String())
	s.Equal(TransferProgress{ReceivedBytes: 128, AdvertisedReferences: 2}, r.Stats())

	call := s.Transport.LastCall()
	s.Equal("example.com", call.Endpoint.Host)
	s.Equal(plumbing.Fetch, call.Options.Direction)
	s.True(call.Options.InsecureSkipTLS)
	s.Same(r.cancel, call.Options.Cancel)

	entries, err := r.Advertised()
	s.Require().NoError(err)
	s.Len(entries, 3)

	s.NoError(r.Disconnect())
	s.False(r.Connected())
	s.NoError(r.Disconnect())
	s.Equal(1, s.Transport.Connections()[0].Closes())
}

func (s *RemoteSuite) TestConnectPushURL() {
	r, err := New(s.Repo, "origin", "https://example.com/repo.git", "")
	s.Require().NoError(err)
	r.SetPushURL("ssh://git@push.example.com/repo.git")

	s.Require().NoError(r.Connect(context.Background(), plumbing.Push))
	call := s.Transport.LastCall()
	s.Equal("push.example.com", call.Endpoint.Host)
	s.Equal(plumbing.Push, call.Options.Direction)
	s.False(call.Options.InsecureSkipTLS)
}

func (s *RemoteSuite) TestConnectError() {
	s.Transport.Err = transport.ErrRepositoryNotFound

	r, err := New(s.Repo, "origin", "https://example.com/repo.git", "")
	s.Require().NoError(err)

	s.ErrorIs(r.Connect(context.Background(), plumbing.Fetch), transport.ErrRepositoryNotFound)
	s.False(r.Connected())
	s.Nil(r.conn)

	_, err = r.Advertised()
	s.ErrorIs(err, ErrNotConnected)
}

func (s *RemoteSuite) TestConnectTwiceDisconnectsFirst() {
	r, err := New(s.Repo, "origin", "https://example.com/repo.git", "")
	s.Require().NoError(err)

	s.Require().NoError(r.Connect(context.Background(), plumbing.Fetch))
	s.Require().NoError(r.Connect(context.Background(), plumbing.Fetch))

	conns := s.Transport.Connections()
	s.Require().Len(conns, 2)
	s.False(conns[0].Connected())
	s.True(conns[1].Connected())
}

func (s *RemoteSuite) TestConnectClearsStop() {
	r, err := New(s.Repo, "origin", "https://example.com/repo.git", "")
	s.Require().NoError(err)

	r.Stop()
	s.Require().NoError(r.Connect(context.Background(), plumbing.Fetch))

	r.Stop()
	s.True(s.Transport.LastCall().Options.Cancel.IsCanceled())
}

func (s *RemoteSuite) TestSetCallbacksWhileConnected() {
	s.Transport.Progress = "remote: hello\n"

	r, err := New(s.Repo, "origin", "https://example.com/repo.git", "")
	s.Require().NoError(err)
	s.Require().NoError(r.Connect(context.Background(), plumbing.Fetch))

	var progress bytes.Buffer
	r.SetCallbacks(Callbacks{Progress: &progress})

	sink := s.Transport.LastCall().Options.Progress
	_, err = sink.Write([]byte("remote: done\n"))
	s.NoError(err)
	s.Equal("remote: done\n", progress.String())
}

func (s *RemoteSuite) TestList() {
	s.Transport.Entries = []*packp.Entry{
		transporttest.Comment("# service=git-upload-pack"),
		{Type: packp.EntryFlush},
		transporttest.Ref("HEAD", hashX),
		transporttest.Ref("refs/heads/master", hashX),
		transporttest.Ref("refs/tags/v1.0.0", hashY),
		{Type: packp.EntryShallow, Hash: plumbing.NewHash(hashZ)},
	}

	r, err := New(s.Repo, "origin", "https://example.com/repo.git", "")
	s.Require().NoError(err)

	s.ErrorIs(r.List(func(*plumbing.Reference) error { return nil }), ErrNotConnected)
	s.Require().NoError(r.Connect(context.Background(), plumbing.Fetch))

	var names []string
	s.NoError(r.List(func(ref *plumbing.Reference) error {
		names = append(names, ref.Name().String())
		return nil
	}))
	s.Equal([]string{"HEAD", "refs/heads/master", "refs/tags/v1.0.0"}, names)

	names = nil
	s.NoError(r.List(func(ref *plumbing.Reference) error {
		names = append(names, ref.Name().String())
		return storer.ErrStop
	}))
	s.Equal([]string{"HEAD"}, names)

	stop := errors.New("stop")
	err = r.List(func(*plumbing.Reference) error { return stop })
	s.ErrorIs(err, ErrUserCancelled)
	s.ErrorIs(err, stop)
}

func (s *RemoteSuite) TestClose() {
	r, err := New(s.Repo, "origin", "https://example.com/repo.git", "")
	s.Require().NoError(err)
	s.NoError(r.Close())

	s.Require().NoError(r.Connect(context.Background(), plumbing.Fetch))
	s.NoError(r.Close())
	s.False(r.Connected())
	s.NoError(r.Close())
}

// failingConfigStorage fails the reads of the given configuration keys.
type failingConfigStorage struct {
	*memory.Storage
	keys map[string]error
}

func (s *failingConfigStorage) Config() config.ConfigStorer {
	return &failingConfig{ConfigStorer: s.Storage.Config(), keys: s.keys}
}

type failingConfig struct {
	config.ConfigStorer
	keys map[string]error
}

func (c *failingConfig) GetString(key string) (string, error) {
	if err, ok := c.keys[key]; ok {
		return "", err
	}

	return c.ConfigStorer.GetString(key)
}

func (c *failingConfig) SetString(key, value string) error {
	if err, ok := c.keys[key]; ok {
		return err
	}

	return c.ConfigStorer.SetString(key, value)
}
