// Package http implements the HTTP transport protocol.
package http

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/golang/groupcache/lru"

	"github.com/go-git/go-remote/plumbing"
	"github.com/go-git/go-remote/plumbing/transport"
	"github.com/go-git/go-remote/utils/trace"
)

func init() {
	transport.Register("http", DefaultCommander)
	transport.Register("https", DefaultCommander)
}

const infoRefsPath = "/info/refs"

// ErrDumbProtocol is returned when the server does not speak the smart
// protocol.
var ErrDumbProtocol = errors.New("dumb http protocol is not supported")

var (
	// defaultTransportCacheSize is the default capacity of the transport
	// objects cache. Caching is turned off by default.
	defaultTransportCacheSize = 0

	// DefaultCommander is the default HTTP commander, which uses a net/http
	// client configured with http.DefaultTransport.
	DefaultCommander = NewCommander(nil)

	// DefaultTransport is the transport built over DefaultCommander.
	DefaultTransport = transport.NewPackTransport(DefaultCommander)
)

// TransportOptions holds user configurable options for the client.
type TransportOptions struct {
	// Client is the http client that the transport will use to make requests.
	// If nil, [http.DefaultTransport] will be used.
	Client *http.Client

	// CacheMaxEntries is the max no. of entries that the transport objects
	// cache will hold at any given point of time. Once full, the least
	// recently used transport is evicted.
	CacheMaxEntries int
}

type client struct {
	client     *http.Client
	transports *lru.Cache
	mutex      sync.Mutex
}

// NewCommander creates a new HTTP commander with a custom net/http client
// and options. If the net/http client is nil, a client configured with
// http.DefaultTransport is used.
//
// Note that HTTP servers cannot always distinguish between private and
// missing repositories, GitHub answers ErrAuthenticationRequired for both.
func NewCommander(opts *TransportOptions) transport.Commander {
	if opts == nil {
		opts = &TransportOptions{
			CacheMaxEntries: defaultTransportCacheSize,
		}
	}

	c := opts.Client
	if c == nil {
		c = &http.Client{
			Transport: http.DefaultTransport,
		}
	}

	cl := &client{client: c}
	if opts.CacheMaxEntries > 0 {
		cl.transports = lru.New(opts.CacheMaxEntries)
	}

	return cl
}

// NewTransport creates a transport over an HTTP commander built with opts.
func NewTransport(opts *TransportOptions) transport.Transport {
	return transport.NewPackTransport(NewCommander(opts))
}

type transportOptions struct {
	insecureSkipTLS bool
	proxyURL        string
}

func (c *client) fetchTransport(opts transportOptions) (*http.Transport, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	t, ok := c.transports.Get(opts)
	if !ok {
		return nil, false
	}

	return t.(*http.Transport), true
}

func (c *client) addTransport(opts transportOptions, t *http.Transport) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.transports.Add(opts, t)
}

func configureTransport(t *http.Transport, ep *transport.Endpoint) error {
	if ep.InsecureSkipTLS {
		if t.TLSClientConfig == nil {
			t.TLSClientConfig = &tls.Config{}
		}

		t.TLSClientConfig.InsecureSkipVerify = true
	}

	if ep.Proxy.URL != "" {
		proxyURL, err := ep.Proxy.FullURL()
		if err != nil {
			return err
		}

		t.Proxy = http.ProxyURL(proxyURL)
	}

	return nil
}

// httpClient returns the client to use for ep, cloning and configuring the
// underlying transport when the endpoint requires it.
func (c *client) httpClient(ep *transport.Endpoint) (*http.Client, error) {
	if !ep.InsecureSkipTLS && ep.Proxy.URL == "" {
		return c.client, nil
	}

	base, ok := c.client.Transport.(*http.Transport)
	if !ok {
		return nil, fmt.Errorf("expected underlying client transport to be of type: %s; got: %s",
			reflect.TypeOf(base), reflect.TypeOf(c.client.Transport))
	}

	opts := transportOptions{insecureSkipTLS: ep.InsecureSkipTLS}
	if ep.Proxy.URL != "" {
		proxyURL, err := ep.Proxy.FullURL()
		if err != nil {
			return nil, err
		}

		opts.proxyURL = proxyURL.String()
	}

	var t *http.Transport
	if c.transports != nil {
		t, ok = c.fetchTransport(opts)
	}

	if t == nil {
		t = base.Clone()
		if err := configureTransport(t, ep); err != nil {
			return nil, err
		}

		if c.transports != nil {
			c.addTransport(opts, t)
		}
	}

	return &http.Client{
		Transport:     t,
		CheckRedirect: c.client.CheckRedirect,
		Jar:           c.client.Jar,
		Timeout:       c.client.Timeout,
	}, nil
}

func (c *client) Command(ctx context.Context, service string, ep *transport.Endpoint, auth transport.AuthMethod) (transport.Command, error) {
	hc, err := c.httpClient(ep)
	if err != nil {
		return nil, err
	}

	cmd := &command{
		ctx:     ctx,
		client:  hc,
		service: service,
		ep:      ep,
	}

	if auth != nil {
		a, ok := auth.(AuthMethod)
		if !ok {
			return nil, transport.ErrInvalidAuthMethod
		}

		cmd.auth = a
	} else if a := basicAuthFromEndpoint(ep); a != nil {
		cmd.auth = a
	}

	return cmd, nil
}

// command performs the reference discovery request of the smart protocol.
// The body of the response is the standard output of the command.
type command struct {
	ctx     context.Context
	client  *http.Client
	service string
	ep      *transport.Endpoint
	auth    AuthMethod

	res    *http.Response
	stdout responseReader
}

func (c *command) StderrPipe() (io.Reader, error) {
	return bytes.NewReader(nil), nil
}

func (c *command) StdinPipe() (io.WriteCloser, error) {
	return nopWriteCloser{io.Discard}, nil
}

func (c *command) StdoutPipe() (io.Reader, error) {
	return &c.stdout, nil
}

func (c *command) Start() error {
	u := fmt.Sprintf("%s%s?service=%s", c.ep.String(), infoRefsPath, c.service)
	req, err := http.NewRequestWithContext(c.ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}

	applyHeaders(req, c.ep, c.auth)
	trace.HTTP.Printf("http: GET %s", req.URL.Redacted())

	res, err := doRequest(c.client, req)
	if err != nil {
		return err
	}

	if ct := res.Header.Get("Content-Type"); ct != fmt.Sprintf("application/x-%s-advertisement", c.service) {
		_ = res.Body.Close()
		return fmt.Errorf("%w: unexpected content-type %q", ErrDumbProtocol, ct)
	}

	modifyRedirect(res, c.ep)
	c.res = res
	c.stdout.body = res.Body
	return nil
}

func (c *command) Close() error {
	if c.res == nil {
		return nil
	}

	err := c.res.Body.Close()
	c.res = nil
	return err
}

type responseReader struct {
	body io.Reader
}

func (r *responseReader) Read(p []byte) (int, error) {
	if r.body == nil {
		return 0, io.EOF
	}

	return r.body.Read(p)
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func applyHeaders(req *http.Request, ep *transport.Endpoint, auth AuthMethod) {
	req.Header.Add("User-Agent", "git/1.0")
	req.Header.Add("Host", ep.Host)

	if auth != nil {
		auth.SetAuth(req)
	}
}

// doRequest performs a request to the server and returns the response when
// the status code is a success, or the matching error.
func doRequest(client *http.Client, req *http.Request) (*http.Response, error) {
	res, err := client.Do(req)
	if err != nil {
		return nil, err
	}

	if err := checkError(res); err != nil {
		_ = res.Body.Close()
		return nil, err
	}

	return res, nil
}

// modifyRedirect updates the endpoint with the location the request was
// redirected to.
func modifyRedirect(res *http.Response, ep *transport.Endpoint) {
	if res.Request == nil {
		return
	}

	r := res.Request
	if !strings.HasSuffix(r.URL.Path, infoRefsPath) {
		return
	}

	h, p, err := net.SplitHostPort(r.URL.Host)
	if err != nil {
		h = r.URL.Host
	}
	if p != "" {
		port, err := strconv.Atoi(p)
		if err == nil {
			ep.Port = port
		}
	}

	ep.Host = h
	ep.Protocol = r.URL.Scheme
	ep.Path = r.URL.Path[:len(r.URL.Path)-len(infoRefsPath)]
}

// AuthMethod is concrete implementation of common.AuthMethod for HTTP services
type AuthMethod interface {
	transport.AuthMethod
	SetAuth(r *http.Request)
}

func basicAuthFromEndpoint(ep *transport.Endpoint) *BasicAuth {
	u := ep.User
	if u == "" {
		return nil
	}

	return &BasicAuth{u, ep.Password}
}

// BasicAuth represent a HTTP basic auth
type BasicAuth struct {
	Username, Password string
}

func (a *BasicAuth) SetAuth(r *http.Request) {
	if a == nil {
		return
	}

	r.SetBasicAuth(a.Username, a.Password)
}

// Name is name of the auth
func (a *BasicAuth) Name() string {
	return "http-basic-auth"
}

func (a *BasicAuth) String() string {
	masked := "*******"
	if a.Password == "" {
		masked = "<empty>"
	}

	return fmt.Sprintf("%s - %s:%s", a.Name(), a.Username, masked)
}

// TokenAuth implements an http.AuthMethod that can be used with http transport
// to authenticate with HTTP token authentication (also known as bearer
// authentication).
//
// IMPORTANT: If you are looking to use OAuth tokens with popular servers (e.g.
// GitHub, Bitbucket, GitLab) you should use BasicAuth instead. These servers
// use basic HTTP authentication, with the OAuth token as user or password.
type TokenAuth struct {
	Token string
}

func (a *TokenAuth) SetAuth(r *http.Request) {
	if a == nil {
		return
	}
	r.Header.Add("Authorization", fmt.Sprintf("Bearer %s", a.Token))
}

// Name is name of the auth
func (a *TokenAuth) Name() string {
	return "http-token-auth"
}

func (a *TokenAuth) String() string {
	masked := "*******"
	if a.Token == "" {
		masked = "<empty>"
	}
	return fmt.Sprintf("%s - %s", a.Name(), masked)
}

// Err is a dedicated error to return errors based on status code
type Err struct {
	URL    *url.URL
	Status int
	Reason string
}

// checkError returns a new Err based on a http response.
func checkError(r *http.Response) error {
	if r.StatusCode >= http.StatusOK && r.StatusCode < http.StatusMultipleChoices {
		return nil
	}

	var reason string

	// If a response message is present, add it to error
	var messageBuffer bytes.Buffer
	if r.Body != nil {
		messageLength, _ := messageBuffer.ReadFrom(r.Body)
		if messageLength > 0 {
			reason = strings.TrimSpace(messageBuffer.String())
		}
	}

	e := &Err{
		URL:    r.Request.URL,
		Status: r.StatusCode,
		Reason: reason,
	}

	switch r.StatusCode {
	case http.StatusUnauthorized:
		return transport.NewAuthenticationRequiredError(e)
	case http.StatusForbidden:
		return transport.NewAuthorizationFailedError(e)
	case http.StatusNotFound:
		return transport.NewRepositoryNotFoundError(e)
	}

	return plumbing.NewUnexpectedError(e)
}

// StatusCode returns the status code of the response
func (e *Err) StatusCode() int {
	return e.Status
}

func (e *Err) Error() string {
	format := "unexpected requesting %q status code: %d"
	if e.Reason != "" {
		return fmt.Sprintf(format+": %s", e.URL.Redacted(), e.Status, e.Reason)
	}
	return fmt.Sprintf(format, e.URL.Redacted(), e.Status)
}
