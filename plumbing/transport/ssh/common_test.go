package ssh

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/armon/go-socks5"
	gssh "github.com/gliderlabs/ssh"
	"github.com/stretchr/testify/suite"
	stdssh "golang.org/x/crypto/ssh"

	"github.com/go-git/go-remote/internal/transporttest"
	"github.com/go-git/go-remote/plumbing/format/pktline"
	"github.com/go-git/go-remote/plumbing/transport"
)

const headHash = "6ecf0ef2c2dffb796033e5a02219af86ec6584e5"

func TestSuiteCommon(t *testing.T) {
	suite.Run(t, new(SuiteCommon))
}

type SuiteCommon struct {
	suite.Suite
	port     int
	commands chan string
	config   sshConfig
}

func (s *SuiteCommon) SetupSuite() {
	s.config = DefaultSSHConfig
	DefaultSSHConfig = nil

	l := transporttest.ListenTCP(s.T())

	s.commands = make(chan string, 16)
	srv := &gssh.Server{
		Handler: s.handle,
		PasswordHandler: func(_ gssh.Context, pass string) bool {
			return pass == "secret"
		},
	}

	go func() { _ = srv.Serve(l) }()
	s.T().Cleanup(func() { _ = srv.Close() })

	s.port = l.Addr().(*net.TCPAddr).Port
}

func (s *SuiteCommon) TearDownSuite() {
	DefaultSSHConfig = s.config
}

func (s *SuiteCommon) handle(sess gssh.Session) {
	s.commands <- sess.RawCommand()

	if sess.RawCommand() != "git-upload-pack '/repo.git'" {
		fmt.Fprintf(sess.Stderr(), "fatal: '%s' does not appear to be a git repository\n", sess.RawCommand())
		_ = sess.Exit(128)
		return
	}

	_, _ = pktline.WritePacketf(sess, "%s HEAD\x00multi_ack\n", headHash)
	_, _ = pktline.WritePacketf(sess, "%s refs/heads/master\n", headHash)
	_ = pktline.WriteFlush(sess)

	_, _ = io.Copy(io.Discard, sess)
	_ = sess.Exit(0)
}

func (s *SuiteCommon) endpoint(path string) *transport.Endpoint {
	ep, err := transport.NewEndpoint(fmt.Sprintf("ssh://git@127.0.0.1:%d%s", s.port, path))
	s.Require().NoError(err)
	return ep
}

func (s *SuiteCommon) auth() *Password {
	return &Password{
		User:                  "git",
		Password:              "secret",
		HostKeyCallbackHelper: HostKeyCallbackHelper{HostKeyCallback: stdssh.InsecureIgnoreHostKey()},
	}
}

func (s *SuiteCommon) TestConnect() {
	conn, err := NewTransport(nil).Connect(context.Background(), s.endpoint("/repo.git"), &transport.ConnectOptions{
		Auth: s.auth(),
	})
	s.Require().NoError(err)
	s.Equal("git-upload-pack '/repo.git'", <-s.commands)

	refs := conn.AdvertisedReferences()
	s.Require().Len(refs, 2)
	s.Equal("HEAD", refs[0].Name)
	s.Equal("refs/heads/master", refs[1].Name)
	s.Equal([]string{"multi_ack"}, conn.Capabilities())
	s.Greater(conn.ReceivedBytes(), int64(0))

	s.NoError(conn.Close())
}

func (s *SuiteCommon) TestConnectRepositoryNotFound() {
	_, err := NewTransport(nil).Connect(context.Background(), s.endpoint("/missing.git"), &transport.ConnectOptions{
		Auth: s.auth(),
	})
	s.ErrorIs(err, transport.ErrRepositoryNotFound)
	<-s.commands
}

func (s *SuiteCommon) TestConnectWithConfigOverride() {
	config := &stdssh.ClientConfig{
		HostKeyCallback: stdssh.InsecureIgnoreHostKey(),
		Timeout:         10 * time.Second,
	}

	conn, err := NewTransport(config).Connect(context.Background(), s.endpoint("/repo.git"), &transport.ConnectOptions{
		Auth: &Password{User: "git", Password: "secret"},
	})
	s.Require().NoError(err)
	<-s.commands
	s.NoError(conn.Close())
}

func (s *SuiteCommon) TestConnectWrongPassword() {
	a := s.auth()
	a.Password = "wrong"

	_, err := NewTransport(nil).Connect(context.Background(), s.endpoint("/repo.git"), &transport.ConnectOptions{
		Auth: a,
	})
	s.ErrorContains(err, "unable to authenticate")
}

func (s *SuiteCommon) TestConnectInvalidAuthMethod() {
	_, err := NewCommander(nil).Command(context.Background(), transport.UploadPackServiceName,
		s.endpoint("/repo.git"), invalidAuth{})
	s.ErrorIs(err, transport.ErrInvalidAuthMethod)
}

var socksProxiedRequests int32

type testProxyRule struct{}

func (testProxyRule) Allow(ctx context.Context, _ *socks5.Request) (context.Context, bool) {
	atomic.AddInt32(&socksProxiedRequests, 1)
	return ctx, true
}

func (s *SuiteCommon) TestConnectThroughProxy() {
	l := transporttest.ListenTCP(s.T())

	socksServer, err := socks5.New(&socks5.Config{
		AuthMethods: []socks5.Authenticator{socks5.UserPassAuthenticator{
			Credentials: socks5.StaticCredentials{"user": "pass"},
		}},
		Rules: testProxyRule{},
	})
	s.Require().NoError(err)
	go func() { _ = socksServer.Serve(l) }()

	ep := s.endpoint("/repo.git")
	ep.Proxy = transport.ProxyOptions{
		URL:      fmt.Sprintf("socks5://127.0.0.1:%d", l.Addr().(*net.TCPAddr).Port),
		Username: "user",
		Password: "pass",
	}

	conn, err := NewTransport(nil).Connect(context.Background(), ep, &transport.ConnectOptions{
		Auth: s.auth(),
	})
	s.Require().NoError(err)
	<-s.commands
	s.NoError(conn.Close())

	s.True(atomic.LoadInt32(&socksProxiedRequests) > 0)
}

func (s *SuiteCommon) TestEndpointToCommand() {
	ep, err := transport.NewEndpoint("git@github.com:user/repo.git")
	s.Require().NoError(err)
	s.Equal("git-upload-pack 'user/repo.git'", endpointToCommand(transport.UploadPackServiceName, ep))
}

func (s *SuiteCommon) TestOverrideConfig() {
	config := &stdssh.ClientConfig{
		User:            "foo",
		Auth:            []stdssh.AuthMethod{stdssh.Password("yourpassword")},
		HostKeyCallback: stdssh.FixedHostKey(nil),
	}

	target := &stdssh.ClientConfig{User: "bar", Timeout: time.Second}
	overrideConfig(config, target)

	s.Equal("foo", target.User)
	s.NotNil(target.Auth)
	s.NotNil(target.HostKeyCallback)
	s.Equal(time.Second, target.Timeout)
}

func (s *SuiteCommon) TestOverrideConfigKeep() {
	config := &stdssh.ClientConfig{User: "foo"}
	target := &stdssh.ClientConfig{Auth: []stdssh.AuthMethod{stdssh.Password("pass")}}

	overrideConfig(config, target)
	s.Equal("foo", target.User)
	s.Len(target.Auth, 1)
}

type mockSSHConfig struct {
	Values map[string]map[string]string
}

func (c *mockSSHConfig) Get(alias, key string) string {
	a, ok := c.Values[alias]
	if !ok {
		return c.Values["*"][key]
	}

	return a[key]
}

func (s *SuiteCommon) TestGetHostWithPortFromSSHConfig() {
	DefaultSSHConfig = &mockSSHConfig{map[string]map[string]string{
		"github.com": {
			"Hostname": "foo.local",
			"Port":     "42",
		},
	}}
	defer func() { DefaultSSHConfig = nil }()

	cmd := &command{endpoint: &transport.Endpoint{Host: "github.com", Port: 22}}
	s.Equal("foo.local:42", cmd.getHostWithPort())

	cmd = &command{endpoint: &transport.Endpoint{Host: "example.com"}}
	s.Equal("example.com:22", cmd.getHostWithPort())
}

func (s *SuiteCommon) TestNewKnownHostsDb() {
	file := filepath.Join(s.T().TempDir(), "known_hosts")
	s.Require().NoError(os.WriteFile(file, []byte(knownHostsRSA), 0o600))

	db, err := newKnownHostsDb(file)
	s.Require().NoError(err)

	algos := db.HostKeyAlgorithms("github.com:22")
	s.Contains(algos, stdssh.KeyAlgoRSASHA256)
}

func (s *SuiteCommon) TestNewKnownHostsDbMissing() {
	_, err := newKnownHostsDb(filepath.Join(s.T().TempDir(), "missing"))
	s.ErrorContains(err, "unable to find any valid known_hosts file")
}

type invalidAuth struct{}

func (invalidAuth) Name() string   { return "invalid" }
func (invalidAuth) String() string { return "invalid" }

const knownHostsRSA = `github.com ssh-rsa AAAAB3NzaC1yc2EAAAABIwAAAQEAq2A7hRGmdnm9tUDbO9IDSwBK6TbQa+PXYPCPy6rbTrTtw7PHkccKrpp0yVhp5HdEIcKr6pLlVDBfOLX9QUsyCOV0wzfjIJNlGEYsdlLJizHhbn2mUjvSAHQqZETYP81eFzLQNnPHt4EVVUh7VfDESU84KezmD5QlWpXLmvU31/yMf+Se8xhHTvKSCZIFImWwoG6mbUoWf9nzpIoaSjB+weqqUUmpaaasXVal72J+UX2B+2RPW3RcT0eOzQgqlJL3RKrTJvdsjE3JEAvGq3lGHSZXy28G3skua2SmVi/w4yCE6gbODqnTWlg7+wC604ydGXA8VJiS5ap43JXiUFFAaQ==
`
