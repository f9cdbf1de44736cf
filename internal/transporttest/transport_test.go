package transporttest

import (
	"bytes"
	"context"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/go-git/go-remote/plumbing"
	"github.com/go-git/go-remote/plumbing/transport"
)

type TransportSuite struct {
	suite.Suite
	ep *transport.Endpoint
}

func TestTransportSuite(t *testing.T) {
	suite.Run(t, new(TransportSuite))
}

func (s *TransportSuite) SetupTest() {
	var err error
	s.ep, err = transport.NewEndpoint("https://example.com/repo.git")
	s.Require().NoError(err)
}

func (s *TransportSuite) TestConnect() {
	head := Ref("HEAD", "6ecf0ef2c2dffb796033e5a02219af86ec6584e5")
	head.Capabilities = []string{"agent=test"}
	t := New(Comment("# service=git-upload-pack"), head)
	t.Progress = "remote: counting objects\n"
	t.ReceivedBytes = 42

	var progress bytes.Buffer
	conn, err := t.Connect(context.Background(), s.ep, &transport.ConnectOptions{
		Direction: plumbing.Push,
		Progress:  &progress,
	})
	s.Require().NoError(err)

	s.True(conn.Connected())
	s.Len(conn.AdvertisedReferences(), 2)
	s.Equal([]string{"agent=test"}, conn.Capabilities())
	s.Equal(int64(42), conn.ReceivedBytes())
	s.Equal("remote: counting objects\n", progress.String())

	s.Equal(plumbing.Push, t.LastCall().Options.Direction)
	s.Equal(s.ep, t.LastCall().Endpoint)

	s.NoError(conn.Close())
	s.NoError(conn.Close())
	s.False(conn.Connected())
	s.Equal(2, t.Connections()[0].Closes())
}

func (s *TransportSuite) TestConnectError() {
	t := &Transport{Err: transport.ErrRepositoryNotFound}

	conn, err := t.Connect(context.Background(), s.ep, nil)
	s.ErrorIs(err, transport.ErrRepositoryNotFound)
	s.Nil(conn)
	s.Len(t.Calls(), 1)
	s.Empty(t.Connections())
}

func (s *TransportSuite) TestConnectCanceled() {
	token := &transport.CancelToken{}
	token.Cancel()

	_, err := New().Connect(context.Background(), s.ep, &transport.ConnectOptions{Cancel: token})
	s.ErrorIs(err, transport.ErrCanceled)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = New().Connect(ctx, s.ep, nil)
	s.True(errors.Is(err, context.Canceled))
}

func (s *TransportSuite) TestListenTCP() {
	l := ListenTCP(s.T())
	s.NotZero(l.Addr().(*net.TCPAddr).Port)
}
