package transport_test

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/go-git/go-remote/plumbing/transport"
	_ "github.com/go-git/go-remote/plumbing/transport/ssh" // ssh transport
)

func TestSuiteRegistry(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

type RegistrySuite struct {
	suite.Suite
}

func (s *RegistrySuite) TestGetSSH() {
	e, err := transport.NewEndpoint("ssh://github.com/go-git/go-git")
	s.Require().NoError(err)

	output, err := transport.Get(e.Protocol)
	s.Require().NoError(err)
	s.NotNil(output)
}

func (s *RegistrySuite) TestGetUnknown() {
	e, err := transport.NewEndpoint("unknown://github.com/go-git/go-git")
	s.Require().NoError(err)

	_, err = transport.Get(e.Protocol)
	s.Error(err)
}

func (s *RegistrySuite) TestGetNil() {
	transport.Register("newscheme", nil)
	defer transport.Unregister("newscheme")

	e, err := transport.NewEndpoint("newscheme://github.com/go-git/go-git")
	s.Require().NoError(err)

	_, err = transport.Get(e.Protocol)
	s.ErrorContains(err, "malformed commander")
}

func (s *RegistrySuite) TestUnregister() {
	transport.Register("newscheme", transport.Commander(nil))
	transport.Unregister("newscheme")

	_, err := transport.Get("newscheme")
	s.ErrorContains(err, "unsupported scheme")
}
