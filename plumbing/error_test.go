package plumbing

import (
	"errors"

	. "gopkg.in/check.v1"
)

type ErrorSuite struct{}

var _ = Suite(&ErrorSuite{})

func (s *ErrorSuite) TestPermanentError(c *C) {
	c.Assert(NewPermanentError(nil), IsNil)

	cause := errors.New("malformed url")
	err := error(NewPermanentError(cause))
	c.Assert(err, ErrorMatches, "permanent client error: malformed url")
	c.Assert(errors.Is(err, cause), Equals, true)

	var pe *PermanentError
	c.Assert(errors.As(err, &pe), Equals, true)
}

func (s *ErrorSuite) TestUnexpectedError(c *C) {
	c.Assert(NewUnexpectedError(nil), IsNil)

	cause := errors.New("502 bad gateway")
	err := error(NewUnexpectedError(cause))
	c.Assert(err, ErrorMatches, "unexpected client error: 502 bad gateway")
	c.Assert(errors.Is(err, cause), Equals, true)
}
