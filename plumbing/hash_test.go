package plumbing

import (
	. "gopkg.in/check.v1"
)

type HashSuite struct{}

var _ = Suite(&HashSuite{})

func (s *HashSuite) TestComputeHash(c *C) {
	hash := ComputeHash(BlobObject, []byte(""))
	c.Assert(hash.String(), Equals, "e69de29bb2d1d6434b8b29ae775ad8c2e48c5391")

	hash = ComputeHash(BlobObject, []byte("Hello, World!\n"))
	c.Assert(hash.String(), Equals, "8ab686eafeb1f44702738c8b0f24f2567c36da6d")
}

func (s *HashSuite) TestNewHash(c *C) {
	hash := ComputeHash(BlobObject, []byte("Hello, World!\n"))
	c.Assert(hash, Equals, NewHash(hash.String()))
}

func (s *HashSuite) TestFromHex(c *C) {
	_, ok := FromHex("8ab686eafeb1f44702738c8b0f24f2567c36da6d")
	c.Assert(ok, Equals, true)

	_, ok = FromHex("8ab686eafeb1f44702738c8b0f24f2567c36da6")
	c.Assert(ok, Equals, false)

	_, ok = FromHex("zab686eafeb1f44702738c8b0f24f2567c36da6d")
	c.Assert(ok, Equals, false)
}

func (s *HashSuite) TestIsZero(c *C) {
	hash := NewHash("foo")
	c.Assert(hash.IsZero(), Equals, true)

	hash = NewHash("8ab686eafeb1f44702738c8b0f24f2567c36da6d")
	c.Assert(hash.IsZero(), Equals, false)
}

func (s *HashSuite) TestHashesSort(c *C) {
	i := []Hash{
		NewHash("2222222222222222222222222222222222222222"),
		NewHash("1111111111111111111111111111111111111111"),
	}

	HashesSort(i)

	c.Assert(i[0], Equals, NewHash("1111111111111111111111111111111111111111"))
	c.Assert(i[1], Equals, NewHash("2222222222222222222222222222222222222222"))
}

func (s *HashSuite) TestParseObjectType(c *C) {
	for s, e := range map[string]ObjectType{
		"commit": CommitObject,
		"tree":   TreeObject,
		"blob":   BlobObject,
		"tag":    TagObject,
	} {
		t, err := ParseObjectType(s)
		c.Assert(err, IsNil)
		c.Assert(e, Equals, t)
		c.Assert(t.Valid(), Equals, true)
	}

	t, err := ParseObjectType("foo")
	c.Assert(err, Equals, ErrInvalidType)
	c.Assert(t, Equals, InvalidObject)
}
