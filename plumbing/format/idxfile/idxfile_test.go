package idxfile

import (
	"bytes"
	"io"
	"testing"

	fixtures "github.com/go-git/go-git-fixtures/v4"
	"github.com/stretchr/testify/suite"

	"github.com/go-git/go-remote/plumbing"
)

type IndexSuite struct {
	suite.Suite
}

func TestIndexSuite(t *testing.T) {
	suite.Run(t, new(IndexSuite))
}

func (s *IndexSuite) TestFixtureContains() {
	data, err := io.ReadAll(fixtures.Basic().One().Idx())
	s.Require().NoError(err)

	idx, err := NewReaderAtIndex(newMemFile(data), int64(len(data)))
	s.Require().NoError(err)
	defer idx.Close()

	s.Equal(31, idx.Count())

	for _, h := range []string{
		"6ecf0ef2c2dffb796033e5a02219af86ec6584e5",
		"1669dce138d9b841a518c64b10914d88f5e488ea",
		"e8d3ffab552895c19b9fcf7aa264d277cde33881",
	} {
		ok, err := idx.Contains(plumbing.NewHash(h))
		s.NoError(err)
		s.True(ok, h)
	}

	ok, err := idx.Contains(plumbing.NewHash("ffffffffffffffffffffffffffffffffffffffff"))
	s.NoError(err)
	s.False(ok)

	ok, err = idx.Contains(plumbing.ZeroHash)
	s.NoError(err)
	s.False(ok)
}

func (s *IndexSuite) TestEncodeContains() {
	hashes := []plumbing.Hash{
		plumbing.NewHash("ff00000000000000000000000000000000000000"),
		plumbing.NewHash("0100000000000000000000000000000000000000"),
		plumbing.NewHash("0200000000000000000000000000000000000000"),
		plumbing.NewHash("8000000000000000000000000000000000000000"),
	}

	var buf bytes.Buffer
	s.Require().NoError(Encode(&buf, hashes))

	idx, err := NewReaderAtIndex(newMemFile(buf.Bytes()), int64(buf.Len()))
	s.Require().NoError(err)
	s.Equal(4, idx.Count())

	for _, h := range hashes {
		ok, err := idx.Contains(h)
		s.NoError(err)
		s.True(ok, h.String())
	}

	ok, err := idx.Contains(plumbing.NewHash("0300000000000000000000000000000000000000"))
	s.NoError(err)
	s.False(ok)
}

func (s *IndexSuite) TestInvalid() {
	_, err := NewReaderAtIndex(newMemFile([]byte("foo")), 3)
	s.ErrorIs(err, ErrInvalidIdxFile)

	var buf bytes.Buffer
	s.Require().NoError(Encode(&buf, nil))
	data := buf.Bytes()
	data[0] = 'x'

	_, err = NewReaderAtIndex(newMemFile(data), int64(len(data)))
	s.ErrorIs(err, ErrInvalidIdxFile)
}

type memFile struct {
	*bytes.Reader
	closed bool
}

func newMemFile(data []byte) *memFile {
	return &memFile{Reader: bytes.NewReader(data)}
}

func (f *memFile) Close() error {
	f.closed = true
	return nil
}

func (s *IndexSuite) TestInvalidClosesFile() {
	f := newMemFile([]byte("foo"))
	_, err := NewReaderAtIndex(f, 3)
	s.Error(err)
	s.True(f.closed)
}
