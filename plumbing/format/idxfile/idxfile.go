// Package idxfile reads version 2 pack index files, enough to answer whether
// a pack holds an object.
package idxfile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/go-git/go-remote/plumbing"
)

const (
	// VersionSupported is the only idx version supported.
	VersionSupported = 2

	headerSize = 8
	fanoutSize = 256 * 4
)

var (
	// ErrInvalidIdxFile is returned when the idx file has an invalid format
	ErrInvalidIdxFile = errors.New("invalid idx file")

	idxHeader = []byte{255, 't', 'O', 'c'}
)

// IndexFile is the file an index is read from. billy.File satisfies it.
type IndexFile interface {
	io.ReaderAt
	io.Closer
}

// ReaderAtIndex looks objects up in an idx file without loading it in
// memory, only the fanout table is cached.
type ReaderAtIndex struct {
	r      io.ReaderAt
	closer io.Closer
	fanout [256]uint32
}

// NewReaderAtIndex reads the header of f, of the given size, and returns an
// index over it. The file is closed by Close, or right away when it is not a
// valid index.
func NewReaderAtIndex(f IndexFile, size int64) (*ReaderAtIndex, error) {
	idx := &ReaderAtIndex{r: f, closer: f}
	if err := idx.init(size); err != nil {
		_ = f.Close()
		return nil, err
	}

	return idx, nil
}

func (idx *ReaderAtIndex) init(size int64) error {
	if size < headerSize+fanoutSize+2*plumbing.HashSize {
		return fmt.Errorf("%w: file too small", ErrInvalidIdxFile)
	}

	buf := make([]byte, headerSize+fanoutSize)
	if _, err := idx.r.ReadAt(buf, 0); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidIdxFile, err)
	}

	if !bytes.Equal(idxHeader, buf[:len(idxHeader)]) {
		return fmt.Errorf("%w: invalid signature", ErrInvalidIdxFile)
	}

	if v := binary.BigEndian.Uint32(buf[len(idxHeader):headerSize]); v != VersionSupported {
		return fmt.Errorf("%w: unsupported version %d", ErrInvalidIdxFile, v)
	}

	for i := range idx.fanout {
		idx.fanout[i] = binary.BigEndian.Uint32(buf[headerSize+i*4:])
	}

	return nil
}

// Count returns the number of objects in the index.
func (idx *ReaderAtIndex) Count() int {
	return int(idx.fanout[255])
}

// Contains reports whether the pack holds the object h.
func (idx *ReaderAtIndex) Contains(h plumbing.Hash) (bool, error) {
	first := int(h[0])
	lo := 0
	if first > 0 {
		lo = int(idx.fanout[first-1])
	}
	hi := int(idx.fanout[first])

	var readErr error
	name := make([]byte, plumbing.HashSize)
	pos := sort.Search(hi-lo, func(i int) bool {
		off := int64(headerSize + fanoutSize + (lo+i)*plumbing.HashSize)
		if _, err := idx.r.ReadAt(name, off); err != nil {
			readErr = err
			return true
		}

		return bytes.Compare(name, h[:]) >= 0
	})

	if readErr != nil {
		return false, readErr
	}

	if lo+pos >= hi {
		return false, nil
	}

	off := int64(headerSize + fanoutSize + (lo+pos)*plumbing.HashSize)
	if _, err := idx.r.ReadAt(name, off); err != nil {
		return false, err
	}

	return bytes.Equal(name, h[:]), nil
}

// Close closes the underlying file.
func (idx *ReaderAtIndex) Close() error {
	return idx.closer.Close()
}
