package filesystem

import (
	"errors"
	"sync"

	"github.com/golang/groupcache/lru"

	"github.com/go-git/go-remote/plumbing"
	"github.com/go-git/go-remote/plumbing/format/idxfile"
	"github.com/go-git/go-remote/storage/filesystem/dotgit"
	"github.com/go-git/go-remote/utils/trace"
)

// DefaultObjectCacheSize is the number of object ids an ObjectStorage
// remembers as present.
const DefaultObjectCacheSize = 1024

// ObjectStorage answers existence queries from loose objects and pack
// indexes, and writes new objects as loose files.
type ObjectStorage struct {
	m   sync.Mutex
	dir *dotgit.DotGit

	// known holds ids found to be present, present objects never go away.
	known *lru.Cache
	index map[plumbing.Hash]*idxfile.ReaderAtIndex
}

// NewObjectStorage returns an ObjectStorage over dir remembering up to
// cacheSize present objects.
func NewObjectStorage(dir *dotgit.DotGit, cacheSize int) *ObjectStorage {
	if cacheSize <= 0 {
		cacheSize = DefaultObjectCacheSize
	}

	return &ObjectStorage{
		dir:   dir,
		known: lru.New(cacheSize),
		index: make(map[plumbing.Hash]*idxfile.ReaderAtIndex),
	}
}

func (s *ObjectStorage) HasEncodedObject(h plumbing.Hash) error {
	s.m.Lock()
	defer s.m.Unlock()

	if _, ok := s.known.Get(h); ok {
		return nil
	}

	ok, err := s.dir.HasObject(h)
	if err != nil {
		return err
	}

	if !ok {
		if ok, err = s.packed(h); err != nil {
			return err
		}
	}

	if !ok {
		return plumbing.ErrObjectNotFound
	}

	s.known.Add(h, struct{}{})
	return nil
}

func (s *ObjectStorage) packed(h plumbing.Hash) (bool, error) {
	packs, err := s.dir.ObjectPacks()
	if err != nil {
		return false, err
	}

	for _, pack := range packs {
		idx, ok := s.index[pack]
		if !ok {
			idx, err = s.dir.ObjectPackIdx(pack)
			if errors.Is(err, dotgit.ErrIdxNotFound) {
				continue
			}

			if err != nil {
				return false, err
			}

			trace.Performance.Printf("performance: opened index of pack %s, %d objects", pack, idx.Count())
			s.index[pack] = idx
		}

		found, err := idx.Contains(h)
		if err != nil {
			return false, err
		}

		if found {
			return true, nil
		}
	}

	return false, nil
}

func (s *ObjectStorage) SetEncodedObject(t plumbing.ObjectType, content []byte) (plumbing.Hash, error) {
	if !t.Valid() {
		return plumbing.ZeroHash, plumbing.ErrInvalidType
	}

	s.m.Lock()
	defer s.m.Unlock()

	h, err := s.dir.WriteObject(t, content)
	if err != nil {
		return plumbing.ZeroHash, err
	}

	s.known.Add(h, struct{}{})
	return h, nil
}

// Close closes the pack indexes opened so far.
func (s *ObjectStorage) Close() error {
	s.m.Lock()
	defer s.m.Unlock()

	var firstErr error
	for pack, idx := range s.index {
		if err := idx.Close(); err != nil && firstErr == nil {
			firstErr = err
		}

		delete(s.index, pack)
	}

	return firstErr
}
