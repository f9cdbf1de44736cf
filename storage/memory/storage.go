// Package memory is a storage backend base on memory
package memory

import (
	"sync"

	"github.com/emirpasic/gods/maps/treemap"

	"github.com/go-git/go-remote/config"
	"github.com/go-git/go-remote/internal/reference"
	"github.com/go-git/go-remote/plumbing"
	"github.com/go-git/go-remote/plumbing/storer"
	"github.com/go-git/go-remote/storage"
)

var _ storage.Storer = &Storage{}

// Storage is an implementation of git.Storer that stores data on memory, being
// ephemeral. The use of this storage should be done in controlled environments,
// since the representation in memory of some repository can fill the machine
// memory. in the other hand this storage has the best performance.
type Storage struct {
	ObjectStorage
	ReferenceStorage
	config *config.Raw
}

// NewStorage returns a new Storage base on memory
func NewStorage() *Storage {
	return &Storage{
		ObjectStorage:    ObjectStorage{objects: make(map[plumbing.Hash]object)},
		ReferenceStorage: ReferenceStorage{refs: treemap.NewWithStringComparator()},
		config:           config.NewRaw(nil, nil),
	}
}

// Config returns the configuration, kept as an in memory git-config
// document.
func (s *Storage) Config() config.ConfigStorer {
	return s.config
}

type object struct {
	t       plumbing.ObjectType
	content []byte
}

// ObjectStorage keeps raw objects by hash.
type ObjectStorage struct {
	m       sync.RWMutex
	objects map[plumbing.Hash]object
}

func (o *ObjectStorage) HasEncodedObject(h plumbing.Hash) error {
	o.m.RLock()
	defer o.m.RUnlock()

	if _, ok := o.objects[h]; !ok {
		return plumbing.ErrObjectNotFound
	}

	return nil
}

func (o *ObjectStorage) SetEncodedObject(t plumbing.ObjectType, content []byte) (plumbing.Hash, error) {
	if !t.Valid() {
		return plumbing.ZeroHash, plumbing.ErrInvalidType
	}

	h := plumbing.ComputeHash(t, content)

	o.m.Lock()
	defer o.m.Unlock()

	if _, ok := o.objects[h]; !ok {
		o.objects[h] = object{t: t, content: append([]byte(nil), content...)}
	}

	return h, nil
}

// ReferenceStorage keeps references sorted by name.
type ReferenceStorage struct {
	m    sync.RWMutex
	refs *treemap.Map
}

func (r *ReferenceStorage) Reference(n plumbing.ReferenceName) (*plumbing.Reference, error) {
	r.m.RLock()
	defer r.m.RUnlock()

	return r.get(n)
}

func (r *ReferenceStorage) get(n plumbing.ReferenceName) (*plumbing.Reference, error) {
	ref, ok := r.refs.Get(n.String())
	if !ok {
		return nil, plumbing.ErrReferenceNotFound
	}

	return ref.(*plumbing.Reference), nil
}

func (r *ReferenceStorage) SetReference(ref *plumbing.Reference, force bool) error {
	if ref == nil {
		return nil
	}

	if err := reference.CheckName(ref.Name()); err != nil {
		return err
	}

	r.m.Lock()
	defer r.m.Unlock()

	if !force {
		if old, err := r.get(ref.Name()); err == nil && !reference.SameValue(old, ref) {
			return storage.ErrReferenceExists
		}
	}

	r.refs.Put(ref.Name().String(), ref)
	return nil
}

func (r *ReferenceStorage) RenameReference(old, new plumbing.ReferenceName, force bool) error {
	r.m.Lock()
	defer r.m.Unlock()

	ref, err := r.get(old)
	if err != nil {
		return err
	}

	if old == new {
		return nil
	}

	if err := reference.CheckName(new); err != nil {
		return err
	}

	if _, err := r.get(new); err == nil && !force {
		return storage.ErrReferenceExists
	}

	r.refs.Put(new.String(), reference.Rename(ref, new))
	r.refs.Remove(old.String())
	return nil
}

func (r *ReferenceStorage) RemoveReference(n plumbing.ReferenceName) error {
	r.m.Lock()
	defer r.m.Unlock()

	r.refs.Remove(n.String())
	return nil
}

func (r *ReferenceStorage) IterReferences() (storer.ReferenceIter, error) {
	r.m.RLock()
	defer r.m.RUnlock()

	refs := make([]*plumbing.Reference, 0, r.refs.Size())
	for _, v := range r.refs.Values() {
		refs = append(refs, v.(*plumbing.Reference))
	}

	return storer.NewReferenceSliceIter(refs), nil
}
