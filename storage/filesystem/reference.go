package filesystem

import (
	"errors"
	"sync"

	"github.com/go-git/go-remote/internal/reference"
	"github.com/go-git/go-remote/plumbing"
	"github.com/go-git/go-remote/plumbing/storer"
	"github.com/go-git/go-remote/storage"
	"github.com/go-git/go-remote/storage/filesystem/dotgit"
)

// ReferenceStorage keeps references as loose files and in packed-refs.
type ReferenceStorage struct {
	m   sync.Mutex
	dir *dotgit.DotGit
}

func (r *ReferenceStorage) Reference(n plumbing.ReferenceName) (*plumbing.Reference, error) {
	return r.dir.Ref(n)
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
		old, err := r.dir.Ref(ref.Name())
		switch {
		case err == nil:
			if !reference.SameValue(old, ref) {
				return storage.ErrReferenceExists
			}

			return nil
		case !errors.Is(err, plumbing.ErrReferenceNotFound):
			return err
		}
	}

	return r.dir.SetRef(ref)
}

func (r *ReferenceStorage) RenameReference(old, new plumbing.ReferenceName, force bool) error {
	r.m.Lock()
	defer r.m.Unlock()

	ref, err := r.dir.Ref(old)
	if err != nil {
		return err
	}

	if old == new {
		return nil
	}

	if err := reference.CheckName(new); err != nil {
		return err
	}

	_, err = r.dir.Ref(new)
	switch {
	case err == nil && !force:
		return storage.ErrReferenceExists
	case err != nil && !errors.Is(err, plumbing.ErrReferenceNotFound):
		return err
	}

	if err := r.dir.SetRef(reference.Rename(ref, new)); err != nil {
		return err
	}

	return r.dir.RemoveRef(old)
}

func (r *ReferenceStorage) RemoveReference(n plumbing.ReferenceName) error {
	r.m.Lock()
	defer r.m.Unlock()

	return r.dir.RemoveRef(n)
}

// IterReferences returns the references sorted by name.
func (r *ReferenceStorage) IterReferences() (storer.ReferenceIter, error) {
	refs, err := r.dir.Refs()
	if err != nil {
		return nil, err
	}

	reference.Sort(refs)
	return storer.NewReferenceSliceIter(refs), nil
}
