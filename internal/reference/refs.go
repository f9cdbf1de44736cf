// Package reference holds helpers shared by the reference storages.
package reference

import (
	"fmt"

	"github.com/go-git/go-remote/plumbing"
	"github.com/go-git/go-remote/plumbing/storer"
	"github.com/go-git/go-remote/storage"
)

// References returns all references from the storage.
func References(st storer.ReferenceStorer) ([]*plumbing.Reference, error) {
	iter, err := st.IterReferences()
	if err != nil {
		return nil, err
	}

	return storer.CollectReferences(iter)
}

// CheckName returns storage.ErrInvalidReferenceName when n cannot name a
// reference.
func CheckName(n plumbing.ReferenceName) error {
	if !n.IsValid() {
		return fmt.Errorf("%w: %q", storage.ErrInvalidReferenceName, n)
	}

	return nil
}

// SameValue reports whether a and b point at the same thing, ignoring their
// names.
func SameValue(a, b *plumbing.Reference) bool {
	return a.Type() == b.Type() && a.Hash() == b.Hash() && a.Target() == b.Target()
}

// Rename returns a copy of ref named n.
func Rename(ref *plumbing.Reference, n plumbing.ReferenceName) *plumbing.Reference {
	if ref.Type() == plumbing.SymbolicReference {
		return plumbing.NewSymbolicReference(n, ref.Target())
	}

	return plumbing.NewHashReference(n, ref.Hash())
}
