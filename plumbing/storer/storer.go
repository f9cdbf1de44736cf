package storer

import (
	"errors"

	"github.com/go-git/go-remote/plumbing"
)

// ErrStop is used to stop a ForEach function in an Iter
var ErrStop = errors.New("stop iter")

// ErrReferenceHasChanged is returned when a reference was modified between
// being read and being written.
var ErrReferenceHasChanged = errors.New("reference has changed concurrently")

// Storer is a basic storer for encoded objects and references.
type Storer interface {
	EncodedObjectStorer
	ReferenceStorer
}

// EncodedObjectStorer answers object existence queries and stores raw
// objects, the object database seen by the remote engine.
type EncodedObjectStorer interface {
	// HasEncodedObject returns ErrObjectNotFound if the object with the
	// given hash is missing.
	HasEncodedObject(plumbing.Hash) error
	// SetEncodedObject stores the content as an object of the given type and
	// returns its hash.
	SetEncodedObject(t plumbing.ObjectType, content []byte) (plumbing.Hash, error)
}

// ReferenceStorer is a generic storage of references.
type ReferenceStorer interface {
	// Reference returns plumbing.ErrReferenceNotFound when the reference
	// does not exist.
	Reference(plumbing.ReferenceName) (*plumbing.Reference, error)
	// SetReference creates or updates a reference. Without force, a
	// reference already stored under the same name with a different value
	// is kept and ErrReferenceExists from the storage package is returned.
	SetReference(ref *plumbing.Reference, force bool) error
	// RenameReference moves a reference to a new name. Without force, the
	// new name must not exist.
	RenameReference(old, new plumbing.ReferenceName, force bool) error
	RemoveReference(plumbing.ReferenceName) error
	IterReferences() (ReferenceIter, error)
}
