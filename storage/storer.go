// Package storage defines the backing store of a repository: its
// configuration, its references and its object database.
package storage

import (
	"errors"

	"github.com/go-git/go-remote/config"
	"github.com/go-git/go-remote/plumbing/storer"
)

// ErrReferenceExists is returned by SetReference and RenameReference when a
// reference, with a different value, already exists and force was not
// requested.
var ErrReferenceExists = errors.New("reference already exists")

// ErrInvalidReferenceName is returned when a reference is stored, or renamed,
// under a name that is not a valid reference name.
var ErrInvalidReferenceName = errors.New("invalid reference name")

// Storer is a generic storage of objects, references and configuration of a
// particular repository. The memory, filesystem and sqlite packages provide
// implementations.
type Storer interface {
	storer.EncodedObjectStorer
	storer.ReferenceStorer
	// Config returns the configuration of the repository.
	Config() config.ConfigStorer
}
