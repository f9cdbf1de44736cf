// Package filesystem is a storage backend base on filesystems
package filesystem

import (
	"github.com/go-git/go-billy/v5"

	"github.com/go-git/go-remote/config"
	"github.com/go-git/go-remote/storage"
	"github.com/go-git/go-remote/storage/filesystem/dotgit"
)

var _ storage.Storer = &Storage{}

// Options holds configuration for the storage.
type Options struct {
	// ObjectCacheSize is the number of object ids remembered as present,
	// zero means DefaultObjectCacheSize.
	ObjectCacheSize int
}

// Storage is an implementation of storage.Storer that stores data on disk in
// the standard git format, the filesystem must be rooted at the .git
// directory.
type Storage struct {
	fs  billy.Filesystem
	dir *dotgit.DotGit

	*ObjectStorage
	ReferenceStorage
	ConfigStorage
}

// NewStorage returns a new Storage backed by a given `fs.Filesystem`. The
// configuration file is read right away.
func NewStorage(fs billy.Filesystem) (*Storage, error) {
	return NewStorageWithOptions(fs, Options{})
}

// NewStorageWithOptions returns a new Storage with extra options.
func NewStorageWithOptions(fs billy.Filesystem, o Options) (*Storage, error) {
	dir := dotgit.New(fs)

	s := &Storage{
		fs:  fs,
		dir: dir,

		ObjectStorage:    NewObjectStorage(dir, o.ObjectCacheSize),
		ReferenceStorage: ReferenceStorage{dir: dir},
		ConfigStorage:    ConfigStorage{dir: dir},
	}

	if err := s.ConfigStorage.load(); err != nil {
		return nil, err
	}

	return s, nil
}

// Filesystem returns the underlying filesystem
func (s *Storage) Filesystem() billy.Filesystem {
	return s.fs
}

// Config returns the configuration kept in the config file of the
// repository.
func (s *Storage) Config() config.ConfigStorer {
	return s.ConfigStorage.raw
}

// Close releases the pack indexes opened so far.
func (s *Storage) Close() error {
	return s.ObjectStorage.Close()
}
