package config

import (
	"errors"

	format "github.com/go-git/go-remote/plumbing/format/config"
)

var (
	// ErrKeyNotFound is returned when a configuration key is not set.
	ErrKeyNotFound = errors.New("config key not found")
	// ErrInvalidKey is returned when a key is not of the
	// section[.subsection].name form.
	ErrInvalidKey = format.ErrInvalidKey
)

// Entry is a single key/value pair of a configuration. Key is in its
// canonical form, see format.Key.
type Entry struct {
	Key   string
	Value string
}

// ConfigStorer is the key/value view of a repository configuration used by
// remotes.
type ConfigStorer interface {
	// GetString returns the last value of key, or ErrKeyNotFound.
	GetString(key string) (string, error)
	// SetString replaces every value of key with value.
	SetString(key, value string) error
	// Delete removes every value of key, or returns ErrKeyNotFound.
	Delete(key string) error
	// RenameSection moves every key under oldPrefix, like "remote.origin",
	// under newPrefix.
	RenameSection(oldPrefix, newPrefix string) error
	// ForEach calls fn for every entry whose key matches the regular
	// expression pattern, all of them when pattern is empty, in file order.
	// Returning storer.ErrStop from fn stops the iteration without error,
	// any other error is returned as is.
	ForEach(pattern string, fn func(*Entry) error) error
}
