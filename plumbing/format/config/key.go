package config

import (
	"errors"
	"strings"
)

// ErrInvalidKey is returned when a key does not have the
// section[.subsection].name form.
var ErrInvalidKey = errors.New("invalid config key")

// Key is a parsed configuration key. The section and the name are case
// insensitive, the subsection is not.
type Key struct {
	Section    string
	Subsection string
	Name       string
}

// ParseKey splits a key like "remote.origin.url" into its parts. Everything
// between the first and the last dot is the subsection, so subsections may
// hold dots themselves.
func ParseKey(key string) (Key, error) {
	first := strings.Index(key, ".")
	last := strings.LastIndex(key, ".")
	if first <= 0 || last == len(key)-1 {
		return Key{}, ErrInvalidKey
	}

	k := Key{
		Section: strings.ToLower(key[:first]),
		Name:    strings.ToLower(key[last+1:]),
	}

	if first != last {
		k.Subsection = key[first+1 : last]
	}

	return k, nil
}

// String returns the canonical form of the key.
func (k Key) String() string {
	if k.Subsection == NoSubsection {
		return k.Section + "." + k.Name
	}

	return k.Section + "." + k.Subsection + "." + k.Name
}
