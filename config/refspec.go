package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-git/go-remote/plumbing"
)

const (
	refSpecWildcard  = "*"
	refSpecForce     = "+"
	refSpecSeparator = ":"

	// TagsRefSpec is the fetch refspec used to recognize tag names when
	// following tags automatically.
	TagsRefSpec = "refs/tags/*:refs/tags/*"
)

var (
	ErrRefSpecMalformed = errors.New("malformed refspec")
	ErrRefSpecNoMatch   = errors.New("refspec does not match")
)

// RefSpec is a mapping from local branches to remote references.
// The format of the refspec is an optional +, followed by <src>:<dst>, where
// <src> is the pattern for references on the remote side and <dst> is where
// those references will be written locally. The + tells Git to update the
// reference even if it isn't a fast-forward.
// eg.: "+refs/heads/*:refs/remotes/origin/*"
//
// A refspec missing either side is empty: it is kept and serialized as read,
// but it takes part in no matching.
//
// https://git-scm.com/book/en/v2/Git-Internals-The-Refspec
type RefSpec struct {
	Src       string
	Dst       string
	Force     bool
	Direction plumbing.Direction
}

// ParseRefSpec parses the text form of a refspec for the given direction.
func ParseRefSpec(text string, dir plumbing.Direction) (RefSpec, error) {
	spec := RefSpec{Direction: dir}

	s := text
	if strings.HasPrefix(s, refSpecForce) {
		spec.Force = true
		s = s[len(refSpecForce):]
	}

	switch strings.Count(s, refSpecSeparator) {
	case 0:
		spec.Src = s
	case 1:
		sep := strings.Index(s, refSpecSeparator)
		spec.Src, spec.Dst = s[:sep], s[sep+1:]
		if spec.Dst == "" {
			return RefSpec{}, malformed(text, "empty destination")
		}
	default:
		return RefSpec{}, malformed(text, "too many separators")
	}

	if spec.Src == "" && (dir == plumbing.Fetch || spec.Dst == "") {
		return RefSpec{}, malformed(text, "empty source")
	}

	if spec.Src != "" && !plumbing.IsValidReferencePattern(spec.Src) {
		return RefSpec{}, malformed(text, "invalid source")
	}

	if spec.Dst != "" && !plumbing.IsValidReferencePattern(spec.Dst) {
		return RefSpec{}, malformed(text, "invalid destination")
	}

	if spec.Dst != "" && isGlob(spec.Src) != isGlob(spec.Dst) {
		return RefSpec{}, malformed(text, "wildcard on one side only")
	}

	return spec, nil
}

// MustParseRefSpec is like ParseRefSpec but panics on malformed text. It
// is meant for refspecs known at compile time.
func MustParseRefSpec(text string, dir plumbing.Direction) RefSpec {
	spec, err := ParseRefSpec(text, dir)
	if err != nil {
		panic(err)
	}

	return spec
}

func malformed(text, reason string) error {
	return fmt.Errorf("%w %q: %s", ErrRefSpecMalformed, text, reason)
}

// IsEmpty returns true if the refspec lacks a source or a destination.
func (s RefSpec) IsEmpty() bool {
	return s.Src == "" || s.Dst == ""
}

// IsWildcard returns true if the refspec holds a wildcard.
func (s RefSpec) IsWildcard() bool {
	return isGlob(s.Src) || isGlob(s.Dst)
}

// MatchSource returns true if the given name matches the source side.
func (s RefSpec) MatchSource(n plumbing.ReferenceName) bool {
	if s.IsEmpty() {
		return false
	}

	return match(s.Src, n.String())
}

// MatchDestination returns true if the given name matches the destination
// side.
func (s RefSpec) MatchDestination(n plumbing.ReferenceName) bool {
	if s.IsEmpty() {
		return false
	}

	return match(s.Dst, n.String())
}

// Transform returns the destination for the given source name, splicing the
// part captured by the source wildcard into the destination wildcard.
func (s RefSpec) Transform(n plumbing.ReferenceName) (plumbing.ReferenceName, error) {
	if !s.MatchSource(n) {
		return "", fmt.Errorf("%w: %s against %q", ErrRefSpecNoMatch, n, s.String())
	}

	if !isGlob(s.Src) {
		return plumbing.ReferenceName(s.Dst), nil
	}

	name := n.String()
	ws := strings.Index(s.Src, refSpecWildcard)
	wd := strings.Index(s.Dst, refSpecWildcard)
	captured := name[ws : len(name)-(len(s.Src)-(ws+1))]

	return plumbing.ReferenceName(s.Dst[:wd] + captured + s.Dst[wd+1:]), nil
}

// Reverse returns the refspec mapping destination names back to source
// names.
func (s RefSpec) Reverse() RefSpec {
	return RefSpec{
		Src:       s.Dst,
		Dst:       s.Src,
		Force:     s.Force,
		Direction: s.Direction,
	}
}

// RenameRemote rewrites a destination living under the tracking namespace of
// remote old into the namespace of remote new. It reports false, leaving the
// refspec untouched, when the destination is outside that namespace.
func (s RefSpec) RenameRemote(old, new string) (RefSpec, bool) {
	prefix := plumbing.RemoteReferencePrefix(old)
	if s.IsEmpty() || !strings.HasPrefix(s.Dst, prefix) {
		return s, false
	}

	s.Dst = plumbing.RemoteReferencePrefix(new) + s.Dst[len(prefix):]
	return s, true
}

func (s RefSpec) String() string {
	var b strings.Builder
	if s.Force {
		b.WriteString(refSpecForce)
	}

	b.WriteString(s.Src)
	if s.Dst != "" {
		b.WriteString(refSpecSeparator)
		b.WriteString(s.Dst)
	}

	return b.String()
}

func isGlob(pattern string) bool {
	return strings.Contains(pattern, refSpecWildcard)
}

func match(pattern, name string) bool {
	wildcard := strings.Index(pattern, refSpecWildcard)
	if wildcard == -1 {
		return pattern == name
	}

	prefix := pattern[:wildcard]
	suffix := pattern[wildcard+1:]

	return len(name) > len(prefix)+len(suffix) &&
		strings.HasPrefix(name, prefix) &&
		strings.HasSuffix(name, suffix)
}

// DefaultFetchRefSpec returns the fetch refspec tracking every branch of the
// given remote.
func DefaultFetchRefSpec(remote string) RefSpec {
	return RefSpec{
		Src:       "refs/heads/*",
		Dst:       plumbing.RemoteReferencePrefix(remote) + refSpecWildcard,
		Force:     true,
		Direction: plumbing.Fetch,
	}
}
