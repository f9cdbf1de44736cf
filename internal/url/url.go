// Package url recognizes the URL forms accepted for a remote besides
// the RFC 3986 ones.
package url

import (
	"regexp"
)

var (
	schemeRegExp  = regexp.MustCompile(`^[^:]+://`)
	scpLikeRegExp = regexp.MustCompile(`^(?:(?P<user>[^@]+)@)?(?P<host>[^:\s]+):(?:(?P<port>[0-9]{1,5})(?:\/|:))?(?P<path>[^\\].*\/[^\\].*)$`)
)

// SCPLike holds the parts of an address in the user@host:path form.
type SCPLike struct {
	User string
	Host string
	Port string
	Path string
}

// MatchesScheme reports whether url starts with a scheme followed by "://".
func MatchesScheme(url string) bool {
	return schemeRegExp.MatchString(url)
}

// MatchesScpLike reports whether url is written as [user@]host:[port:]path.
func MatchesScpLike(url string) bool {
	return scpLikeRegExp.MatchString(url)
}

// ParseScpLike splits an SCP-like url, ok is false when url is not one.
func ParseScpLike(url string) (scp SCPLike, ok bool) {
	m := scpLikeRegExp.FindStringSubmatch(url)
	if m == nil {
		return scp, false
	}

	return SCPLike{User: m[1], Host: m[2], Port: m[3], Path: m[4]}, true
}

// IsLocalEndpoint reports whether url names a path on the local
// filesystem, such as /srv/repo.git or ../repo.
func IsLocalEndpoint(url string) bool {
	return !MatchesScheme(url) && !MatchesScpLike(url)
}
