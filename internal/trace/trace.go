// Package trace turns the GIT_TRACE* environment variables understood by git
// into go-remote trace targets.
package trace

import (
	"os"
	"strconv"

	"github.com/go-git/go-remote/utils/trace"
)

var envToTarget = []struct {
	env    string
	target trace.Target
}{
	{"GIT_TRACE", trace.General},
	{"GIT_TRACE_PACKET", trace.Packet},
	{"GIT_TRACE_SSH", trace.SSH},
	{"GIT_TRACE_PERFORMANCE", trace.Performance},
	{"GIT_TRACE_HTTP", trace.HTTP},
}

// ReadEnv enables the targets whose variable holds a true boolean, or a
// positive number as git accepts, and returns them.
func ReadEnv() trace.Target {
	var target trace.Target
	for _, e := range envToTarget {
		if enabled(os.Getenv(e.env)) {
			target |= e.target
		}
	}

	trace.SetTarget(target)
	return target
}

func enabled(v string) bool {
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}

	n, err := strconv.Atoi(v)
	return err == nil && n > 0
}
