// Package pathutil expands the paths found in remote urls.
package pathutil

import (
	"os"
	"os/user"
	"strings"
)

// ReplaceTildeWithHome expands a leading ~ or ~user to the matching home
// directory. Any other path is returned unchanged.
func ReplaceTildeWithHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}

	slash := strings.IndexByte(path, '/')
	switch {
	case slash == 1:
		home, err := os.UserHomeDir()
		if err != nil {
			return path, err
		}

		return home + path[1:], nil
	case slash > 1:
		u, err := user.Lookup(path[1:slash])
		if err != nil {
			return path, err
		}

		return u.HomeDir + path[slash:], nil
	}

	return path, nil
}
