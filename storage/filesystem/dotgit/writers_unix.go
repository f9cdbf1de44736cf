//go:build !windows

package dotgit

import (
	"github.com/go-git/go-billy/v5"

	"github.com/go-git/go-remote/utils/trace"
)

func fixPermissions(fs billy.Filesystem, path string) {
	if chmodFS, ok := fs.(billy.Change); ok {
		if err := chmodFS.Chmod(path, 0o444); err != nil {
			trace.General.Printf("failed to chmod %s: %v", path, err)
		}
	}
}
