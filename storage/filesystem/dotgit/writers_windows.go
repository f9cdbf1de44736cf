//go:build windows

package dotgit

import (
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"golang.org/x/sys/windows"

	"github.com/go-git/go-remote/utils/trace"
)

func fixPermissions(fs billy.Filesystem, path string) {
	fullpath := filepath.Join(fs.Root(), path)
	p, err := windows.UTF16PtrFromString(fullpath)
	if err != nil {
		trace.General.Printf("failed to chmod %s: %v", fullpath, err)
		return
	}

	attrs, err := windows.GetFileAttributes(p)
	if err != nil {
		trace.General.Printf("failed to chmod %s: %v", fullpath, err)
		return
	}

	if attrs&windows.FILE_ATTRIBUTE_READONLY != 0 {
		return
	}

	if err := windows.SetFileAttributes(p, attrs|windows.FILE_ATTRIBUTE_READONLY); err != nil {
		trace.General.Printf("failed to chmod %s: %v", fullpath, err)
	}
}
