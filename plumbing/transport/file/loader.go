package file

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5/osfs"

	"github.com/go-git/go-remote/internal/pathutil"
	"github.com/go-git/go-remote/plumbing/transport"
	"github.com/go-git/go-remote/storage"
	"github.com/go-git/go-remote/storage/filesystem"
)

// Loader loads the repository an endpoint points to.
type Loader interface {
	// Load returns a storer for the repository at ep. It returns
	// transport.ErrRepositoryNotFound when there is none.
	Load(ep *transport.Endpoint) (storage.Storer, error)
}

// DefaultLoader opens repositories from the local filesystem.
var DefaultLoader Loader = FilesystemLoader{}

// FilesystemLoader opens the repository at the path of the endpoint, either
// a bare repository or a working tree holding a .git directory.
type FilesystemLoader struct{}

func (FilesystemLoader) Load(ep *transport.Endpoint) (storage.Storer, error) {
	path, err := pathutil.ReplaceTildeWithHome(ep.Path)
	if err != nil {
		return nil, err
	}

	dir, err := gitDir(path)
	if err != nil {
		return nil, err
	}

	return filesystem.NewStorage(osfs.New(dir))
}

func gitDir(path string) (string, error) {
	for _, dir := range []string{filepath.Join(path, ".git"), path} {
		_, err := os.Stat(filepath.Join(dir, "HEAD"))
		if err == nil {
			return dir, nil
		}

		if !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
	}

	return "", transport.ErrRepositoryNotFound
}

// MapLoader is a Loader over storers registered by endpoint path.
type MapLoader map[string]storage.Storer

func (l MapLoader) Load(ep *transport.Endpoint) (storage.Storer, error) {
	s, ok := l[ep.Path]
	if !ok {
		return nil, transport.ErrRepositoryNotFound
	}

	return s, nil
}
