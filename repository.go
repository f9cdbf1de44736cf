package remote

import (
	"errors"
	"fmt"

	"github.com/go-git/go-remote/plumbing/transport"
	"github.com/go-git/go-remote/plumbing/transport/file"
	"github.com/go-git/go-remote/storage"
	"github.com/go-git/go-remote/storage/memory"
)

var ErrRepositoryNotExists = errors.New("repository does not exist")

// Repository is the local side of the remotes: its storage, holding the
// configuration, the references and the objects, and the transport used to
// reach the servers.
type Repository struct {
	Storer storage.Storer
	// Transport opens the connections of the remotes, by default the pack
	// transport with the commanders registered for each protocol.
	Transport transport.Transport
}

// NewRepository creates a new repository with the given storage and the
// default transport.
func NewRepository(s storage.Storer) *Repository {
	return &Repository{
		Storer:    s,
		Transport: transport.NewPackTransport(nil),
	}
}

// NewMemoryRepository creates a new repository, backed by a memory.Storage.
func NewMemoryRepository() *Repository {
	return NewRepository(memory.NewStorage())
}

// PlainOpen opens the repository at path, being path the worktree holding
// a .git directory or the git directory of a bare repository. A leading ~ is
// expanded to the home directory.
func PlainOpen(path string) (*Repository, error) {
	s, err := file.FilesystemLoader{}.Load(&transport.Endpoint{Protocol: "file", Path: path})
	if errors.Is(err, transport.ErrRepositoryNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrRepositoryNotExists, path)
	}

	if err != nil {
		return nil, err
	}

	return NewRepository(s), nil
}

// Remote loads the remote with the given name from the configuration.
func (r *Repository) Remote(name string) (*Remote, error) {
	return Load(r, name)
}

// Remotes loads every remote of the configuration, in configuration order.
func (r *Repository) Remotes() ([]*Remote, error) {
	names, err := List(r)
	if err != nil {
		return nil, err
	}

	remotes := make([]*Remote, 0, len(names))
	for _, name := range names {
		remote, err := Load(r, name)
		if err != nil {
			return nil, err
		}

		remotes = append(remotes, remote)
	}

	return remotes, nil
}

// CreateRemote adds a new remote with the default fetch refspec and saves
// it, see Add.
func (r *Repository) CreateRemote(name, url string) (*Remote, error) {
	return Add(r, name, url)
}
