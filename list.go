package remote

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/emirpasic/gods/sets/linkedhashset"

	"github.com/go-git/go-remote/config"
)

var remoteURLRegexp = regexp.MustCompile(config.RemoteURLPattern)

// List returns the names of the remotes configured in the repository, in
// configuration order and without duplicates.
func List(repo *Repository) ([]string, error) {
	names := linkedhashset.New()
	err := repo.Storer.Config().ForEach(config.RemoteURLPattern, func(e *config.Entry) error {
		if m := remoteURLRegexp.FindStringSubmatch(e.Key); m != nil {
			names.Add(m[1])
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	list := make([]string, 0, names.Size())
	for _, v := range names.Values() {
		list = append(list, v.(string))
	}

	return list, nil
}

// Add creates a remote tracking every branch of url under
// refs/remotes/<name>/, and saves it.
func Add(repo *Repository, name, url string) (*Remote, error) {
	if err := config.ValidateRemoteName(name); err != nil {
		return nil, err
	}

	_, err := Load(repo, name)
	if err == nil {
		return nil, fmt.Errorf("%w: %q", ErrRemoteExists, name)
	}

	if !errors.Is(err, ErrRemoteNotFound) {
		return nil, err
	}

	r, err := New(repo, name, url, config.DefaultFetchRefSpec(name).String())
	if err != nil {
		return nil, err
	}

	if err := r.Save(); err != nil {
		return nil, err
	}

	return r, nil
}
