package remote

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-git/go-remote/config"
	"github.com/go-git/go-remote/plumbing"
	"github.com/go-git/go-remote/plumbing/storer"
	"github.com/go-git/go-remote/utils/trace"
)

// Rename gives the remote a new name, moving its configuration, the
// branches tracking it and its tracking references. The fetch refspec is
// rewritten to the new tracking namespace; when that is not possible, as for
// a transient remote or a refspec outside refs/remotes/<name>/, its text is
// passed to conflict and left as is. An error returned by conflict stops the
// rename with ErrUserCancelled.
//
// The rename is not transactional: when an error is returned, the steps done
// before it are kept.
func (r *Remote) Rename(newName string, conflict func(refspec string) error) error {
	if err := r.ensureNotExists(newName); err != nil {
		return err
	}

	if err := config.ValidateRemoteName(newName); err != nil {
		return err
	}

	if r.name == "" {
		if err := r.renameFetchRefSpec(newName, conflict); err != nil {
			return err
		}

		r.name = newName
		return r.Save()
	}

	old := r.name
	cfg := r.repo.Storer.Config()
	if err := cfg.RenameSection(config.RemoteSection(old), config.RemoteSection(newName)); err != nil {
		return err
	}

	if err := renameBranchRemotes(cfg, old, newName); err != nil {
		return err
	}

	if err := r.renameReferences(old, newName); err != nil {
		return err
	}

	if err := r.renameFetchRefSpec(newName, conflict); err != nil {
		return err
	}

	trace.General.Printf("remote: renamed %s to %s", old, newName)
	r.name = newName
	return nil
}

func (r *Remote) ensureNotExists(name string) error {
	_, err := Load(r.repo, name)
	if errors.Is(err, ErrRemoteNotFound) {
		return nil
	}

	if err != nil {
		return err
	}

	return fmt.Errorf("%w: %q", ErrRemoteExists, name)
}

func renameBranchRemotes(cfg config.ConfigStorer, old, new string) error {
	return cfg.ForEach(config.BranchRemotePattern, func(e *config.Entry) error {
		if e.Value != old {
			return nil
		}

		return cfg.SetString(e.Key, new)
	})
}

// renameReferences moves every reference under refs/remotes/<old>/ to
// refs/remotes/<new>/, keeping the rest of the name. Symbolic references
// pointing inside the old namespace are pointed to the new one.
func (r *Remote) renameReferences(old, new string) error {
	oldPrefix := plumbing.RemoteReferencePrefix(old)
	newPrefix := plumbing.RemoteReferencePrefix(new)

	iter, err := r.repo.Storer.IterReferences()
	if err != nil {
		return err
	}

	refs, err := storer.CollectReferences(storer.NewReferencePrefixIter(oldPrefix, iter))
	if err != nil {
		return err
	}

	for _, ref := range refs {
		name := plumbing.ReferenceName(newPrefix + ref.Name().String()[len(oldPrefix):])
		if err := r.repo.Storer.RenameReference(ref.Name(), name, false); err != nil {
			return err
		}

		target := ref.Target().String()
		if ref.Type() != plumbing.SymbolicReference || !strings.HasPrefix(target, oldPrefix) {
			continue
		}

		target = newPrefix + target[len(oldPrefix):]
		sym := plumbing.NewSymbolicReference(name, plumbing.ReferenceName(target))
		if err := r.repo.Storer.SetReference(sym, true); err != nil {
			return err
		}
	}

	return nil
}

// renameFetchRefSpec points the destination of the fetch refspec to the
// tracking namespace of the new name and saves it under the new section.
func (r *Remote) renameFetchRefSpec(newName string, conflict func(string) error) error {
	if r.fetch.Src == "" && r.fetch.Dst == "" {
		return nil
	}

	spec, ok := r.fetch.RenameRemote(r.name, newName)
	if r.name == "" || !ok {
		if conflict == nil {
			return nil
		}

		if err := conflict(r.fetch.String()); err != nil {
			return userCancelled(err)
		}

		return nil
	}

	r.fetch = spec
	return saveRefSpec(r.repo.Storer.Config(), config.RemoteFetchKey(newName), spec)
}
