package remote

import (
	"context"
	"errors"

	"github.com/go-git/go-remote/config"
	"github.com/go-git/go-remote/plumbing"
	"github.com/go-git/go-remote/plumbing/protocol/packp"
	"github.com/go-git/go-remote/plumbing/storer"
	"github.com/go-git/go-remote/storage"
	"github.com/go-git/go-remote/utils/trace"
)

// UpdateTips writes the references advertised by the server into the local
// reference store, following the fetch refspec and the tag policy. An
// advertised HEAD is stored as FETCH_HEAD.
//
// References matched by the fetch refspec are overwritten. Tags followed
// automatically, in TagsAuto mode, are only created when their object is
// already present and never overwrite an existing tag.
//
// The update is not transactional: when an error is returned, the updates
// done before it are kept.
func (r *Remote) UpdateTips(ctx context.Context) error {
	entries, err := r.Advertised()
	if err != nil {
		return err
	}

	refs := refEntries(entries)
	if len(refs) == 0 {
		return nil
	}

	tags := config.MustParseRefSpec(config.TagsRefSpec, plumbing.Fetch)

	// HEAD is only allowed to be the first in the list
	if refs[0].Name == plumbing.HEAD.String() {
		if err := r.interrupted(ctx); err != nil {
			return err
		}

		head := plumbing.NewHashReference(plumbing.FetchHead, refs[0].Hash)
		if err := r.repo.Storer.SetReference(head, true); err != nil {
			return err
		}

		refs = refs[1:]
	}

	for _, e := range refs {
		if err := r.interrupted(ctx); err != nil {
			return err
		}

		if err := r.updateTip(e, tags); err != nil {
			return err
		}
	}

	return nil
}

// interrupted returns the error of a cancelled ctx or of a Stop.
func (r *Remote) interrupted(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return r.cancel.Err()
}

func (r *Remote) updateTip(e *packp.Entry, tags config.RefSpec) error {
	name := plumbing.ReferenceName(e.Name)

	// also skips the peeled tags, refs/tags/v1^{}
	if name == plumbing.HEAD || !name.IsValid() {
		return nil
	}

	var dst plumbing.ReferenceName
	var autotag bool
	switch {
	case r.fetch.MatchSource(name):
		var err error
		if dst, err = r.fetch.Transform(name); err != nil {
			return err
		}
	case r.tags != TagsNone && tags.MatchSource(name):
		dst = name
		autotag = r.tags != TagsAll
	default:
		return nil
	}

	if autotag {
		err := r.repo.Storer.HasEncodedObject(e.Hash)
		if errors.Is(err, plumbing.ErrObjectNotFound) {
			return nil
		}

		if err != nil {
			return err
		}
	}

	old, err := r.currentTip(dst)
	if err != nil {
		return err
	}

	if old == e.Hash {
		return nil
	}

	// in autotag mode, don't overwrite any locally-existing tags
	err = r.repo.Storer.SetReference(plumbing.NewHashReference(dst, e.Hash), !autotag)
	if autotag && errors.Is(err, storage.ErrReferenceExists) {
		return nil
	}

	if err != nil {
		return err
	}

	trace.General.Printf("remote: updated %s %s -> %s", dst, old, e.Hash)

	if r.callbacks.UpdateTips == nil {
		return nil
	}

	if err := r.callbacks.UpdateTips(dst, old, e.Hash); err != nil {
		return userCancelled(err)
	}

	return nil
}

// currentTip returns the hash the reference resolves to, the zero hash when
// it does not exist.
func (r *Remote) currentTip(n plumbing.ReferenceName) (plumbing.Hash, error) {
	ref, err := storer.ResolveReference(r.repo.Storer, n)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return plumbing.ZeroHash, nil
	}

	if err != nil {
		return plumbing.ZeroHash, err
	}

	return ref.Hash(), nil
}
