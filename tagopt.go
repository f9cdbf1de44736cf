package remote

import (
	"errors"

	"github.com/go-git/go-remote/config"
)

// TagPolicy tells which tags are downloaded from a remote.
type TagPolicy int8

const (
	// TagsUnset is the policy of a remote not resolved yet against its
	// configuration. It behaves as TagsAuto.
	TagsUnset TagPolicy = iota
	// TagsAuto follows the tags pointing to objects already present in the
	// local object database, never overwriting existing tags.
	TagsAuto
	// TagsAll downloads every advertised tag.
	TagsAll
	// TagsNone downloads no tag besides the ones matched by the fetch
	// refspec.
	TagsNone
)

func (p TagPolicy) String() string {
	switch p {
	case TagsUnset:
		return "unset"
	case TagsAuto:
		return "auto"
	case TagsAll:
		return "all"
	case TagsNone:
		return "none"
	}

	return "unknown"
}

// resolveTagPolicy reads the tag policy of a remote from remote.<name>.tagopt,
// unless one was already set.
func resolveTagPolicy(r *Remote, cfg config.ConfigStorer) error {
	if r.tags != TagsUnset {
		return nil
	}

	r.tags = TagsAuto
	v, err := cfg.GetString(config.RemoteTagOptKey(r.name))
	if errors.Is(err, config.ErrKeyNotFound) {
		return nil
	}

	if err != nil {
		return err
	}

	switch v {
	case config.TagOptNone:
		r.tags = TagsNone
	case config.TagOptAll:
		r.tags = TagsAll
	}

	return nil
}

// saveTagPolicy writes the tag policy of a remote. Auto is the implicit
// default, so it is only written by removing a previous override.
func saveTagPolicy(r *Remote, cfg config.ConfigStorer) error {
	key := config.RemoteTagOptKey(r.name)
	switch r.tags {
	case TagsAll:
		return cfg.SetString(key, config.TagOptAll)
	case TagsNone:
		return cfg.SetString(key, config.TagOptNone)
	}

	_, err := cfg.GetString(key)
	if errors.Is(err, config.ErrKeyNotFound) {
		return nil
	}

	if err != nil {
		return err
	}

	return cfg.Delete(key)
}
