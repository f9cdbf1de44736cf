package config

import (
	"errors"
	"fmt"

	"github.com/go-git/go-remote/plumbing"
	format "github.com/go-git/go-remote/plumbing/format/config"
)

const (
	remoteSection = "remote"

	urlKey     = "url"
	pushurlKey = "pushurl"
	fetchKey   = "fetch"
	pushKey    = "push"
	tagoptKey  = "tagopt"

	// TagOptAll is the tagopt value downloading every tag.
	TagOptAll = "--tags"
	// TagOptNone is the tagopt value disabling tag downloads.
	TagOptNone = "--no-tags"
)

var (
	ErrRemoteConfigInvalidName = errors.New("remote config: invalid name")
)

// ValidateRemoteName checks that name can be used as a segment of the
// tracking namespace refs/remotes/<name>/.
func ValidateRemoteName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrRemoteConfigInvalidName)
	}

	text := "refs/heads/test:" + plumbing.NewRemoteReferenceName(name, "test").String()
	if _, err := ParseRefSpec(text, plumbing.Fetch); err != nil {
		return fmt.Errorf("%w: %q", ErrRemoteConfigInvalidName, name)
	}

	return nil
}

// RemoteSection returns the section prefix holding the configuration of the
// given remote, "remote.<name>".
func RemoteSection(name string) string {
	return remoteSection + "." + name
}

func remoteOption(name, option string) string {
	return format.Key{Section: remoteSection, Subsection: name, Name: option}.String()
}

// RemoteURLKey returns the key of the fetch url of a remote.
func RemoteURLKey(name string) string { return remoteOption(name, urlKey) }

// RemotePushURLKey returns the key of the push url of a remote.
func RemotePushURLKey(name string) string { return remoteOption(name, pushurlKey) }

// RemoteFetchKey returns the key of the fetch refspec of a remote.
func RemoteFetchKey(name string) string { return remoteOption(name, fetchKey) }

// RemotePushKey returns the key of the push refspec of a remote.
func RemotePushKey(name string) string { return remoteOption(name, pushKey) }

// RemoteTagOptKey returns the key of the tag download policy of a remote.
func RemoteTagOptKey(name string) string { return remoteOption(name, tagoptKey) }

// BranchRemotePattern matches the keys naming the remote tracked by every
// branch.
const BranchRemotePattern = `^branch\..+\.remote$`

// RemoteURLPattern matches the url key of every remote, capturing the
// remote name.
const RemoteURLPattern = `^remote\.(.+)\.url$`
