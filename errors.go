package remote

import (
	"errors"

	"github.com/go-git/go-remote/config"
)

var (
	// ErrInvalidRemoteName is returned when a name cannot be used as a
	// segment of the tracking namespace refs/remotes/<name>/.
	ErrInvalidRemoteName = config.ErrRemoteConfigInvalidName
	ErrInvalidURL        = errors.New("invalid remote url")
	ErrRemoteNotFound    = errors.New("remote not found")
	ErrRemoteExists      = errors.New("remote already exists")
	ErrNotConnected      = errors.New("remote is not connected")
	// ErrUserCancelled is returned when a callback stops an operation. The
	// error returned by the callback is joined to it.
	ErrUserCancelled = errors.New("cancelled by user")
)

func userCancelled(err error) error {
	return errors.Join(ErrUserCancelled, err)
}
