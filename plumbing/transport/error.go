package transport

import (
	"fmt"
)

// RemoteError represents an error returned by the remote, either as an
// error packet or on its standard error.
type RemoteError struct {
	Reason string
}

// Error implements the error interface.
func (e *RemoteError) Error() string {
	return e.Reason
}

// NewRemoteError creates a new RemoteError.
func NewRemoteError(reason string) error {
	return &RemoteError{Reason: reason}
}

type AuthenticationRequiredError struct {
	Err error
}

func NewAuthenticationRequiredError(err error) error {
	return &AuthenticationRequiredError{
		Err: err,
	}
}

func (e *AuthenticationRequiredError) Error() string {
	return fmt.Sprintf("%s: %s", ErrAuthenticationRequired, e.Err)
}

func (e *AuthenticationRequiredError) Is(target error) bool {
	return target == ErrAuthenticationRequired
}

func (e *AuthenticationRequiredError) Unwrap() error {
	return e.Err
}

type AuthorizationFailedError struct {
	Err error
}

func NewAuthorizationFailedError(err error) error {
	return &AuthorizationFailedError{
		Err: err,
	}
}

func (e *AuthorizationFailedError) Error() string {
	return fmt.Sprintf("%s: %s", ErrAuthorizationFailed, e.Err)
}

func (e *AuthorizationFailedError) Is(target error) bool {
	return target == ErrAuthorizationFailed
}

func (e *AuthorizationFailedError) Unwrap() error {
	return e.Err
}

type RepositoryNotFoundError struct {
	Err error
}

func NewRepositoryNotFoundError(err error) error {
	return &RepositoryNotFoundError{
		Err: err,
	}
}

func (e *RepositoryNotFoundError) Error() string {
	return fmt.Sprintf("%s: %s", ErrRepositoryNotFound, e.Err)
}

func (e *RepositoryNotFoundError) Is(target error) bool {
	return target == ErrRepositoryNotFound
}

func (e *RepositoryNotFoundError) Unwrap() error {
	return e.Err
}
