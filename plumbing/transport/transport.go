// Package transport connects remotes to git servers and retrieves the
// references they advertise.
//
// A single implementation of Transport ships with the package, the pack
// transport returned by NewPackTransport. It speaks the git pack protocol
// over a Command, created by a Commander registered for the endpoint
// protocol: see the ssh, http and file packages.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"

	"dario.cat/mergo"

	"github.com/go-git/go-remote/plumbing"
	"github.com/go-git/go-remote/plumbing/protocol/packp"
)

const (
	// UploadPackServiceName is the service answering fetches.
	UploadPackServiceName = "git-upload-pack"
	// ReceivePackServiceName is the service answering pushes.
	ReceivePackServiceName = "git-receive-pack"
)

var (
	ErrRepositoryNotFound     = errors.New("repository not found")
	ErrAuthenticationRequired = errors.New("authentication required")
	ErrAuthorizationFailed    = errors.New("authorization failed")
	ErrInvalidAuthMethod      = errors.New("invalid auth method")
	ErrAlreadyConnected       = errors.New("session already established")
	ErrUnsupportedDirection   = errors.New("unsupported direction")
	ErrUnsupportedService     = errors.New("unsupported service")
)

// Transport opens connections to the repository behind an endpoint.
type Transport interface {
	// Connect starts a session with the server and reads its reference
	// advertisement. When an error is returned, every resource acquired
	// while connecting has already been released.
	Connect(ctx context.Context, ep *Endpoint, opts *ConnectOptions) (Connection, error)
}

// Connection is an established session with a server.
type Connection interface {
	// AdvertisedReferences returns the advertisement read while
	// connecting, in the order it was received.
	AdvertisedReferences() []*packp.Entry
	// Capabilities returns the capabilities announced by the server.
	Capabilities() []string
	// Connected returns true until the connection is closed.
	Connected() bool
	// ReceivedBytes returns the number of bytes read from the server.
	ReceivedBytes() int64
	// Close ends the session, it is safe to call it more than once.
	Close() error
}

type AuthMethod interface {
	fmt.Stringer
	Name() string
}

// ConnectOptions describes how a connection is established.
type ConnectOptions struct {
	// Direction selects the service started on the server.
	Direction plumbing.Direction
	// Auth credentials, when nil each protocol uses its own default.
	Auth AuthMethod
	// InsecureSkipTLS skips the verification of the server certificate.
	InsecureSkipTLS bool
	// Progress receives the messages the server writes to its standard
	// error. Defaults to io.Discard.
	Progress io.Writer
	// Cancel stops the transfer at the next packet boundary once set.
	Cancel *CancelToken
	// Proxy provides info required for connecting to a proxy.
	Proxy ProxyOptions
}

// Validate validates the fields and sets the default values.
func (o *ConnectOptions) Validate() error {
	if o.Direction != plumbing.Fetch && o.Direction != plumbing.Push {
		return fmt.Errorf("%w: %d", ErrUnsupportedDirection, o.Direction)
	}

	if err := o.Proxy.Validate(); err != nil {
		return err
	}

	return mergo.Merge(o, &ConnectOptions{
		Progress: io.Discard,
		Cancel:   &CancelToken{},
	})
}

// Service returns the name of the service matching the direction.
func (o *ConnectOptions) Service() string {
	if o.Direction == plumbing.Push {
		return ReceivePackServiceName
	}

	return UploadPackServiceName
}
