// Package file implements the file transport protocol, serving local
// repositories from the same process.
package file

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/go-git/go-remote/internal/iocopy"
	"github.com/go-git/go-remote/plumbing/transport"
)

func init() {
	transport.Register("file", DefaultCommander)
}

// DefaultCommander is the default local commander.
var DefaultCommander transport.Commander = NewCommander(nil)

// DefaultTransport is the default local transport.
var DefaultTransport = NewTransport(nil)

type runner struct {
	loader Loader
}

// NewCommander returns a commander serving the repositories found by
// loader, DefaultLoader when nil.
func NewCommander(loader Loader) transport.Commander {
	if loader == nil {
		loader = DefaultLoader
	}

	return &runner{loader}
}

// NewTransport returns a new file transport over NewCommander(loader).
func NewTransport(loader Loader) transport.Transport {
	return transport.NewPackTransport(NewCommander(loader))
}

func (r *runner) Command(ctx context.Context, cmd string, ep *transport.Endpoint, _ transport.AuthMethod) (transport.Command, error) {
	switch cmd {
	case transport.UploadPackServiceName, transport.ReceivePackServiceName:
	default:
		return nil, fmt.Errorf("%w: %s", transport.ErrUnsupportedService, cmd)
	}

	return &command{
		ctx:     ctx,
		loader:  r.loader,
		ep:      ep,
		service: cmd,
	}, nil
}

type command struct {
	ctx     context.Context
	ep      *transport.Endpoint
	loader  Loader
	service string

	stdin  *bufferedPipeReader
	stdout *bufferedPipeWriter
	stderr *io.PipeWriter

	childIOFiles  []io.Closer
	parentIOFiles []io.Closer

	closed bool
	mu     sync.Mutex
}

// Start loads the repository and serves it from a goroutine: the
// advertisement goes to stdout, then stdin is drained until the client is
// done. Failures are reported on stderr, the way git does.
func (c *command) Start() error {
	if c.stdin == nil || c.stdout == nil || c.stderr == nil {
		return fmt.Errorf("file: pipes must be requested before Start")
	}

	go func() {
		err := c.serve()
		if err != nil {
			_, _ = fmt.Fprintf(c.stderr, "fatal: %s\n", err)
		}

		_ = c.stdout.Close()
		_ = c.stderr.Close()
	}()

	return nil
}

func (c *command) serve() error {
	st, err := c.loader.Load(c.ep)
	if errors.Is(err, transport.ErrRepositoryNotFound) {
		return fmt.Errorf("'%s' does not appear to be a git repository", c.ep.Path)
	}

	if err != nil {
		return err
	}

	if err := c.ctx.Err(); err != nil {
		return err
	}

	adv, err := advertise(st, c.service)
	if err != nil {
		return err
	}

	if err := adv.Encode(c.stdout); err != nil {
		return err
	}

	// the client ends the session with a flush-pkt and closes its side
	_, err = iocopy.Copy(io.Discard, c.stdin)
	return err
}

func (c *command) StderrPipe() (io.Reader, error) {
	pr, pw := io.Pipe()

	c.stderr = pw
	c.childIOFiles = append(c.childIOFiles, pw)
	c.parentIOFiles = append(c.parentIOFiles, pr)

	return pr, nil
}

func (c *command) StdinPipe() (io.WriteCloser, error) {
	pr, pw := newBufferedPipe()

	c.stdin = pr
	c.childIOFiles = append(c.childIOFiles, pr)
	c.parentIOFiles = append(c.parentIOFiles, pw)

	return pw, nil
}

func (c *command) StdoutPipe() (io.Reader, error) {
	pr, pw := newBufferedPipe()

	c.stdout = pw
	c.childIOFiles = append(c.childIOFiles, pw)
	c.parentIOFiles = append(c.parentIOFiles, pr)

	return pr, nil
}

// Close closes every pipe, ending the serving goroutine.
func (c *command) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	closeDescriptors(c.childIOFiles)
	closeDescriptors(c.parentIOFiles)
	c.closed = true

	return nil
}

func closeDescriptors(fds []io.Closer) {
	for _, fd := range fds {
		_ = fd.Close()
	}
}
