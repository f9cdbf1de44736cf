package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/go-git/go-remote/plumbing/format/pktline"
	"github.com/go-git/go-remote/plumbing/protocol/packp"
	"github.com/go-git/go-remote/utils/ioutil"
	"github.com/go-git/go-remote/utils/trace"
)

// Commander creates Command instances. This is the main entry point for
// transport implementations.
type Commander interface {
	// Command creates a new Command for the given git command and
	// endpoint. cmd can be git-upload-pack or git-receive-pack. An
	// error should be returned if the endpoint is not supported or the
	// command cannot be created (e.g. binary does not exist, connection
	// cannot be established).
	Command(ctx context.Context, cmd string, ep *Endpoint, auth AuthMethod) (Command, error)
}

// Command is used for a single command execution.
// This interface is modeled after exec.Cmd and ssh.Session in the standard
// library.
type Command interface {
	// StderrPipe returns a pipe that will be connected to the command's
	// standard error when the command starts. It should not be called after
	// Start.
	StderrPipe() (io.Reader, error)
	// StdinPipe returns a pipe that will be connected to the command's
	// standard input when the command starts. It should not be called after
	// Start. The pipe should be closed when no more input is expected.
	StdinPipe() (io.WriteCloser, error)
	// StdoutPipe returns a pipe that will be connected to the command's
	// standard output when the command starts. It should not be called after
	// Start.
	StdoutPipe() (io.Reader, error)
	// Start starts the specified command. It does not wait for it to
	// complete.
	Start() error
	// Close closes the command and releases any resources used by it. It
	// will block until the command exits.
	Close() error
}

type packTransport struct {
	cmdr Commander
}

// NewPackTransport creates a transport speaking the pack protocol over the
// commands created by the given Commander. When cmdr is nil, the commander
// registered for the protocol of each endpoint is used.
func NewPackTransport(cmdr Commander) Transport {
	return &packTransport{cmdr: cmdr}
}

func (t *packTransport) Connect(ctx context.Context, ep *Endpoint, opts *ConnectOptions) (Connection, error) {
	if opts == nil {
		opts = &ConnectOptions{}
	}

	if err := opts.Validate(); err != nil {
		return nil, err
	}

	if err := opts.Cancel.Err(); err != nil {
		return nil, err
	}

	cmdr := t.cmdr
	if cmdr == nil {
		var err error
		if cmdr, err = Get(ep.Protocol); err != nil {
			return nil, err
		}
	}

	e := *ep
	e.InsecureSkipTLS = e.InsecureSkipTLS || opts.InsecureSkipTLS
	if opts.Proxy.URL != "" {
		e.Proxy = opts.Proxy
	}

	trace.General.Printf("transport: connecting to %s (%s)", e.Redacted(), opts.Service())
	cmd, err := cmdr.Command(ctx, opts.Service(), &e, opts.Auth)
	if err != nil {
		return nil, err
	}

	c := &packConnection{cmd: cmd, done: make(chan struct{})}
	if err := c.start(ctx, opts); err != nil {
		return nil, err
	}

	return c, nil
}

type packConnection struct {
	cmd    Command
	stdin  io.WriteCloser
	stdout *ioutil.CountingReader

	adv  *packp.AdvRefs
	tail stderrTail
	done chan struct{}

	m         sync.Mutex
	connected bool
}

// start runs the command and reads the advertisement. The command is closed
// when an error is returned.
func (c *packConnection) start(ctx context.Context, opts *ConnectOptions) error {
	var err error
	if c.stdin, err = c.cmd.StdinPipe(); err != nil {
		return c.abort(err)
	}

	stdout, err := c.cmd.StdoutPipe()
	if err != nil {
		return c.abort(err)
	}

	stderr, err := c.cmd.StderrPipe()
	if err != nil {
		return c.abort(err)
	}

	if err := c.cmd.Start(); err != nil {
		return c.abort(err)
	}

	go func() {
		defer close(c.done)
		_, _ = io.Copy(io.MultiWriter(&c.tail, opts.Progress), stderr)
	}()

	c.stdout = ioutil.NewCountingReader(
		NewCancelReader(ioutil.NewContextReader(ctx, stdout), opts.Cancel),
	)

	c.adv = packp.NewAdvRefs()
	if err := c.adv.Decode(c.stdout); err != nil {
		_ = c.cmd.Close()
		<-c.done
		return c.decodeError(err)
	}

	trace.General.Printf("transport: %d advertised entries", len(c.adv.Refs()))
	c.connected = true
	return nil
}

func (c *packConnection) abort(err error) error {
	_ = c.cmd.Close()
	return err
}

// decodeError classifies the reason the advertisement could not be read,
// using what the server wrote to its standard error.
func (c *packConnection) decodeError(err error) error {
	if errors.Is(err, ErrCanceled) || errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var el *pktline.ErrorLine
	if errors.As(err, &el) {
		if isRepoNotFound(el.Text) {
			return NewRepositoryNotFoundError(NewRemoteError(el.Text))
		}

		return NewRemoteError(el.Text)
	}

	reason := c.tail.String()
	if isRepoNotFound(reason) {
		return NewRepositoryNotFoundError(NewRemoteError(reason))
	}

	if reason != "" {
		return NewRemoteError(reason)
	}

	if errors.Is(err, packp.ErrEmptyInput) {
		return NewRepositoryNotFoundError(err)
	}

	return err
}

var repoNotFoundMessages = []string{
	"not found",
	"does not exist",
	"repository not exported",
	"does not appear to be a git repository",
	"no such repository",
}

func isRepoNotFound(s string) bool {
	s = strings.ToLower(s)
	for _, m := range repoNotFoundMessages {
		if strings.Contains(s, m) {
			return true
		}
	}

	return false
}

func (c *packConnection) AdvertisedReferences() []*packp.Entry {
	return c.adv.Refs()
}

func (c *packConnection) Capabilities() []string {
	return c.adv.Capabilities()
}

func (c *packConnection) Connected() bool {
	c.m.Lock()
	defer c.m.Unlock()
	return c.connected
}

func (c *packConnection) ReceivedBytes() int64 {
	return c.stdout.Count()
}

// Close tells the server no wants follow and ends the command.
func (c *packConnection) Close() (err error) {
	c.m.Lock()
	defer c.m.Unlock()

	if !c.connected {
		return nil
	}

	c.connected = false
	defer func() {
		<-c.done
	}()

	defer ioutil.CheckClose(c.cmd, &err)
	if ferr := pktline.WriteFlush(c.stdin); ferr != nil && !errors.Is(ferr, io.ErrClosedPipe) {
		trace.General.Printf("transport: flush on close: %s", ferr)
	}

	if cerr := c.stdin.Close(); cerr != nil {
		return fmt.Errorf("closing stdin: %w", cerr)
	}

	return nil
}

const maxStderrTail = 4 << 10

// stderrTail keeps the last bytes written by the server to its standard
// error.
type stderrTail struct {
	m   sync.Mutex
	buf []byte
}

func (t *stderrTail) Write(p []byte) (int, error) {
	t.m.Lock()
	defer t.m.Unlock()

	t.buf = append(t.buf, p...)
	if over := len(t.buf) - maxStderrTail; over > 0 {
		t.buf = t.buf[over:]
	}

	return len(p), nil
}

func (t *stderrTail) String() string {
	t.m.Lock()
	defer t.m.Unlock()
	return strings.TrimSpace(string(t.buf))
}
