package transport

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/go-git/go-remote/plumbing/format/pktline"
)

type mockCommand struct {
	stdin  bytes.Buffer
	stdout bytes.Buffer
	stderr bytes.Buffer

	m       sync.Mutex
	started bool
	closed  int
}

func (c *mockCommand) StderrPipe() (io.Reader, error) {
	return &c.stderr, nil
}

func (c *mockCommand) StdinPipe() (io.WriteCloser, error) {
	return nopWriteCloser{&c.stdin}, nil
}

func (c *mockCommand) StdoutPipe() (io.Reader, error) {
	return &c.stdout, nil
}

func (c *mockCommand) Start() error {
	c.started = true
	return nil
}

func (c *mockCommand) Close() error {
	c.m.Lock()
	defer c.m.Unlock()
	c.closed++
	return nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

type mockCommander struct {
	stdout string
	stderr string
	err    error

	cmds    []*mockCommand
	service []string
	auth    []AuthMethod
}

func (c *mockCommander) Command(_ context.Context, cmd string, _ *Endpoint, auth AuthMethod) (Command, error) {
	c.service = append(c.service, cmd)
	c.auth = append(c.auth, auth)
	if c.err != nil {
		return nil, c.err
	}

	mc := &mockCommand{}
	mc.stdout.WriteString(c.stdout)
	mc.stderr.WriteString(c.stderr)
	c.cmds = append(c.cmds, mc)
	return mc, nil
}

func advertisement(lines ...string) string {
	var buf bytes.Buffer
	for _, l := range lines {
		if l == "" {
			_ = pktline.WriteFlush(&buf)
			continue
		}

		_, _ = pktline.WritePacketf(&buf, "%s\n", l)
	}

	return buf.String()
}

type mockAuth struct{}

func (mockAuth) Name() string   { return "mock" }
func (mockAuth) String() string { return "mock" }
