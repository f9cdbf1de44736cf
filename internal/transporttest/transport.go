// Package transporttest provides a scripted transport.Transport for tests
// of code driving remotes, plus helpers shared by the transport tests.
package transporttest

import (
	"context"
	"io"
	"sync"

	"github.com/go-git/go-remote/plumbing"
	"github.com/go-git/go-remote/plumbing/protocol/packp"
	"github.com/go-git/go-remote/plumbing/transport"
)

// Call records the arguments of a Connect call.
type Call struct {
	Endpoint *transport.Endpoint
	Options  transport.ConnectOptions
}

// Transport is a transport.Transport answering every Connect with the same
// advertisement. The zero value advertises nothing.
type Transport struct {
	// Entries is the advertisement returned by every connection.
	Entries []*packp.Entry
	// Err, when set, is returned by Connect instead of a connection.
	Err error
	// Progress is written to the progress sink of every successful
	// connection, mimicking the messages of a server.
	Progress string
	// ReceivedBytes is reported by every connection.
	ReceivedBytes int64

	m     sync.Mutex
	calls []Call
	conns []*Connection
}

// New returns a Transport advertising the given entries.
func New(entries ...*packp.Entry) *Transport {
	return &Transport{Entries: entries}
}

// Connect implements transport.Transport.
func (t *Transport) Connect(ctx context.Context, ep *transport.Endpoint, opts *transport.ConnectOptions) (transport.Connection, error) {
	if opts == nil {
		opts = &transport.ConnectOptions{}
	}

	t.m.Lock()
	defer t.m.Unlock()

	t.calls = append(t.calls, Call{Endpoint: ep, Options: *opts})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if t.Err != nil {
		return nil, t.Err
	}

	if err := opts.Cancel.Err(); err != nil {
		return nil, err
	}

	if t.Progress != "" && opts.Progress != nil {
		if _, err := io.WriteString(opts.Progress, t.Progress); err != nil {
			return nil, err
		}
	}

	c := &Connection{entries: t.Entries, received: t.ReceivedBytes}
	c.connected = true
	t.conns = append(t.conns, c)

	return c, nil
}

// Calls returns every recorded Connect call, in order.
func (t *Transport) Calls() []Call {
	t.m.Lock()
	defer t.m.Unlock()

	return append([]Call(nil), t.calls...)
}

// LastCall returns the most recent Connect call. It panics when Connect was
// never called.
func (t *Transport) LastCall() Call {
	calls := t.Calls()
	return calls[len(calls)-1]
}

// Connections returns the connections handed out, in order.
func (t *Transport) Connections() []*Connection {
	t.m.Lock()
	defer t.m.Unlock()

	return append([]*Connection(nil), t.conns...)
}

// Connection is the transport.Connection returned by Transport.
type Connection struct {
	entries  []*packp.Entry
	received int64

	m         sync.Mutex
	connected bool
	closes    int
}

// AdvertisedReferences implements transport.Connection.
func (c *Connection) AdvertisedReferences() []*packp.Entry {
	return c.entries
}

// Capabilities implements transport.Connection.
func (c *Connection) Capabilities() []string {
	adv := &packp.AdvRefs{Entries: c.entries}
	return adv.Capabilities()
}

// Connected implements transport.Connection.
func (c *Connection) Connected() bool {
	c.m.Lock()
	defer c.m.Unlock()

	return c.connected
}

// ReceivedBytes implements transport.Connection.
func (c *Connection) ReceivedBytes() int64 {
	return c.received
}

// Close implements transport.Connection.
func (c *Connection) Close() error {
	c.m.Lock()
	defer c.m.Unlock()

	c.connected = false
	c.closes++
	return nil
}

// Closes returns how many times Close was called.
func (c *Connection) Closes() int {
	c.m.Lock()
	defer c.m.Unlock()

	return c.closes
}

// Ref returns an advertised reference entry.
func Ref(name, hash string) *packp.Entry {
	return &packp.Entry{
		Type: packp.EntryRef,
		Name: name,
		Hash: plumbing.NewHash(hash),
	}
}

// Comment returns an advertised comment entry, as the "# service=" line of
// smart HTTP servers.
func Comment(text string) *packp.Entry {
	return &packp.Entry{Type: packp.EntryComment, Name: text}
}
