package remote

import (
	"context"
	"errors"

	"github.com/go-git/go-remote/plumbing"
	"github.com/go-git/go-remote/plumbing/protocol/packp"
	"github.com/go-git/go-remote/plumbing/storer"
	"github.com/go-git/go-remote/plumbing/transport"
	"github.com/go-git/go-remote/utils/trace"
)

// Connect opens a connection to the url of the given direction and reads
// the references advertised by the server. An open connection is closed
// first. Connect clears a previous Stop.
func (r *Remote) Connect(ctx context.Context, dir plumbing.Direction) error {
	if err := r.Disconnect(); err != nil {
		return err
	}

	ep, err := transport.NewEndpoint(r.URLForDirection(dir))
	if err != nil {
		return err
	}

	r.cancel.Reset()
	conn, err := r.repo.Transport.Connect(ctx, ep, &transport.ConnectOptions{
		Direction:       dir,
		Auth:            r.auth,
		InsecureSkipTLS: !r.checkCert,
		Progress:        r.progress,
		Cancel:          r.cancel,
		Proxy:           r.proxy,
	})
	if err != nil {
		return err
	}

	r.conn = conn
	r.stats = TransferProgress{
		ReceivedBytes:        conn.ReceivedBytes(),
		AdvertisedReferences: len(refEntries(conn.AdvertisedReferences())),
	}

	trace.General.Printf("remote: connected to %s, %d references advertised",
		ep.Redacted(), r.stats.AdvertisedReferences)

	return nil
}

// Connected returns true while the remote holds an open connection.
func (r *Remote) Connected() bool {
	return r.conn != nil && r.conn.Connected()
}

// Advertised returns every entry of the advertisement, in the order sent by
// the server.
func (r *Remote) Advertised() ([]*packp.Entry, error) {
	if !r.Connected() {
		return nil, ErrNotConnected
	}

	return r.conn.AdvertisedReferences(), nil
}

// Capabilities returns the capabilities announced by the server.
func (r *Remote) Capabilities() ([]string, error) {
	if !r.Connected() {
		return nil, ErrNotConnected
	}

	return r.conn.Capabilities(), nil
}

// List calls fn for every advertised reference, in the order sent by the
// server. Returning storer.ErrStop from fn stops the iteration without error,
// any other error stops it with ErrUserCancelled.
func (r *Remote) List(fn func(*plumbing.Reference) error) error {
	entries, err := r.Advertised()
	if err != nil {
		return err
	}

	for _, e := range refEntries(entries) {
		if err := fn(e.Reference()); err != nil {
			if errors.Is(err, storer.ErrStop) {
				return nil
			}

			return userCancelled(err)
		}
	}

	return nil
}

func refEntries(entries []*packp.Entry) []*packp.Entry {
	var refs []*packp.Entry
	for _, e := range entries {
		if e.Type == packp.EntryRef {
			refs = append(refs, e)
		}
	}

	return refs
}

// Stop asks the running transfer to stop, at its next checkpoint.
func (r *Remote) Stop() {
	r.cancel.Cancel()
}

// Disconnect closes the connection, if any.
func (r *Remote) Disconnect() error {
	if r.conn == nil {
		return nil
	}

	conn := r.conn
	r.conn = nil
	return conn.Close()
}

// Close disconnects the remote and releases the transport. The remote can
// still be saved or renamed.
func (r *Remote) Close() error {
	err := r.Disconnect()
	r.progress.set(nil)
	r.callbacks = Callbacks{}
	return err
}
