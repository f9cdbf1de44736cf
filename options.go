package remote

import (
	"io"
	"sync"

	"github.com/go-git/go-remote/plumbing"
)

const (
	// DefaultRemoteName name of the default Remote, just like git command
	DefaultRemoteName = "origin"
)

// Callbacks are called by a Remote while talking to a server and updating
// the local references. Any field may be nil.
type Callbacks struct {
	// Progress receives the messages sent by the server, the lines shown as
	// "remote: ..." by git.
	Progress io.Writer
	// UpdateTips is called for every local reference changed by UpdateTips,
	// old being the zero hash when the reference did not exist. Returning an
	// error stops the update.
	UpdateTips func(name plumbing.ReferenceName, old, new plumbing.Hash) error
}

// TransferProgress holds the statistics of the last connection of a remote.
type TransferProgress struct {
	// ReceivedBytes is the number of bytes read from the server.
	ReceivedBytes int64
	// AdvertisedReferences is the number of references advertised.
	AdvertisedReferences int
}

// progressWriter forwards the progress of a connection to the callbacks
// currently set on the remote, so they can be replaced while connected.
type progressWriter struct {
	m sync.RWMutex
	w io.Writer
}

func (p *progressWriter) set(w io.Writer) {
	p.m.Lock()
	defer p.m.Unlock()
	p.w = w
}

func (p *progressWriter) Write(b []byte) (int, error) {
	p.m.RLock()
	defer p.m.RUnlock()

	if p.w == nil {
		return len(b), nil
	}

	return p.w.Write(b)
}
