package transport

import (
	"errors"
	"io"
	"sync/atomic"
)

// ErrCanceled is returned when a transfer stops because its CancelToken was
// set.
var ErrCanceled = errors.New("transfer canceled")

// CancelToken is a cancellation flag shared between the owner of a transfer
// and the transport performing it. Cancellation is cooperative: the
// transport checks the flag between packets.
type CancelToken struct {
	canceled atomic.Bool
}

// Cancel sets the flag.
func (t *CancelToken) Cancel() {
	t.canceled.Store(true)
}

// Reset clears the flag so the token can be reused by a new transfer.
func (t *CancelToken) Reset() {
	t.canceled.Store(false)
}

// IsCanceled returns true once Cancel has been called.
func (t *CancelToken) IsCanceled() bool {
	return t != nil && t.canceled.Load()
}

// Err returns ErrCanceled if the token is set.
func (t *CancelToken) Err() error {
	if t.IsCanceled() {
		return ErrCanceled
	}

	return nil
}

type cancelReader struct {
	r     io.Reader
	token *CancelToken
}

// NewCancelReader returns a reader failing with ErrCanceled once token is
// set, checked before every read.
func NewCancelReader(r io.Reader, token *CancelToken) io.Reader {
	return &cancelReader{r: r, token: token}
}

func (c *cancelReader) Read(p []byte) (int, error) {
	if err := c.token.Err(); err != nil {
		return 0, err
	}

	return c.r.Read(p)
}
