package file

import (
	"bytes"
	"errors"
	"io"
	"sync"
)

// ErrBufferFull is returned when the pipe buffer exceeds its maximum size.
var ErrBufferFull = errors.New("pipe buffer full")

// maxBufferSize bounds what a side may write ahead of the other. An
// advertisement of a repository with many references fits comfortably.
const maxBufferSize = 10 * 1024 * 1024

// bufferedPipe is a pipe whose writes complete without waiting for a
// reader, up to maxBufferSize. The in-process server writes its whole
// advertisement before the client starts reading.
type bufferedPipe struct {
	buf    bytes.Buffer
	mu     sync.Mutex
	cond   *sync.Cond
	closed bool
	err    error
}

type bufferedPipeReader struct {
	p *bufferedPipe
}

type bufferedPipeWriter struct {
	p *bufferedPipe
}

func newBufferedPipe() (*bufferedPipeReader, *bufferedPipeWriter) {
	p := &bufferedPipe{}
	p.cond = sync.NewCond(&p.mu)
	return &bufferedPipeReader{p: p}, &bufferedPipeWriter{p: p}
}

// Read blocks until data is available or the pipe is closed. Data written
// before the writer closed is still returned, then io.EOF.
func (r *bufferedPipeReader) Read(data []byte) (n int, err error) {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	for r.p.buf.Len() == 0 && !r.p.closed {
		r.p.cond.Wait()
	}

	if r.p.buf.Len() > 0 {
		return r.p.buf.Read(data)
	}

	if r.p.err != nil {
		return 0, r.p.err
	}

	return 0, io.EOF
}

// Close closes the read half, pending and later writes fail.
func (r *bufferedPipeReader) Close() error {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	if !r.p.closed {
		r.p.closed = true
		r.p.err = io.ErrClosedPipe
		r.p.buf.Reset()
		r.p.cond.Broadcast()
	}

	return nil
}

func (w *bufferedPipeWriter) Write(data []byte) (n int, err error) {
	w.p.mu.Lock()
	defer w.p.mu.Unlock()

	if w.p.closed {
		return 0, io.ErrClosedPipe
	}

	if w.p.buf.Len()+len(data) > maxBufferSize {
		return 0, ErrBufferFull
	}

	n, err = w.p.buf.Write(data)
	w.p.cond.Broadcast()
	return n, err
}

func (w *bufferedPipeWriter) Close() error {
	w.p.mu.Lock()
	defer w.p.mu.Unlock()

	if !w.p.closed {
		w.p.closed = true
		w.p.cond.Broadcast()
	}

	return nil
}
