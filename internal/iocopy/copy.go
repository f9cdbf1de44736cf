// Package iocopy copies streams through pooled buffers.
package iocopy

import (
	"io"
	"sync"
)

const bufferSize = 32 * 1024

// pointers avoid an allocation when the slice is put back in the pool
var buffers = sync.Pool{
	New: func() any {
		b := make([]byte, bufferSize)
		return &b
	},
}

// Copy works as io.Copy, borrowing its buffer from a shared pool.
func Copy(w io.Writer, r io.Reader) (int64, error) {
	buf := buffers.Get().(*[]byte)
	defer buffers.Put(buf)

	return io.CopyBuffer(w, r, *buf)
}
