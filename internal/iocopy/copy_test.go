package iocopy

import (
	"bytes"
	"crypto/rand"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopy(t *testing.T) {
	data := make([]byte, 3*bufferSize+17)
	_, err := rand.Read(data)
	require.NoError(t, err)

	var dst bytes.Buffer
	n, err := Copy(&dst, bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), n)
	assert.Equal(t, data, dst.Bytes())
}

func BenchmarkCopy(b *testing.B) {
	data := make([]byte, 1024*1024)
	_, _ = rand.Read(data)

	b.ResetTimer()

	var src bytes.Reader
	for i := 0; i < b.N; i++ {
		src.Reset(data)
		_, _ = Copy(io.Discard, &src)
	}
}
