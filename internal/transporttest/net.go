package transporttest

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

// ListenTCP listens on a free port of the loopback interface. The listener
// is closed on t.Cleanup.
func ListenTCP(t testing.TB) *net.TCPListener {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	t.Cleanup(func() {
		err := l.Close()
		if err != nil {
			require.ErrorIs(t, err, net.ErrClosed)
		}
	})

	return l.(*net.TCPListener)
}
