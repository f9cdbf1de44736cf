package remote

import (
	"os"
	"testing"

	"github.com/go-git/go-remote/internal/trace"
)

func TestMain(m *testing.M) {
	// GIT_TRACE and friends enable the trace output of the runs
	trace.ReadEnv()
	os.Exit(m.Run())
}
