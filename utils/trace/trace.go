// Package trace emits debugging traces for selected areas of the library,
// such as the packets exchanged with a remote or the references updated
// after a fetch. Traces are disabled until a target is enabled with
// SetTarget.
package trace

import (
	"fmt"
	"os"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

var (
	// logger is the logger to use for tracing.
	logger atomic.Pointer[logrus.FieldLogger]

	// current is the targets that are enabled for tracing.
	current atomic.Int32
)

func init() {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.DebugLevel)
	SetLogger(l)
}

// Target is a tracing target.
type Target int32

const (
	// General traces general operations.
	General Target = 1 << iota

	// Packet traces git packets.
	Packet

	// SSH traces SSH handshake operations. This does not have
	// a direct translation to an upstream trace option.
	SSH

	// Performance traces performance of go-remote components.
	Performance

	// HTTP traces HTTP operations and requests.
	HTTP
)

var targetNames = map[Target]string{
	General:     "general",
	Packet:      "packet",
	SSH:         "ssh",
	Performance: "performance",
	HTTP:        "http",
}

func (t Target) String() string {
	if n, ok := targetNames[t]; ok {
		return n
	}

	return fmt.Sprintf("target(%d)", int32(t))
}

// SetTarget sets the tracing targets.
func SetTarget(target Target) {
	current.Store(int32(target))
}

// SetLogger sets the logger to use for tracing.
func SetLogger(l logrus.FieldLogger) {
	logger.Store(&l)
}

// Enabled returns true if the target is enabled.
func (t Target) Enabled() bool {
	return int32(t)&current.Load() != 0
}

// Print prints the given message if tracing is enabled.
func (t Target) Print(args ...interface{}) {
	if t.Enabled() {
		t.entry().Debug(fmt.Sprint(args...))
	}
}

// Printf prints the given message if tracing is enabled.
func (t Target) Printf(format string, args ...interface{}) {
	if t.Enabled() {
		t.entry().Debugf(format, args...)
	}
}

// WithFields prints the given message with structured fields if tracing is
// enabled.
func (t Target) WithFields(fields logrus.Fields, msg string) {
	if t.Enabled() {
		t.entry().WithFields(fields).Debug(msg)
	}
}

func (t Target) entry() *logrus.Entry {
	return (*logger.Load()).WithField("target", t.String())
}
