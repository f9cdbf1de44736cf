// Package pktline implements the pkt-line framing used by the git wire
// protocols: every packet is prefixed by its length as four hexadecimal
// digits, the special lengths 0000, 0001 and 0002 being flush, delimiter and
// response-end packets.
//
// See https://git-scm.com/docs/protocol-common#_pkt_line_format
package pktline

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/go-git/go-remote/utils/trace"
)

const (
	// Err is returned as length when the packet could not be read.
	Err = iota - 1

	// Flush is the length of a flush packet.
	Flush

	// Delim is the length of a delim packet.
	Delim

	// ResponseEnd is the length of a response-end packet.
	ResponseEnd
)

const (
	// LenSize is the size of the packet length prefix.
	LenSize = 4

	// MaxPayloadSize is the maximum payload size of a packet.
	MaxPayloadSize = MaxSize - LenSize

	// MaxSize is the maximum size of a packet, length prefix included.
	MaxSize = 65520
)

var (
	// ErrInvalidPktLen is returned when the length prefix is not a valid
	// hexadecimal length.
	ErrInvalidPktLen = errors.New("invalid pkt-len found")

	// ErrPayloadTooLong is returned when writing a payload bigger than
	// MaxPayloadSize.
	ErrPayloadTooLong = errors.New("payload is too long")

	// ErrNilWriter is returned when a nil writer is passed to WritePacket.
	ErrNilWriter = errors.New("nil writer")

	flushPkt = []byte{'0', '0', '0', '0'}
	emptyPkt = []byte{'0', '0', '0', '4'}

	errPrefix = []byte("ERR ")
)

// ErrorLine is a packet line that contains an error message.
// Once this packet is sent by client or server, the data transfer process is
// terminated.
// See https://git-scm.com/docs/pack-protocol#_pkt_line_format
type ErrorLine struct {
	Text string
}

// Error implements the error interface.
func (e *ErrorLine) Error() string {
	return e.Text
}

// ParseLength parses the four hexadecimal digits of a length prefix.
func ParseLength(b []byte) (int, error) {
	if len(b) < LenSize {
		return Err, fmt.Errorf("%w: %q", ErrInvalidPktLen, b)
	}

	var n int
	for _, c := range b[:LenSize] {
		var v byte
		switch {
		case c >= '0' && c <= '9':
			v = c - '0'
		case c >= 'a' && c <= 'f':
			v = c - 'a' + 10
		case c >= 'A' && c <= 'F':
			v = c - 'A' + 10
		default:
			return Err, fmt.Errorf("%w: %q", ErrInvalidPktLen, b[:LenSize])
		}

		n = n<<4 | int(v)
	}

	switch {
	case n <= ResponseEnd:
		return n, nil
	case n < LenSize || n > MaxSize:
		return Err, fmt.Errorf("%w: %q", ErrInvalidPktLen, b[:LenSize])
	}

	return n, nil
}

// WritePacket writes a pktline packet.
func WritePacket(w io.Writer, p []byte) (n int, err error) {
	if w == nil {
		return 0, ErrNilWriter
	}

	defer func() {
		if err == nil {
			trace.Packet.Printf("packet: > %04x %s", n, p)
		}
	}()

	if len(p) == 0 {
		return w.Write(emptyPkt)
	}

	if len(p) > MaxPayloadSize {
		return 0, ErrPayloadTooLong
	}

	n, err = fmt.Fprintf(w, "%04x", len(p)+LenSize)
	if err != nil {
		return
	}

	n2, err := w.Write(p)
	n += n2
	return
}

// WritePacketf writes a pktline packet from a format string.
func WritePacketf(w io.Writer, format string, a ...interface{}) (n int, err error) {
	if len(a) == 0 {
		return WritePacket(w, []byte(format))
	}

	return WritePacket(w, []byte(fmt.Sprintf(format, a...)))
}

// WriteErrorPacket writes an error packet.
func WriteErrorPacket(w io.Writer, e error) (n int, err error) {
	return WritePacketf(w, "%s%s\n", errPrefix, e.Error())
}

// WriteFlush writes a flush packet.
// This always writes 4 bytes.
func WriteFlush(w io.Writer) (err error) {
	defer func() {
		if err == nil {
			trace.Packet.Printf("packet: > 0000")
		}
	}()

	_, err = w.Write(flushPkt)
	return err
}

// ReadPacket reads a pktline packet.
// This returns the length of the packet, the packet payload, and an error.
// The error is of type *ErrorLine if the packet is an error packet.
// Use packet length to determine the type of packet i.e. 0 is a flush packet,
// 1 is a delim packet, 2 is a response-end packet, and a length greater or
// equal to 4 is a data packet.
func ReadPacket(r io.Reader) (l int, p []byte, err error) {
	defer func() {
		if err == nil {
			trace.Packet.Printf("packet: < %04x %s", l, p)
		}
	}()

	var pktlen [LenSize]byte
	n, err := io.ReadFull(r, pktlen[:])
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return Err, nil, fmt.Errorf("%w: %d", ErrInvalidPktLen, n)
		}

		return Err, nil, err
	}

	length, err := ParseLength(pktlen[:])
	if err != nil {
		return Err, nil, err
	}

	switch length {
	case Flush, Delim, ResponseEnd:
		return length, nil, nil
	case LenSize:
		return length, []byte{}, nil
	}

	data := make([]byte, length-LenSize)
	if _, err := io.ReadFull(r, data); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}

		return Err, nil, err
	}

	if bytes.HasPrefix(data, errPrefix) {
		err = &ErrorLine{
			Text: string(bytes.TrimSpace(data[len(errPrefix):])),
		}
	}

	return length, data, err
}
