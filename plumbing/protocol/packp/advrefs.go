package packp

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-git/go-remote/plumbing"
	"github.com/go-git/go-remote/plumbing/format/pktline"
)

const (
	hashSize = 40
)

var (
	sp         = []byte(" ")
	null       = []byte("\x00")
	eol        = []byte("\n")
	peeled     = []byte("^{}")
	shallow    = []byte("shallow ")
	noHeadMark = []byte(" capabilities^{}\x00")
)

// ErrEmptyInput is returned by Decode when there was no advertised-message
// at all.
var ErrEmptyInput = errors.New("empty advertised-ref message")

// EntryType is the wire level kind of a line of an advertised-refs message.
type EntryType int8

const (
	// EntryRef is an advertised reference, peeled tags included.
	EntryRef EntryType = iota
	// EntryComment is a "# service=..." line sent by smart HTTP servers.
	EntryComment
	// EntryFlush is a flush-pkt found before the reference list.
	EntryFlush
	// EntryNoRefs is the "capabilities^{}" line sent by repositories
	// without references.
	EntryNoRefs
	// EntryShallow is a shallow commit announced by the server.
	EntryShallow
)

func (t EntryType) String() string {
	switch t {
	case EntryRef:
		return "ref"
	case EntryComment:
		return "comment"
	case EntryFlush:
		return "flush"
	case EntryNoRefs:
		return "no-refs"
	case EntryShallow:
		return "shallow"
	}

	return "unknown"
}

// Entry is one line of an advertised-refs message. Name holds the reference
// name, or the comment text. Capabilities are only set on the first
// reference, or on the no-refs line.
type Entry struct {
	Type         EntryType
	Name         string
	Hash         plumbing.Hash
	Capabilities []string
}

// Reference returns the entry as a hash reference.
func (e *Entry) Reference() *plumbing.Reference {
	return plumbing.NewHashReference(plumbing.ReferenceName(e.Name), e.Hash)
}

// IsPeeled returns true if the entry is the peeled value of a tag, as
// "refs/tags/v1^{}".
func (e *Entry) IsPeeled() bool {
	return e.Type == EntryRef && strings.HasSuffix(e.Name, string(peeled))
}

func (e *Entry) String() string {
	switch e.Type {
	case EntryRef, EntryShallow:
		return fmt.Sprintf("%s %s %s", e.Type, e.Hash, e.Name)
	}

	return fmt.Sprintf("%s %s", e.Type, e.Name)
}

// AdvRefs values represent the information transmitted on an
// advertised-refs message, in the order it was received. Values from this
// type are not zero-value safe, use the New function instead.
type AdvRefs struct {
	Entries []*Entry
}

// NewAdvRefs returns a pointer to a new AdvRefs value, ready to be used.
func NewAdvRefs() *AdvRefs {
	return &AdvRefs{}
}

// Refs returns the reference entries, in advertised order.
func (a *AdvRefs) Refs() []*Entry {
	var refs []*Entry
	for _, e := range a.Entries {
		if e.Type == EntryRef {
			refs = append(refs, e)
		}
	}

	return refs
}

// Capabilities returns the capabilities sent with the first reference.
func (a *AdvRefs) Capabilities() []string {
	for _, e := range a.Entries {
		if e.Type == EntryRef || e.Type == EntryNoRefs {
			return e.Capabilities
		}
	}

	return nil
}

// IsEmpty returns true if the message holds no reference.
func (a *AdvRefs) IsEmpty() bool {
	return len(a.Refs()) == 0
}

// Decode reads the next advertised-refs message from r.
func (a *AdvRefs) Decode(r io.Reader) error {
	return NewDecoder(r).Decode(a)
}

// Encode writes the advertised-refs message to w as pkt-lines, ending with a
// flush-pkt.
func (a *AdvRefs) Encode(w io.Writer) error {
	for _, e := range a.Entries {
		var err error
		switch e.Type {
		case EntryComment:
			_, err = pktline.WritePacketf(w, "%s\n", e.Name)
		case EntryFlush:
			err = pktline.WriteFlush(w)
		case EntryNoRefs:
			_, err = pktline.WritePacketf(w, "%s%s%s\n", plumbing.ZeroHash, noHeadMark, strings.Join(e.Capabilities, " "))
		case EntryShallow:
			_, err = pktline.WritePacketf(w, "%s%s\n", shallow, e.Hash)
		case EntryRef:
			if len(e.Capabilities) > 0 {
				_, err = pktline.WritePacketf(w, "%s %s\x00%s\n", e.Hash, e.Name, strings.Join(e.Capabilities, " "))
			} else {
				_, err = pktline.WritePacketf(w, "%s %s\n", e.Hash, e.Name)
			}
		}

		if err != nil {
			return err
		}
	}

	return pktline.WriteFlush(w)
}
