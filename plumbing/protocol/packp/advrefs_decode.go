package packp

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/go-git/go-remote/plumbing"
	"github.com/go-git/go-remote/plumbing/format/pktline"
)

// A Decoder reads and decodes AdvRef values from an input stream.
type Decoder struct {
	r     io.Reader     // the input stream
	line  []byte        // current pkt-line contents, use nextLine() to make it advance
	flush bool          // the current pkt-line is a flush-pkt
	nLine int           // current pkt-line number for debugging, begins at 1
	hash  plumbing.Hash // last hash read
	err   error         // sticky error, use the error() method to fill this out
	data  *AdvRefs      // parsed data is stored here
}

// NewDecoder returns a new decoder that reads from r.
//
// Will not read more data from r than necessary.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r}
}

// Decode reads the next advertised-refs message from its input and
// appends its entries to v.
func (d *Decoder) Decode(v *AdvRefs) error {
	d.data = v

	for state := decodePrefix; state != nil; {
		state = state(d)
	}

	return d.err
}

type decoderStateFn func(*Decoder) decoderStateFn

// fills out the decoder sticky error
func (d *Decoder) error(format string, a ...interface{}) {
	d.err = fmt.Errorf("pkt-line %d: %s", d.nLine, fmt.Sprintf(format, a...))
}

// Reads a new pkt-line, makes its payload available as d.line and increments
// d.nLine. A successful invocation returns true, otherwise false is returned
// and the sticky error is filled out accordingly. Trims eols at the end of
// the payloads. Error lines sent by the server are kept as the sticky error.
func (d *Decoder) nextLine() bool {
	d.nLine++

	l, p, err := pktline.ReadPacket(d.r)
	if err != nil {
		var el *pktline.ErrorLine
		switch {
		case errors.As(err, &el):
			d.err = el
		case err == io.EOF && d.nLine == 1:
			d.err = ErrEmptyInput
		case err == io.EOF:
			d.error("EOF")
		default:
			d.err = err
		}

		return false
	}

	d.flush = l == pktline.Flush
	d.line = bytes.TrimSuffix(p, eol)

	return true
}

// The HTTP smart prefix is often followed by a flush-pkt. A flush-pkt
// without a prefix is an empty advertisement.
func decodePrefix(d *Decoder) decoderStateFn {
	if ok := d.nextLine(); !ok {
		return nil
	}

	prefixed := false
	if !d.flush && isPrefix(d.line) {
		prefixed = true
		d.data.Entries = append(d.data.Entries, &Entry{
			Type: EntryComment,
			Name: string(d.line),
		})

		if ok := d.nextLine(); !ok {
			return nil
		}
	}

	if d.flush {
		d.data.Entries = append(d.data.Entries, &Entry{Type: EntryFlush})
		if !prefixed {
			return nil
		}

		if ok := d.nextLine(); !ok {
			return nil
		}

		if d.flush {
			return nil
		}
	}

	return decodeFirstHash
}

func isPrefix(payload []byte) bool {
	return len(payload) > 0 && payload[0] == '#'
}

// If the first hash is zero, then a no-refs is coming. Otherwise, a
// list-of-refs is coming, and the hash will be followed by the first
// advertised ref.
func decodeFirstHash(d *Decoder) decoderStateFn {
	if len(d.line) < hashSize {
		d.error("cannot read hash, pkt-line too short")
		return nil
	}

	if _, err := hex.Decode(d.hash[:], d.line[:hashSize]); err != nil {
		d.error("invalid hash text: %s", err)
		return nil
	}

	d.line = d.line[hashSize:]

	if d.hash.IsZero() {
		return decodeSkipNoRefs
	}

	return decodeFirstRef
}

// Skips SP "capabilities^{}" NUL
func decodeSkipNoRefs(d *Decoder) decoderStateFn {
	if len(d.line) < len(noHeadMark) {
		d.error("too short zero-id ref")
		return nil
	}

	if !bytes.HasPrefix(d.line, noHeadMark) {
		d.error("malformed zero-id ref")
		return nil
	}

	e := &Entry{Type: EntryNoRefs, Name: "capabilities^{}"}
	e.Capabilities = readCapabilities(d.line[len(noHeadMark):])
	d.data.Entries = append(d.data.Entries, e)

	return decodeOtherRefs
}

// decode the refname, expects SP refname NULL
func decodeFirstRef(d *Decoder) decoderStateFn {
	if len(d.line) < 3 {
		d.error("line too short after hash")
		return nil
	}

	if !bytes.HasPrefix(d.line, sp) {
		d.error("no space after hash")
		return nil
	}
	d.line = d.line[1:]

	chunks := bytes.SplitN(d.line, null, 2)
	if len(chunks) < 2 {
		d.error("NULL not found")
		return nil
	}

	d.data.Entries = append(d.data.Entries, &Entry{
		Type:         EntryRef,
		Name:         string(chunks[0]),
		Hash:         d.hash,
		Capabilities: readCapabilities(chunks[1]),
	})

	return decodeOtherRefs
}

func readCapabilities(data []byte) []string {
	var caps []string
	for _, c := range bytes.Split(data, sp) {
		if len(c) > 0 {
			caps = append(caps, string(c))
		}
	}

	return caps
}

// The refs are either tips (obj-id SP refname) or a peeled (obj-id SP refname^{}).
// If there are no refs, then there might be a shallow or flush-pkt.
func decodeOtherRefs(d *Decoder) decoderStateFn {
	if ok := d.nextLine(); !ok {
		return nil
	}

	if d.flush {
		return nil
	}

	if bytes.HasPrefix(d.line, shallow) {
		return decodeShallow
	}

	ref, hash, err := readRef(d.line)
	if err != nil {
		d.error("%s", err)
		return nil
	}

	d.data.Entries = append(d.data.Entries, &Entry{
		Type: EntryRef,
		Name: ref,
		Hash: hash,
	})

	return decodeOtherRefs
}

// Reads a ref-name
func readRef(data []byte) (string, plumbing.Hash, error) {
	chunks := bytes.Split(data, sp)
	switch {
	case len(chunks) == 1:
		return "", plumbing.ZeroHash, fmt.Errorf("malformed ref data: no space was found")
	case len(chunks) > 2:
		return "", plumbing.ZeroHash, fmt.Errorf("malformed ref data: more than one space found")
	}

	h, ok := plumbing.FromHex(string(chunks[0]))
	if !ok {
		return "", plumbing.ZeroHash, fmt.Errorf("malformed ref data: invalid hash %q", chunks[0])
	}

	return string(chunks[1]), h, nil
}

// Keeps reading shallows until a flush-pkt is found
func decodeShallow(d *Decoder) decoderStateFn {
	if !bytes.HasPrefix(d.line, shallow) {
		d.error("malformed shallow prefix, found %q... instead", d.line)
		return nil
	}
	d.line = bytes.TrimPrefix(d.line, shallow)

	if len(d.line) != hashSize {
		d.error("malformed shallow hash: wrong length, expected 40 bytes, read %d bytes",
			len(d.line))
		return nil
	}

	var h plumbing.Hash
	if _, err := hex.Decode(h[:], d.line); err != nil {
		d.error("invalid hash text: %s", err)
		return nil
	}

	d.data.Entries = append(d.data.Entries, &Entry{Type: EntryShallow, Hash: h})

	if ok := d.nextLine(); !ok {
		return nil
	}

	if d.flush {
		return nil // successful parse of the advertised-refs message
	}

	return decodeShallow
}
