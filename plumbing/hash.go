package plumbing

import (
	"bytes"
	"encoding/hex"
	"hash"
	"sort"
	"strconv"

	"github.com/pjbgf/sha1cd"
)

// HashSize is the size, in bytes, of a SHA-1 object id.
const HashSize = 20

// Hash SHA1 hashed content
type Hash [HashSize]byte

// ZeroHash is Hash with value zero
var ZeroHash Hash

// ComputeHash compute the hash for a given ObjectType and content
func ComputeHash(t ObjectType, content []byte) Hash {
	h := NewHasher(t, int64(len(content)))
	h.Write(content)
	return h.Sum()
}

// NewHash return a new Hash from a hexadecimal hash representation
func NewHash(s string) Hash {
	h, _ := FromHex(s)
	return h
}

// FromHex parses a hexadecimal hash representation, reporting whether it was
// a well formed full length hash.
func FromHex(s string) (Hash, bool) {
	var h Hash
	if len(s) != HashSize*2 {
		return h, false
	}

	b, err := hex.DecodeString(s)
	if err != nil {
		return h, false
	}

	copy(h[:], b)
	return h, true
}

// IsZero returns true if the hash is the zero hash.
func (h Hash) IsZero() bool {
	var empty Hash
	return h == empty
}

// Compare compares the hash with the given raw bytes.
func (h Hash) Compare(b []byte) int {
	return bytes.Compare(h[:], b)
}

func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// Hasher computes object ids the way git does, prefixing the content with
// the object header.
type Hasher struct {
	hash.Hash
}

func NewHasher(t ObjectType, size int64) Hasher {
	h := Hasher{sha1cd.New()}
	h.Reset(t, size)
	return h
}

func (h Hasher) Reset(t ObjectType, size int64) {
	h.Hash.Reset()
	h.Write(t.Bytes())
	h.Write([]byte(" "))
	h.Write([]byte(strconv.FormatInt(size, 10)))
	h.Write([]byte{0})
}

func (h Hasher) Sum() (hash Hash) {
	copy(hash[:], h.Hash.Sum(nil))
	return
}

// HashesSort sorts a slice of Hashes in increasing order.
func HashesSort(a []Hash) {
	sort.Sort(HashSlice(a))
}

// HashSlice attaches the methods of sort.Interface to []Hash, sorting in
// increasing order.
type HashSlice []Hash

func (p HashSlice) Len() int           { return len(p) }
func (p HashSlice) Less(i, j int) bool { return p[i].Compare(p[j][:]) < 0 }
func (p HashSlice) Swap(i, j int)      { p[i], p[j] = p[j], p[i] }
