package idxfile

import (
	"encoding/binary"
	"io"

	"github.com/pjbgf/sha1cd"

	"github.com/go-git/go-remote/plumbing"
)

// Encode writes a version 2 index listing hashes, as if they were stored in
// a pack at increasing offsets, with zero CRCs. The pack checksum is set to
// zero.
func Encode(w io.Writer, hashes []plumbing.Hash) error {
	sorted := make([]plumbing.Hash, len(hashes))
	copy(sorted, hashes)
	plumbing.HashesSort(sorted)

	h := sha1cd.New()
	out := io.MultiWriter(w, h)

	if _, err := out.Write(idxHeader); err != nil {
		return err
	}

	if err := binary.Write(out, binary.BigEndian, uint32(VersionSupported)); err != nil {
		return err
	}

	var fanout [256]uint32
	for _, hash := range sorted {
		for i := int(hash[0]); i < 256; i++ {
			fanout[i]++
		}
	}

	if err := binary.Write(out, binary.BigEndian, fanout); err != nil {
		return err
	}

	for _, hash := range sorted {
		if _, err := out.Write(hash[:]); err != nil {
			return err
		}
	}

	crcs := make([]uint32, len(sorted))
	if err := binary.Write(out, binary.BigEndian, crcs); err != nil {
		return err
	}

	offsets := make([]uint32, len(sorted))
	for i := range offsets {
		offsets[i] = uint32(12 + i)
	}

	if err := binary.Write(out, binary.BigEndian, offsets); err != nil {
		return err
	}

	if _, err := out.Write(plumbing.ZeroHash[:]); err != nil {
		return err
	}

	_, err := w.Write(h.Sum(nil))
	return err
}
