// https://github.com/git/git/blob/master/Documentation/gitrepository-layout.txt
package dotgit

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-git/go-billy/v5"

	"github.com/go-git/go-remote/plumbing"
	"github.com/go-git/go-remote/plumbing/format/idxfile"
)

const (
	packedRefsPath = "packed-refs"
	configPath     = "config"
	refsPath       = "refs"

	objectsPath = "objects"
	packPath    = "pack"

	packPrefix = "pack-"
	idxExt     = ".idx"
	lockExt    = ".lock"
)

var (
	// ErrIdxNotFound is returned by ObjectPackIdx when the idx file is not
	// found.
	ErrIdxNotFound = errors.New("idx file not found")
	// ErrPackedRefsBadFormat is returned when the packed-refs file is
	// corrupt.
	ErrPackedRefsBadFormat = errors.New("malformed packed-ref")
	// ErrBadReferenceFile is returned when a loose reference file holds
	// neither a hash nor a symbolic target.
	ErrBadReferenceFile = errors.New("malformed reference file")
	// ErrLocked is returned when the lock file of a path is already held.
	ErrLocked = errors.New("file is locked")
)

// The DotGit type represents a local git repository on disk. This
// type is not zero-value-safe, use the New function to initialize it.
type DotGit struct {
	fs billy.Filesystem
}

// New returns a DotGit value ready to be used. The filesystem must be rooted
// at the git directory of a repository (e.g. "/foo/bar/.git").
func New(fs billy.Filesystem) *DotGit {
	return &DotGit{fs: fs}
}

// Fs returns the underlying filesystem of the DotGit folder.
func (d *DotGit) Fs() billy.Filesystem {
	return d.fs
}

// Config returns a file of the config file, os.ErrNotExist is returned when
// the repository has none.
func (d *DotGit) Config() (billy.File, error) {
	return d.fs.Open(configPath)
}

// WriteConfig replaces the config file with content, going through a lock
// file.
func (d *DotGit) WriteConfig(content []byte) error {
	return d.writeLocked(configPath, content)
}

// SetRef writes a loose reference file for r. Any packed line for the same
// name is dropped, so the loose file is the only value left.
func (d *DotGit) SetRef(r *plumbing.Reference) error {
	var content string
	switch r.Type() {
	case plumbing.SymbolicReference:
		content = fmt.Sprintf("ref: %s\n", r.Target())
	case plumbing.HashReference:
		content = fmt.Sprintln(r.Hash().String())
	default:
		return fmt.Errorf("%w: %s", ErrBadReferenceFile, r.Name())
	}

	if err := d.writeLocked(r.Name().String(), []byte(content)); err != nil {
		return err
	}

	return d.rewritePackedRefsWithoutRef(r.Name())
}

// Ref returns the reference for a given reference name, looking first at the
// loose file and then at packed-refs.
func (d *DotGit) Ref(name plumbing.ReferenceName) (*plumbing.Reference, error) {
	ref, err := d.readReferenceFile(name.String())
	if err == nil {
		return ref, nil
	}

	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	return d.packedRef(name)
}

// Refs scans the git directory collecting references, which it returns.
// HEAD comes first when present, loose references shadow packed ones.
func (d *DotGit) Refs() ([]*plumbing.Reference, error) {
	var refs []*plumbing.Reference
	seen := make(map[plumbing.ReferenceName]bool)

	if err := d.addRefFromHEAD(&refs, seen); err != nil {
		return nil, err
	}

	if err := d.addRefsFromRefDir(&refs, seen); err != nil {
		return nil, err
	}

	if err := d.addRefsFromPackedRefs(&refs, seen); err != nil {
		return nil, err
	}

	return refs, nil
}

// RemoveRef removes a reference by name, from its loose file and from
// packed-refs. Removing a missing reference is not an error.
func (d *DotGit) RemoveRef(name plumbing.ReferenceName) error {
	err := d.fs.Remove(name.String())
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	return d.rewritePackedRefsWithoutRef(name)
}

// HasObject reports whether a loose object file exists for h.
func (d *DotGit) HasObject(h plumbing.Hash) (bool, error) {
	_, err := d.fs.Stat(d.objectPath(h))
	if err == nil {
		return true, nil
	}

	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}

	return false, err
}

func (d *DotGit) objectPath(h plumbing.Hash) string {
	hash := h.String()
	return d.fs.Join(objectsPath, hash[0:2], hash[2:])
}

// ObjectPacks returns the list of available packfiles, by checksum.
func (d *DotGit) ObjectPacks() ([]plumbing.Hash, error) {
	files, err := d.fs.ReadDir(d.fs.Join(objectsPath, packPath))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}

		return nil, err
	}

	var packs []plumbing.Hash
	for _, f := range files {
		n := f.Name()
		if !strings.HasPrefix(n, packPrefix) || !strings.HasSuffix(n, idxExt) {
			continue
		}

		h, ok := plumbing.FromHex(n[len(packPrefix) : len(n)-len(idxExt)])
		if !ok {
			continue
		}

		packs = append(packs, h)
	}

	return packs, nil
}

// ObjectPackIdx opens the index file of the given packfile.
func (d *DotGit) ObjectPackIdx(pack plumbing.Hash) (*idxfile.ReaderAtIndex, error) {
	file := d.fs.Join(objectsPath, packPath, fmt.Sprintf("%s%s%s", packPrefix, pack, idxExt))

	fi, err := d.fs.Stat(file)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrIdxNotFound
		}

		return nil, err
	}

	f, err := d.fs.Open(file)
	if err != nil {
		return nil, err
	}

	return idxfile.NewReaderAtIndex(f, fi.Size())
}

// NewObject returns a writer for a new loose object.
func (d *DotGit) NewObject() (*ObjectWriter, error) {
	return newObjectWriter(d.fs)
}
