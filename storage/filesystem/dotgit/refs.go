package dotgit

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-remote/plumbing"
	"github.com/go-git/go-remote/utils/ioutil"
)

func (d *DotGit) addRefFromHEAD(refs *[]*plumbing.Reference, seen map[plumbing.ReferenceName]bool) error {
	ref, err := d.readReferenceFile(plumbing.HEAD.String())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}

		return err
	}

	seen[ref.Name()] = true
	*refs = append(*refs, ref)
	return nil
}

func (d *DotGit) addRefsFromRefDir(refs *[]*plumbing.Reference, seen map[plumbing.ReferenceName]bool) error {
	return d.walkReferencesTree(refs, seen, refsPath)
}

func (d *DotGit) walkReferencesTree(refs *[]*plumbing.Reference, seen map[plumbing.ReferenceName]bool, relPath string) error {
	files, err := d.fs.ReadDir(relPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}

		return err
	}

	for _, f := range files {
		newRelPath := d.fs.Join(relPath, f.Name())
		if f.IsDir() {
			if err = d.walkReferencesTree(refs, seen, newRelPath); err != nil {
				return err
			}

			continue
		}

		// leftovers of an interrupted write
		if strings.HasSuffix(f.Name(), lockExt) {
			continue
		}

		ref, err := d.readReferenceFile(newRelPath)
		if err != nil {
			return err
		}

		if seen[ref.Name()] {
			continue
		}

		seen[ref.Name()] = true
		*refs = append(*refs, ref)
	}

	return nil
}

func (d *DotGit) addRefsFromPackedRefs(refs *[]*plumbing.Reference, seen map[plumbing.ReferenceName]bool) error {
	packed, err := d.findPackedRefs()
	if err != nil {
		return err
	}

	for _, ref := range packed {
		if seen[ref.Name()] {
			continue
		}

		seen[ref.Name()] = true
		*refs = append(*refs, ref)
	}

	return nil
}

func (d *DotGit) packedRef(name plumbing.ReferenceName) (*plumbing.Reference, error) {
	refs, err := d.findPackedRefs()
	if err != nil {
		return nil, err
	}

	for _, ref := range refs {
		if ref.Name() == name {
			return ref, nil
		}
	}

	return nil, plumbing.ErrReferenceNotFound
}

func (d *DotGit) findPackedRefs() (refs []*plumbing.Reference, err error) {
	f, err := d.fs.Open(packedRefsPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}

		return nil, err
	}

	defer ioutil.CheckClose(f, &err)
	return d.findPackedRefsInFile(f)
}

func (d *DotGit) findPackedRefsInFile(r io.Reader) ([]*plumbing.Reference, error) {
	var refs []*plumbing.Reference
	s := bufio.NewScanner(r)
	for s.Scan() {
		ref, err := d.processLine(s.Text())
		if err != nil {
			return nil, err
		}

		if ref != nil {
			refs = append(refs, ref)
		}
	}

	return refs, s.Err()
}

// process lines from a packed-refs file
func (d *DotGit) processLine(line string) (*plumbing.Reference, error) {
	if len(line) == 0 {
		return nil, nil
	}

	switch line[0] {
	case '#': // comment - ignore
		return nil, nil
	case '^': // annotated tag commit of the previous line - ignore
		return nil, nil
	default:
		ws := strings.Split(line, " ") // hash then ref
		if len(ws) != 2 {
			return nil, ErrPackedRefsBadFormat
		}

		if _, ok := plumbing.FromHex(ws[0]); !ok {
			return nil, ErrPackedRefsBadFormat
		}

		return plumbing.NewReferenceFromStrings(ws[1], ws[0]), nil
	}
}

func (d *DotGit) rewritePackedRefsWithoutRef(name plumbing.ReferenceName) error {
	content, err := d.readFile(packedRefsPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}

		return err
	}

	var (
		buf     bytes.Buffer
		found   bool
		skipped bool
	)

	s := bufio.NewScanner(bytes.NewReader(content))
	for s.Scan() {
		line := s.Text()
		if strings.HasPrefix(line, "^") && skipped {
			continue
		}

		skipped = false
		ref, err := d.processLine(line)
		if err != nil {
			return err
		}

		if ref != nil && ref.Name() == name {
			found, skipped = true, true
			continue
		}

		buf.WriteString(line)
		buf.WriteByte('\n')
	}

	if err := s.Err(); err != nil {
		return err
	}

	if !found {
		return nil
	}

	return d.writeLocked(packedRefsPath, buf.Bytes())
}

// readReferenceFile reads a loose reference file. Only the first field of
// the first line is used, which covers the hash followed by the branch
// description that FETCH_HEAD holds.
func (d *DotGit) readReferenceFile(path string) (*plumbing.Reference, error) {
	content, err := d.readFile(path)
	if err != nil {
		return nil, err
	}

	line, _, _ := strings.Cut(string(content), "\n")
	line = strings.TrimSpace(line)

	name := plumbing.ReferenceName(filepath.ToSlash(path))
	if strings.HasPrefix(line, "ref: ") {
		return plumbing.NewReferenceFromStrings(name.String(), line), nil
	}

	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, ErrBadReferenceFile
	}

	h, ok := plumbing.FromHex(fields[0])
	if !ok {
		return nil, ErrBadReferenceFile
	}

	return plumbing.NewHashReference(name, h), nil
}

func (d *DotGit) readFile(path string) (content []byte, err error) {
	f, err := d.fs.Open(path)
	if err != nil {
		return nil, err
	}

	defer ioutil.CheckClose(f, &err)
	return io.ReadAll(f)
}
