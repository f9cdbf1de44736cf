package dotgit

import (
	"errors"
	"fmt"
	"os"
	"path"

	"github.com/go-git/go-billy/v5"

	"github.com/go-git/go-remote/plumbing"
	"github.com/go-git/go-remote/plumbing/format/objfile"
)

// writeLocked replaces the file at name with content. The content is written
// to name.lock first, created exclusively, and renamed over name once
// complete, as git does.
func (d *DotGit) writeLocked(name string, content []byte) (err error) {
	if dir := path.Dir(name); dir != "." {
		if err := d.fs.MkdirAll(dir, 0o777); err != nil {
			return err
		}
	}

	lock := name + lockExt
	f, err := d.fs.OpenFile(lock, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o666)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s", ErrLocked, lock)
		}

		return err
	}

	defer func() {
		if err != nil {
			_ = d.fs.Remove(lock)
		}
	}()

	if _, err = f.Write(content); err != nil {
		_ = f.Close()
		return err
	}

	if err = f.Close(); err != nil {
		return err
	}

	return d.fs.Rename(lock, name)
}

// ObjectWriter writes a loose object, first to a temporary file and then,
// on Close, to its final place under objects/.
type ObjectWriter struct {
	objfile.Writer
	fs billy.Filesystem
	f  billy.File
}

func newObjectWriter(fs billy.Filesystem) (*ObjectWriter, error) {
	if err := fs.MkdirAll(objectsPath, 0o777); err != nil {
		return nil, err
	}

	f, err := fs.TempFile(objectsPath, "tmp_obj_")
	if err != nil {
		return nil, err
	}

	return &ObjectWriter{
		Writer: *objfile.NewWriter(f),
		fs:     fs,
		f:      f,
	}, nil
}

func (w *ObjectWriter) Close() error {
	if err := w.Writer.Close(); err != nil {
		_ = w.f.Close()
		return err
	}

	if err := w.f.Close(); err != nil {
		return err
	}

	return w.save()
}

func (w *ObjectWriter) save() error {
	h := w.Hash()
	hex := h.String()
	file := w.fs.Join(objectsPath, hex[0:2], hex[2:])

	if _, err := w.fs.Stat(file); err == nil {
		return w.fs.Remove(w.f.Name())
	}

	if err := w.fs.MkdirAll(w.fs.Join(objectsPath, hex[0:2]), 0o777); err != nil {
		return err
	}

	if err := w.fs.Rename(w.f.Name(), file); err != nil {
		return err
	}

	fixPermissions(w.fs, file)
	return nil
}

// WriteObject stores content as a loose object of type t and returns its
// hash.
func (d *DotGit) WriteObject(t plumbing.ObjectType, content []byte) (h plumbing.Hash, err error) {
	w, err := d.NewObject()
	if err != nil {
		return plumbing.ZeroHash, err
	}

	if err := w.WriteHeader(t, int64(len(content))); err != nil {
		_ = w.f.Close()
		_ = d.fs.Remove(w.f.Name())
		return plumbing.ZeroHash, err
	}

	if _, err := w.Write(content); err != nil {
		_ = w.f.Close()
		_ = d.fs.Remove(w.f.Name())
		return plumbing.ZeroHash, err
	}

	if err := w.Close(); err != nil {
		return plumbing.ZeroHash, err
	}

	return w.Hash(), nil
}
