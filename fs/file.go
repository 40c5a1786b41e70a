// Package fs writes warmup reports to the local file system.
package fs

import (
	"io"
	"os"
	"path/filepath"

	"github.com/fwojciec/warmup"
)

// File is written atomically. Content goes to a temporary sibling of the
// target, which replaces the target on Commit. Readers never observe a
// partially written report.
type File struct {
	path string
	tmp  *os.File
}

// Create starts writing the file at path. The parent directory is created
// if missing. Either Commit or Abort must be called.
func Create(path string) (*File, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, err
	}
	return &File{path: path, tmp: tmp}, nil
}

// Write writes to the temporary file.
func (f *File) Write(p []byte) (int, error) {
	return f.tmp.Write(p)
}

// Commit flushes the temporary file and renames it over the target.
func (f *File) Commit() error {
	if err := f.tmp.Sync(); err != nil {
		_ = f.Abort()
		return err
	}
	if err := f.tmp.Close(); err != nil {
		_ = os.Remove(f.tmp.Name())
		return err
	}
	if err := os.Chmod(f.tmp.Name(), 0644); err != nil {
		_ = os.Remove(f.tmp.Name())
		return err
	}
	return os.Rename(f.tmp.Name(), f.path)
}

// Abort discards the temporary file and leaves the target untouched.
func (f *File) Abort() error {
	_ = f.tmp.Close()
	if err := os.Remove(f.tmp.Name()); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// WriteReport formats report into the file at path atomically.
func WriteReport(path string, formatter warmup.Formatter, report *warmup.Report) error {
	f, err := Create(path)
	if err != nil {
		return warmup.WrapError(warmup.EINTERNAL, err, "creating report %s", path)
	}
	if err := formatter.Format(f, report); err != nil {
		_ = f.Abort()
		return err
	}
	if err := f.Commit(); err != nil {
		return warmup.WrapError(warmup.EINTERNAL, err, "writing report %s", path)
	}
	return nil
}

var _ io.Writer = (*File)(nil)
