package stream

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// file is the part of *os.File the writer uses.
type file interface {
	io.WriteCloser
	Truncate(size int64) error
}

// Writer appends newline-terminated records to a file. The parent directory
// and the file are created on the first write; later writes append without
// reading the existing content.
type Writer struct {
	path  string
	f     file
	end   int64 // file size after the last complete record
	lines int
	bytes int64
}

// NewWriter returns a writer for path. Nothing is touched on disk until the
// first call to WriteLine.
func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

// Path returns the target file path.
func (w *Writer) Path() string {
	return w.path
}

// WriteLine appends line followed by '\n' in a single write. A failed write
// leaves no partial record behind.
func (w *Writer) WriteLine(line []byte) error {
	if w.f == nil {
		if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
			return fmt.Errorf("creating directory for %s: %w", w.path, err)
		}
		f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("opening %s: %w", w.path, err)
		}
		info, err := f.Stat()
		if err != nil {
			f.Close()
			return fmt.Errorf("reading size of %s: %w", w.path, err)
		}
		w.f = f
		w.end = info.Size()
	}

	buf := make([]byte, 0, len(line)+1)
	buf = append(buf, line...)
	buf = append(buf, '\n')
	n, err := w.f.Write(buf)
	if err != nil {
		if n > 0 {
			if terr := w.f.Truncate(w.end); terr != nil {
				return fmt.Errorf("writing to %s: %w (removing partial record: %v)", w.path, err, terr)
			}
		}
		return fmt.Errorf("writing to %s: %w", w.path, err)
	}
	w.end += int64(n)
	w.bytes += int64(n)
	w.lines++
	return nil
}

// Lines returns the number of records written.
func (w *Writer) Lines() int {
	return w.lines
}

// Bytes returns the number of bytes written.
func (w *Writer) Bytes() int64 {
	return w.bytes
}

// Close closes the underlying file if it was opened.
func (w *Writer) Close() error {
	if w.f == nil {
		return nil
	}
	err := w.f.Close()
	w.f = nil
	return err
}
