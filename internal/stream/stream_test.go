package stream

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriterCreatesDirectoryLazily(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "dir")
	path := filepath.Join(dir, "link.db")
	w := NewWriter(path)
	defer w.Close()

	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Fatalf("directory should not exist before the first write, stat err = %v", err)
	}

	for _, line := range []string{`{"a":1}`, `{"b":2}`} {
		if err := w.WriteLine([]byte(line)); err != nil {
			t.Fatalf("WriteLine: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if got, want := string(data), "{\"a\":1}\n{\"b\":2}\n"; got != want {
		t.Errorf("file = %q, want %q", got, want)
	}
	if w.Lines() != 2 || w.Bytes() != int64(len(data)) {
		t.Errorf("Lines() = %d Bytes() = %d, want 2 and %d", w.Lines(), w.Bytes(), len(data))
	}
}

func TestWriterAppendsToExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "link.db")
	if err := os.WriteFile(path, []byte("first\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w := NewWriter(path)
	if err := w.WriteLine([]byte("second")); err != nil {
		t.Fatalf("WriteLine: %v", err)
	}
	w.Close()

	data, _ := os.ReadFile(path)
	if string(data) != "first\nsecond\n" {
		t.Errorf("file = %q", data)
	}
}

// fullDisk accepts at most room bytes per write.
type fullDisk struct {
	data []byte
	room int
}

func (d *fullDisk) Write(p []byte) (int, error) {
	if len(p) <= d.room {
		d.data = append(d.data, p...)
		return len(p), nil
	}
	d.data = append(d.data, p[:d.room]...)
	return d.room, io.ErrShortWrite
}

func (d *fullDisk) Truncate(size int64) error {
	d.data = d.data[:size]
	return nil
}

func (d *fullDisk) Close() error { return nil }

func TestWriterRemovesPartialRecord(t *testing.T) {
	disk := &fullDisk{room: 100}
	w := NewWriter("link.db")
	w.f = disk

	if err := w.WriteLine([]byte(`{"a":1}`)); err != nil {
		t.Fatalf("WriteLine: %v", err)
	}
	disk.room = 4
	if err := w.WriteLine([]byte(`{"b":2}`)); !errors.Is(err, io.ErrShortWrite) {
		t.Fatalf("WriteLine err = %v, want short write", err)
	}
	if string(disk.data) != "{\"a\":1}\n" {
		t.Fatalf("after failed write file = %q", disk.data)
	}

	disk.room = 100
	if err := w.WriteLine([]byte(`{"c":3}`)); err != nil {
		t.Fatalf("WriteLine: %v", err)
	}
	if got, want := string(disk.data), "{\"a\":1}\n{\"c\":3}\n"; got != want {
		t.Errorf("file = %q, want %q", got, want)
	}
	if w.Lines() != 2 || w.Bytes() != int64(len(disk.data)) {
		t.Errorf("Lines() = %d Bytes() = %d", w.Lines(), w.Bytes())
	}
}

func TestWriterCloseWithoutWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "never.db")
	w := NewWriter(path)
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("file should not be created without a write")
	}
}

func TestReaderLinesAndOffset(t *testing.T) {
	long := strings.Repeat("x", 3*ChunkSize+17)
	content := "one\r\n" + long + "\n\nlast"
	path := filepath.Join(t.TempDir(), "in.db")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	if r.Size() != int64(len(content)) {
		t.Errorf("Size() = %d, want %d", r.Size(), len(content))
	}

	want := []string{"one", long, "", "last"}
	var prev int64
	for i, w := range want {
		line, err := r.Next()
		if err != nil {
			t.Fatalf("Next() #%d: %v", i, err)
		}
		if string(line) != w {
			t.Errorf("line %d has length %d, want %d", i, len(line), len(w))
		}
		if r.Offset() <= prev {
			t.Errorf("offset did not advance after line %d", i)
		}
		prev = r.Offset()
	}

	if _, err := r.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("Next() at end = %v, want io.EOF", err)
	}
	if r.Offset() != r.Size() {
		t.Errorf("Offset() = %d at end, want %d", r.Offset(), r.Size())
	}
}

func TestOpenMissingFile(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "missing.db")); err == nil {
		t.Error("expected error opening a missing file")
	}
}
