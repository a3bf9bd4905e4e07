package stream

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
)

// ChunkSize is the read size used when scanning for line delimiters.
const ChunkSize = 2048

// Reader reads a file one line at a time without loading it into memory and
// tracks how many bytes have been consumed.
type Reader struct {
	f      *os.File
	br     *bufio.Reader
	size   int64
	offset int64
}

// Open opens path for line reading.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	return &Reader{
		f:    f,
		br:   bufio.NewReaderSize(f, ChunkSize),
		size: info.Size(),
	}, nil
}

// Next returns the next line without its delimiter. A trailing '\r' is
// dropped as well. At end of file Next returns io.EOF; a final line without a
// delimiter is returned before that.
func (r *Reader) Next() ([]byte, error) {
	line, err := r.br.ReadBytes('\n')
	r.offset += int64(len(line))
	if err != nil {
		if errors.Is(err, io.EOF) {
			if len(line) == 0 {
				return nil, io.EOF
			}
			return bytes.TrimSuffix(line, []byte("\r")), nil
		}
		return nil, fmt.Errorf("reading line: %w", err)
	}
	line = bytes.TrimSuffix(line, []byte("\n"))
	return bytes.TrimSuffix(line, []byte("\r")), nil
}

// Offset returns the number of bytes consumed so far.
func (r *Reader) Offset() int64 {
	return r.offset
}

// Size returns the size of the file when it was opened.
func (r *Reader) Size() int64 {
	return r.size
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	return r.f.Close()
}
