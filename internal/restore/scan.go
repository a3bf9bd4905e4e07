package restore

import (
	"context"
	"errors"
	"io"

	"github.com/ALT-F4-LLC/mailvault/internal/linkfile"
	"github.com/ALT-F4-LLC/mailvault/internal/stream"
)

// Summary describes the contents of a link file.
type Summary struct {
	Path     string
	Size     int64
	Header   linkfile.Header
	Rows     map[linkfile.Table]int
	Unknown  int
	Unparsed int
}

// Total returns the number of decodable rows.
func (s *Summary) Total() int {
	n := 0
	for _, c := range s.Rows {
		n += c
	}
	return n
}

// Scan reads a link file and counts its rows per table without touching a
// store. The header is validated but not matched against any account.
func Scan(ctx context.Context, path string) (*Summary, error) {
	rd, err := stream.Open(path)
	if err != nil {
		return nil, err
	}
	defer rd.Close()

	line, err := rd.Next()
	if errors.Is(err, io.EOF) {
		return nil, &MetadataError{Reason: "file is empty"}
	}
	if err != nil {
		return nil, err
	}
	header, err := linkfile.ParseHeader(line)
	if err != nil {
		return nil, &MetadataError{Reason: err.Error(), Err: err}
	}
	codec, err := linkfile.CodecFor(header.FileVersion)
	if err != nil {
		return nil, &MetadataError{Reason: err.Error(), Err: err}
	}

	s := &Summary{Path: path, Size: rd.Size(), Header: header, Rows: make(map[linkfile.Table]int)}
	for {
		if err := ctx.Err(); err != nil {
			return s, err
		}
		line, err := rd.Next()
		if errors.Is(err, io.EOF) {
			return s, nil
		}
		if err != nil {
			return s, err
		}
		if len(line) == 0 {
			continue
		}
		row, err := codec.Decode(line)
		switch {
		case errors.Is(err, linkfile.ErrUnknownTable):
			s.Unknown++
		case err != nil:
			s.Unparsed++
		default:
			s.Rows[row.Table()]++
		}
	}
}
