// Package archive bundles link files into a zip with a YAML manifest and
// optionally wraps the result in password-based authenticated encryption.
package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FormatVersion is the current version of the archive layout.
// Version 1: manifest.yaml, lite.db, complete.db
const FormatVersion = 1

const (
	LiteName     = "lite.db"
	CompleteName = "complete.db"
	ManifestName = "manifest.yaml"
)

// maxPartSize caps the size of a single extracted entry so a crafted
// archive cannot fill the disk.
const maxPartSize = 8 << 30

// ErrPartTooLarge is returned when an entry exceeds maxPartSize.
var ErrPartTooLarge = errors.New("archive entry too large")

// Manifest describes the content of an archive.
type Manifest struct {
	FormatVersion int       `yaml:"format_version"`
	FileVersion   int       `yaml:"file_version"`
	CreatedAt     time.Time `yaml:"created_at"`
	Account       string    `yaml:"account"`
	Kind          string    `yaml:"kind,omitempty"`
	Parts         []Part    `yaml:"parts"`
}

// Part is one link file inside the archive. Path is the file on disk when
// packing and is filled with the extracted location when unpacking.
type Part struct {
	Name string `yaml:"name"`
	Size int64  `yaml:"size"`
	Rows int    `yaml:"rows"`
	Path string `yaml:"-"`
}

// Part returns the part with the given name.
func (m *Manifest) Part(name string) (Part, bool) {
	for _, p := range m.Parts {
		if p.Name == name {
			return p, true
		}
	}
	return Part{}, false
}

// Pack writes a zip at dst containing the manifest followed by every part.
// Part sizes are filled from disk before the manifest is written.
func Pack(dst string, m *Manifest) error {
	if m.FormatVersion == 0 {
		m.FormatVersion = FormatVersion
	}
	for i := range m.Parts {
		if !validName(m.Parts[i].Name) {
			return fmt.Errorf("invalid part name %q", m.Parts[i].Name)
		}
		info, err := os.Stat(m.Parts[i].Path)
		if err != nil {
			return fmt.Errorf("stat part %s: %w", m.Parts[i].Name, err)
		}
		m.Parts[i].Size = info.Size()
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create zip: %w", err)
	}
	defer func() { _ = f.Close() }()

	zw := zip.NewWriter(f)

	manifestData, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := writeZipFile(zw, ManifestName, manifestData); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	for _, p := range m.Parts {
		if err := copyIntoZip(zw, p); err != nil {
			return fmt.Errorf("write %s: %w", p.Name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("finish zip: %w", err)
	}
	return f.Close()
}

func writeZipFile(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func copyIntoZip(zw *zip.Writer, p Part) error {
	src, err := os.Open(p.Path)
	if err != nil {
		return err
	}
	defer src.Close()

	w, err := zw.CreateHeader(&zip.FileHeader{Name: p.Name, Method: zip.Deflate, Modified: time.Now()})
	if err != nil {
		return err
	}
	_, err = io.Copy(w, src)
	return err
}

// ReadManifest returns the manifest of a plain (unencrypted) archive.
func ReadManifest(src string) (*Manifest, error) {
	zr, err := zip.OpenReader(src)
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	defer zr.Close()
	return readManifest(&zr.Reader)
}

func readManifest(zr *zip.Reader) (*Manifest, error) {
	for _, f := range zr.File {
		if f.Name != ManifestName {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open manifest: %w", err)
		}
		defer rc.Close()
		data, err := io.ReadAll(io.LimitReader(rc, 1<<20))
		if err != nil {
			return nil, fmt.Errorf("read manifest: %w", err)
		}
		var m Manifest
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("parse manifest: %w", err)
		}
		return &m, nil
	}
	return nil, fmt.Errorf("%s not found in archive", ManifestName)
}

// Unpack extracts every part listed in the manifest into dir and returns the
// manifest with part paths set. Entries with path separators are rejected.
func Unpack(src, dir string) (*Manifest, error) {
	zr, err := zip.OpenReader(src)
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	defer zr.Close()

	m, err := readManifest(&zr.Reader)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create directory: %w", err)
	}

	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[f.Name] = f
	}
	for i := range m.Parts {
		name := m.Parts[i].Name
		if !validName(name) {
			return nil, fmt.Errorf("invalid part name %q", name)
		}
		f, ok := files[name]
		if !ok {
			return nil, fmt.Errorf("part %s listed in manifest but missing", name)
		}
		path := filepath.Join(dir, name)
		if err := extract(f, path); err != nil {
			return nil, fmt.Errorf("extract %s: %w", name, err)
		}
		m.Parts[i].Path = path
	}
	return m, nil
}

func extract(f *zip.File, path string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	n, err := io.Copy(out, io.LimitReader(rc, maxPartSize+1))
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	if n > maxPartSize {
		_ = os.Remove(path)
		return ErrPartTooLarge
	}
	return nil
}

func validName(name string) bool {
	return name != "" && name != "." && name != ".." &&
		!strings.ContainsAny(name, `/\`) && name != ManifestName
}
