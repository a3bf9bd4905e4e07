package restore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/ALT-F4-LLC/mailvault/internal/archive"
	"github.com/ALT-F4-LLC/mailvault/internal/progress"
)

// ErrPasswordRequired is returned for an encrypted archive when no password
// was given.
var ErrPasswordRequired = errors.New("archive is encrypted: password required")

// liteShare is the part of an archive restore's progress budget spent on
// the lite file.
const liteShare = 30

// ArchiveResult describes a restored archive.
type ArchiveResult struct {
	Manifest *archive.Manifest
	Lite     *Result
	Complete *Result
}

// RestoreArchive restores an archive produced by an export: it decrypts it
// when needed, unpacks it into a restore-<uuid> folder under workRoot,
// restores the lite file, calls onLite, then restores the complete file.
// The two files are independent id spaces and get separate remaps. The work
// folder is always removed; the archive is removed on success unless
// KeepSource is set.
func (r *Restorer) RestoreArchive(ctx context.Context, archivePath string, accountID int64, password, workRoot string, report progress.Func, onLite func(*Result)) (*ArchiveResult, error) {
	if report == nil {
		report = func(int) {}
	}

	work := filepath.Join(workRoot, "restore-"+uuid.NewString())
	if err := os.MkdirAll(work, 0o755); err != nil {
		return nil, fmt.Errorf("creating restore folder: %w", err)
	}
	defer os.RemoveAll(work)
	log := r.log.WithField("path", archivePath)

	zipPath := archivePath
	encrypted, err := archive.IsEncrypted(archivePath)
	if err != nil {
		return nil, err
	}
	if encrypted {
		if password == "" {
			return nil, ErrPasswordRequired
		}
		zipPath = filepath.Join(work, "archive.zip")
		if err := archive.DecryptFile(zipPath, archivePath, password); err != nil {
			return nil, fmt.Errorf("decrypting archive: %w", err)
		}
		log.Debug("archive decrypted")
	}

	m, err := archive.Unpack(zipPath, filepath.Join(work, "parts"))
	if err != nil {
		return nil, fmt.Errorf("unpacking archive: %w", err)
	}
	lite, ok := m.Part(archive.LiteName)
	if !ok {
		return nil, &MetadataError{Reason: "archive has no " + archive.LiteName}
	}
	complete, ok := m.Part(archive.CompleteName)
	if !ok {
		return nil, &MetadataError{Reason: "archive has no " + archive.CompleteName}
	}

	lo := progress.Percent(r.opts.InitialProgress, 100)
	mid := lo + (100-lo)*liteShare/100

	res := &ArchiveResult{Manifest: m}
	part := r.forPart()
	if res.Lite, err = part.Restore(ctx, lite.Path, accountID, progress.Scale(report, lo, mid)); err != nil {
		return res, fmt.Errorf("restoring %s: %w", archive.LiteName, err)
	}
	if onLite != nil {
		onLite(res.Lite)
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	part = r.forPart()
	if res.Complete, err = part.Restore(ctx, complete.Path, accountID, progress.Scale(report, mid, 100)); err != nil {
		return res, fmt.Errorf("restoring %s: %w", archive.CompleteName, err)
	}

	if !r.opts.KeepSource {
		if err := os.Remove(archivePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.WithError(err).Warn("removing restored archive")
		}
	}
	return res, nil
}

// forPart returns a restorer for one archive part: fresh remaps, no initial
// progress, and the part deleted after use.
func (r *Restorer) forPart() *Restorer {
	opts := r.opts
	opts.Maps = nil
	opts.InitialProgress = 0
	opts.KeepSource = false
	return &Restorer{conn: r.conn, mail: r.mail, opts: opts, log: r.log, order: r.order}
}
