package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ALT-F4-LLC/mailvault/internal/archive"
	"github.com/ALT-F4-LLC/mailvault/internal/linkfile"
	"github.com/ALT-F4-LLC/mailvault/internal/progress"
)

// Share of the overall progress given to each stage of Run.
const (
	liteShare     = 10
	completeShare = 95
	packShare     = 98
)

// Result describes a finished export.
type Result struct {
	Path      string
	Size      int64
	Encrypted bool
	Manifest  *archive.Manifest
	Lite      *Stats
	Complete  *Stats
}

// Run writes the lite and complete files of the account one after the other,
// bundles them into an archive at outPath and encrypts it when a password is
// configured. report receives overall progress ending with 100.
func (x *Exporter) Run(ctx context.Context, accountID int64, outPath string, report progress.Func) (*Result, error) {
	if report == nil {
		report = func(int) {}
	}

	workDir, err := x.workDir(outPath)
	if err != nil {
		return nil, err
	}
	if !x.opts.KeepParts {
		defer os.RemoveAll(workDir)
	}

	litePath := filepath.Join(workDir, archive.LiteName)
	lite, err := x.Lite(ctx, accountID, litePath, nil, progress.Scale(report, 0, liteShare))
	if err != nil {
		return nil, fmt.Errorf("lite stage: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	completePath := filepath.Join(workDir, archive.CompleteName)
	complete, err := x.Complete(ctx, accountID, completePath, nil, progress.Scale(report, liteShare, completeShare))
	if err != nil {
		return nil, fmt.Errorf("complete stage: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m := &archive.Manifest{
		FormatVersion: archive.FormatVersion,
		FileVersion:   linkfile.CurrentVersion,
		CreatedAt:     time.Now().UTC().Truncate(time.Second),
		Account:       lite.Account,
		Kind:          string(x.opts.Kind),
		Parts: []archive.Part{
			{Name: archive.LiteName, Rows: lite.Total(), Path: litePath},
			{Name: archive.CompleteName, Rows: complete.Total(), Path: completePath},
		},
	}

	encrypted := x.opts.Password != ""
	zipPath := outPath
	if encrypted {
		zipPath = filepath.Join(workDir, "archive.zip")
	}
	if err := archive.Pack(zipPath, m); err != nil {
		return nil, fmt.Errorf("packing archive: %w", err)
	}
	report(packShare)

	if encrypted {
		if err := archive.EncryptFile(outPath, zipPath, x.opts.Password, x.opts.Params); err != nil {
			return nil, fmt.Errorf("encrypting archive: %w", err)
		}
		_ = os.Remove(zipPath)
	}

	info, err := os.Stat(outPath)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", outPath, err)
	}
	report(100)

	x.log.WithFields(logrus.Fields{
		"account":   lite.Account,
		"path":      outPath,
		"encrypted": encrypted,
		"dropped":   lite.Dropped + complete.Dropped,
	}).Info("export finished")

	return &Result{
		Path:      outPath,
		Size:      info.Size(),
		Encrypted: encrypted,
		Manifest:  m,
		Lite:      lite,
		Complete:  complete,
	}, nil
}

func (x *Exporter) workDir(outPath string) (string, error) {
	if x.opts.WorkDir != "" {
		if err := os.MkdirAll(x.opts.WorkDir, 0o755); err != nil {
			return "", fmt.Errorf("creating work directory: %w", err)
		}
		return x.opts.WorkDir, nil
	}
	dir := filepath.Dir(outPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	work, err := os.MkdirTemp(dir, ".mailvault-export-*")
	if err != nil {
		return "", fmt.Errorf("creating work directory: %w", err)
	}
	return work, nil
}
