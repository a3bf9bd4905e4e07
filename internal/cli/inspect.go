package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ALT-F4-LLC/mailvault/internal/archive"
	"github.com/ALT-F4-LLC/mailvault/internal/linkfile"
	"github.com/ALT-F4-LLC/mailvault/internal/output"
	"github.com/ALT-F4-LLC/mailvault/internal/render"
	"github.com/ALT-F4-LLC/mailvault/internal/restore"
)

type inspectInfo struct {
	Path      string                 `json:"path"`
	SizeBytes int64                  `json:"size_bytes"`
	Archive   bool                   `json:"archive"`
	Encrypted bool                   `json:"encrypted"`
	Header    linkfile.Header        `json:"header"`
	Manifest  *archive.Manifest      `json:"manifest,omitempty"`
	Rows      map[linkfile.Table]int `json:"rows"`
	Unknown   int                    `json:"unknown"`
	Unparsed  int                    `json:"unparsed"`
}

var inspectCmd = &cobra.Command{
	Use:         "inspect <archive|file>",
	Short:       "Show the header and row counts of an archive or link file",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{"skipDB": "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		path := args[0]

		encrypted, packed, err := isArchive(path)
		if err != nil {
			return cmdErr(err, output.ErrNotFound)
		}
		stat, err := os.Stat(path)
		if err != nil {
			return cmdErr(err, output.ErrNotFound)
		}

		info := inspectInfo{Path: path, SizeBytes: stat.Size(), Archive: packed, Encrypted: encrypted}
		var summary *restore.Summary
		if packed {
			summary, info.Manifest, err = inspectArchive(cmd, path, encrypted)
		} else {
			summary, err = restore.Scan(cmd.Context(), path)
		}
		if errors.Is(err, errCancelled) {
			w.Info("Cancelled.")
			return nil
		}
		if err != nil {
			return cmdErr(err, output.ErrGeneral)
		}
		info.Header = summary.Header
		info.Rows = summary.Rows
		info.Unknown = summary.Unknown
		info.Unparsed = summary.Unparsed

		msg, err := render.RenderDetail(render.Detail{
			Path:      info.Path,
			Size:      info.SizeBytes,
			Encrypted: info.Encrypted,
			Header:    info.Header,
			Manifest:  info.Manifest,
			Rows:      info.Rows,
			Unknown:   info.Unknown,
			Unparsed:  info.Unparsed,
		})
		if err != nil {
			w.Warn("rendering markdown: %v", err)
		}
		w.Success(info, msg)
		return nil
	},
}

// inspectArchive unpacks the archive into a temporary folder and scans its
// complete part.
func inspectArchive(cmd *cobra.Command, path string, encrypted bool) (*restore.Summary, *archive.Manifest, error) {
	root := getCfg(cmd).WorkDir("inspect")
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating work folder: %w", err)
	}
	tmp, err := os.MkdirTemp(root, "inspect-*")
	if err != nil {
		return nil, nil, fmt.Errorf("creating temporary folder: %w", err)
	}
	defer os.RemoveAll(tmp)

	zipPath := path
	if encrypted {
		password, err := readPassword(cmd, false)
		if err == nil && password == "" && !getWriter(cmd).JSONMode {
			password, err = promptPassword(false)
		}
		if err != nil {
			return nil, nil, err
		}
		if password == "" {
			return nil, nil, restore.ErrPasswordRequired
		}
		zipPath = filepath.Join(tmp, "archive.zip")
		if err := archive.DecryptFile(zipPath, path, password); err != nil {
			return nil, nil, fmt.Errorf("decrypting archive: %w", err)
		}
	}

	m, err := archive.Unpack(zipPath, filepath.Join(tmp, "parts"))
	if err != nil {
		return nil, nil, fmt.Errorf("unpacking archive: %w", err)
	}
	part, ok := m.Part(archive.CompleteName)
	if !ok {
		return nil, nil, &restore.MetadataError{Reason: "archive has no " + archive.CompleteName}
	}
	s, err := restore.Scan(cmd.Context(), part.Path)
	if err != nil {
		return nil, nil, err
	}
	return s, m, nil
}

func init() {
	passwordFlags(inspectCmd, "Password of an encrypted archive")
	rootCmd.AddCommand(inspectCmd)
}
