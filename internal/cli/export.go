package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	humanize "github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ALT-F4-LLC/mailvault/internal/archive"
	"github.com/ALT-F4-LLC/mailvault/internal/export"
	"github.com/ALT-F4-LLC/mailvault/internal/linkfile"
	"github.com/ALT-F4-LLC/mailvault/internal/output"
	"github.com/ALT-F4-LLC/mailvault/internal/progress"
	"github.com/ALT-F4-LLC/mailvault/internal/render"
)

type exportInfo struct {
	Account      string `json:"account"`
	Path         string `json:"path"`
	SizeBytes    int64  `json:"size_bytes"`
	Encrypted    bool   `json:"encrypted"`
	Kind         string `json:"kind"`
	LiteRows     int    `json:"lite_rows"`
	CompleteRows int    `json:"complete_rows"`
	Dropped      int    `json:"dropped"`
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a mailbox into a backup archive",
	Long: `Export writes the most recent threads of the account to a lite link file,
the whole mailbox to a complete link file, and bundles both into one archive.
The archive is encrypted when a password is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		s := getSettings(cmd)

		acct, err := resolveAccount(cmd)
		if err != nil {
			return err
		}

		kindName := s.Export.Kind
		if cmd.Flags().Changed("kind") {
			kindName, _ = cmd.Flags().GetString("kind")
		}
		kind, err := export.ParseKind(kindName)
		if err != nil {
			return cmdErr(err, output.ErrValidation)
		}

		liteThreads := s.Export.LiteThreads
		if cmd.Flags().Changed("lite-threads") {
			liteThreads, _ = cmd.Flags().GetInt("lite-threads")
		}
		if liteThreads < 1 {
			return cmdErr(fmt.Errorf("--lite-threads must be at least 1"), output.ErrValidation)
		}

		password, err := readPassword(cmd, true)
		if errors.Is(err, errCancelled) {
			w.Info("Cancelled.")
			return nil
		}
		if err != nil {
			return err
		}

		outPath, _ := cmd.Flags().GetString("output")
		if outPath == "" {
			outPath = kind.FileName()
		}
		if outPath, err = filepath.Abs(outPath); err != nil {
			return cmdErr(fmt.Errorf("resolving output path: %w", err), output.ErrGeneral)
		}
		keepParts, _ := cmd.Flags().GetBool("keep-parts")

		opts := export.DefaultOptions()
		opts.Preferences = linkfile.Preferences{
			DarkTheme: s.Preferences.DarkTheme,
			Language:  s.Preferences.Language,
		}
		opts.LiteThreads = liteThreads
		opts.ProgressEvery = s.Export.ProgressStep
		opts.Kind = kind
		opts.Password = password
		opts.Params = archive.Params{
			Time:    s.Crypto.ArgonTime,
			Memory:  s.Crypto.ArgonMemoryKiB,
			Threads: s.Crypto.ArgonThreads,
		}
		opts.KeepParts = keepParts
		if keepParts {
			opts.WorkDir = outPath + ".parts"
		}
		opts.Logger = getLogger(cmd)

		x := export.New(getDB(cmd), getMail(cmd), opts)
		var res *export.Result
		err = runJob(cmd, "export", func(ctx context.Context, report progress.Func) error {
			var err error
			res, err = x.Run(ctx, acct.ID, outPath, report)
			return err
		})
		if err != nil {
			return cmdErr(err, output.ErrGeneral)
		}

		dropped := res.Lite.Dropped + res.Complete.Dropped
		if dropped > 0 {
			w.Warn("%d rows could not be exported, see %s", dropped, getCfg(cmd).LogPath)
		}
		if keepParts {
			w.Info("Link files kept in %s", opts.WorkDir)
		}

		info := exportInfo{
			Account:      acct.Email(),
			Path:         res.Path,
			SizeBytes:    res.Size,
			Encrypted:    res.Encrypted,
			Kind:         string(kind),
			LiteRows:     res.Lite.Total(),
			CompleteRows: res.Complete.Total(),
			Dropped:      dropped,
		}
		w.Success(info, formatExportHuman(info, res.Manifest))
		return nil
	},
}

func formatExportHuman(info exportInfo, m *archive.Manifest) string {
	state := "plain"
	if info.Encrypted {
		state = "encrypted"
	}
	return fmt.Sprintf("Exported %s to %s (%s, %s)\n%s",
		info.Account, info.Path, humanize.Bytes(uint64(info.SizeBytes)), state,
		render.RenderParts(m.Parts))
}

func init() {
	accountFlag(exportCmd)
	passwordFlags(exportCmd, "Encrypt the archive with this password")
	exportCmd.Flags().StringP("output", "o", "", "Archive path (default <kind>.db in the current directory)")
	exportCmd.Flags().Int("lite-threads", 5, "Number of recent threads in the lite file")
	exportCmd.Flags().String("kind", "backup", "Export kind: link, backup, share")
	exportCmd.Flags().Bool("keep-parts", false, "Keep the lite and complete link files next to the archive")
	rootCmd.AddCommand(exportCmd)
}
