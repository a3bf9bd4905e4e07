package cli

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/spf13/cobra"

	"github.com/ALT-F4-LLC/mailvault/internal/archive"
	"github.com/ALT-F4-LLC/mailvault/internal/linkfile"
	"github.com/ALT-F4-LLC/mailvault/internal/output"
	"github.com/ALT-F4-LLC/mailvault/internal/progress"
	"github.com/ALT-F4-LLC/mailvault/internal/render"
	"github.com/ALT-F4-LLC/mailvault/internal/restore"
)

type restoreInfo struct {
	Account  string                 `json:"account"`
	Path     string                 `json:"path"`
	Archive  bool                   `json:"archive"`
	Rows     map[linkfile.Table]int `json:"rows"`
	Skipped  int                    `json:"skipped"`
	Unparsed int                    `json:"unparsed"`
	Batches  int                    `json:"batches"`
}

// add folds a single file result into the info.
func (i *restoreInfo) add(r *restore.Result) {
	if r == nil {
		return
	}
	for t, n := range r.Rows {
		i.Rows[t] += n
	}
	i.Skipped += r.Skipped
	i.Unparsed += r.Unparsed
	i.Batches += r.Batches
}

// isArchive reports whether path is an archive rather than a bare link file.
func isArchive(path string) (encrypted, ok bool, err error) {
	encrypted, err = archive.IsEncrypted(path)
	if err != nil || encrypted {
		return encrypted, encrypted, err
	}
	if _, err := archive.ReadManifest(path); err == nil {
		return false, true, nil
	}
	return false, false, nil
}

var restoreCmd = &cobra.Command{
	Use:   "restore <archive|file>",
	Short: "Restore an archive or link file into an account",
	Long: `Restore applies an archive produced by export, or a single link file, to the
account. Rows already present are left untouched, so a restore can be
repeated. The source is deleted afterwards unless --keep-source is set.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		s := getSettings(cmd)
		cfg := getCfg(cmd)
		path := args[0]

		acct, err := resolveAccount(cmd)
		if err != nil {
			return err
		}

		encrypted, packed, err := isArchive(path)
		if err != nil {
			return cmdErr(err, output.ErrNotFound)
		}

		password, err := readPassword(cmd, false)
		if err == nil && encrypted && password == "" && !w.JSONMode {
			password, err = promptPassword(false)
		}
		if errors.Is(err, errCancelled) {
			w.Info("Cancelled.")
			return nil
		}
		if err != nil {
			return err
		}

		ok, err := confirmAction(cmd,
			fmt.Sprintf("Restore %s into %s?", path, acct.Email()),
			"Yes, restore")
		if err != nil {
			return cmdErr(err, output.ErrGeneral)
		}
		if !ok {
			w.Info("Cancelled.")
			return nil
		}

		initial, _ := cmd.Flags().GetInt("initial-progress")
		if initial < 0 || initial > 99 {
			return cmdErr(fmt.Errorf("--initial-progress must be between 0 and 99"), output.ErrValidation)
		}
		keepSource, _ := cmd.Flags().GetBool("keep-source")

		log := getLogger(cmd)
		var skipped atomic.Int64
		r := restore.New(getDB(cmd), getMail(cmd), restore.Options{
			BatchSize:       s.Restore.BatchSize,
			InitialProgress: initial,
			KeepSource:      keepSource,
			OnSkip: func(table linkfile.Table, err error) {
				skipped.Add(1)
				log.WithField("table", table).WithError(err).Debug("row not restored")
			},
			Logger: log,
		})

		info := restoreInfo{
			Account: acct.Email(),
			Path:    path,
			Archive: packed,
			Rows:    make(map[linkfile.Table]int),
		}
		err = runJob(cmd, "restore", func(ctx context.Context, report progress.Func) error {
			if !packed {
				res, err := r.Restore(ctx, path, acct.ID, report)
				info.add(res)
				return err
			}
			res, err := r.RestoreArchive(ctx, path, acct.ID, password, cfg.WorkDir("restore"), report, func(lite *restore.Result) {
				log.WithField("rows", lite.Total()).Info("recent threads restored")
			})
			if res != nil {
				info.add(res.Lite)
				info.add(res.Complete)
			}
			return err
		})
		if err != nil {
			return cmdErr(err, output.ErrGeneral)
		}

		if n := skipped.Load(); n > 0 {
			w.Warn("%d rows were skipped, see %s", n, cfg.LogPath)
		}
		if info.Unparsed > 0 {
			w.Warn("%d lines could not be read", info.Unparsed)
		}
		w.Success(info, fmt.Sprintf("Restored %s into %s\n%s", path, acct.Email(), render.RenderRowCounts(info.Rows)))
		return nil
	},
}

func init() {
	accountFlag(restoreCmd)
	passwordFlags(restoreCmd, "Password of an encrypted archive")
	restoreCmd.Flags().Int("initial-progress", 0, "Progress already reported, 0-99")
	restoreCmd.Flags().Bool("keep-source", false, "Keep the archive or file after restoring")
	restoreCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
	rootCmd.AddCommand(restoreCmd)
}
