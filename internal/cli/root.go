package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ALT-F4-LLC/mailvault/internal/archive"
	"github.com/ALT-F4-LLC/mailvault/internal/config"
	"github.com/ALT-F4-LLC/mailvault/internal/db"
	"github.com/ALT-F4-LLC/mailvault/internal/export"
	"github.com/ALT-F4-LLC/mailvault/internal/linkfile"
	"github.com/ALT-F4-LLC/mailvault/internal/logging"
	"github.com/ALT-F4-LLC/mailvault/internal/mailfs"
	"github.com/ALT-F4-LLC/mailvault/internal/output"
	"github.com/ALT-F4-LLC/mailvault/internal/restore"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

type contextKey string

const (
	dbKey       contextKey = "db"
	cfgKey      contextKey = "cfg"
	settingsKey contextKey = "settings"
	logKey      contextKey = "log"
	closerKey   contextKey = "closer"
)

// CmdError wraps an error with a machine-readable error code for structured output.
type CmdError struct {
	Err  error
	Code output.ErrorCode
}

func (e *CmdError) Error() string { return e.Err.Error() }

func (e *CmdError) Unwrap() error { return e.Err }

func cmdErr(err error, code output.ErrorCode) *CmdError {
	return &CmdError{Err: err, Code: code}
}

var rootCmd = &cobra.Command{
	Use:     "mailvault",
	Short:   "Export, archive and restore local mailboxes",
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Resolve()
		if err != nil {
			return err
		}
		settings, err := config.LoadSettings(cfg.SettingsPath)
		if err != nil {
			return cmdErr(err, output.ErrValidation)
		}

		ctx := context.WithValue(cmd.Context(), cfgKey, cfg)
		ctx = context.WithValue(ctx, settingsKey, settings)

		if _, ok := cmd.Annotations["skipDB"]; ok {
			ctx = context.WithValue(ctx, logKey, logrus.FieldLogger(logging.Discard()))
			ctx = context.WithValue(ctx, closerKey, nil)
			cmd.SetContext(context.WithValue(ctx, dbKey, (*sqlx.DB)(nil)))
			return nil
		}

		if _, err := os.Stat(cfg.DBPath); os.IsNotExist(err) {
			return cmdErr(
				fmt.Errorf("no mailvault database found, run 'mailvault init' to create one"),
				output.ErrNotFound,
			)
		}

		log, closer, err := logging.New(settings.Log, cfg.LogPath)
		if err != nil {
			return cmdErr(err, output.ErrValidation)
		}

		conn, err := db.Open(cfg.DBPath)
		if err != nil {
			closer.Close()
			return fmt.Errorf("failed to open database: %w", err)
		}
		if err := db.Migrate(ctx, conn); err != nil {
			conn.Close()
			closer.Close()
			return fmt.Errorf("migrating database: %w", err)
		}

		ctx = context.WithValue(ctx, logKey, logrus.FieldLogger(log.WithField("command", cmd.Name())))
		ctx = context.WithValue(ctx, closerKey, closer)
		cmd.SetContext(context.WithValue(ctx, dbKey, conn))
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if closer, ok := cmd.Context().Value(closerKey).(io.Closer); ok {
			defer closer.Close()
		}
		if conn := getDB(cmd); conn != nil {
			return conn.Close()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().Bool("json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress non-essential output")
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
}

func getWriter(cmd *cobra.Command) *output.Writer {
	jsonMode, _ := cmd.Flags().GetBool("json")
	quietMode, _ := cmd.Flags().GetBool("quiet")
	return output.New(jsonMode, quietMode)
}

func getCfg(cmd *cobra.Command) *config.Config {
	cfg, _ := cmd.Context().Value(cfgKey).(*config.Config)
	return cfg
}

func getSettings(cmd *cobra.Command) *config.Settings {
	s, ok := cmd.Context().Value(settingsKey).(*config.Settings)
	if !ok {
		return config.DefaultSettings()
	}
	return s
}

func getDB(cmd *cobra.Command) *sqlx.DB {
	conn, _ := cmd.Context().Value(dbKey).(*sqlx.DB)
	return conn
}

func getLogger(cmd *cobra.Command) logrus.FieldLogger {
	log, _ := cmd.Context().Value(logKey).(logrus.FieldLogger)
	return logging.OrDiscard(log)
}

func getMail(cmd *cobra.Command) *mailfs.Store {
	return mailfs.New(getCfg(cmd).MailDir)
}

// errorCode classifies pipeline errors that were not wrapped in a CmdError.
func errorCode(err error) output.ErrorCode {
	switch {
	case errors.Is(err, linkfile.ErrUnsupportedVersion):
		return output.ErrFormat
	case errors.Is(err, restore.ErrMetadata):
		return output.ErrMetadata
	case errors.Is(err, db.ErrNotFound),
		errors.Is(err, export.ErrAccountNotFound),
		errors.Is(err, restore.ErrAccountNotFound):
		return output.ErrNotFound
	case errors.Is(err, archive.ErrWrongPassword),
		errors.Is(err, restore.ErrPasswordRequired):
		return output.ErrValidation
	case errors.Is(err, archive.ErrNotEncrypted),
		errors.Is(err, archive.ErrTruncated),
		errors.Is(err, archive.ErrCorrupted):
		return output.ErrFormat
	case errors.Is(err, db.ErrAccountExists):
		return output.ErrConflict
	default:
		return output.ErrGeneral
	}
}

// Execute runs the root command and returns an exit code. SIGINT and SIGTERM
// cancel the running command.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		jsonMode, _ := rootCmd.PersistentFlags().GetBool("json")
		quietMode, _ := rootCmd.PersistentFlags().GetBool("quiet")
		w := output.New(jsonMode, quietMode)

		var ce *CmdError
		if errors.As(err, &ce) {
			code := ce.Code
			if code == output.ErrGeneral {
				code = errorCode(ce.Err)
			}
			return w.Error(ce.Err, code)
		}
		return w.Error(err, errorCode(err))
	}
	return 0
}
