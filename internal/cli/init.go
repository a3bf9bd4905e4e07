package cli

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/ALT-F4-LLC/mailvault/internal/config"
	"github.com/ALT-F4-LLC/mailvault/internal/db"
	"github.com/ALT-F4-LLC/mailvault/internal/output"
	"github.com/ALT-F4-LLC/mailvault/internal/render"
)

type initInfo struct {
	Path          string `json:"path"`
	DBPath        string `json:"db_path"`
	SchemaVersion int    `json:"schema_version"`
	Created       bool   `json:"created"`
	Account       string `json:"account,omitempty"`
}

var initCmd = &cobra.Command{
	Use:         "init",
	Short:       "Initialize a new mailvault data directory",
	Annotations: map[string]string{"skipDB": "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		cfg := getCfg(cmd)
		email, _ := cmd.Flags().GetString("email")
		name, _ := cmd.Flags().GetString("name")

		exists, err := cfg.Exists()
		if err != nil {
			return cmdErr(fmt.Errorf("checking database: %w", err), output.ErrGeneral)
		}
		if exists {
			w.Warn("Database already exists at %s", cfg.DBPath)
		} else if err := os.MkdirAll(cfg.MailDir, 0o755); err != nil {
			return cmdErr(fmt.Errorf("creating directory: %w", err), output.ErrGeneral)
		}

		conn, err := db.Open(cfg.DBPath)
		if err != nil {
			return cmdErr(fmt.Errorf("opening database: %w", err), output.ErrGeneral)
		}
		defer conn.Close()

		if !exists {
			if err := db.Initialize(conn); err != nil {
				return cmdErr(fmt.Errorf("initializing schema: %w", err), output.ErrGeneral)
			}
		}
		if err := db.Migrate(cmd.Context(), conn); err != nil {
			return cmdErr(fmt.Errorf("migrating schema: %w", err), output.ErrGeneral)
		}
		schemaVersion, err := db.SchemaVersion(conn)
		if err != nil {
			return cmdErr(fmt.Errorf("reading schema version: %w", err), output.ErrGeneral)
		}

		if _, err := os.Stat(cfg.SettingsPath); os.IsNotExist(err) {
			if err := config.SaveSettings(cfg.SettingsPath, getSettings(cmd)); err != nil {
				return cmdErr(err, output.ErrGeneral)
			}
		}

		info := initInfo{
			Path:          cfg.DataDir,
			DBPath:        cfg.DBPath,
			SchemaVersion: schemaVersion,
			Created:       !exists,
		}
		if email != "" {
			acct, err := createAccount(cmd, conn, email, name)
			if err != nil {
				return err
			}
			info.Account = acct.Email()
		}

		var msg string
		if exists {
			msg = render.StyledText("Database already initialized", lipgloss.NewStyle().Foreground(lipgloss.Color("3")))
		} else {
			msg = render.StyledText("Initialized mailvault data directory", lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10")))
		}
		w.Success(info, msg)

		if !exists {
			w.Info("Database created at %s", cfg.DBPath)
		}
		if info.Account != "" {
			w.Info("Account %s is ready", info.Account)
		}
		return nil
	},
}

func init() {
	initCmd.Flags().String("email", "", "Create an account with this address")
	initCmd.Flags().String("name", "", "Display name of the account")
	rootCmd.AddCommand(initCmd)
}
