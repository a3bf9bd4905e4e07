package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	humanize "github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ALT-F4-LLC/mailvault/internal/config"
	"github.com/ALT-F4-LLC/mailvault/internal/db"
	"github.com/ALT-F4-LLC/mailvault/internal/output"
	"github.com/ALT-F4-LLC/mailvault/internal/render"
)

type configInfo struct {
	DataDir          string         `json:"data_dir"`
	DBPath           string         `json:"db_path"`
	DBSizeBytes      int64          `json:"db_size_bytes"`
	SchemaVersion    int            `json:"schema_version"`
	SettingsPath     string         `json:"settings_path"`
	LogPath          string         `json:"log_path"`
	MailvaultPathEnv string         `json:"mailvault_path_env"`
	MailvaultPathSet bool           `json:"mailvault_path_set"`
	Settings         map[string]any `json:"settings"`
}

var configCmd = &cobra.Command{
	Use:         "config",
	Short:       "Display mailvault configuration",
	Annotations: map[string]string{"skipDB": "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		cfg := getCfg(cmd)

		info := configInfo{
			DataDir:          cfg.DataDir,
			DBPath:           cfg.DBPath,
			SettingsPath:     cfg.SettingsPath,
			LogPath:          cfg.LogPath,
			MailvaultPathEnv: os.Getenv("MAILVAULT_PATH"),
			MailvaultPathSet: cfg.EnvVarSet,
			Settings:         getSettings(cmd).Values(),
		}

		exists, err := cfg.Exists()
		if err != nil {
			return cmdErr(fmt.Errorf("checking database: %w", err), output.ErrGeneral)
		}
		if !exists {
			w.Warn("No mailvault database found. Run 'mailvault init' to create one.")
			w.Success(info, formatConfigHuman(info, true))
			return nil
		}

		conn, err := db.Open(cfg.DBPath)
		if err != nil {
			return cmdErr(fmt.Errorf("opening database: %w", err), output.ErrGeneral)
		}
		defer conn.Close()

		if info.SchemaVersion, err = db.SchemaVersion(conn); err != nil {
			return cmdErr(fmt.Errorf("reading schema version: %w", err), output.ErrGeneral)
		}
		stat, err := os.Stat(cfg.DBPath)
		if err != nil {
			return cmdErr(fmt.Errorf("reading database file: %w", err), output.ErrGeneral)
		}
		info.DBSizeBytes = stat.Size()

		w.Success(info, formatConfigHuman(info, false))
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:         "set <key> <value>",
	Short:       "Change a setting in config.yaml",
	Args:        cobra.ExactArgs(2),
	Annotations: map[string]string{"skipDB": "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		cfg := getCfg(cmd)

		s, err := config.Set(cfg.SettingsPath, args[0], args[1])
		if errors.Is(err, config.ErrUnknownKey) {
			return cmdErr(fmt.Errorf("%w, valid keys: %s", err, strings.Join(config.Keys(), ", ")), output.ErrValidation)
		}
		if err != nil {
			return cmdErr(err, output.ErrValidation)
		}

		w.Success(s.Values(), fmt.Sprintf("Set %s = %v", args[0], s.Values()[args[0]]))
		return nil
	},
}

func formatEnvValue(val string) string {
	if val == "" {
		return "(not set)"
	}
	return val
}

func formatConfigHuman(info configInfo, notFound bool) string {
	if !render.ColorsEnabled() {
		return formatConfigPlain(info, notFound)
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	keyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	valStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))

	var b strings.Builder
	b.WriteString(headerStyle.Render("Mailvault Configuration") + "\n\n")

	indicator := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render("●")
	dbPath := info.DBPath
	if notFound {
		indicator = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Render("●")
		dbPath += " (not found)"
	}
	fmt.Fprintf(&b, "  %s %s %s\n", keyStyle.Render("Database path: "), indicator, valStyle.Render(dbPath))
	if !notFound {
		fmt.Fprintf(&b, "  %s %s\n", keyStyle.Render("Database size:   "), valStyle.Render(humanize.Bytes(uint64(info.DBSizeBytes))))
		fmt.Fprintf(&b, "  %s %s\n", keyStyle.Render("Schema version:  "), valStyle.Render(fmt.Sprint(info.SchemaVersion)))
	}
	fmt.Fprintf(&b, "  %s %s\n", keyStyle.Render("Settings:        "), valStyle.Render(info.SettingsPath))
	fmt.Fprintf(&b, "  %s %s\n", keyStyle.Render("Log file:        "), valStyle.Render(info.LogPath))
	fmt.Fprintf(&b, "  %s %s\n\n", keyStyle.Render("MAILVAULT_PATH:  "), valStyle.Render(formatEnvValue(info.MailvaultPathEnv)))

	for _, k := range config.Keys() {
		fmt.Fprintf(&b, "  %s %v\n", keyStyle.Render(fmt.Sprintf("%-24s", k)), info.Settings[k])
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatConfigPlain(info configInfo, notFound bool) string {
	var b strings.Builder
	dbPath := info.DBPath
	if notFound {
		dbPath += " (not found)"
	}
	fmt.Fprintf(&b, "Database path:   %s\n", dbPath)
	if !notFound {
		fmt.Fprintf(&b, "Database size:   %s\n", humanize.Bytes(uint64(info.DBSizeBytes)))
		fmt.Fprintf(&b, "Schema version:  %d\n", info.SchemaVersion)
	}
	fmt.Fprintf(&b, "Settings:        %s\n", info.SettingsPath)
	fmt.Fprintf(&b, "Log file:        %s\n", info.LogPath)
	fmt.Fprintf(&b, "MAILVAULT_PATH:  %s\n\n", formatEnvValue(info.MailvaultPathEnv))
	for _, k := range config.Keys() {
		fmt.Fprintf(&b, "%-24s %v\n", k, info.Settings[k])
	}
	return strings.TrimRight(b.String(), "\n")
}

func init() {
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}
