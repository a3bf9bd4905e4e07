package config

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/viper"
)

// ExportSettings control the export pipeline.
type ExportSettings struct {
	LiteThreads  int    `mapstructure:"lite_threads"`
	ProgressStep int    `mapstructure:"progress_step"`
	Kind         string `mapstructure:"kind"`
}

// RestoreSettings control the restore pipeline.
type RestoreSettings struct {
	BatchSize int `mapstructure:"batch_size"`
}

// CryptoSettings are the argon2id parameters for new encrypted archives.
type CryptoSettings struct {
	ArgonTime      uint32 `mapstructure:"argon_time"`
	ArgonMemoryKiB uint32 `mapstructure:"argon_memory_kib"`
	ArgonThreads   uint8  `mapstructure:"argon_threads"`
}

// LogSettings control file logging.
type LogSettings struct {
	Level      string `mapstructure:"level"`
	File       bool   `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// PreferenceSettings are the device preferences carried in link file
// headers.
type PreferenceSettings struct {
	DarkTheme bool   `mapstructure:"dark_theme"`
	Language  string `mapstructure:"language"`
}

// Settings is the content of config.yaml.
type Settings struct {
	Export      ExportSettings     `mapstructure:"export"`
	Restore     RestoreSettings    `mapstructure:"restore"`
	Crypto      CryptoSettings     `mapstructure:"crypto"`
	Log         LogSettings        `mapstructure:"log"`
	Preferences PreferenceSettings `mapstructure:"preferences"`
}

var defaults = map[string]any{
	"export.lite_threads":     5,
	"export.progress_step":    0,
	"export.kind":             "backup",
	"restore.batch_size":      30,
	"crypto.argon_time":       3,
	"crypto.argon_memory_kib": 64 * 1024,
	"crypto.argon_threads":    4,
	"log.level":               "info",
	"log.file":                true,
	"log.max_size_mb":         10,
	"log.max_backups":         10,
	"log.max_age_days":        30,
	"log.compress":            true,
	"preferences.dark_theme":  false,
	"preferences.language":    "en",
}

func newViper(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("MAILVAULT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	return v
}

// DefaultSettings returns the settings used when no config file exists.
func DefaultSettings() *Settings {
	s, _ := decode(newViper(""))
	return s
}

// LoadSettings reads settings from the YAML file at path. A missing file
// yields the defaults. Environment variables such as
// MAILVAULT_RESTORE_BATCH_SIZE override file values.
func LoadSettings(path string) (*Settings, error) {
	v := newViper(path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &s, nil
}

// SaveSettings writes s to a YAML file at path, creating parent directories
// if needed.
func SaveSettings(path string, s *Settings) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	for k, val := range s.Values() {
		v.Set(k, val)
	}
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// ErrUnknownKey is returned by Set for keys that are not settings.
var ErrUnknownKey = errors.New("unknown setting")

// Set changes one setting in the file at path and returns the resulting
// settings. The value is converted to the type of the setting; a value that
// does not convert leaves the file untouched.
func Set(path, key, value string) (*Settings, error) {
	if _, ok := defaults[key]; !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownKey, key)
	}
	v := newViper(path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}
	v.Set(key, value)
	s, err := decode(v)
	if err != nil {
		return nil, fmt.Errorf("setting %s: %w", key, err)
	}
	if err := SaveSettings(path, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Values flattens the settings into dotted keys.
func (s *Settings) Values() map[string]any {
	return map[string]any{
		"export.lite_threads":     s.Export.LiteThreads,
		"export.progress_step":    s.Export.ProgressStep,
		"export.kind":             s.Export.Kind,
		"restore.batch_size":      s.Restore.BatchSize,
		"crypto.argon_time":       s.Crypto.ArgonTime,
		"crypto.argon_memory_kib": s.Crypto.ArgonMemoryKiB,
		"crypto.argon_threads":    s.Crypto.ArgonThreads,
		"log.level":               s.Log.Level,
		"log.file":                s.Log.File,
		"log.max_size_mb":         s.Log.MaxSizeMB,
		"log.max_backups":         s.Log.MaxBackups,
		"log.max_age_days":        s.Log.MaxAgeDays,
		"log.compress":            s.Log.Compress,
		"preferences.dark_theme":  s.Preferences.DarkTheme,
		"preferences.language":    s.Preferences.Language,
	}
}

// Keys returns every settings key in sorted order.
func Keys() []string {
	return slices.Sorted(maps.Keys(defaults))
}
