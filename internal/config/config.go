package config

import (
	"os"
	"path/filepath"
)

const (
	dbFileName       = "mail.db"
	mailDirName      = "mail"
	logFileName      = "mailvault.log"
	settingsFileName = "config.yaml"
)

// Config holds the resolved locations of the data directory and its files.
type Config struct {
	DataDir      string // resolved .mailvault directory path
	DBPath       string // full path to mail.db
	MailDir      string // per-message bodies and headers
	LogPath      string // rotated log file
	SettingsPath string // config.yaml
	EnvVarSet    bool   // whether MAILVAULT_PATH was used
}

// Resolve returns the current configuration by checking MAILVAULT_PATH first,
// then falling back to $PWD/.mailvault.
func Resolve() (*Config, error) {
	var dataDir string
	var envVarSet bool

	if envPath := os.Getenv("MAILVAULT_PATH"); envPath != "" {
		dataDir = envPath
		envVarSet = true
	} else {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		dataDir = filepath.Join(cwd, ".mailvault")
	}

	return &Config{
		DataDir:      dataDir,
		DBPath:       filepath.Join(dataDir, dbFileName),
		MailDir:      filepath.Join(dataDir, mailDirName),
		LogPath:      filepath.Join(dataDir, logFileName),
		SettingsPath: filepath.Join(dataDir, settingsFileName),
		EnvVarSet:    envVarSet,
	}, nil
}

// Exists checks if the data directory and DB file both exist.
// It returns an error for non-existence failures (e.g. permission errors).
func (c *Config) Exists() (bool, error) {
	if _, err := os.Stat(c.DataDir); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if _, err := os.Stat(c.DBPath); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// WorkDir returns a directory under the data dir for temporary files of one
// operation.
func (c *Config) WorkDir(name string) string {
	return filepath.Join(c.DataDir, "work", name)
}
