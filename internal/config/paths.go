package config

import (
	"os"
	"path/filepath"
)

// DuetPath returns the root directory for duet data.
// It uses $DUET_PATH if set, otherwise defaults to ~/.duet.
func DuetPath() string {
	if v := os.Getenv("DUET_PATH"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".duet")
	}
	return filepath.Join(home, ".duet")
}

// ConfigPath returns the path to the config file.
func ConfigPath() string {
	return filepath.Join(DuetPath(), "config.jsonc")
}

// DotenvPath returns the path to the .env file.
func DotenvPath() string {
	return filepath.Join(DuetPath(), ".env")
}

// HeartbeatPath returns the path of the file written by a running gateway.
func HeartbeatPath() string {
	return filepath.Join(DuetPath(), "heartbeat.json")
}

// TUILogPath returns where the terminal UI sends its logs.
func TUILogPath() string {
	return filepath.Join(DuetPath(), "tui.log")
}

// JournalPath returns the directory of the session journal.
func JournalPath() string {
	return filepath.Join(DuetPath(), "journal")
}
