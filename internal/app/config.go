package app

import (
	"os"
	"path/filepath"
	"runtime"
)

// ServerConfig defines how the HTTP/WebSocket backend should run.
type ServerConfig struct {
	Addr          string
	DBPath        string
	AttachmentDir string
	// Seed inserts demo data on startup; SeedPath points at a fixture file
	// and falls back to the built-in demo fixture when empty.
	Seed     bool
	SeedPath string
}

// ClientConfig defines the parameters the TUI client needs.
type ClientConfig struct {
	ServerURL       string
	Username        string
	ConversationKey string
}

// DefaultDBPath returns a per-user data path for the bundled SQLite file.
func DefaultDBPath() string {
	if env := os.Getenv("CHATPANE_DB_PATH"); env != "" {
		return env
	}
	if env := os.Getenv("CHATPANE_DATA_DIR"); env != "" {
		return filepath.Join(env, "chatpane.db")
	}
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "chatpane", "chatpane.db")
	}
	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "Chatpane", "chatpane.db")
		}
	}
	if home, err := os.UserHomeDir(); err == nil {
		if runtime.GOOS == "darwin" {
			return filepath.Join(home, "Library", "Application Support", "Chatpane", "chatpane.db")
		}
		return filepath.Join(home, ".local", "share", "chatpane", "chatpane.db")
	}
	return filepath.Join(".", ".chatpane", "chatpane.db")
}

// DefaultAttachmentDir returns the directory locally stored attachments are
// served from, next to the database by default.
func DefaultAttachmentDir() string {
	if env := os.Getenv("CHATPANE_ATTACHMENT_DIR"); env != "" {
		return env
	}
	return filepath.Join(filepath.Dir(DefaultDBPath()), "attachments")
}
