package app

import (
	"errors"

	intrnl "chatpane/internal"
)

// RunClient launches the Bubble Tea transcript viewer with the provided
// configuration.
func RunClient(cfg ClientConfig) error {
	if cfg.ServerURL == "" {
		return errors.New("server URL is required")
	}
	if cfg.ConversationKey == "" {
		return errors.New("conversation key is required")
	}
	return intrnl.RunClient(cfg.ServerURL, cfg.ConversationKey, cfg.Username)
}
