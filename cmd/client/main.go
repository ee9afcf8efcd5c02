package main

import (
	"flag"
	"fmt"
	"os"

	"chatpane/internal/app"
)

func main() {
	defaultServer := envOrDefault("CHATPANE_SERVER", "http://localhost:8080")
	defaultUser := envOrDefault("CHATPANE_USER", "")

	serverURL := flag.String("server", defaultServer, "server base URL (e.g., http://localhost:8080)")
	username := flag.String("user", defaultUser, "username the transcript is viewed as")
	flag.Parse()

	conversationKey := "demo"
	if args := flag.Args(); len(args) >= 1 {
		conversationKey = args[0]
	}

	cfg := app.ClientConfig{
		ServerURL:       *serverURL,
		ConversationKey: conversationKey,
		Username:        *username,
	}

	if err := app.RunClient(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
