package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"chatpane/internal/app"
)

func main() {
	addr := flag.String("addr", envOrDefault("CHATPANE_ADDR", ":8080"), "server listen address")
	db := flag.String("db", envOrDefault("CHATPANE_DB_PATH", ""), "sqlite database path")
	attachmentDir := flag.String("attachments", envOrDefault("CHATPANE_ATTACHMENT_DIR", ""), "directory for locally served attachments")
	seed := flag.Bool("seed", false, "insert demo data on startup")
	seedPath := flag.String("seed-file", "", "JSON seed fixture (implies -seed)")
	flag.Parse()

	cfg := app.ServerConfig{
		Addr:          *addr,
		DBPath:        *db,
		AttachmentDir: *attachmentDir,
		Seed:          *seed || *seedPath != "",
		SeedPath:      *seedPath,
	}
	if cfg.DBPath == "" {
		cfg.DBPath = app.DefaultDBPath()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	handle, err := app.RunServer(ctx, cfg)
	if err != nil {
		log.Fatalf("server error: %v", err)
	}
	log.Printf("chatpane server listening on %s (db %s)", handle.Addr(), cfg.DBPath)
	if err := handle.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "chatpane server: %v\n", err)
		os.Exit(1)
	}
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
