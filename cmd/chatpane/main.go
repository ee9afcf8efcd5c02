package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	intrnl "chatpane/internal"
	"chatpane/internal/app"
)

const (
	modeServer = "server"
	modeClient = "client"
	modeLocal  = "local"
)

func main() {
	mode, args := parseMode(os.Args[1:])
	flagSet := flag.NewFlagSet("chatpane", flag.ExitOnError)
	addr := flagSet.String("addr", envOrDefault("CHATPANE_ADDR", defaultAddrForMode(mode)), "server listen address")
	db := flagSet.String("db", envOrDefault("CHATPANE_DB_PATH", ""), "sqlite database path (defaults to a per-user path)")
	attachmentDir := flagSet.String("attachments", envOrDefault("CHATPANE_ATTACHMENT_DIR", ""), "directory for locally served attachments")
	serverURL := flagSet.String("server-url", envOrDefault("CHATPANE_SERVER", "http://localhost:8080"), "server base URL (client mode)")
	username := flagSet.String("user", envOrDefault("CHATPANE_USER", ""), "username the transcript is viewed as")
	seed := flagSet.Bool("seed", false, "insert demo data on startup")
	seedPath := flagSet.String("seed-file", "", "JSON seed fixture (implies -seed)")
	version := flagSet.Bool("version", false, "print version and exit")
	update := flagSet.Bool("update", false, "self-update to the latest release and exit")
	quiet := flagSet.Bool("quiet", false, "suppress informational logs")
	flagSet.Parse(args)

	if *version {
		fmt.Printf("chatpane v%s\n", intrnl.Version)
		return
	}
	if *update {
		if err := intrnl.UpdateToLatest(); err != nil {
			fmt.Fprintf(os.Stderr, "chatpane: %v\n", err)
			os.Exit(1)
		}
		return
	}

	conversationKey := "demo"
	if remaining := flagSet.Args(); len(remaining) > 0 {
		conversationKey = remaining[0]
	}

	serverCfg := app.ServerConfig{
		Addr:          *addr,
		DBPath:        *db,
		AttachmentDir: *attachmentDir,
		Seed:          *seed || *seedPath != "",
		SeedPath:      *seedPath,
	}
	if serverCfg.DBPath == "" {
		serverCfg.DBPath = app.DefaultDBPath()
	}

	clientCfg := app.ClientConfig{
		ServerURL:       *serverURL,
		Username:        *username,
		ConversationKey: conversationKey,
	}

	infof := func(format string, args ...interface{}) {
		if *quiet {
			return
		}
		log.Printf(format, args...)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch mode {
	case modeServer:
		err = runServerMode(ctx, serverCfg, infof)
	case modeLocal:
		err = runLocalMode(ctx, serverCfg, clientCfg, infof)
	default:
		err = runClientMode(clientCfg)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "chatpane: %v\n", err)
		os.Exit(1)
	}
}

func runServerMode(ctx context.Context, cfg app.ServerConfig, infof func(string, ...interface{})) error {
	handle, err := app.RunServer(ctx, cfg)
	if err != nil {
		return err
	}
	infof("chatpane server listening on %s (db %s)", handle.Addr(), cfg.DBPath)
	return handle.Wait()
}

func runClientMode(cfg app.ClientConfig) error {
	if cfg.ServerURL == "" {
		return errors.New("client mode requires --server-url or CHATPANE_SERVER")
	}
	return app.RunClient(cfg)
}

func runLocalMode(ctx context.Context, serverCfg app.ServerConfig, clientCfg app.ClientConfig, infof func(string, ...interface{})) error {
	if err := os.MkdirAll(filepath.Dir(serverCfg.DBPath), 0o700); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	handle, err := app.RunServer(ctx, serverCfg)
	if err != nil {
		return err
	}
	defer stopServer(handle)

	infof("Starting local chatpane server on %s (db %s)", handle.Addr(), serverCfg.DBPath)
	if err := waitForServer(handle.Addr(), 5*time.Second); err != nil {
		return err
	}

	clientCfg.ServerURL = "http://" + handle.Addr()
	infof("Launching viewer against %s", clientCfg.ServerURL)

	if err := app.RunClient(clientCfg); err != nil {
		return err
	}
	stopServer(handle)
	return handle.Wait()
}

func waitForServer(addr string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		conn, err := net.DialTimeout("tcp", addr, 500*time.Millisecond)
		if err == nil {
			_ = conn.Close()
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("server did not become ready: %w", err)
		}
		time.Sleep(100 * time.Millisecond)
	}
}

func parseMode(args []string) (string, []string) {
	if len(args) == 0 {
		return modeLocal, args
	}
	switch strings.ToLower(args[0]) {
	case modeServer, modeClient, modeLocal:
		return strings.ToLower(args[0]), args[1:]
	}
	return modeClient, args
}

func defaultAddrForMode(mode string) string {
	if mode == modeLocal {
		return "127.0.0.1:0"
	}
	return ":8080"
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func stopServer(handle *app.ServerHandle) {
	if handle == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = handle.Stop(shutdownCtx)
}
