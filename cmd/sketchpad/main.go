// Command sketchpad opens an infinite drawing canvas synchronized with a
// snapshot store.
//
// Keys: p pen, e eraser, h handle, t text, 0 reset view, F3 stats,
// Ctrl+S save now, Ctrl+L reload from the store.
// Drop image files onto the window to upload them.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/phanxgames/sketchpad"
	"github.com/phanxgames/sketchpad/remote"
	"github.com/phanxgames/sketchpad/shell"
)

// flushTimeout bounds the final save on exit.
const flushTimeout = 5 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("read .env", "error", err)
	}
	cfg, err := loadConfig(os.Args[1:], os.Getenv, os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		slog.Error("configuration", "error", err)
		return 2
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	sketchpad.SetLogger(logger)

	session := sketchpad.NewSession(cfg.Session)
	defer session.Close()

	if cfg.Remote != "" {
		client, err := remote.NewClient(cfg.Remote, nil)
		if err != nil {
			logger.Error("remote", "error", err)
			return 2
		}
		session.SetRemote(client, client)
		session.Load()
		logger.Info("using snapshot store", "url", client.BaseURL())
	}

	opts := shell.DefaultOptions()
	opts.Width, opts.Height = cfg.Width, cfg.Height
	opts.ShowFPS = cfg.ShowFPS
	opts.ScreenshotDir = cfg.ScreenshotDir
	opts.ExitAfterScript = cfg.ExitAfter
	if cfg.Script != "" {
		data, err := os.ReadFile(cfg.Script)
		if err != nil {
			logger.Error("read script", "error", err)
			return 1
		}
		runner, err := sketchpad.LoadScript(data)
		if err != nil {
			logger.Error("load script", "error", err)
			return 1
		}
		opts.Script = runner
	}

	runErr := shell.Run(session, opts)

	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	if err := session.Flush(ctx); err != nil {
		logger.Warn("final save failed", "error", err)
	}

	if runErr != nil {
		logger.Error("window", "error", runErr)
		return 1
	}
	return 0
}
