// Command snapstored serves the canvas snapshot store: save, load, image
// upload and static access to uploaded files.
//
// Configuration comes from the environment (a .env file in the working
// directory is read first) and may be overridden by flags.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/phanxgames/sketchpad"
	"github.com/phanxgames/sketchpad/snapstore"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("read .env", "error", err)
	}

	var (
		addr    = flag.String("addr", envOr("SNAPSTORE_ADDR", ":8080"), "listen address")
		dsn     = flag.String("db", databaseDSN(os.Getenv), "SQLite path or PostgreSQL DSN")
		uploads = flag.String("uploads", envOr("SNAPSTORE_UPLOADS", "uploads"), "directory for uploaded images")
		verbose = flag.Bool("v", false, "log at debug level")
	)
	flag.Parse()

	installLogger(os.Stderr, *verbose)

	if err := serve(*addr, *dsn, *uploads); err != nil {
		slog.Error("snapstored", "error", err)
		os.Exit(1)
	}
}

func serve(addr, dsn, uploadDir string) error {
	store, err := snapstore.Open(dsn)
	if err != nil {
		return err
	}
	defer store.Close()

	up, err := snapstore.NewUploads(uploadDir)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           snapstore.NewServer(store, up).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("listening", "addr", addr, "driver", store.Driver(), "uploads", up.Dir())
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// installLogger routes both the default logger and the snapstore request
// and error log to w.
func installLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	sketchpad.SetLogger(logger)
	return logger
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// databaseDSN prefers SNAPSTORE_DB, then a PostgreSQL DSN assembled from
// DB_HOST, DB_PORT, DB_USER, DB_PASSWORD and DB_NAME, then a local SQLite
// file.
func databaseDSN(getenv func(string) string) string {
	if v := getenv("SNAPSTORE_DB"); v != "" {
		return v
	}
	host := getenv("DB_HOST")
	if host == "" {
		return "data/canvas.db"
	}
	port := getenv("DB_PORT")
	if port == "" {
		port = "5432"
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, getenv("DB_USER"), getenv("DB_PASSWORD"), getenv("DB_NAME"))
}
