package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/phanxgames/sketchpad"
)

// appConfig is everything main needs, gathered from the environment (after
// .env is loaded) and then overridden by flags.
type appConfig struct {
	Remote        string
	Script        string
	ExitAfter     bool
	ShowFPS       bool
	ScreenshotDir string
	Width, Height int
	LogLevel      slog.Level
	Session       sketchpad.Config
}

// loadConfig reads SKETCHPAD_* variables through getenv, then parses args.
func loadConfig(args []string, getenv func(string) string, stderr io.Writer) (appConfig, error) {
	cfg := appConfig{
		Remote:        "http://localhost:8080",
		ScreenshotDir: "screenshots",
		Width:         1280,
		Height:        720,
		LogLevel:      slog.LevelInfo,
		Session:       sketchpad.DefaultConfig(),
	}

	var errs []string
	env := func(key string, apply func(string) error) {
		v := strings.TrimSpace(getenv(key))
		if v == "" {
			return
		}
		if err := apply(v); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	env("SKETCHPAD_REMOTE", func(v string) error { cfg.Remote = v; return nil })
	env("SKETCHPAD_DEBOUNCE", func(v string) (err error) {
		cfg.Session.DebounceWindow, err = time.ParseDuration(v)
		return err
	})
	env("SKETCHPAD_ERASE_THRESHOLD", func(v string) (err error) {
		cfg.Session.EraseThreshold, err = strconv.ParseFloat(v, 64)
		return err
	})
	env("SKETCHPAD_MIN_SCALE", func(v string) (err error) {
		cfg.Session.MinScale, err = strconv.ParseFloat(v, 64)
		return err
	})
	env("SKETCHPAD_MAX_SCALE", func(v string) (err error) {
		cfg.Session.MaxScale, err = strconv.ParseFloat(v, 64)
		return err
	})
	env("SKETCHPAD_LOG_LEVEL", func(v string) error { return cfg.LogLevel.UnmarshalText([]byte(v)) })
	env("SKETCHPAD_DEBUG", func(v string) (err error) {
		cfg.Session.Debug, err = strconv.ParseBool(v)
		return err
	})
	if len(errs) > 0 {
		return cfg, fmt.Errorf("environment: %s", strings.Join(errs, "; "))
	}

	fs := flag.NewFlagSet("sketchpad", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.Remote, "remote", cfg.Remote, "snapshot store base URL (empty disables persistence)")
	fs.StringVar(&cfg.Script, "script", "", "JSON input script to replay")
	fs.BoolVar(&cfg.ExitAfter, "exit-after-script", false, "quit once the input script finishes")
	fs.BoolVar(&cfg.ShowFPS, "fps", false, "show the stats overlay")
	fs.StringVar(&cfg.ScreenshotDir, "screenshots", cfg.ScreenshotDir, "directory for script screenshots")
	fs.IntVar(&cfg.Width, "width", cfg.Width, "window width")
	fs.IntVar(&cfg.Height, "height", cfg.Height, "window height")
	fs.DurationVar(&cfg.Session.DebounceWindow, "debounce", cfg.Session.DebounceWindow, "quiet period before saving")
	debug := fs.Bool("debug", cfg.Session.Debug, "log per-frame render stats")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if *debug {
		cfg.Session.Debug = true
		cfg.LogLevel = slog.LevelDebug
	}
	return cfg, nil
}
