// Command server runs the Caridad UNSTA donation and activity API.
//
// Configuration comes from the environment (and an optional .env file);
// see internal/config for the keys.
package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/caridad-unsta/caridad/internal/config"
	sqliteRepo "github.com/caridad-unsta/caridad/internal/repository/sqlite"
	"github.com/caridad-unsta/caridad/internal/server"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(".env")
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	// SQLite creates the file but not its directory.
	if cfg.DBPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return err
		}
	}

	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	srv, err := server.New(context.Background(), cfg, db, logger)
	if err != nil {
		return err
	}
	return srv.Start()
}

// newLogger builds the process logger. Text is easier to read in a
// terminal; JSON is for log shippers.
func newLogger(w io.Writer, level, format string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
