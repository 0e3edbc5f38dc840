package main

import (
	"context"
	"flag"
	"io"
	"path/filepath"
	"strings"

	"github.com/Joseda-hg/todolist/internal/config"
	"github.com/Joseda-hg/todolist/internal/db"
	"github.com/Joseda-hg/todolist/internal/document"
	"github.com/Joseda-hg/todolist/internal/logging"
	"github.com/Joseda-hg/todolist/internal/store"
	"github.com/Joseda-hg/todolist/internal/tui"
	"github.com/charmbracelet/log"
	goerrors "github.com/go-errors/errors"
)

func main() {
	configPathFlag := flag.String("config", "", "config file path (.json, .yaml or .toml)")
	dataPathFlag := flag.String("data", "", "task file path")
	storageFlag := flag.String("storage", "", "storage backend: json or sqlite")
	logPathFlag := flag.String("log", "", "log file path")
	logLevelFlag := flag.String("log-level", "", "log level: debug, info, warn or error")
	flag.Parse()

	cfgPath, err := resolveConfigPath(*configPathFlag)
	if err != nil {
		log.Fatal(err)
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal(err)
	}

	if *storageFlag != "" {
		cfg.Storage = *storageFlag
	}
	if *dataPathFlag != "" {
		cfg.DataPath = *dataPathFlag
	}
	if *logPathFlag != "" {
		cfg.LogPath = *logPathFlag
	}
	if *logLevelFlag != "" {
		cfg.LogLevel = *logLevelFlag
	}
	if cfg.Storage == config.StorageSQLite && strings.EqualFold(filepath.Ext(cfg.DataPath), ".json") {
		cfg.DataPath = strings.TrimSuffix(cfg.DataPath, filepath.Ext(cfg.DataPath)) + ".db"
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	if err := config.Save(cfgPath, cfg); err != nil {
		log.Fatal(err)
	}

	logger, logCloser, err := logging.New(cfg.LogPath, cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer logCloser.Close()

	backend, closer, err := openBackend(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer closer.Close()

	st := store.New(backend, logger)
	tasks := st.Load(context.Background())
	logger.Info("starting", "storage", cfg.Storage, "path", cfg.DataPath, "tasks", len(tasks))

	if err := tui.Run(st, tui.Options{Logger: logger, Colors: cfg.Colors}); err != nil {
		logger.Error("ui exited", "err", err)
		if wrapped, ok := err.(*goerrors.Error); ok {
			logger.Debug(wrapped.ErrorStack())
		}
		logCloser.Close()
		closer.Close()
		log.Fatal(err)
	}
}

func resolveConfigPath(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	return config.DefaultConfigPath()
}

func openBackend(cfg config.Config) (store.Backend, io.Closer, error) {
	switch cfg.Storage {
	case config.StorageSQLite:
		if err := config.EnsureDir(cfg.DataPath); err != nil {
			return nil, nil, err
		}
		backend := db.NewBackend(cfg.DataPath)
		return backend, backend, nil
	default:
		return document.New(cfg.DataPath), nopCloser{}, nil
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
