package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

// log is the diagnostics logger. It discards everything until setupLogging
// enables it: the terminal belongs to the TUI.
var log = newDiscardLogger()

func newDiscardLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// stateDir follows XDG: $XDG_STATE_HOME/trackplayer, else ~/.local/state/trackplayer
func stateDir() string {
	stateHome := os.Getenv("XDG_STATE_HOME")
	if stateHome == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		stateHome = filepath.Join(homeDir, ".local", "state")
	}
	return filepath.Join(stateHome, appName)
}

// setupLogging points log at a dated file when logs.write is set. The
// returned closer releases the file.
func setupLogging(cfg Config) (io.Closer, error) {
	if !cfg.Logs.Write {
		log.SetOutput(io.Discard)
		return io.NopCloser(nil), nil
	}

	dir := stateDir()
	if dir == "" {
		return nil, fmt.Errorf("log directory path is empty")
	}
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}

	path := filepath.Join(dir, time.Now().Format("2006-01-02")+".log")
	f, err := fsys.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	log.SetOutput(f)

	if cfg.Logs.JSON {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(cfg.Logs.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	return f, nil
}
