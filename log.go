package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
)

// setupLog routes logging to a file in the cache directory when
// AVATARSYNC_DEBUG is set, and silences debug output otherwise. The
// returned closer flushes the log file, if any.
func setupLog() (func() error, error) {
	if os.Getenv("AVATARSYNC_DEBUG") == "" {
		log.SetOutput(os.Stderr)
		log.SetLevel(log.InfoLevel)
		return func() error { return nil }, nil
	}

	scope := gap.NewScope(gap.User, "avatarsync")
	cacheDir, err := scope.CacheDir()
	if err != nil {
		return nil, fmt.Errorf("unable to find cache directory: %w", err)
	}
	if err := os.MkdirAll(cacheDir, 0o755); err != nil { //nolint:gosec
		return nil, fmt.Errorf("unable to create cache directory: %w", err)
	}

	path := filepath.Join(cacheDir, "avatarsync.log")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("unable to open log file: %w", err)
	}

	log.SetOutput(io.MultiWriter(f, os.Stderr))
	log.SetLevel(log.DebugLevel)
	log.Debug("debug logging enabled", "path", path)

	return f.Close, nil
}
