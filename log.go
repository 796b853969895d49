package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
)

// setupLog routes logging to the file named by VOZ_LOGFILE, or discards it.
// The returned closer flushes the file at exit.
func setupLog() (func() error, error) {
	log.SetOutput(io.Discard)

	if os.Getenv("VOZ_DEBUG") != "" {
		log.SetOutput(os.Stderr)
		log.SetLevel(log.DebugLevel)
	}

	logFile := os.Getenv("VOZ_LOGFILE")
	if logFile == "" {
		return func() error { return nil }, nil
	}

	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("error setting up log file: %w", err)
	}

	log.SetOutput(f)
	log.SetReportTimestamp(true)
	log.SetTimeFormat(time.RFC3339)
	log.SetLevel(log.DebugLevel)
	return f.Close, nil
}
