// Package logging configures the apex logger for the two ways the program
// runs: headless commands log to stderr, the terminal UI logs to a file
// because it owns the terminal.
package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"
	"github.com/apex/log/handlers/json"
	"github.com/apex/log/handlers/text"
	"github.com/cockroachdb/errors"
)

// Options selects level, destination and format
type Options struct {
	Level  string
	Format string // "text" or "json"
}

// SetupConsole logs human-readable lines to w
func SetupConsole(w io.Writer, opts Options) error {
	level, err := parseLevel(opts.Level)
	if err != nil {
		return err
	}
	log.SetLevel(level)
	if opts.Format == "json" {
		log.SetHandler(json.New(w))
	} else {
		log.SetHandler(cli.New(w))
	}
	return nil
}

// SetupFile appends log lines to path. The returned closer flushes the file.
func SetupFile(path string, opts Options) (io.Closer, error) {
	level, err := parseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.Wrap(err, "creating log directory")
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, errors.Wrapf(err, "opening log file %s", path)
	}

	log.SetLevel(level)
	if opts.Format == "json" {
		log.SetHandler(json.New(f))
	} else {
		log.SetHandler(text.New(f))
	}
	return f, nil
}

// Discard drops all log output
func Discard() {
	log.SetHandler(text.New(io.Discard))
}

func parseLevel(s string) (log.Level, error) {
	if s == "" {
		return log.InfoLevel, nil
	}
	level, err := log.ParseLevel(s)
	if err != nil {
		return log.InfoLevel, errors.Wrapf(err, "invalid log level %q", s)
	}
	return level, nil
}
