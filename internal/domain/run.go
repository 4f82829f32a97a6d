package domain

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// RunRequest is everything one separation needs. It is built fresh per run.
type RunRequest struct {
	InputPath string
	OutputDir string
	Stem      Stem
}

// NewRunRequest trims the collected inputs, resolves the stem label and validates
func NewRunRequest(inputPath, outputDir, stemLabel string) (RunRequest, error) {
	req := RunRequest{
		InputPath: strings.TrimSpace(inputPath),
		OutputDir: strings.TrimSpace(outputDir),
	}
	// Paths are checked before the label so a blank form reports the missing path first
	if err := req.validatePaths(); err != nil {
		return req, err
	}

	stem, err := ParseStemLabel(stemLabel)
	if err != nil {
		return req, err
	}
	req.Stem = stem
	return req, nil
}

// Validate checks that both paths are set and the stem is known
func (r RunRequest) Validate() error {
	if err := r.validatePaths(); err != nil {
		return err
	}
	if !r.Stem.Valid() {
		return unknownStem(string(r.Stem))
	}
	return nil
}

func (r RunRequest) validatePaths() error {
	if strings.TrimSpace(r.InputPath) == "" {
		return errors.WithHint(ErrMissingInput, "Please select both input file and output directory.")
	}
	if strings.TrimSpace(r.OutputDir) == "" {
		return errors.WithHint(ErrMissingOutput, "Please select both input file and output directory.")
	}
	return nil
}

// DefaultOutputDir is the directory an input file lives in; the form
// pre-fills the output directory with it after a file is picked.
func DefaultOutputDir(inputPath string) string {
	if inputPath == "" {
		return ""
	}
	return filepath.Dir(inputPath)
}

// Move records one relocation of a produced file
type Move struct {
	From string
	To   string
	Err  error
}

// RunResult describes a finished separation
type RunResult struct {
	ID         string
	Request    RunRequest
	ExitCode   int
	Files      []string // Produced files at the top level of the output directory
	Moves      []Move
	StartedAt  time.Time
	FinishedAt time.Time
}

// Duration returns how long the run took
func (r RunResult) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// FailedMoves returns the relocations that did not succeed
func (r RunResult) FailedMoves() []Move {
	var failed []Move
	for _, m := range r.Moves {
		if m.Err != nil {
			failed = append(failed, m)
		}
	}
	return failed
}
