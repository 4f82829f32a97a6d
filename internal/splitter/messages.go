package splitter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"

	"github.com/hochfrequenz/stem-splitter/internal/domain"
)

// SuccessMessage is the text of the completion dialog
func SuccessMessage(res domain.RunResult) string {
	stem := res.Request.Stem
	return fmt.Sprintf("Extraction complete!\nCheck \"%s\" and \"%s\" in:\n%s",
		stem.ResultFile(), stem.ResidualFile(), res.Request.OutputDir)
}

// FailureMessage is the text of the error dialog
func FailureMessage(err error) string {
	if err == nil {
		return ""
	}
	if domain.IsValidationError(err) {
		if hints := errors.GetAllHints(err); len(hints) > 0 {
			return hints[0]
		}
		return err.Error()
	}
	if errors.Is(err, domain.ErrToolFailed) {
		return "Stem extraction failed.\n" + err.Error()
	}
	if errors.Is(err, domain.ErrBusy) {
		return "A separation is already running."
	}

	msg := err.Error()
	if hints := errors.GetAllHints(err); len(hints) > 0 {
		msg += "\n" + strings.Join(hints, "\n")
	}
	return msg
}

// DescribeFiles lists produced files with their sizes, e.g. "vocals.wav (31 MB)"
func DescribeFiles(files []string) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		name := filepath.Base(f)
		if info, err := os.Stat(f); err == nil {
			name += " (" + humanize.Bytes(uint64(info.Size())) + ")"
		}
		out = append(out, name)
	}
	return out
}

// MoveWarnings describes relocations that failed, for display under a success message
func MoveWarnings(res domain.RunResult) []string {
	var warnings []string
	for _, m := range res.FailedMoves() {
		warnings = append(warnings, fmt.Sprintf("Could not move %s: %v", filepath.Base(m.From), m.Err))
	}
	return warnings
}
