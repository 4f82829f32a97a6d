package domain

import "github.com/cockroachdb/errors"

// Validation errors. A request failing any of these never starts a process.
var (
	ErrMissingInput  = errors.New("no input file selected")
	ErrMissingOutput = errors.New("no output directory selected")
	ErrUnknownStem   = errors.New("unknown instrument")
)

// Run errors
var (
	ErrToolFailed = errors.New("stem extraction failed")
	ErrBusy       = errors.New("a separation is already running")
)

// IsValidationError reports whether err is one of the request validation errors
func IsValidationError(err error) bool {
	return errors.IsAny(err, ErrMissingInput, ErrMissingOutput, ErrUnknownStem)
}
