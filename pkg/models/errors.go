package models

import (
	"errors"
	"fmt"
)

// ErrShapeMismatch marks extraction failures caused by the file not carrying
// the columns the configuration expects, as opposed to unreadable bytes.
// Matched with errors.Is through ExtractionError.
var ErrShapeMismatch = errors.New("expected columns absent")

// ExtractionError means a source file could not be turned into a raw table:
// unreadable bytes, malformed structure, or missing expected columns.
type ExtractionError struct {
	Path   string
	Reason string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extraction failed for %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("extraction failed for %s: %s", e.Path, e.Reason)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// UnsupportedFormatError means a file does not match the shape its bank
// handler expects. Statement formats are static, so this signals stale
// configuration rather than a transient fault.
type UnsupportedFormatError struct {
	Bank   string
	Path   string
	Reason string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("%s: file %s does not match expected format: %s", e.Bank, e.Path, e.Reason)
}

// NormalizationError is a row-level parse failure. The offending row is
// skipped and the error recorded; the rest of the batch keeps processing.
type NormalizationError struct {
	Row    int
	Field  string
	Value  string
	Reason string
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("row %d: cannot parse %s %q: %s", e.Row, e.Field, e.Value, e.Reason)
}

// NoMatchingBankError means no configured bank signature matches a file.
// Terminal for that file: it cannot be processed without new configuration.
type NoMatchingBankError struct {
	Path string
}

func (e *NoMatchingBankError) Error() string {
	return fmt.Sprintf("no configured bank matches file %s", e.Path)
}
