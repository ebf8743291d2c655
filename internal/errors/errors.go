package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Custom error types for the QR code service

// ErrCodeNotFound is returned when a short code doesn't exist in the database
var ErrCodeNotFound = errors.New("short code not found")

// ErrNotDynamic is returned when a destination update targets a static code
var ErrNotDynamic = errors.New("code is not dynamic")

// ErrShortCodeGenerationFailed is returned when we can't generate a unique short code
var ErrShortCodeGenerationFailed = errors.New("failed to generate unique short code")

// ValidationError carries the structured error list from content
// validation. Generation is simply refused; nothing is persisted.
type ValidationError struct {
	Errors []string
}

func (e ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Errors, "; ")
}

// ErrScanRecordingFailed is returned when scan analytics recording fails.
// It is logged, never surfaced to the scanning client.
type ErrScanRecordingFailed struct {
	CodeID uint
	Reason string
}

func (e ErrScanRecordingFailed) Error() string {
	return fmt.Sprintf("failed to record scan for code %d: %s", e.CodeID, e.Reason)
}
