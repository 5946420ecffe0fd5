package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Range errors
	ErrMalformedRange = errors.New("malformed range reference")

	// Load errors
	ErrLoadFailed  = errors.New("load failed")
	ErrSuperseded  = errors.New("load superseded by a newer load")
	ErrEmptySource = errors.New("source is empty")

	// Parsing boundary errors
	ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")
	ErrParseFailed       = errors.New("spreadsheet parsing failed")
	ErrSheetNotFound     = errors.New("sheet not found")
)

// MalformedRangeError reports a range reference that could not be decoded.
type MalformedRangeError struct {
	Ref    string
	Reason string
}

func (e *MalformedRangeError) Error() string {
	if e.Ref == "" {
		return fmt.Sprintf("%s: %s", ErrMalformedRange, e.Reason)
	}
	return fmt.Sprintf("%s %q: %s", ErrMalformedRange, e.Ref, e.Reason)
}

func (e *MalformedRangeError) Is(target error) bool {
	return target == ErrMalformedRange
}

// LoadErrorKind classifies why a source could not be loaded
type LoadErrorKind string

const (
	IOFailure          LoadErrorKind = "io_failure"
	NetworkFailure     LoadErrorKind = "network_failure"
	CrossOriginBlocked LoadErrorKind = "cross_origin_blocked"
)

// LoadError is returned by source loaders when bytes could not be acquired.
type LoadError struct {
	Kind   LoadErrorKind
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s (%s)", ErrLoadFailed, e.Source, e.Kind)
	}
	return fmt.Sprintf("%s: %s (%s): %v", ErrLoadFailed, e.Source, e.Kind, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

func (e *LoadError) Is(target error) bool {
	return target == ErrLoadFailed
}

// Error constructors with context
func NewMalformedRangeError(ref, reason string) error {
	return &MalformedRangeError{Ref: ref, Reason: reason}
}

func NewLoadError(kind LoadErrorKind, source string, err error) error {
	return &LoadError{Kind: kind, Source: source, Err: err}
}

func NewParseError(format string, err error) error {
	return fmt.Errorf("%w (%s): %w", ErrParseFailed, format, err)
}

// LoadErrorKindOf returns the kind of the first LoadError in err's chain.
func LoadErrorKindOf(err error) (LoadErrorKind, bool) {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Kind, true
	}
	return "", false
}

func IsParseError(err error) bool {
	return errors.Is(err, ErrParseFailed) ||
		errors.Is(err, ErrUnsupportedFormat) ||
		errors.Is(err, ErrMalformedRange)
}
