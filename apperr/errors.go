package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInsufficientHistory is wrapped by ForecastUnavailable when the weekly
// series is too short to build a single lag row.
var ErrInsufficientHistory = errors.New("insufficient weekly history")

// SourceUnavailable means the input dataset could not be located or opened.
// It is fatal: the run (or the dashboard render) stops.
type SourceUnavailable struct {
	Path string
	Err  error
}

func (e *SourceUnavailable) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("source unavailable: %s", e.Path)
	}
	return fmt.Sprintf("source unavailable: %s: %v", e.Path, e.Err)
}

func (e *SourceUnavailable) Unwrap() error { return e.Err }

// MissingColumnError means a required column is absent from the input header.
type MissingColumnError struct {
	Columns []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("missing required column(s): %s", strings.Join(e.Columns, ", "))
}

// ForecastUnavailable is recoverable: the forecaster returns no result and the
// caller keeps rendering everything else.
type ForecastUnavailable struct {
	Reason string
	Err    error
}

func (e *ForecastUnavailable) Error() string {
	if e.Err == nil {
		return "forecast unavailable: " + e.Reason
	}
	return fmt.Sprintf("forecast unavailable: %s: %v", e.Reason, e.Err)
}

func (e *ForecastUnavailable) Unwrap() error { return e.Err }

// PersistenceWarning reports a failed write of the canonical dataset. It is
// returned inside a result, never as the error of the call.
type PersistenceWarning struct {
	Path string
	Err  error
}

func (w *PersistenceWarning) Error() string {
	return fmt.Sprintf("failed to persist dataset to %s: %v", w.Path, w.Err)
}

func (w *PersistenceWarning) Unwrap() error { return w.Err }

// IsSourceUnavailable reports whether err carries a SourceUnavailable.
func IsSourceUnavailable(err error) bool {
	var target *SourceUnavailable
	return errors.As(err, &target)
}

// IsForecastUnavailable reports whether err carries a ForecastUnavailable.
func IsForecastUnavailable(err error) bool {
	var target *ForecastUnavailable
	return errors.As(err, &target)
}
