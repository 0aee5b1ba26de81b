package pipeline

import (
	"errors"
	"fmt"

	"github.com/aouyang1/go-revenue-forecaster/internal/ingest"
)

var ErrInvalidHorizon = errors.New("invalid forecast horizon")

// ForecastEngineError wraps any failure of the forecast engine. The run produces no results.
type ForecastEngineError struct {
	Err error
}

func (e *ForecastEngineError) Error() string {
	return fmt.Sprintf("forecast engine failed, %v", e.Err)
}

func (e *ForecastEngineError) Unwrap() error {
	return e.Err
}

// CommentaryAPIError wraps any failure of the commentary request. There is no retry or fallback.
type CommentaryAPIError struct {
	Err error
}

func (e *CommentaryAPIError) Error() string {
	return fmt.Sprintf("commentary request failed, %v", e.Err)
}

func (e *CommentaryAPIError) Unwrap() error {
	return e.Err
}

// IsInputError reports whether err was caused by the uploaded file or the requested horizon
// rather than by a downstream collaborator
func IsInputError(err error) bool {
	var (
		colErr   *ingest.MissingColumnError
		dateErr  *ingest.DateParseError
		valueErr *ingest.ValueParseError
	)
	switch {
	case errors.As(err, &colErr), errors.As(err, &dateErr), errors.As(err, &valueErr):
		return true
	case errors.Is(err, ErrInvalidHorizon),
		errors.Is(err, ingest.ErrUnreadableWorkbook),
		errors.Is(err, ingest.ErrNoSheets),
		errors.Is(err, ingest.ErrNoHeader):
		return true
	}
	return false
}
