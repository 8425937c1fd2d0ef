package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the analytics core. Handlers translate these into the
// structured responses the frontend expects; anything else is treated as an
// unexpected computation failure.
var (
	// ErrEmptySeries: the caller supplied no sales data at all.
	ErrEmptySeries = errors.New("sales series is empty")

	// ErrNoDataForSelector: the brand/model filter matched nothing. Expected
	// for new products, so it maps to a structured "no data" reply rather
	// than a hard failure.
	ErrNoDataForSelector = errors.New("no data available for the specified brand and model")

	// ErrInsufficientHistory: fewer than MinObservations rows after
	// filtering. Forecasts are rejected with guidance; stockout assessments
	// degrade to a conservative default instead.
	ErrInsufficientHistory = errors.New("not enough data points")
)

// MinObservations is the minimum series length for a meaningful fit.
const MinObservations = 3

// InvalidInputError reports unparseable request data (bad dates, non-numeric
// quantities). No partial computation is attempted once one is raised.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewInvalidInput builds an InvalidInputError for a named field.
func NewInvalidInput(field, format string, args ...interface{}) error {
	return &InvalidInputError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// IsInvalidInput reports whether err is (or wraps) an InvalidInputError.
func IsInvalidInput(err error) bool {
	var ie *InvalidInputError
	return errors.As(err, &ie)
}
