package trading

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingPrediction means no model prediction exists for the ticker.
	// The ticker is filtered out of buy candidates.
	ErrMissingPrediction = errors.New("prediction data missing")

	// ErrInvalidPriceData means a reference price is zero, negative or not a number.
	ErrInvalidPriceData = errors.New("invalid price data")

	// ErrInvalidPrediction means the model accuracy or rise probability is not a
	// finite number. The ticker is excluded from scoring.
	ErrInvalidPrediction = errors.New("invalid prediction data")

	// ErrPriceUnavailable means the current price of a held position could not be
	// resolved, so sell conditions cannot be evaluated. It is never a hold.
	ErrPriceUnavailable = errors.New("current price unavailable")

	// ErrInsufficientHistory means the price series is too short for the indicators.
	ErrInsufficientHistory = errors.New("insufficient price history")
)

// ConfigurationError reports a threshold that is outside its sane range.
type ConfigurationError struct {
	Field  string
	Value  interface{}
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration %s=%v: %s", e.Field, e.Value, e.Reason)
}

func configErr(field string, value interface{}, reason string) *ConfigurationError {
	return &ConfigurationError{Field: field, Value: value, Reason: reason}
}
