/*
errors.go - Error types for the forecast package

PURPOSE:
  The engine itself never fails: inverted windows, empty inputs and bad
  numbers all degrade to valid output. Errors only exist at the edges,
  where strings from users, files or the database are turned into engine
  types, and in the Store collaborators.

USAGE:
  if errors.Is(err, forecast.ErrUnknownFrequency) {
      // reject the input with a 400
  }
*/
package forecast

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrUnknownFrequency is returned when a frequency string is not one
	// of the supported rules or aliases.
	ErrUnknownFrequency = errors.New("unknown frequency")

	// ErrUnknownKind is returned for a kind other than income or bill.
	ErrUnknownKind = errors.New("unknown kind")

	// ErrInvalidDate is returned for dates not in YYYY-MM-DD form.
	ErrInvalidDate = errors.New("invalid date")

	// ErrInvalidAmount is returned for unparseable or negative magnitudes.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrOutsideWindow is returned for a purchase dated outside the
	// calculator window.
	ErrOutsideWindow = errors.New("date outside the forecast window")

	// ErrProfileNotFound is returned when a referenced profile doesn't exist.
	ErrProfileNotFound = errors.New("profile not found")

	// ErrAccountNotFound is returned when a referenced account doesn't exist.
	ErrAccountNotFound = errors.New("account not found")

	// ErrItemNotFound is returned when a referenced recurring item doesn't exist.
	ErrItemNotFound = errors.New("recurring item not found")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// ParseError names the field and value that failed to parse.
type ParseError struct {
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrUnknownFrequency) ||
		errors.Is(err, ErrUnknownKind) ||
		errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrOutsideWindow)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrProfileNotFound) ||
		errors.Is(err, ErrAccountNotFound) ||
		errors.Is(err, ErrItemNotFound)
}
