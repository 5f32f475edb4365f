package regression

import (
	"errors"
	"fmt"
)

// ErrSameVariable is returned when the independent and dependent variables are equal.
var ErrSameVariable = errors.New("dependent variable must be different to independent variable")

// ErrUnknownColumn is returned for names that are not numeric dataset columns.
var ErrUnknownColumn = errors.New("unknown variable")

// InsufficientDataError reports a pair that cannot support a least-squares fit.
type InsufficientDataError struct {
	X, Y   string
	Rows   int
	Reason string
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("cannot fit %s on %s: %s (%d complete rows)", e.Y, e.X, e.Reason, e.Rows)
}

// IsValidation reports whether err stems from the caller's selection
// rather than the data.
func IsValidation(err error) bool {
	return errors.Is(err, ErrSameVariable) || errors.Is(err, ErrUnknownColumn)
}
