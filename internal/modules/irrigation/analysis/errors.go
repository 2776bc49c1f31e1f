package analysis

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformedInput matches every *MalformedInputError.
	ErrMalformedInput = errors.New("malformed input")

	// ErrEmptySelection is returned when a selected date has no observations.
	ErrEmptySelection = errors.New("no data available for the selected date")

	// ErrEmptyTable is returned when a table or summary holds no rows.
	ErrEmptyTable = errors.New("no valid dates available in the data")

	// ErrInsufficientData is returned when a mean needed by the irrigation
	// rules could not be computed because every value was missing.
	ErrInsufficientData = errors.New("insufficient data for a recommendation")
)

// MalformedInputError describes why an uploaded CSV was rejected. Line is the
// 1-based line in the input (1 is the header); it is 0 when the problem is not
// tied to a line.
type MalformedInputError struct {
	Line   int
	Column string
	Value  string
	Reason string
}

func (e *MalformedInputError) Error() string {
	var b strings.Builder
	b.WriteString("malformed input")
	if e.Line > 0 {
		fmt.Fprintf(&b, " at line %d", e.Line)
	}
	if e.Column != "" {
		fmt.Fprintf(&b, " column %q", e.Column)
	}
	if e.Value != "" {
		fmt.Fprintf(&b, " value %q", e.Value)
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	return b.String()
}

func (e *MalformedInputError) Is(target error) bool {
	return target == ErrMalformedInput
}
