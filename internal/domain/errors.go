package domain

import (
	"errors"
	"fmt"
)

// ErrMalformedSchema marks input that does not match the expected sheet layout.
var ErrMalformedSchema = errors.New("malformed schema")

// SchemaError describes where a sheet violated the expected layout.
// Row is 1-based (as shown by spreadsheet tools); zero means the whole column or sheet.
type SchemaError struct {
	Sheet  string
	Column string
	Row    int
	Reason string
}

func (e *SchemaError) Error() string {
	msg := fmt.Sprintf("%s: sheet %q", ErrMalformedSchema, e.Sheet)
	if e.Column != "" {
		msg += fmt.Sprintf(", column %q", e.Column)
	}
	if e.Row > 0 {
		msg += fmt.Sprintf(", row %d", e.Row)
	}
	return msg + ": " + e.Reason
}

func (e *SchemaError) Unwrap() error {
	return ErrMalformedSchema
}

// IsSchemaError reports whether err is (or wraps) a schema violation.
func IsSchemaError(err error) bool {
	return errors.Is(err, ErrMalformedSchema)
}
