package normalize

import "fmt"

// MalformedDateError reports a date that does not match the source layout.
type MalformedDateError struct {
	Value  string
	Layout string
	Err    error
}

func (e *MalformedDateError) Error() string {
	return fmt.Sprintf("malformed date %q (want %s)", e.Value, e.Layout)
}

func (e *MalformedDateError) Unwrap() error { return e.Err }

// MalformedNumberError reports an amount that is neither a number nor the unquoted sentinel.
type MalformedNumberError struct {
	Field string
	Value string
	Err   error
}

func (e *MalformedNumberError) Error() string {
	return fmt.Sprintf("malformed %s %q", e.Field, e.Value)
}

func (e *MalformedNumberError) Unwrap() error { return e.Err }

// MissingKeyError reports a record whose identifier (product name, currency code) is blank.
type MissingKeyError struct {
	Field string
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("missing %s", e.Field)
}
