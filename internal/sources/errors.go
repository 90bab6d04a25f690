package sources

import "fmt"

// NetworkError means the endpoint could not be reached or answered with a
// non-success status. StatusCode is zero when no response was received.
type NetworkError struct {
	Source     string
	URL        string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: GET %s returned status %d", e.Source, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s: GET %s: %v", e.Source, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ParseError means the document no longer has the structure the adapter
// expects, usually because the upstream layout changed.
type ParseError struct {
	Source string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Source, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Source, e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }
