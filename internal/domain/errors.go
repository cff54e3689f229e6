package domain

import "fmt"

// MalformedInputError rejects a structurally broken dataset.
type MalformedInputError struct {
	Row    int // 1-based file line, 0 for header problems
	Reason string
}

func (e *MalformedInputError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("malformed input at line %d: %s", e.Row, e.Reason)
	}
	return fmt.Sprintf("malformed input: %s", e.Reason)
}

// ClassifierUnavailableError reports a failed zero-shot call for one row.
type ClassifierUnavailableError struct {
	Row    int // 1-based file line, same convention as MalformedInputError
	Oracle string
	Err    error
}

func (e *ClassifierUnavailableError) Error() string {
	return fmt.Sprintf("classifier %s failed at line %d: %v", e.Oracle, e.Row, e.Err)
}

func (e *ClassifierUnavailableError) Unwrap() error {
	return e.Err
}
