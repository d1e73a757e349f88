package fetcher

import (
	"errors"
	"fmt"
)

// Error codes carried by FetchError.
const (
	CodeUnreachable         = "UNREACHABLE"
	CodeBlocked             = "BLOCKED"
	CodeInsufficientContent = "INSUFFICIENT_CONTENT"
	CodeInvalidInput        = "INVALID_INPUT"
	CodeCircuitOpen         = "CIRCUIT_OPEN"
)

// FetchError is fatal for the whole record: no page, no record.
type FetchError struct {
	Code    string
	Message string
	Err     error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func NewFetchError(code, message string, err error) *FetchError {
	return &FetchError{Code: code, Message: message, Err: err}
}

// CodeOf returns the code of the FetchError in err's chain, or "".
func CodeOf(err error) string {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Code
	}
	return ""
}
