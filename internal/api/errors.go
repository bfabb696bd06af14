package api

import (
	"fmt"
	"net/http"
)

// ErrorClass classifies a failed request for metrics and logs.
type ErrorClass string

const (
	// ErrorClassNetwork is a request that never produced a response.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassClient is a 4xx response.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassAuth is a 401 or 403 response.
	ErrorClassAuth ErrorClass = "auth"

	// ErrorClassServer is a 5xx response.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRejected is a 2xx response whose body reported success=false.
	ErrorClassRejected ErrorClass = "rejected"

	// ErrorClassDecode is a 2xx response whose body could not be decoded.
	ErrorClassDecode ErrorClass = "decode"
)

// Error is a transport-level failure: the backend was not reached or its
// response could not be read.
type Error struct {
	Endpoint   string
	StatusCode int
	Class      ErrorClass
	Err        error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s error (status %d): %v", e.Endpoint, e.Class, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s error: %v", e.Endpoint, e.Class, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

func classifyStatus(status int) ErrorClass {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ErrorClassAuth
	case status >= 500:
		return ErrorClassServer
	default:
		return ErrorClassClient
	}
}
