package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Common errors returned by the client.
var (
	// ErrUnauthorized is returned when the service rejects the credentials.
	// It is never retried beyond the single re-login after a data call.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrClosed is returned by calls on a closed client.
	ErrClosed = errors.New("client closed")
)

// ErrorClass represents a classification of failed calls.
type ErrorClass string

const (
	// ErrorClassAuth represents 401 responses.
	ErrorClassAuth ErrorClass = "auth"

	// ErrorClassClient represents other 4xx errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassNetwork represents transport failures and timeouts.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassUnexpected represents any other non-success status.
	ErrorClassUnexpected ErrorClass = "unexpected"
)

// classifyStatus categorizes a non-success status code.
func classifyStatus(status int) ErrorClass {
	switch {
	case status == http.StatusUnauthorized:
		return ErrorClassAuth
	case status >= 400 && status < 500:
		return ErrorClassClient
	case status >= 500:
		return ErrorClassServer
	default:
		return ErrorClassUnexpected
	}
}

// APIError reports a non-success response. Body holds the decoded JSON
// body when it parses; otherwise RawBody carries the text verbatim.
type APIError struct {
	Operation  string
	StatusCode int
	ErrorClass ErrorClass
	Body       any
	RawBody    string
	Err        error
}

func newAPIError(op string, status int, body []byte) *APIError {
	e := &APIError{
		Operation:  op,
		StatusCode: status,
		ErrorClass: classifyStatus(status),
		RawBody:    string(body),
	}
	var decoded any
	if len(body) > 0 && json.Unmarshal(body, &decoded) == nil {
		e.Body = decoded
	}
	if e.ErrorClass == ErrorClassAuth {
		e.Err = ErrUnauthorized
	}
	return e
}

// Error implements the error interface.
func (e *APIError) Error() string {
	content := strings.TrimSpace(e.RawBody)
	if e.Body != nil {
		if b, err := json.Marshal(e.Body); err == nil {
			content = string(b)
		}
	}
	if content == "" {
		content = "<empty body>"
	}
	msg := fmt.Sprintf("unexpected error fetching %s (status %d, %s): %s",
		e.Operation, e.StatusCode, e.ErrorClass, content)
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.Err
}

// shouldRetry reports whether a failure of the given class is retried. Only
// a rejected token is, once, after logging in again.
func shouldRetry(errorClass ErrorClass) bool {
	switch errorClass {
	case ErrorClassAuth:
		return true
	default:
		return false
	}
}
