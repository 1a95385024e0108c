package replies

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tarmac-project/replies/urlmatch"
)

var (
	// ErrConnectionRefused is wrapped by the error returned for requests that
	// match no rule and no passthrough prefix.
	ErrConnectionRefused = errors.New("connection refused")

	// ErrRuleNotFound is returned by Replace when no registered rule equals the
	// replacement.
	ErrRuleNotFound = errors.New("no registered rule matches the selector")

	// ErrInvalidRule is returned when rule options contradict each other.
	ErrInvalidRule = errors.New("rule is invalid")

	// ErrAlreadyActive is returned by Start when the mock is already installed.
	ErrAlreadyActive = errors.New("mock is already active")

	// ErrNotActive is returned by Stop when the mock is not installed.
	ErrNotActive = errors.New("mock is not active")

	// ErrNotAllFired is wrapped by the error returned from Stop when some rules
	// were never used.
	ErrNotAllFired = errors.New("not all requests have been executed")

	// ErrNilResponse is returned when a response callback produces neither a
	// response nor an error.
	ErrNilResponse = errors.New("response callback returned no response and no error")

	// ErrReadBody wraps failures while reading a request or reply body.
	ErrReadBody = errors.New("failed to read body")
)

// ConnectionError simulates a refused connection for an unmatched request.
type ConnectionError struct {
	// Request is the request that could not be matched.
	Request *http.Request
}

func (e *ConnectionError) Error() string {
	if e.Request == nil {
		return "Connection refused"
	}
	return fmt.Sprintf("Connection refused: %s %s", e.Request.Method, urlmatch.RequestURL(e.Request.URL))
}

func (e *ConnectionError) Unwrap() error { return ErrConnectionRefused }

// NotFiredError lists the rules that never produced a response.
type NotFiredError struct {
	Rules []Rule
}

func (e *NotFiredError) Error() string {
	parts := make([]string, 0, len(e.Rules))
	for _, r := range e.Rules {
		parts = append(parts, fmt.Sprintf("(%s, %s)", r.Method(), r.Pattern()))
	}
	return fmt.Sprintf("%s: [%s]", ErrNotAllFired, strings.Join(parts, ", "))
}

func (e *NotFiredError) Unwrap() error { return ErrNotAllFired }
