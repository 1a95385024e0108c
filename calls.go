package replies

import (
	"net/http"
	"slices"
	"sync"
)

// Call records one intercepted request and its outcome.
type Call struct {
	// ID identifies the call in log output.
	ID string

	// Request is the request as seen by the matched rule.
	Request *http.Request

	// RequestBody holds the request payload, if any.
	RequestBody []byte

	// Response is the returned response. It is nil when Err is set.
	Response *http.Response

	// Err is the returned error, if any.
	Err error

	// Cookies holds the parsed Set-Cookie headers of Response.
	Cookies []*http.Cookie
}

// CallList is the ordered log of intercepted calls.
type CallList struct {
	mu    sync.Mutex
	calls []Call
}

// Len returns the number of recorded calls.
func (l *CallList) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.calls)
}

// At returns the i-th call. It panics if i is out of range.
func (l *CallList) At(i int) Call {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls[i]
}

// All returns a snapshot of the recorded calls in order.
func (l *CallList) All() []Call {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.calls)
}

// Reset discards all recorded calls.
func (l *CallList) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = nil
}

func (l *CallList) add(c Call) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, c)
}
