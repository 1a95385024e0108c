package replies

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/tarmac-project/replies/urlmatch"
)

// Result is the response described by a Callback.
type Result struct {
	// Status is the HTTP status code. Zero means 200.
	Status int

	// Header holds response headers, merged over the default content type.
	Header map[string]string

	// Body is the response payload.
	Body []byte
}

// Callback computes a response for each matched request. A non-nil error is
// returned to the client instead of a response.
type Callback func(req *http.Request) (Result, error)

// CallbackOptions configures a CallbackReply.
type CallbackOptions struct {
	// ContentType overrides the default text/plain content type.
	ContentType string

	// NoContentType omits the default Content-Type header.
	NoContentType bool

	// MatchQuerystring enables strict querystring comparison.
	MatchQuerystring bool
}

// CallbackReply is a rule whose response is computed per request.
type CallbackReply struct {
	rule

	callback    Callback
	contentType string
}

// NewCallbackReply builds a dynamic rule for method and pattern.
func NewCallbackReply(method string, pattern urlmatch.Pattern, callback Callback, opts CallbackOptions) (*CallbackReply, error) {
	if callback == nil {
		return nil, fmt.Errorf("%w: callback cannot be nil", ErrInvalidRule)
	}

	contentType := defaultContentType
	if opts.ContentType != "" {
		contentType = opts.ContentType
	}
	if opts.NoContentType {
		contentType = ""
	}

	r := &CallbackReply{callback: callback, contentType: contentType}
	r.init(method, pattern, opts.MatchQuerystring)
	return r, nil
}

func (r *CallbackReply) respond(req *http.Request) (*http.Response, error) {
	res, err := r.callback(req)
	if err != nil {
		return nil, err
	}

	status := res.Status
	if status == 0 {
		status = http.StatusOK
	}

	header := buildHeader(r.contentType, res.Header)
	return newResponse(req, status, header, io.NopCloser(bytes.NewReader(res.Body)), int64(len(res.Body))), nil
}
