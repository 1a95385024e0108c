package replies

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/tarmac-project/replies/urlmatch"
)

const (
	defaultContentType = "text/plain"
	jsonContentType    = "application/json"
)

// Options describes the response produced by a Reply.
type Options struct {
	// Body is the raw response payload.
	Body []byte

	// BodyReader supplies the payload from a stream, such as an open file.
	// Unless Stream is set it is read in full on first use and replayed from
	// memory afterwards.
	BodyReader io.Reader

	// JSON is encoded as the payload. It cannot be combined with Body or
	// BodyReader and switches the default content type to application/json.
	JSON any

	// Status is the HTTP status code. Zero means 200.
	Status int

	// Header holds extra response headers. They override Content-Type.
	Header map[string]string

	// Stream hands BodyReader to the caller without reading it first.
	Stream bool

	// ContentType overrides the default text/plain content type.
	ContentType string

	// NoContentType omits the Content-Type header entirely.
	NoContentType bool

	// MatchQuerystring enables strict querystring comparison.
	MatchQuerystring bool

	// Error, when set, is returned instead of a response.
	Error error
}

// Reply is a rule that answers with a fixed response or error.
type Reply struct {
	rule

	status      int
	header      map[string]string
	contentType string
	stream      bool
	err         error

	mu         sync.Mutex
	body       []byte
	bodyReader io.Reader
}

// NewReply builds a static rule for method and pattern.
func NewReply(method string, pattern urlmatch.Pattern, opts Options) (*Reply, error) {
	if opts.JSON != nil && (len(opts.Body) > 0 || opts.BodyReader != nil) {
		return nil, fmt.Errorf("%w: json and body are mutually exclusive", ErrInvalidRule)
	}

	contentType := defaultContentType
	body := opts.Body
	if opts.JSON != nil {
		b, err := json.Marshal(opts.JSON)
		if err != nil {
			return nil, errors.Join(ErrInvalidRule, err)
		}
		body = b
		contentType = jsonContentType
	}
	if opts.ContentType != "" {
		contentType = opts.ContentType
	}
	if opts.NoContentType {
		contentType = ""
	}

	status := opts.Status
	if status == 0 {
		status = http.StatusOK
	}

	r := &Reply{
		status:      status,
		header:      opts.Header,
		contentType: contentType,
		stream:      opts.Stream,
		err:         opts.Error,
		body:        body,
		bodyReader:  opts.BodyReader,
	}
	r.init(method, pattern, opts.MatchQuerystring)
	return r, nil
}

// Status returns the configured status code.
func (r *Reply) Status() int { return r.status }

func (r *Reply) respond(req *http.Request) (*http.Response, error) {
	if r.err != nil {
		return nil, r.err
	}

	header := buildHeader(r.contentType, r.header)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.bodyReader != nil && r.stream {
		return newResponse(req, r.status, header, io.NopCloser(r.bodyReader), -1), nil
	}

	if r.bodyReader != nil {
		b, err := io.ReadAll(r.bodyReader)
		if err != nil {
			return nil, errors.Join(ErrReadBody, err)
		}
		if c, ok := r.bodyReader.(io.Closer); ok {
			_ = c.Close()
		}
		r.body, r.bodyReader = b, nil
	}

	return newResponse(req, r.status, header, io.NopCloser(bytes.NewReader(r.body)), int64(len(r.body))), nil
}

// buildHeader merges extra headers over the content type default.
func buildHeader(contentType string, extra map[string]string) http.Header {
	h := make(http.Header, len(extra)+1)
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	for k, v := range extra {
		h.Set(k, v)
	}
	return h
}

func newResponse(req *http.Request, status int, header http.Header, body io.ReadCloser, length int64) *http.Response {
	return &http.Response{
		Status:        strings.TrimSpace(fmt.Sprintf("%d %s", status, http.StatusText(status))),
		StatusCode:    status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          body,
		ContentLength: length,
		Request:       req,
	}
}
