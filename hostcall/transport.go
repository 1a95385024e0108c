package hostcall

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"

	proto "github.com/tarmac-project/protobuf-go/sdk/http"
)

// Transport is an http.RoundTripper that sends requests through the Tarmac
// host's httpclient capability.
type Transport struct {
	cfg Config
}

// Ensure Transport always satisfies http.RoundTripper at compile time.
var _ http.RoundTripper = (*Transport)(nil)

// NewTransport creates a Transport from cfg.
func NewTransport(cfg Config) (*Transport, error) {
	return &Transport{cfg: cfg.withDefaults()}, nil
}

// RoundTrip encodes req, performs the host call and decodes the answer.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, ErrNilRequest
	}
	if req.URL == nil || req.URL.Host == "" {
		closeBody(req)
		return nil, ErrInvalidURL
	}

	var body []byte
	if req.Body != nil {
		b, err := io.ReadAll(req.Body)
		closeBody(req)
		if err != nil {
			return nil, errors.Join(ErrReadBody, err)
		}
		body = b
	}

	pbReq := &proto.HTTPClient{
		Method:   req.Method,
		Url:      req.URL.String(),
		Insecure: t.cfg.InsecureSkipVerify,
		Body:     body,
		Headers:  toProtoHeaders(req.Header),
	}

	b, err := pbReq.MarshalVT()
	if err != nil {
		return nil, errors.Join(ErrMarshal, err)
	}

	raw, err := t.cfg.HostCall(t.cfg.Runtime.Namespace, capabilityName, fnCall, b)
	if err != nil {
		return nil, errors.Join(ErrHostCall, err)
	}

	var r proto.HTTPClientResponse
	if err := r.UnmarshalVT(raw); err != nil {
		return nil, errors.Join(ErrUnmarshal, err)
	}

	status := r.GetStatus()
	if status == nil {
		return nil, ErrHostResponseInvalid
	}

	switch code := status.GetCode(); code {
	case hostStatusOK, hostStatusPartial:
		// success path continues
	case hostStatusBadInput, hostStatusMissing, hostStatusError:
		detail := fmt.Sprintf("host status %d", code)
		if msg := status.GetStatus(); msg != "" {
			detail = fmt.Sprintf("%s: %s", detail, msg)
		}
		return nil, errors.Join(ErrHostError, errors.New(detail))
	default:
		return nil, errors.Join(ErrHostResponseInvalid, fmt.Errorf("unexpected host status code %d", code))
	}

	httpCode := int(r.GetCode())
	respBody := r.GetBody()
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", httpCode, http.StatusText(httpCode)),
		StatusCode:    httpCode,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        fromProtoHeaders(r.GetHeaders()),
		Body:          io.NopCloser(bytes.NewReader(respBody)),
		ContentLength: int64(len(respBody)),
		Request:       req,
	}, nil
}

func closeBody(req *http.Request) {
	if req.Body != nil {
		_ = req.Body.Close()
	}
}

func toProtoHeaders(h http.Header) map[string]*proto.Header {
	out := make(map[string]*proto.Header, len(h))
	for name, values := range h {
		out[name] = &proto.Header{Values: values}
	}
	return out
}

func fromProtoHeaders(in map[string]*proto.Header) http.Header {
	out := make(http.Header, len(in))
	for name, header := range in {
		out[http.CanonicalHeaderKey(name)] = header.GetValues()
	}
	return out
}
