package hostcall

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"sync"

	sdkproto "github.com/tarmac-project/protobuf-go/sdk"
	proto "github.com/tarmac-project/protobuf-go/sdk/http"
)

// Slot is a guest's host-call entry point with a replaceable HTTP transport.
//
// Hand Slot.HostCall to guest clients in place of wapc.HostCall. Calls to
// the httpclient capability are served by the installed transport; all
// other capabilities go straight to the host. Slot satisfies replies.Target.
type Slot struct {
	next HostCall
	host *Transport

	mu        sync.RWMutex
	transport http.RoundTripper
}

// NewSlot creates a Slot whose initial transport is the real host.
func NewSlot(cfg Config) (*Slot, error) {
	cfg = cfg.withDefaults()
	host, err := NewTransport(cfg)
	if err != nil {
		return nil, err
	}
	return &Slot{next: cfg.HostCall, host: host, transport: host}, nil
}

// Transport returns the transport currently serving HTTP calls.
func (s *Slot) Transport() http.RoundTripper {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.transport
}

// SetTransport installs rt. A nil rt restores the real host transport.
func (s *Slot) SetTransport(rt http.RoundTripper) {
	if rt == nil {
		rt = s.host
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transport = rt
}

// HostCall has the waPC host function signature.
func (s *Slot) HostCall(namespace, capability, function string, payload []byte) ([]byte, error) {
	rt := s.Transport()
	if capability != capabilityName || function != fnCall || rt == http.RoundTripper(s.host) {
		return s.next(namespace, capability, function, payload)
	}

	var pbReq proto.HTTPClient
	if err := pbReq.UnmarshalVT(payload); err != nil {
		return nil, errors.Join(ErrUnmarshal, err)
	}

	req, err := http.NewRequest(pbReq.GetMethod(), pbReq.GetUrl(), bytes.NewReader(pbReq.GetBody()))
	if err != nil {
		return nil, errors.Join(ErrInvalidURL, err)
	}
	for name, header := range pbReq.GetHeaders() {
		for _, v := range header.GetValues() {
			req.Header.Add(name, v)
		}
	}

	resp, err := rt.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	var body []byte
	if resp.Body != nil {
		body, err = io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return nil, errors.Join(ErrReadBody, err)
		}
	}

	out := &proto.HTTPClientResponse{
		Status:  &sdkproto.Status{Status: "OK", Code: hostStatusOK},
		Code:    int32(resp.StatusCode),
		Headers: toProtoHeaders(resp.Header),
		Body:    body,
	}
	b, err := out.MarshalVT()
	if err != nil {
		return nil, errors.Join(ErrMarshal, err)
	}
	return b, nil
}
