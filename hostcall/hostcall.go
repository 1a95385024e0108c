package hostcall

import (
	"errors"

	wapc "github.com/wapc/wapc-guest-tinygo"
)

// DefaultNamespace is used when no explicit namespace is provided.
const DefaultNamespace = "tarmac"

const (
	capabilityName = "httpclient"
	fnCall         = "call"

	hostStatusOK       = int32(200)
	hostStatusPartial  = int32(206)
	hostStatusBadInput = int32(400)
	hostStatusMissing  = int32(404)
	hostStatusError    = int32(500)
)

var (
	// ErrHostCall indicates that a waPC host invocation failed.
	ErrHostCall = errors.New("host call failed")

	// ErrHostResponseInvalid signals that the host returned an invalid or unexpected payload.
	ErrHostResponseInvalid = errors.New("host response is invalid or unexpected")

	// ErrHostError means the host completed the call but reported a failure status.
	ErrHostError = errors.New("host returned an error status")

	// ErrInvalidURL indicates a request without a usable URL.
	ErrInvalidURL = errors.New("invalid URL provided")

	// ErrNilRequest indicates RoundTrip received a nil request.
	ErrNilRequest = errors.New("request is nil")

	// ErrMarshal wraps failures while encoding a protobuf payload.
	ErrMarshal = errors.New("failed to marshal payload")

	// ErrUnmarshal wraps failures while decoding a protobuf payload.
	ErrUnmarshal = errors.New("failed to unmarshal payload")

	// ErrReadBody wraps failures while reading a body stream.
	ErrReadBody = errors.New("failed to read body")
)

// HostCall is the waPC host function signature.
type HostCall func(namespace, capability, function string, payload []byte) ([]byte, error)

// RuntimeConfig carries the namespace used to scope host interactions.
type RuntimeConfig struct {
	Namespace string
}

// Config controls how the transport and the slot reach the host.
type Config struct {
	// Runtime provides the namespace for host calls. Empty means DefaultNamespace.
	Runtime RuntimeConfig

	// InsecureSkipVerify disables TLS verification on the host side when supported.
	InsecureSkipVerify bool

	// HostCall overrides the waPC host function. Nil means wapc.HostCall.
	HostCall HostCall
}

func (c Config) withDefaults() Config {
	if c.Runtime.Namespace == "" {
		c.Runtime.Namespace = DefaultNamespace
	}
	if c.HostCall == nil {
		c.HostCall = wapc.HostCall
	}
	return c
}
