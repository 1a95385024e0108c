package hostmock

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

var (
	// ErrUnexpectedNamespace is returned when the namespace is not as expected.
	ErrUnexpectedNamespace = errors.New("unexpected namespace")

	// ErrUnexpectedCapability is returned when the capability is not as expected.
	ErrUnexpectedCapability = errors.New("unexpected capability")

	// ErrUnexpectedFunction is returned when the function is not as expected.
	ErrUnexpectedFunction = errors.New("unexpected function")
)

// Call captures a single host invocation.
type Call struct {
	Namespace  string
	Capability string
	Function   string
	Payload    []byte
}

// Config describes what the pretend host accepts and how it answers.
// Blank routing fields accept any value.
type Config struct {
	// Namespace is the namespace every call must use.
	Namespace string

	// Capability is the capability every call must target.
	Capability string

	// Function is the function every call must invoke.
	Function string

	// Validate inspects the payload before Respond runs.
	Validate func(payload []byte) error

	// Respond produces the host answer for a payload.
	Respond func(payload []byte) ([]byte, error)

	// Error is returned from every call when set.
	Error error
}

// Mock is a pretend waPC host that records every call it receives.
type Mock struct {
	cfg Config

	mu    sync.Mutex
	calls []Call
}

// New creates a Mock from cfg.
func New(cfg Config) *Mock {
	return &Mock{cfg: cfg}
}

// HostCall has the waPC host function signature so it can be injected
// wherever a real host call is expected.
func (m *Mock) HostCall(namespace, capability, function string, payload []byte) ([]byte, error) {
	m.mu.Lock()
	m.calls = append(m.calls, Call{
		Namespace:  namespace,
		Capability: capability,
		Function:   function,
		Payload:    slices.Clone(payload),
	})
	m.mu.Unlock()

	if m.cfg.Error != nil {
		return nil, m.cfg.Error
	}

	if m.cfg.Namespace != "" && m.cfg.Namespace != namespace {
		return nil, fmt.Errorf("%w: expected %s, got %s", ErrUnexpectedNamespace, m.cfg.Namespace, namespace)
	}
	if m.cfg.Capability != "" && m.cfg.Capability != capability {
		return nil, fmt.Errorf("%w: expected %s, got %s", ErrUnexpectedCapability, m.cfg.Capability, capability)
	}
	if m.cfg.Function != "" && m.cfg.Function != function {
		return nil, fmt.Errorf("%w: expected %s, got %s", ErrUnexpectedFunction, m.cfg.Function, function)
	}

	if m.cfg.Validate != nil {
		if err := m.cfg.Validate(payload); err != nil {
			return nil, err
		}
	}

	if m.cfg.Respond == nil {
		return nil, nil
	}
	return m.cfg.Respond(payload)
}

// Calls returns the invocations received so far, oldest first.
func (m *Mock) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.calls)
}
