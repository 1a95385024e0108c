package replies

import (
	"net/http"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/tarmac-project/replies/metrics"
	"github.com/tarmac-project/replies/urlmatch"
)

// Config controls how a Mock intercepts requests.
type Config struct {
	// Target is the slot the mock installs itself into. Defaults to
	// DefaultTransport().
	Target Target

	// AssertAllFired makes Stop(true) fail when a rule was never used.
	AssertAllFired bool

	// PassthroughPrefixes are URL prefixes whose unmatched requests reach the
	// real transport.
	PassthroughPrefixes []string

	// ResponseCallback post-processes every mocked outcome before it is
	// recorded and returned.
	ResponseCallback func(*http.Response, error) (*http.Response, error)

	// Logger receives dispatch diagnostics. Defaults to the logrus standard
	// logger.
	Logger logrus.FieldLogger

	// Metrics observes dispatch outcomes. Nil disables metrics.
	Metrics metrics.Recorder
}

// Mock replaces a transport with registered rules while active.
type Mock struct {
	cfg      Config
	log      logrus.FieldLogger
	metrics  metrics.Recorder
	registry Registry
	calls    CallList

	mu       sync.Mutex
	active   bool
	original http.RoundTripper
	real     http.RoundTripper
}

// Ensure Mock satisfies the http.RoundTripper interface at compile time.
var _ http.RoundTripper = (*Mock)(nil)

// New creates an inactive Mock.
func New(cfg Config) *Mock {
	if cfg.Target == nil {
		cfg.Target = DefaultTransport()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	recorder := cfg.Metrics
	if recorder == nil {
		recorder = metrics.Nop{}
	}

	m := &Mock{
		cfg:     cfg,
		log:     logger.WithField("component", "replies"),
		metrics: recorder,
	}
	for _, p := range cfg.PassthroughPrefixes {
		m.registry.AddPassthrough(p)
	}
	return m
}

// Add registers a static reply for method and the literal URL rawURL.
func (m *Mock) Add(method, rawURL string, opts Options) error {
	r, err := NewReply(method, urlmatch.Literal(rawURL), opts)
	if err != nil {
		return err
	}
	m.registry.Add(r)
	return nil
}

// AddRule registers a prebuilt rule, such as one with a regular expression
// pattern.
func (m *Mock) AddRule(r Rule) {
	m.registry.Add(r)
}

// AddCallback registers a dynamic reply for method and the literal URL rawURL.
func (m *Mock) AddCallback(method, rawURL string, cb Callback, opts CallbackOptions) error {
	r, err := NewCallbackReply(method, urlmatch.Literal(rawURL), cb, opts)
	if err != nil {
		return err
	}
	m.registry.Add(r)
	return nil
}

// AddPassthrough lets unmatched requests starting with prefix reach the real
// transport.
func (m *Mock) AddPassthrough(prefix string) {
	m.registry.AddPassthrough(prefix)
}

// Remove deletes every rule for method and the literal URL rawURL.
func (m *Mock) Remove(method, rawURL string) {
	m.registry.Remove(newSelector(method, urlmatch.Literal(rawURL)))
}

// RemoveRule deletes every rule equal to r.
func (m *Mock) RemoveRule(r Rule) {
	m.registry.Remove(r)
}

// Replace swaps the first rule for method and the literal URL rawURL for a new
// static reply.
func (m *Mock) Replace(method, rawURL string, opts Options) error {
	r, err := NewReply(method, urlmatch.Literal(rawURL), opts)
	if err != nil {
		return err
	}
	return m.registry.Replace(r)
}

// ReplaceRule swaps the first rule equal to r for r.
func (m *Mock) ReplaceRule(r Rule) error {
	return m.registry.Replace(r)
}

// Calls returns the log of intercepted calls.
func (m *Mock) Calls() *CallList { return &m.calls }

// Rules returns the registered rules in priority order.
func (m *Mock) Rules() []Rule { return m.registry.Rules() }

// Passthroughs returns the registered passthrough prefixes.
func (m *Mock) Passthroughs() []string { return m.registry.Passthroughs() }

// Reset clears rules, passthrough prefixes and recorded calls.
func (m *Mock) Reset() {
	m.registry.Reset()
	m.calls.Reset()
}

// Active reports whether the mock is installed.
func (m *Mock) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Start installs the mock into its target.
func (m *Mock) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active {
		return ErrAlreadyActive
	}

	m.original = m.cfg.Target.Transport()
	m.real = m.original
	if m.real == nil {
		m.real = http.DefaultTransport
	}
	m.cfg.Target.SetTransport(m)
	m.active = true
	return nil
}

// Stop restores the original transport. When verify is set and AssertAllFired
// is enabled, it returns a *NotFiredError listing every unused rule.
func (m *Mock) Stop(verify bool) error {
	m.mu.Lock()
	if !m.active {
		m.mu.Unlock()
		return ErrNotActive
	}
	m.cfg.Target.SetTransport(m.original)
	m.original = nil
	m.active = false
	m.mu.Unlock()

	if !verify || !m.cfg.AssertAllFired {
		return nil
	}

	var unfired []Rule
	for _, r := range m.registry.Rules() {
		if r.CallCount() == 0 {
			unfired = append(unfired, r)
		}
	}
	if len(unfired) > 0 {
		return &NotFiredError{Rules: unfired}
	}
	return nil
}

// Run activates the mock for the duration of fn. An error or panic from fn is
// propagated as is, without coverage verification. The mock is reset
// afterwards.
func (m *Mock) Run(fn func() error) error {
	if err := m.Start(); err != nil {
		return err
	}

	clean := false
	defer func() {
		if !clean {
			_ = m.Stop(false)
			m.Reset()
		}
	}()

	if err := fn(); err != nil {
		return err
	}
	clean = true

	err := m.Stop(true)
	m.Reset()
	return err
}

// Activate starts the mock and registers a cleanup that stops it, reports
// unused rules unless the test already failed, and resets it.
func (m *Mock) Activate(t testing.TB) {
	t.Helper()
	if err := m.Start(); err != nil {
		t.Fatalf("replies: %v", err)
	}
	t.Cleanup(func() {
		if err := m.Stop(!t.Failed()); err != nil {
			t.Error(err)
		}
		m.Reset()
	})
}
