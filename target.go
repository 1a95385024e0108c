package replies

import (
	"net/http"
	"sync"
)

// Target is the slot a Mock installs itself into while active.
type Target interface {
	// Transport returns the transport currently installed.
	Transport() http.RoundTripper

	// SetTransport installs rt.
	SetTransport(rt http.RoundTripper)
}

var defaultTransportMu sync.Mutex

type defaultTransport struct{}

// DefaultTransport returns the Target for http.DefaultTransport, used by
// http.DefaultClient and every client without its own transport.
func DefaultTransport() Target { return defaultTransport{} }

func (defaultTransport) Transport() http.RoundTripper {
	defaultTransportMu.Lock()
	defer defaultTransportMu.Unlock()
	return http.DefaultTransport
}

func (defaultTransport) SetTransport(rt http.RoundTripper) {
	defaultTransportMu.Lock()
	defer defaultTransportMu.Unlock()
	http.DefaultTransport = rt
}

type clientTarget struct {
	client *http.Client
}

// ClientTarget returns the Target for the Transport field of c.
func ClientTarget(c *http.Client) Target { return clientTarget{client: c} }

func (t clientTarget) Transport() http.RoundTripper { return t.client.Transport }

func (t clientTarget) SetTransport(rt http.RoundTripper) { t.client.Transport = rt }
