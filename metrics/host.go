package metrics

import (
	"errors"
	"regexp"

	proto "github.com/tarmac-project/protobuf-go/sdk/metrics"
	"github.com/tarmac-project/replies/hostcall"
	wapc "github.com/wapc/wapc-guest-tinygo"
)

const (
	capabilityName = "metrics"
	fnCounter      = "counter"

	defaultPrefix = "replies_dispatch"
)

var (
	// ErrInvalidMetricName indicates a metric name that does not match the supported format.
	ErrInvalidMetricName = errors.New("metric name is invalid")

	// isMetricNameValid validates metric names using the same pattern as tarmac callback validation.
	isMetricNameValid = regexp.MustCompile(`^[a-zA-Z0-9_:][a-zA-Z0-9_:]*$`)
)

// HostConfig controls how a Host recorder reaches the host runtime.
type HostConfig struct {
	// Runtime provides the namespace used for host calls.
	Runtime hostcall.RuntimeConfig

	// Prefix is prepended to the outcome to form the counter name.
	// Empty means "replies_dispatch".
	Prefix string

	// HostCall overrides the waPC host function used for metrics operations.
	HostCall hostcall.HostCall
}

// Host counts outcomes with the Tarmac host metrics capability. Each outcome
// becomes its own counter, named <prefix>_<outcome>.
type Host struct {
	namespace string
	prefix    string
	hostCall  hostcall.HostCall
}

// Ensure Host satisfies the Recorder interface at compile time.
var _ Recorder = (*Host)(nil)

// NewHost creates a host-backed Recorder.
func NewHost(cfg HostConfig) (*Host, error) {
	namespace := cfg.Runtime.Namespace
	if namespace == "" {
		namespace = hostcall.DefaultNamespace
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = defaultPrefix
	}
	if !isMetricNameValid.MatchString(prefix) {
		return nil, ErrInvalidMetricName
	}

	hostCall := cfg.HostCall
	if hostCall == nil {
		hostCall = wapc.HostCall
	}

	return &Host{namespace: namespace, prefix: prefix, hostCall: hostCall}, nil
}

// Observe increments the counter for outcome as a best-effort call.
func (h *Host) Observe(outcome string) {
	name := h.prefix + "_" + outcome
	if !isMetricNameValid.MatchString(name) {
		return
	}

	payload, err := (&proto.MetricsCounter{Name: name}).MarshalVT()
	if err != nil {
		return
	}
	_, _ = h.hostCall(h.namespace, capabilityName, fnCounter, payload)
}
