package logging

import (
	"errors"

	"github.com/sirupsen/logrus"
	"github.com/tarmac-project/replies/hostcall"
	wapc "github.com/wapc/wapc-guest-tinygo"
)

const capabilityName = "logging"

// ErrHostCall wraps failures returned by the host logging capability.
var ErrHostCall = errors.New("logging host call failed")

// Config controls how a Hook interacts with the host runtime.
type Config struct {
	// Runtime provides the namespace used for host calls.
	Runtime hostcall.RuntimeConfig

	// Formatter renders entries before they are sent. Nil sends the bare
	// message.
	Formatter logrus.Formatter

	// HostCall overrides the waPC host function used for logging operations.
	HostCall hostcall.HostCall
}

// Hook is a logrus hook that forwards entries to the Tarmac host logger.
type Hook struct {
	runtime   hostcall.RuntimeConfig
	formatter logrus.Formatter
	hostCall  hostcall.HostCall
}

// Ensure Hook satisfies the logrus.Hook interface at compile time.
var _ logrus.Hook = (*Hook)(nil)

// NewHook creates a Hook that emits logs through the configured host capability.
func NewHook(cfg Config) (*Hook, error) {
	runtimeCfg := cfg.Runtime
	if runtimeCfg.Namespace == "" {
		runtimeCfg.Namespace = hostcall.DefaultNamespace
	}

	hostCall := cfg.HostCall
	if hostCall == nil {
		hostCall = wapc.HostCall
	}

	return &Hook{
		runtime:   runtimeCfg,
		formatter: cfg.Formatter,
		hostCall:  hostCall,
	}, nil
}

// Levels returns every logrus level.
func (h *Hook) Levels() []logrus.Level { return logrus.AllLevels }

// Fire sends entry to the host function matching its level.
func (h *Hook) Fire(entry *logrus.Entry) error {
	message := []byte(entry.Message)
	if h.formatter != nil {
		b, err := h.formatter.Format(entry)
		if err != nil {
			return err
		}
		message = b
	}

	if _, err := h.hostCall(h.runtime.Namespace, capabilityName, function(entry.Level), message); err != nil {
		return errors.Join(ErrHostCall, err)
	}
	return nil
}

func function(level logrus.Level) string {
	switch level {
	case logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel:
		return "Error"
	case logrus.WarnLevel:
		return "Warn"
	case logrus.InfoLevel:
		return "Info"
	case logrus.DebugLevel:
		return "Debug"
	default:
		return "Trace"
	}
}
