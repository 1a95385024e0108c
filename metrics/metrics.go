package metrics

// Dispatch outcomes reported to a Recorder.
const (
	// OutcomeMatched is a request answered by a rule.
	OutcomeMatched = "matched"

	// OutcomeRuleError is a request whose rule produced an error.
	OutcomeRuleError = "rule_error"

	// OutcomeRefused is a request that matched nothing.
	OutcomeRefused = "refused"

	// OutcomePassthrough is a request forwarded to the real transport.
	OutcomePassthrough = "passthrough"
)

// Recorder observes dispatch outcomes.
type Recorder interface {
	Observe(outcome string)
}

// Nop discards every observation.
type Nop struct{}

// Observe does nothing.
func (Nop) Observe(string) {}
