package replies

import (
	"net/http"
	"sync/atomic"

	"github.com/tarmac-project/replies/urlmatch"
)

// HTTP methods accepted by rules. Matching is case-sensitive.
const (
	DELETE  = http.MethodDelete
	GET     = http.MethodGet
	HEAD    = http.MethodHead
	OPTIONS = http.MethodOptions
	PATCH   = http.MethodPatch
	POST    = http.MethodPost
	PUT     = http.MethodPut
)

// Rule is a registered expectation: a request matcher plus the behaviour that
// produces the response. The set of rules is closed; use *Reply or
// *CallbackReply.
type Rule interface {
	// Method returns the HTTP method the rule expects.
	Method() string

	// Pattern returns the URL pattern the rule expects.
	Pattern() urlmatch.Pattern

	// MatchQuerystring reports whether literal URLs compare querystrings.
	MatchQuerystring() bool

	// CallCount returns how many times the rule produced a response or error.
	CallCount() int

	// Matches reports whether req satisfies the rule.
	Matches(req *http.Request) bool

	// Equal reports whether two rules share method and URL pattern.
	Equal(other Rule) bool

	base() *rule
	respond(req *http.Request) (*http.Response, error)
}

type rule struct {
	matcher urlmatch.Matcher
	fired   atomic.Int64
}

func (r *rule) init(method string, pattern urlmatch.Pattern, strict bool) {
	r.matcher = urlmatch.Matcher{Method: method, Pattern: pattern, Strict: strict}
}

func (r *rule) base() *rule { return r }

func (r *rule) Method() string { return r.matcher.Method }

func (r *rule) Pattern() urlmatch.Pattern { return r.matcher.Pattern }

func (r *rule) MatchQuerystring() bool { return r.matcher.Strict }

func (r *rule) CallCount() int { return int(r.fired.Load()) }

func (r *rule) Matches(req *http.Request) bool {
	if req == nil {
		return false
	}
	return r.matcher.Matches(req.Method, req.URL)
}

func (r *rule) Equal(other Rule) bool {
	if other == nil {
		return false
	}
	return r.matcher.Method == other.Method() && r.matcher.Pattern.Equal(other.Pattern())
}

func (r *rule) matchesURL(method, requestURL string) bool {
	return method == r.matcher.Method && r.matcher.MatchesURL(requestURL)
}

// selector is a rule that only carries method and URL, used to find equal
// rules for removal.
type selector struct {
	rule
}

func newSelector(method string, pattern urlmatch.Pattern) *selector {
	s := &selector{}
	s.init(method, pattern, false)
	return s
}

func (s *selector) respond(*http.Request) (*http.Response, error) {
	return nil, ErrRuleNotFound
}
