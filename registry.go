package replies

import (
	"net/http"
	"slices"
	"strings"
	"sync"

	"github.com/tarmac-project/replies/urlmatch"
)

// Registry holds rules in priority order and the passthrough prefixes.
type Registry struct {
	mu          sync.Mutex
	rules       []Rule
	passthrough []string
}

// Add appends r to the end of the registry.
func (g *Registry) Add(r Rule) {
	if r == nil {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rules = append(g.rules, r)
}

// AddPassthrough registers a URL prefix whose unmatched requests reach the
// real transport. Non-ASCII characters are normalised first.
func (g *Registry) AddPassthrough(prefix string) {
	prefix = urlmatch.Normalize(prefix)

	g.mu.Lock()
	defer g.mu.Unlock()
	if slices.Contains(g.passthrough, prefix) {
		return
	}
	g.passthrough = append(g.passthrough, prefix)
}

// Remove deletes every rule equal to sel and returns how many were removed.
func (g *Registry) Remove(sel Rule) int {
	if sel == nil {
		return 0
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	before := len(g.rules)
	g.rules = slices.DeleteFunc(g.rules, func(r Rule) bool { return sel.Equal(r) })
	return before - len(g.rules)
}

// Replace swaps the first rule equal to r for r, keeping its position. It
// returns ErrRuleNotFound when no rule is equal.
func (g *Registry) Replace(r Rule) error {
	if r == nil {
		return ErrRuleNotFound
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	i := slices.IndexFunc(g.rules, func(existing Rule) bool { return r.Equal(existing) })
	if i < 0 {
		return ErrRuleNotFound
	}
	g.rules[i] = r
	return nil
}

// FindMatch returns the rule that should answer req, or nil.
//
// When only one rule matches it is returned and stays registered, so it
// keeps answering. When several rules match, the first one is removed and
// returned: queued replies for the same request are used once each, and the
// last one repeats.
func (g *Registry) FindMatch(req *http.Request) Rule {
	if req == nil {
		return nil
	}
	target := urlmatch.RequestURL(req.URL)

	g.mu.Lock()
	defer g.mu.Unlock()

	found := -1
	for i, r := range g.rules {
		if !r.base().matchesURL(req.Method, target) {
			continue
		}
		if found < 0 {
			found = i
			continue
		}
		match := g.rules[found]
		g.rules = slices.Delete(g.rules, found, found+1)
		return match
	}

	if found < 0 {
		return nil
	}
	return g.rules[found]
}

// IsPassthrough reports whether rawURL starts with a passthrough prefix.
func (g *Registry) IsPassthrough(rawURL string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, p := range g.passthrough {
		if strings.HasPrefix(rawURL, p) {
			return true
		}
	}
	return false
}

// Rules returns a snapshot of the registered rules in priority order.
func (g *Registry) Rules() []Rule {
	g.mu.Lock()
	defer g.mu.Unlock()
	return slices.Clone(g.rules)
}

// Passthroughs returns a snapshot of the passthrough prefixes.
func (g *Registry) Passthroughs() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return slices.Clone(g.passthrough)
}

// Reset removes all rules and passthrough prefixes.
func (g *Registry) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rules = nil
	g.passthrough = nil
}
