package replies

import "testing"

// Default is the package-level mock installed into http.DefaultTransport. It
// does not assert that every rule fired.
var Default = New(Config{})

// Add registers a static reply on Default.
func Add(method, rawURL string, opts Options) error { return Default.Add(method, rawURL, opts) }

// AddRule registers r on Default.
func AddRule(r Rule) { Default.AddRule(r) }

// AddCallback registers a dynamic reply on Default.
func AddCallback(method, rawURL string, cb Callback, opts CallbackOptions) error {
	return Default.AddCallback(method, rawURL, cb, opts)
}

// AddPassthrough registers a passthrough prefix on Default.
func AddPassthrough(prefix string) { Default.AddPassthrough(prefix) }

// Remove deletes rules from Default.
func Remove(method, rawURL string) { Default.Remove(method, rawURL) }

// Replace swaps a rule on Default.
func Replace(method, rawURL string, opts Options) error {
	return Default.Replace(method, rawURL, opts)
}

// Calls returns the call log of Default.
func Calls() *CallList { return Default.Calls() }

// Start installs Default.
func Start() error { return Default.Start() }

// Stop uninstalls Default.
func Stop(verify bool) error { return Default.Stop(verify) }

// Reset clears Default.
func Reset() { Default.Reset() }

// Activate installs Default for the duration of t.
func Activate(t testing.TB) {
	t.Helper()
	Default.Activate(t)
}
