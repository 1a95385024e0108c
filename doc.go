/*
Package replies intercepts outgoing HTTP requests in tests and answers them
from registered rules.

A Mock is an http.RoundTripper. While active it replaces the transport of its
Target, which is http.DefaultTransport unless configured otherwise. Each
request is matched against the registered rules in order:

	m := replies.New(replies.Config{AssertAllFired: true})
	m.Activate(t)

	_ = m.Add(replies.GET, "http://example.com/users", replies.Options{
		JSON:   []string{"ada", "grace"},
		Status: http.StatusOK,
	})

	resp, err := http.Get("http://example.com/users?page=2")

Literal URLs ignore the querystring unless Options.MatchQuerystring is set.
Regular expression patterns are built with urlmatch.MustCompile and
registered through AddRule. When several rules match the same request the
first is used once and removed, so the last one keeps answering.

Requests that match nothing fail with a *ConnectionError unless their URL
starts with a passthrough prefix, in which case they are sent through the
original transport. Every mocked request is recorded in Calls.

Tarmac WebAssembly guests can activate a Mock against hostcall.Slot, which
intercepts the host HTTP capability instead of a Go transport.
*/
package replies
