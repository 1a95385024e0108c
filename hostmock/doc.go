/*
Package hostmock provides a pretend waPC host for tests.

It stands in for the host side of a Tarmac guest: components that accept a
HostCall function can be pointed at Mock.HostCall to check what they send
and to script what they get back, without a running host.

	m := hostmock.New(hostmock.Config{
		Capability: "httpclient",
		Function:   "call",
		Respond: func(payload []byte) ([]byte, error) {
			// decode the request, encode a canned response
			return okResponse, nil
		},
	})

	transport, _ := hostcall.NewTransport(hostcall.Config{HostCall: m.HostCall})

Behavior

  - Every call is recorded first, whatever happens next; read them with Calls.
  - If Error is set it is returned for every call.
  - Otherwise Namespace, Capability and Function are enforced when set, then
    Validate runs, then Respond produces the answer. Without Respond the
    host answers with nil bytes and no error.
*/
package hostmock
