/*
Package hostcall connects net/http to the Tarmac host's httpclient
capability.

Transport sends an *http.Request to the host as a protobuf HTTPClient
message and turns the HTTPClientResponse back into an *http.Response.

Slot is the other direction. A guest hands Slot.HostCall to its clients in
place of wapc.HostCall; HTTP calls are decoded and served by whatever
http.RoundTripper is installed in the slot, which is the real host until a
replies.Mock is activated against it:

	slot, _ := hostcall.NewSlot(hostcall.Config{})
	transport, _ := hostcall.NewTransport(hostcall.Config{HostCall: slot.HostCall})
	client := &http.Client{Transport: transport}

	m := replies.New(replies.Config{Target: slot})
	_ = m.Add(replies.GET, "http://example.com", replies.Options{Body: []byte("ok")})
	_ = m.Start()
	defer m.Stop(true)

Passthrough requests of an active mock reach the host through Transport.
*/
package hostcall
