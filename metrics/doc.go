/*
Package metrics counts how intercepted requests were dispatched.

A Recorder receives one outcome per request: matched, rule_error, refused or
passthrough. Prometheus keeps the counts in a client_golang counter vector
for tests running as ordinary processes; Host forwards them to the Tarmac
host metrics capability for tests running inside a WebAssembly guest.
*/
package metrics
