// Package connectivity reports coarse environment signals (network
// online/offline, application visibility) as discrete events behind a
// capability interface, so the connection state machine stays
// platform-agnostic and can be driven by synthetic events in tests.
package connectivity
