// Package connection implements the Connection Manager component.
//
// The Connection Manager:
//   - Owns the single physical WebSocket connection
//   - Drives the disconnected/connecting/connected/reconnecting/failed
//     state machine
//   - Probes liveness with an application-level ping/pong heartbeat
//   - Recovers transient failures with capped exponential backoff
//   - Classifies authentication revocation and hands it to the logout
//     collaborator instead of retrying
//   - Reacts to environment connectivity signals
package connection
