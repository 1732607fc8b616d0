// Package ws streams workspace change events over WebSocket.
//
// On connect the client receives {"type":"connected"} with its subscriber
// id and the current view. Every committed change then arrives as
// {"type":"change"} carrying the event and a fresh view. Clients may send
// {"type":"ping"} or {"type":"view"} at any time.
package ws
