// Package http exposes the workspace to the presentation client as a JSON
// API built on gin.
//
// Every mutating endpoint returns after the tree is saved; clients that
// keep a WebSocket open also receive a change event they can re-render on.
// Action failures the user should see come back as 422 with the action
// Result, and malformed requests as 400.
package http
