// Package server provides the TCP accept loop and per-connection handler
// for tinyweb.
//
// This package is internal to tinyweb and handles the connection core:
//
//   - Accept loop: every accepted connection becomes one job on the worker pool
//   - Connection handler: bounded header read, drain, routing, response
//   - Response writer: status line, Content-Type, Connection: close, file bytes
//
// Each connection gets exactly one response (or none, when the request
// header never completes) and is then closed. Failures are logged with
// the connection's ID and never affect other connections.
//
// Users of the tinyweb library should not need to interact with this
// package directly. The server is started by [tinyweb.TinyWeb.Start].
package server
