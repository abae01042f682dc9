// Package tinyweb provides a minimal static-file HTTP server built around
// a fixed-size worker pool.
//
// Each accepted TCP connection becomes one job on the pool. A worker reads
// the request header in small probes (at most 2048 bytes, up to the first
// "\r\n\r\n"), discards anything else the client already sent, routes the
// request line, streams one response and closes the connection. There is
// no keep-alive, no request body handling and no TLS.
//
// # Quick Start
//
//	tw, _ := tinyweb.New(
//	    tinyweb.WithListenAddr("127.0.0.1:8000"),
//	    tinyweb.WithDocumentRoot("/var/www"),
//	)
//
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	tw.Start(ctx) // blocks until ctx is cancelled
//
// # Routes
//
//   - GET /<path> HTTP/1.1 serves <document root>/<path>; an empty path
//     serves the index document
//   - GET /api/sleep HTTP/1.1 holds its worker for the sleep delay, then
//     serves the sleep document
//   - anything else, and any missing file, gets "404 NOT FOUND" and the
//     not-found document
//
// # Architecture
//
// tinyweb consists of several internal packages (under internal/):
//
//   - internal/pool: Fixed-size worker pool over a FIFO job queue
//   - internal/request: Bounded header reader, request-line parser, drain
//   - internal/route: Request routing and content types
//   - internal/server: Accept loop and per-connection handler
//   - internal/metrics: OpenTelemetry instruments
//
// The internal packages are not part of the public API and may change
// without notice.
package tinyweb
