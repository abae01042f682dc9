// Package pool provides the fixed-size worker pool that executes
// connection jobs for tinyweb.
//
// This package is internal to tinyweb. A [Pool] owns a fixed number of
// worker goroutines that pull messages from one shared FIFO queue. Each
// message is either a job, which exactly one worker runs to completion,
// or a terminate marker, which exactly one worker consumes before exiting.
//
// The main components are:
//
//   - [Pool]: The queue plus its workers
//   - [Job]: A zero-argument unit of work
//   - [Option]: Construction options (queue limit, logger)
//
// Jobs are expected to handle their own errors. A job that panics is
// recovered and logged; the worker that ran it keeps serving.
package pool
