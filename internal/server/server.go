package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/jpalmerr/tinyweb/internal/metrics"
	"github.com/jpalmerr/tinyweb/internal/pool"
	"github.com/jpalmerr/tinyweb/internal/route"
)

// acceptBackoff is the pause after a failed Accept, so a persistent
// failure such as descriptor exhaustion does not spin the loop.
const acceptBackoff = 50 * time.Millisecond

// Config holds everything a [Server] needs.
type Config struct {
	// Addr is the TCP listen address, e.g. "0.0.0.0:8000".
	Addr string

	// Workers is the fixed worker pool size. Must be at least 1.
	Workers int

	// QueueLimit bounds connections waiting for a worker. Zero is unbounded.
	QueueLimit int

	// ReadTimeout limits the header read phase. Zero disables it.
	ReadTimeout time.Duration

	// SleepDelay is how long the slow endpoint blocks its worker.
	SleepDelay time.Duration

	// Resolver routes requests against the document root.
	Resolver *route.Resolver

	// Meter creates the server's instruments. Defaults to the global provider.
	Meter metric.Meter

	// Logger for connection events. Defaults to slog.Default().
	Logger *slog.Logger
}

// Server accepts connections and runs each one on the worker pool.
type Server struct {
	addr        string
	workers     int
	queueLimit  int
	readTimeout time.Duration
	sleepDelay  time.Duration
	resolver    *route.Resolver
	meter       metric.Meter
	logger      *slog.Logger

	// sleep blocks the worker on the slow endpoint.
	sleep func(time.Duration)

	pool     *pool.Pool
	metrics  *metrics.Metrics
	listener net.Listener
	done     chan struct{}
}

// NewServer creates a new [Server].
//
// The server is not started until [Server.Start] is called.
func NewServer(cfg Config) *Server {
	meter := cfg.Meter
	if meter == nil {
		meter = otel.GetMeterProvider().Meter(metrics.ScopeName)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		addr:        cfg.Addr,
		workers:     cfg.Workers,
		queueLimit:  cfg.QueueLimit,
		readTimeout: cfg.ReadTimeout,
		sleepDelay:  cfg.SleepDelay,
		resolver:    cfg.Resolver,
		meter:       meter,
		logger:      logger,
		sleep:       time.Sleep,
		done:        make(chan struct{}),
	}
}

// Start binds the listener, starts the worker pool and begins accepting
// connections in a background goroutine.
//
// Start is non-blocking and returns once the listener is bound. When ctx
// is cancelled the listener is closed, the pool finishes every queued
// connection, and the channel returned by [Server.Done] is closed.
//
// Returns an error if the listener cannot be bound.
func (s *Server) Start(ctx context.Context) error {
	if s.resolver == nil {
		return errors.New("server: resolver is required")
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to bind to %s: %w", s.addr, err)
	}

	s.pool = pool.New(s.workers,
		pool.WithQueueLimit(s.queueLimit),
		pool.WithLogger(s.logger),
	)

	s.metrics, err = metrics.New(s.meter, s.pool)
	if err != nil {
		_ = ln.Close()
		s.pool.Shutdown()
		return fmt.Errorf("failed to create metrics: %w", err)
	}

	s.listener = ln
	s.logger.Info("listening",
		"addr", ln.Addr().String(),
		"workers", s.workers,
		"queue_limit", s.queueLimit,
	)

	go s.acceptLoop(ln)

	// shutdown on context cancellation
	go func() {
		<-ctx.Done()
		if err := ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			s.logger.Error("listener close error", "error", err)
		}
	}()

	return nil
}

// Addr returns the bound listener address. It is nil before Start.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Done returns a channel that is closed once the server has stopped
// accepting and every queued connection has been handled.
func (s *Server) Done() <-chan struct{} {
	return s.done
}

// acceptLoop hands every accepted connection to the pool until the
// listener is closed, then tears the pool down.
func (s *Server) acceptLoop(ln net.Listener) {
	defer close(s.done)
	defer s.pool.Shutdown()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				s.logger.Info("listener closed")
				return
			}
			s.logger.Warn("accept failed", "error", err)
			time.Sleep(acceptBackoff)
			continue
		}

		id := uuid.NewString()
		if err := s.pool.Execute(func() { s.serveConn(id, conn) }); err != nil {
			s.logger.Warn("connection rejected",
				"conn_id", id,
				"remote", conn.RemoteAddr().String(),
				"error", err,
			)
			_ = conn.Close()
			s.metrics.RecordConnection(context.Background(), metrics.OutcomeRejected, "", 0)
		}
	}
}
