package tinyweb

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/jpalmerr/tinyweb/internal/route"
	"github.com/jpalmerr/tinyweb/internal/server"
)

const (
	defaultListenAddr   = "0.0.0.0:8000"
	defaultDocumentRoot = "/var/www"
	defaultWorkers      = 4
	defaultSleepDelay   = route.DefaultSleepDelay
	defaultReadTimeout  = 30 * time.Second
)

// TinyWeb serves static files from a document root over a fixed pool of
// worker goroutines.
//
// It is created using [New] with functional options and started with
// [TinyWeb.Start]. The typical lifecycle is:
//
//	tw, err := tinyweb.New(tinyweb.WithDocumentRoot("/srv/www"))
//	if err != nil {
//	    slog.Error("failed to create tinyweb", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//
//	tw.Start(ctx) // blocks until context cancelled
type TinyWeb struct {
	cfg    twConfig
	logger *slog.Logger

	mu   sync.Mutex
	addr net.Addr
}

// New creates a new [TinyWeb] instance with the given options.
//
// Defaults:
//   - Listen address: 0.0.0.0:8000
//   - Document root: /var/www
//   - Workers: 4
//   - Queue limit: unbounded
//   - Sleep delay: 5 seconds
//   - Read timeout: 30 seconds
//   - Documents: index.html, 404.html, hello.html
//
// Returns an error if any option is invalid.
func New(opts ...Option) (*TinyWeb, error) {
	docs := route.DefaultDocuments()
	cfg := twConfig{
		listenAddr:       defaultListenAddr,
		documentRoot:     defaultDocumentRoot,
		workers:          defaultWorkers,
		sleepDelay:       defaultSleepDelay,
		readTimeout:      defaultReadTimeout,
		indexDocument:    docs.Index,
		notFoundDocument: docs.NotFound,
		sleepDocument:    docs.Sleep,
	}

	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if _, _, err := net.SplitHostPort(cfg.listenAddr); err != nil {
		return nil, fmt.Errorf("invalid listen address %q: %w", cfg.listenAddr, err)
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	return &TinyWeb{cfg: cfg, logger: logger}, nil
}

// Start binds the listener and serves connections until ctx is cancelled.
//
// Start blocks. On cancellation the listener is closed first, so no new
// connections are accepted, then every connection already handed to the
// pool is finished before Start returns.
//
// Returns nil on graceful shutdown. Returns an error if the listener
// cannot be bound.
func (tw *TinyWeb) Start(ctx context.Context) error {
	// check if context already cancelled
	if ctx.Err() != nil {
		return nil
	}

	fsys := tw.cfg.documentFS
	root := "<embedded>"
	if fsys == nil {
		fsys = os.DirFS(tw.cfg.documentRoot)
		root = tw.cfg.documentRoot
	}

	resolver := route.NewResolver(fsys, route.Documents{
		Index:    tw.cfg.indexDocument,
		NotFound: tw.cfg.notFoundDocument,
		Sleep:    tw.cfg.sleepDocument,
	})

	srv := server.NewServer(server.Config{
		Addr:        tw.cfg.listenAddr,
		Workers:     tw.cfg.workers,
		QueueLimit:  tw.cfg.queueLimit,
		ReadTimeout: tw.cfg.readTimeout,
		SleepDelay:  tw.cfg.sleepDelay,
		Resolver:    resolver,
		Meter:       tw.cfg.meter,
		Logger:      tw.logger,
	})

	tw.logger.Info("tinyweb starting", "document_root", root)
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	tw.mu.Lock()
	tw.addr = srv.Addr()
	tw.mu.Unlock()

	<-ctx.Done()
	tw.logger.Info("shutting down, finishing queued connections")
	<-srv.Done()
	tw.logger.Info("tinyweb stopped")

	return nil
}

// Addr returns the bound listen address, or nil while the server is not
// listening. Useful with a ":0" listen address.
func (tw *TinyWeb) Addr() net.Addr {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	return tw.addr
}
