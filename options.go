package tinyweb

import (
	"errors"
	"io/fs"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// twConfig holds mutable state during TinyWeb construction.
type twConfig struct {
	listenAddr       string
	documentRoot     string
	documentFS       fs.FS
	workers          int
	queueLimit       int
	sleepDelay       time.Duration
	readTimeout      time.Duration
	indexDocument    string
	notFoundDocument string
	sleepDocument    string
	meter            metric.Meter
	logger           *slog.Logger
}

// Option is a function that configures a [TinyWeb] instance during construction.
//
// Options return an error if validation fails.
type Option func(*twConfig) error

// WithListenAddr sets the TCP address to listen on, e.g. "0.0.0.0:8000".
// Port 0 picks a free port; see [TinyWeb.Addr].
//
// Defaults to 0.0.0.0:8000.
func WithListenAddr(addr string) Option {
	return func(cfg *twConfig) error {
		if addr == "" {
			return errors.New("listen address cannot be empty")
		}
		cfg.listenAddr = addr
		return nil
	}
}

// WithDocumentRoot sets the directory request paths are resolved against.
//
// Defaults to /var/www. Ignored when [WithDocumentFS] is also given.
func WithDocumentRoot(dir string) Option {
	return func(cfg *twConfig) error {
		if dir == "" {
			return errors.New("document root cannot be empty")
		}
		cfg.documentRoot = dir
		return nil
	}
}

// WithDocumentFS serves documents from fsys instead of a directory.
//
// Example, serving the embedded default pages:
//
//	tw, err := tinyweb.New(tinyweb.WithDocumentFS(site.Files()))
func WithDocumentFS(fsys fs.FS) Option {
	return func(cfg *twConfig) error {
		if fsys == nil {
			return errors.New("document filesystem cannot be nil")
		}
		cfg.documentFS = fsys
		return nil
	}
}

// WithWorkers sets the fixed number of worker goroutines.
//
// Each worker handles one connection at a time. Defaults to 4.
// Returns an error if n is less than 1.
func WithWorkers(n int) Option {
	return func(cfg *twConfig) error {
		if n < 1 {
			return errors.New("workers must be at least 1")
		}
		cfg.workers = n
		return nil
	}
}

// WithQueueLimit bounds the number of accepted connections waiting for a
// worker. Connections over the limit are closed immediately.
//
// Defaults to 0, which leaves the queue unbounded.
func WithQueueLimit(n int) Option {
	return func(cfg *twConfig) error {
		if n < 0 {
			return errors.New("queue limit cannot be negative")
		}
		cfg.queueLimit = n
		return nil
	}
}

// WithSleepDelay sets how long /api/sleep blocks its worker. Defaults to 5 seconds.
func WithSleepDelay(d time.Duration) Option {
	return func(cfg *twConfig) error {
		if d < 0 {
			return errors.New("sleep delay cannot be negative")
		}
		cfg.sleepDelay = d
		return nil
	}
}

// WithReadTimeout limits how long a worker waits for a complete request
// header. Zero disables the limit. Defaults to 30 seconds.
func WithReadTimeout(d time.Duration) Option {
	return func(cfg *twConfig) error {
		if d < 0 {
			return errors.New("read timeout cannot be negative")
		}
		cfg.readTimeout = d
		return nil
	}
}

// WithIndexDocument sets the document served for "GET /". Defaults to index.html.
func WithIndexDocument(name string) Option {
	return documentOption(name, "index document", func(cfg *twConfig) { cfg.indexDocument = name })
}

// WithNotFoundDocument sets the document served with the not-found status.
// Defaults to 404.html.
func WithNotFoundDocument(name string) Option {
	return documentOption(name, "not-found document", func(cfg *twConfig) { cfg.notFoundDocument = name })
}

// WithSleepDocument sets the document served by /api/sleep. Defaults to hello.html.
func WithSleepDocument(name string) Option {
	return documentOption(name, "sleep document", func(cfg *twConfig) { cfg.sleepDocument = name })
}

func documentOption(name, what string, set func(*twConfig)) Option {
	return func(cfg *twConfig) error {
		if !fs.ValidPath(name) || name == "." {
			return errors.New(what + " must be a relative path inside the document root")
		}
		set(cfg)
		return nil
	}
}

// WithMeter sets the OpenTelemetry meter used for connection and pool
// metrics. If not specified, the global meter provider is used.
//
// Returns an error if the meter is nil.
func WithMeter(meter metric.Meter) Option {
	return func(cfg *twConfig) error {
		if meter == nil {
			return errors.New("meter cannot be nil")
		}
		cfg.meter = meter
		return nil
	}
}

// WithLogger sets a custom [slog.Logger] for the TinyWeb instance.
//
// If not specified, [slog.Default] is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *twConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}
