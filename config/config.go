// Package config loads tinyweb's configuration.
//
// Two file formats are accepted. YAML:
//
//	listen: 0.0.0.0:8000
//	document_root: /var/www
//	workers: 4
//	queue_limit: 0
//	sleep_delay: 5s
//	read_timeout: 30s
//	metrics:
//	  otlp_endpoint: 127.0.0.1:4317
//	  interval: 10s
//
// and the OpenWrt UCI form, detected by a leading "config" line:
//
//	config tinyweb 'main'
//	    list listen_http '0.0.0.0:8000'
//	    option home '/var/www'
//
// Fields left out keep their [Default] values. [LoadOrDefault] never
// fails: a missing or unusable file yields the defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultPath is where the serve command looks for a config file.
	DefaultPath = "/etc/config/tinyweb"

	defaultListen          = "0.0.0.0:8000"
	defaultDocumentRoot    = "/var/www"
	defaultWorkers         = 4
	defaultSleepDelay      = 5 * time.Second
	defaultReadTimeout     = 30 * time.Second
	defaultMetricsInterval = 10 * time.Second
)

// Config is the root configuration structure for tinyweb.
type Config struct {
	// Listen is the TCP listen address. Defaults to 0.0.0.0:8000.
	Listen string `yaml:"listen"`

	// DocumentRoot is the directory request paths are resolved against.
	// Defaults to /var/www.
	DocumentRoot string `yaml:"document_root"`

	// Workers is the fixed worker pool size. Defaults to 4.
	Workers int `yaml:"workers"`

	// QueueLimit bounds connections waiting for a worker. 0 means unbounded.
	QueueLimit int `yaml:"queue_limit"`

	// IndexDocument is served for "GET /". Defaults to index.html.
	IndexDocument string `yaml:"index_document"`

	// NotFoundDocument is served with the not-found status. Defaults to 404.html.
	NotFoundDocument string `yaml:"not_found_document"`

	// SleepDocument is served by /api/sleep. Defaults to hello.html.
	SleepDocument string `yaml:"sleep_document"`

	// SleepDelay is how long /api/sleep holds its worker. Defaults to 5s.
	SleepDelay Duration `yaml:"sleep_delay"`

	// ReadTimeout limits the wait for a complete request header.
	// Defaults to 30s; 0s disables it.
	ReadTimeout Duration `yaml:"read_timeout"`

	// Metrics configures OTLP metric export.
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig configures metric export. Export is off unless
// OTLPEndpoint is set.
type MetricsConfig struct {
	// OTLPEndpoint is the host:port of an OTLP gRPC collector.
	OTLPEndpoint string `yaml:"otlp_endpoint"`

	// Interval is the export period. Defaults to 10s.
	Interval Duration `yaml:"interval"`

	// Insecure disables TLS towards the collector.
	Insecure bool `yaml:"insecure"`
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	return d.set(s)
}

func (d *Duration) set(s string) error {
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Default returns the configuration used when no file is available.
func Default() *Config {
	return &Config{
		Listen:           defaultListen,
		DocumentRoot:     defaultDocumentRoot,
		Workers:          defaultWorkers,
		IndexDocument:    "index.html",
		NotFoundDocument: "404.html",
		SleepDocument:    "hello.html",
		SleepDelay:       Duration(defaultSleepDelay),
		ReadTimeout:      Duration(defaultReadTimeout),
		Metrics: MetricsConfig{
			Interval: Duration(defaultMetricsInterval),
		},
	}
}

// Load reads and parses a configuration file.
//
// Returns an error if the file cannot be read, parsed or validated.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// LoadOrDefault is [Load] for startup: when the file is missing or
// invalid it logs a warning and returns [Default].
func LoadOrDefault(path string, logger *slog.Logger) *Config {
	cfg, err := Load(path)
	if err == nil {
		return cfg
	}

	if errors.Is(err, fs.ErrNotExist) {
		logger.Warn("config file not found, using defaults", "path", path, "error", err)
	} else {
		logger.Warn("could not parse config, using defaults", "path", path, "error", err)
	}
	return Default()
}

// Parse parses configuration data in either supported format and
// validates the result. Fields not present keep their defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	if isUCI(data) {
		if err := parseUCI(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse UCI: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every field.
func (c *Config) Validate() error {
	_, port, err := net.SplitHostPort(c.Listen)
	if err != nil {
		return fmt.Errorf("listen: invalid address %q: %w", c.Listen, err)
	}
	if n, err := strconv.Atoi(port); err != nil || n < 0 || n > 65535 {
		return fmt.Errorf("listen: invalid port %q", port)
	}

	if c.DocumentRoot == "" {
		return errors.New("document_root is required")
	}

	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.QueueLimit < 0 {
		return fmt.Errorf("queue_limit cannot be negative, got %d", c.QueueLimit)
	}

	for name, doc := range map[string]string{
		"index_document":     c.IndexDocument,
		"not_found_document": c.NotFoundDocument,
		"sleep_document":     c.SleepDocument,
	} {
		if !fs.ValidPath(doc) || doc == "." {
			return fmt.Errorf("%s: %q is not a valid path relative to document_root", name, doc)
		}
	}

	if c.SleepDelay.Duration() < 0 {
		return fmt.Errorf("sleep_delay cannot be negative, got %s", c.SleepDelay.Duration())
	}
	if c.ReadTimeout.Duration() < 0 {
		return fmt.Errorf("read_timeout cannot be negative, got %s", c.ReadTimeout.Duration())
	}

	if c.Metrics.OTLPEndpoint != "" {
		if _, _, err := net.SplitHostPort(c.Metrics.OTLPEndpoint); err != nil {
			return fmt.Errorf("metrics.otlp_endpoint: invalid address %q: %w", c.Metrics.OTLPEndpoint, err)
		}
		if c.Metrics.Interval.Duration() <= 0 {
			return fmt.Errorf("metrics.interval must be positive, got %s", c.Metrics.Interval.Duration())
		}
	}

	return nil
}
