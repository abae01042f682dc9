package tinyweb

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"go.opentelemetry.io/otel/metric/noop"
)

func testOptions(extra ...Option) []Option {
	base := []Option{
		WithListenAddr("127.0.0.1:0"),
		WithWorkers(2),
		WithSleepDelay(0),
		WithMeter(noop.NewMeterProvider().Meter("test")),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
	return append(base, extra...)
}

// startTinyWeb runs Start in the background and waits for the listener.
func startTinyWeb(t *testing.T, tw *TinyWeb) (cancel func() error) {
	t.Helper()

	ctx, stop := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- tw.Start(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for tw.Addr() == nil {
		select {
		case err := <-done:
			stop()
			t.Fatalf("Start() returned early: %v", err)
		default:
		}
		if time.Now().After(deadline) {
			stop()
			t.Fatal("server did not start listening")
		}
		time.Sleep(5 * time.Millisecond)
	}

	return func() error {
		stop()
		select {
		case err := <-done:
			return err
		case <-time.After(5 * time.Second):
			t.Fatal("Start() did not return after context cancellation")
			return nil
		}
	}
}

func get(t *testing.T, addr net.Addr, raw string) []byte {
	t.Helper()

	conn, err := net.Dial("tcp", addr.String())
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	_ = conn.SetDeadline(time.Now().Add(5 * time.Second))
	if _, err := io.WriteString(conn, raw); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	resp, err := io.ReadAll(conn)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	return resp
}

func TestStart_BlocksUntilContextCancelled(t *testing.T) {
	tw, err := New(testOptions(WithDocumentFS(fstest.MapFS{}))...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	stop := startTinyWeb(t, tw)

	// still serving after a while
	time.Sleep(50 * time.Millisecond)
	if tw.Addr() == nil {
		t.Fatal("Addr() = nil while running")
	}

	if err := stop(); err != nil {
		t.Errorf("Start() returned error: %v", err)
	}
}

func TestStart_ReturnsImmediatelyIfContextAlreadyCancelled(t *testing.T) {
	tw, err := New(testOptions()...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() { done <- tw.Start(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start() returned error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Start() did not return for a cancelled context")
	}
}

func TestStart_BindFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer ln.Close()

	tw, err := New(testOptions(WithListenAddr(ln.Addr().String()))...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := tw.Start(ctx); err == nil {
		t.Fatal("Start() expected bind error, got nil")
	}
}

func TestStart_ServesDocumentRoot(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"index.html": "<h1>home</h1>",
		"404.html":   "<h1>missing</h1>",
		"hello.html": "<h1>hello</h1>",
		"style.css":  "body{}",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
	}

	tw, err := New(testOptions(WithDocumentRoot(dir))...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	stop := startTinyWeb(t, tw)
	defer stop()

	tests := []struct {
		request    string
		wantStatus string
		wantBody   string
	}{
		{"GET / HTTP/1.1\r\n\r\n", "HTTP/1.1 200 OK\r\n", "<h1>home</h1>"},
		{"GET /style.css HTTP/1.1\r\n\r\n", "HTTP/1.1 200 OK\r\n", "body{}"},
		{"GET /api/sleep HTTP/1.1\r\n\r\n", "HTTP/1.1 200 OK\r\n", "<h1>hello</h1>"},
		{"GET /nope.html HTTP/1.1\r\n\r\n", "HTTP/1.1 404 NOT FOUND\r\n", "<h1>missing</h1>"},
		{"POST / HTTP/1.1\r\n\r\n", "HTTP/1.1 404 NOT FOUND\r\n", "<h1>missing</h1>"},
	}

	for _, tt := range tests {
		resp := get(t, tw.Addr(), tt.request)
		if !bytes.HasPrefix(resp, []byte(tt.wantStatus)) {
			t.Errorf("%q: response = %q, want status %q", tt.request, resp, tt.wantStatus)
		}
		if !bytes.HasSuffix(resp, []byte("\r\n\r\n"+tt.wantBody)) {
			t.Errorf("%q: response = %q, want body %q", tt.request, resp, tt.wantBody)
		}
	}
}

func TestStart_CustomDocuments(t *testing.T) {
	fsys := fstest.MapFS{
		"home.html":    {Data: []byte("custom home")},
		"missing.html": {Data: []byte("custom missing")},
	}

	tw, err := New(testOptions(
		WithDocumentFS(fsys),
		WithIndexDocument("home.html"),
		WithNotFoundDocument("missing.html"),
	)...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	stop := startTinyWeb(t, tw)
	defer stop()

	if resp := get(t, tw.Addr(), "GET / HTTP/1.1\r\n\r\n"); !bytes.HasSuffix(resp, []byte("custom home")) {
		t.Errorf("index response = %q", resp)
	}
	if resp := get(t, tw.Addr(), "GET /x HTTP/1.1\r\n\r\n"); !bytes.HasSuffix(resp, []byte("custom missing")) {
		t.Errorf("not-found response = %q", resp)
	}
}
