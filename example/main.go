// Command example embeds tinyweb as a library, serving the built-in pages,
// and shows that a slow request does not hold up other requests.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jpalmerr/tinyweb"
	"github.com/jpalmerr/tinyweb/site"
)

func main() {
	tw, err := tinyweb.New(
		tinyweb.WithListenAddr("127.0.0.1:8000"),
		tinyweb.WithDocumentFS(site.Files()),
		tinyweb.WithWorkers(2),
		tinyweb.WithSleepDelay(2*time.Second),
	)
	if err != nil {
		slog.Error("failed to create tinyweb", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		for tw.Addr() == nil {
			time.Sleep(10 * time.Millisecond)
		}
		demo(tw.Addr().String())
		slog.Info("demo finished, still serving on http://127.0.0.1:8000 (Ctrl+C to stop)")
	}()

	if err := tw.Start(ctx); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

// demo sends one slow request and, while it is held, a few fast ones.
func demo(addr string) {
	var wg sync.WaitGroup
	for i, path := range []string{"/api/sleep", "/", "/404-me", "/"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i > 0 {
				time.Sleep(100 * time.Millisecond)
			}
			start := time.Now()
			status, err := fetch(addr, path)
			if err != nil {
				slog.Error("request failed", "path", path, "error", err)
				return
			}
			slog.Info("response", "path", path, "status", status, "elapsed", time.Since(start).Round(time.Millisecond).String())
		}()
	}
	wg.Wait()
}

func fetch(addr, path string) (string, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return "", err
	}
	defer conn.Close()

	if _, err := fmt.Fprintf(conn, "GET %s HTTP/1.1\r\nHost: %s\r\n\r\n", path, addr); err != nil {
		return "", err
	}
	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		return "", err
	}
	return line[:len(line)-2], nil
}
