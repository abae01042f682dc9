package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/jpalmerr/tinyweb/internal/metrics"
	"github.com/jpalmerr/tinyweb/internal/request"
	"github.com/jpalmerr/tinyweb/internal/route"
)

const httpVersion = "HTTP/1.1"

// serveConn is the job run by a worker for one accepted connection.
// It owns conn and always closes it.
func (s *Server) serveConn(id string, conn net.Conn) {
	start := time.Now()
	logger := s.logger.With("conn_id", id, "remote", conn.RemoteAddr().String())
	defer func() {
		if err := conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			logger.Debug("close failed", "error", err)
		}
	}()

	logger.Info("connection accepted")

	status, err := s.handle(conn, logger)
	outcome := metrics.OutcomeServed
	if err != nil {
		outcome = metrics.OutcomeAborted
		switch {
		case errors.Is(err, request.ErrClosed):
			logger.Info("connection closed before request header was complete", "error", err)
		case errors.Is(err, request.ErrHeaderTooLong), errors.Is(err, request.ErrNotUTF8):
			logger.Warn("malformed request", "error", err)
		default:
			logger.Error("connection aborted", "error", err)
		}
	}

	elapsed := time.Since(start)
	s.metrics.RecordConnection(context.Background(), outcome, status, elapsed)
	logger.Debug("handle connection end", "outcome", outcome, "elapsed_ms", elapsed.Milliseconds())
}

// handle runs the header state machine, drains the connection, routes the
// request and writes the response. It returns the status sent, which is
// empty when the connection was aborted before a response.
func (s *Server) handle(conn net.Conn, logger *slog.Logger) (string, error) {
	if s.readTimeout > 0 {
		if err := conn.SetReadDeadline(time.Now().Add(s.readTimeout)); err != nil {
			return "", fmt.Errorf("set read deadline: %w", err)
		}
	}

	header, state, err := request.ReadHeader(conn)
	logger.Debug("request header tail",
		"state", state.String(),
		"bytes", fmt.Sprintf("% X", request.Tail(header)),
	)
	if err != nil {
		return "", err
	}

	text, err := request.Text(header)
	if err != nil {
		return "", err
	}
	logger.Info("request header", "header", text)

	if s.readTimeout > 0 {
		if err := conn.SetReadDeadline(time.Time{}); err != nil {
			return "", fmt.Errorf("clear read deadline: %w", err)
		}
	}

	drained, err := request.Drain(conn)
	if err != nil {
		return "", err
	}
	if drained > 0 {
		logger.Debug("drained unread request bytes", "bytes", drained)
		s.metrics.RecordDrained(context.Background(), drained)
	}

	line := request.ParseLine(header)
	if !line.OK {
		logger.Warn("could not parse request line")
	}

	decision := s.resolver.Decide(line)
	logger.Info("route decided",
		"request", line.String(),
		"status", decision.Status,
		"file", decision.File,
	)

	if decision.Sleep {
		s.sleep(s.sleepDelay)
	}

	if err := s.writeResponse(conn, decision); err != nil {
		return "", err
	}

	logger.Info("response sent", "status", decision.Status)
	return decision.Status, nil
}

// writeResponse sends the status line, headers and the decision's file.
//
// The file is opened before anything is written, so an open failure
// leaves the connection without a partial response.
func (s *Server) writeResponse(w io.Writer, d route.Decision) error {
	f, err := s.resolver.Open(d)
	if err != nil {
		return fmt.Errorf("open %s: %w", d.File, err)
	}
	defer func() { _ = f.Close() }()

	bw := bufio.NewWriter(w)
	writeHeader(bw, d.Status, d.ContentType())

	if _, err := io.Copy(bw, f); err != nil {
		return fmt.Errorf("send %s: %w", d.File, err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush response: %w", err)
	}
	return nil
}

// writeHeader writes the response head. Errors surface on the caller's Flush.
//
// The Content-Type line is omitted on purpose when contentType is empty:
// an empty or "Content-Type: ;" value is not a valid media type, and an
// absent header lets the client sniff the body instead.
func writeHeader(bw *bufio.Writer, status, contentType string) {
	_, _ = bw.WriteString(httpVersion + " " + status + "\r\n")
	if contentType != "" {
		_, _ = bw.WriteString("Content-Type: " + contentType + "\r\n")
	}
	_, _ = bw.WriteString("Connection: close\r\n\r\n")
}
