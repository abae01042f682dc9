package request

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"
)

const (
	// MaxDrainBytes bounds how much a single drain will discard.
	MaxDrainBytes = 64 << 10

	drainBufferSize = 1024

	// drainGrace is the read deadline used when the connection does not
	// expose a socket descriptor. A deadline already in the past fails
	// before any buffered data is read on most net.Conn implementations.
	drainGrace = time.Millisecond
)

// Drain discards bytes the peer has already sent without waiting for more.
//
// It stops when a read would block, the peer has closed, or MaxDrainBytes
// have been discarded, and returns the number of bytes dropped. Any other
// read error is returned.
//
// On sockets the reads are issued with MSG_DONTWAIT, so the descriptor's
// blocking mode is never touched. Other connections get a short read
// deadline that is always cleared before Drain returns.
func Drain(conn net.Conn) (int, error) {
	if n, ok, err := drainSocket(conn); ok {
		return n, err
	}
	return drainWithDeadline(conn)
}

func drainWithDeadline(conn net.Conn) (total int, err error) {
	if err := conn.SetReadDeadline(time.Now().Add(drainGrace)); err != nil {
		return 0, fmt.Errorf("drain: set read deadline: %w", err)
	}
	defer func() {
		if rerr := conn.SetReadDeadline(time.Time{}); rerr != nil && err == nil {
			err = fmt.Errorf("drain: clear read deadline: %w", rerr)
		}
	}()

	buf := make([]byte, drainBufferSize)
	for total < MaxDrainBytes {
		n, rerr := conn.Read(buf)
		total += n
		if rerr != nil {
			if errors.Is(rerr, os.ErrDeadlineExceeded) || errors.Is(rerr, io.EOF) {
				return total, nil
			}
			return total, fmt.Errorf("drain: %w", rerr)
		}
		if n == 0 {
			return total, nil
		}
	}
	return total, nil
}
