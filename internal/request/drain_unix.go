//go:build unix

package request

import (
	"errors"
	"fmt"
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// drainSocket drains conn through its raw descriptor. ok is false when
// conn is not backed by a socket.
func drainSocket(conn net.Conn) (total int, ok bool, err error) {
	sc, isSyscallConn := conn.(syscall.Conn)
	if !isSyscallConn {
		return 0, false, nil
	}
	raw, err := sc.SyscallConn()
	if err != nil {
		return 0, false, nil
	}

	buf := make([]byte, drainBufferSize)
	for total < MaxDrainBytes {
		var n int
		var opErr error
		if err := raw.Read(func(fd uintptr) bool {
			n, _, opErr = unix.Recvfrom(int(fd), buf, unix.MSG_DONTWAIT)
			return true
		}); err != nil {
			return total, true, fmt.Errorf("drain: %w", err)
		}

		switch {
		case errors.Is(opErr, unix.EAGAIN), errors.Is(opErr, unix.EWOULDBLOCK):
			return total, true, nil
		case errors.Is(opErr, unix.EINTR):
			continue
		case opErr != nil:
			return total, true, fmt.Errorf("drain: %w", opErr)
		case n == 0:
			return total, true, nil
		}
		total += n
	}
	return total, true, nil
}
