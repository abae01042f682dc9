//go:build !unix

package request

import "net"

func drainSocket(net.Conn) (int, bool, error) {
	return 0, false, nil
}
