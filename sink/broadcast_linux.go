//go:build linux

package sink

import (
	"log/slog"
	"net"

	"golang.org/x/sys/unix"
)

// enableBroadcast sets SO_BROADCAST on the socket backing conn so sends to
// config.TalkieBroadcastAddr are permitted (spec.md §4.2's "enables
// broadcast"); without it the kernel rejects broadcast sends with EACCES.
func enableBroadcast(conn *net.UDPConn, logger *slog.Logger) error {
	raw, err := conn.SyscallConn()
	if err != nil {
		return err
	}
	var sockErr error
	err = raw.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_BROADCAST, 1)
	})
	if err != nil {
		return err
	}
	return sockErr
}
