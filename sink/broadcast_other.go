//go:build !linux

package sink

import (
	"log/slog"
	"net"
)

// enableBroadcast is a no-op outside Linux — see DESIGN.md.
func enableBroadcast(conn *net.UDPConn, logger *slog.Logger) error {
	return nil
}
