//go:build !linux

package rtclock

import "log/slog"

// SetRealtime is a no-op on platforms without a wired real-time scheduling
// path (spec.md §5 names SCHED_FIFO on POSIX and the Windows time-critical
// class; only the Linux path is wired here — see DESIGN.md).
func SetRealtime(logger *slog.Logger) {
	logger.Debug("rtclock: real-time scheduling not implemented on this platform")
}
