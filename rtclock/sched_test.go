package rtclock

import (
	"io"
	"log/slog"
	"testing"
)

// SetRealtime is best-effort and must never panic or block, even when the
// test process lacks CAP_SYS_NICE (the common case in CI/sandboxes).
func TestSetRealtimeDoesNotPanic(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	SetRealtime(logger)
}
