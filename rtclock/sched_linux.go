//go:build linux

package rtclock

import (
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sys/unix"
)

// SetRealtime raises the calling goroutine's backing OS thread to the
// highest available SCHED_FIFO priority, the Linux analogue of the
// original's pthread_setschedparam(..., SCHED_FIFO, max). It locks the
// goroutine to its OS thread first, since scheduling policy is a per-thread
// attribute and Go would otherwise be free to migrate it.
//
// Failure (typically missing CAP_SYS_NICE) is logged and non-fatal:
// playback proceeds at the default scheduling class.
func SetRealtime(logger *slog.Logger) {
	runtime.LockOSThread()

	maxPrio, err := unix.SchedGetPriorityMax(unix.SCHED_FIFO)
	if err != nil {
		logger.Warn("rtclock: SCHED_FIFO priority query failed, continuing at default priority", "err", err)
		return
	}

	param := &unix.SchedParam{Priority: int32(maxPrio)}
	if err := unix.SchedSetscheduler(0, unix.SCHED_FIFO, param); err != nil {
		logger.Warn("rtclock: SCHED_FIFO unavailable, continuing at default priority", "err", fmt.Errorf("sched_setscheduler: %w", err))
		return
	}

	logger.Debug("rtclock: real-time scheduling engaged", "policy", "SCHED_FIFO", "priority", maxPrio)
}
