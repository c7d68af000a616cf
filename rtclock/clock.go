// Package rtclock provides the high-resolution time source and hybrid
// sleep primitive the scheduler drives pin emission from (spec.md §4.1),
// plus best-effort real-time OS scheduling (spec.md §5), the Go analogue of
// original_source's setRealTimeScheduling()/highResolutionSleep().
package rtclock

import "time"

// coarseSleepGuardUs is how far ahead of a deadline the hybrid sleep stops
// trusting time.Sleep and switches to busy-waiting. OS sleep primitives
// routinely overshoot by 1-15ms; sub-millisecond MIDI jitter requires this.
const coarseSleepGuardUs = 2000

// idlePollGranularityUs is the minimum interval, during the coarse phase,
// at which the idle callback is invoked (spec.md §4.1: "≥100µs granularity
// so long as ≥1ms remains").
const idlePollGranularityUs = 100

// Clock is a monotonic high-resolution time source tied to a fixed epoch.
type Clock struct {
	epoch time.Time
}

// New returns a Clock whose epoch is the instant of construction, optionally
// shifted later by delay (the original_source --delay flag: the whole
// timeline is played back delay later than it otherwise would be).
func New(delay time.Duration) *Clock {
	return &Clock{epoch: time.Now().Add(delay)}
}

// NowUs returns microseconds elapsed since the clock's epoch. Monotonic —
// time.Since uses the monotonic reading embedded in time.Time by time.Now.
func (c *Clock) NowUs() int64 {
	return time.Since(c.epoch).Microseconds()
}

// Epoch returns the instant playback is considered to have started.
func (c *Clock) Epoch() time.Time {
	return c.epoch
}

// SleepUntil sleeps until deadlineUs microseconds after the clock's epoch,
// coarse-sleeping for all but the final ~2ms and then busy-waiting to the
// deadline, re-reading the clock every iteration (never trusting the coarse
// sleep to wake precisely).
//
// If idle is non-nil, it is invoked repeatedly during the coarse phase, at
// intervals of roughly idlePollGranularityUs, as long as at least 1ms
// remains until the deadline. idle must return quickly — spec.md §4.8/§5
// require it to complete well under 1ms per call, since it runs
// synchronously inside this sleep and is the system's only concurrency.
func (c *Clock) SleepUntil(deadlineUs int64, idle func()) {
	for {
		remaining := deadlineUs - c.NowUs()
		if remaining <= coarseSleepGuardUs {
			break
		}

		if idle != nil && remaining >= 1000 {
			idle()
			// Re-check after the idle callback; it may have consumed
			// meaningful time itself.
			remaining = deadlineUs - c.NowUs()
			if remaining <= coarseSleepGuardUs {
				break
			}
		}

		sleepUs := remaining - coarseSleepGuardUs
		if idle != nil && sleepUs > idlePollGranularityUs {
			sleepUs = idlePollGranularityUs
		}
		if sleepUs < 1 {
			sleepUs = 1
		}
		time.Sleep(time.Duration(sleepUs) * time.Microsecond)
	}

	for c.NowUs() < deadlineUs {
		// Busy-wait: re-read the clock every iteration.
	}
}
