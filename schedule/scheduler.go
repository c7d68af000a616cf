// Package schedule implements the playback loop (spec.md §4.7): drain the
// normalized worklist in order, sleeping between pins on the hybrid clock
// and dispatching each to its target sink at its deadline.
package schedule

import (
	"container/list"
	"log/slog"
	"math"

	"github.com/chase3718/jsontalkieplayer/config"
	"github.com/chase3718/jsontalkieplayer/pin"
	"github.com/chase3718/jsontalkieplayer/report"
	"github.com/chase3718/jsontalkieplayer/rtclock"
)

// Idler is polled during the coarse phase of every inter-pin sleep; package
// discovery's Poller satisfies it. A nil Idler (pure-MIDI playback) disables
// the callback entirely.
type Idler interface {
	Poll()
}

// Scheduler drains a normalized worklist in time order, dispatching each
// pin to its target at its scheduled deadline.
type Scheduler struct {
	clock    *rtclock.Clock
	logger   *slog.Logger
	reporter *report.Reporter
	idle     Idler
}

// New constructs a Scheduler. idle may be nil.
func New(clock *rtclock.Clock, reporter *report.Reporter, idle Idler, logger *slog.Logger) *Scheduler {
	return &Scheduler{clock: clock, logger: logger, reporter: reporter, idle: idle}
}

// Run drains wl front-to-back, blocking the caller until every pin has been
// dispatched. wl is consumed: each element is removed as it is sent.
func (s *Scheduler) Run(wl *list.List) {
	var idleFn func()
	if s.idle != nil {
		idleFn = s.idle.Poll
	}

	for {
		front := wl.Front()
		if front == nil {
			return
		}
		p := front.Value.(*pin.Pin)

		// §4.7/§5: accumulated drag shifts every subsequent deadline, so a
		// late pin doesn't just delay itself.
		deadlineUs := int64(math.Round((p.TimeMs + s.reporter.TotalDragMs()) * 1000))
		s.clock.SleepUntil(deadlineUs, idleFn)

		pluckTimeUs := s.clock.NowUs()
		delayMs := float64(pluckTimeUs-deadlineUs) / 1000.0
		p.DelayMs = delayMs

		if err := p.Target.Send(p.Payload); err != nil {
			s.logger.Warn("schedule: send failed", "target", p.Target.String(), "err", err)
		}

		s.reporter.RecordDispatch(delayMs, config.DragDurationMs)

		wl.Remove(front)
	}
}
