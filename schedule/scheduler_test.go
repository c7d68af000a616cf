package schedule

import (
	"container/list"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/chase3718/jsontalkieplayer/pin"
	"github.com/chase3718/jsontalkieplayer/report"
	"github.com/chase3718/jsontalkieplayer/rtclock"
)

type recordingSink struct {
	name string
	sent []pin.Payload
}

func (s *recordingSink) Send(p pin.Payload) error {
	s.sent = append(s.sent, p)
	return nil
}
func (s *recordingSink) Close() error   { return nil }
func (s *recordingSink) String() string { return s.name }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunDispatchesInOrder(t *testing.T) {
	target := &recordingSink{name: "out"}
	wl := list.New()
	wl.PushBack(pin.New(0, 0x50, target, pin.MidiBytes{1}))
	wl.PushBack(pin.New(0, 0x50, target, pin.MidiBytes{2}))

	clock := rtclock.New(-time.Hour) // epoch well in the past: every deadline is already due
	reporter := report.New()

	s := New(clock, reporter, nil, testLogger())
	s.Run(wl)

	if wl.Len() != 0 {
		t.Errorf("worklist len after Run = %d, want 0", wl.Len())
	}
	if len(target.sent) != 2 {
		t.Fatalf("sent %d payloads, want 2", len(target.sent))
	}
	if string(target.sent[0].(pin.MidiBytes)) != "\x01" || string(target.sent[1].(pin.MidiBytes)) != "\x02" {
		t.Error("payloads dispatched out of order")
	}
}

type countingIdler struct{ calls int }

func (c *countingIdler) Poll() { c.calls++ }

func TestRunInvokesIdlerDuringWait(t *testing.T) {
	target := &recordingSink{name: "out"}
	wl := list.New()
	// Deadline far enough in the future that the coarse-sleep phase runs
	// at least once, giving the idle callback a chance to fire.
	wl.PushBack(pin.New(20, 0x50, target, pin.MidiBytes{1}))

	clock := rtclock.New(0)
	reporter := report.New()
	idler := &countingIdler{}

	s := New(clock, reporter, idler, testLogger())
	s.Run(wl)

	if len(target.sent) != 1 {
		t.Fatalf("sent %d payloads, want 1", len(target.sent))
	}
	if idler.calls == 0 {
		t.Error("idle callback never invoked during a >1ms wait")
	}
}

func TestRunRecordsDelay(t *testing.T) {
	target := &recordingSink{name: "out"}
	wl := list.New()
	p := pin.New(0, 0x50, target, pin.MidiBytes{1})
	wl.PushBack(p)

	clock := rtclock.New(-time.Hour)
	reporter := report.New()

	s := New(clock, reporter, nil, testLogger())
	s.Run(wl)

	if p.DelayMs < 0 {
		t.Errorf("DelayMs = %v, want >= 0 after dispatch", p.DelayMs)
	}
}
