package ordering

import (
	"testing"

	"github.com/chase3718/jsontalkieplayer/pin"
)

type stubSink struct{}

func (stubSink) Send(pin.Payload) error { return nil }
func (stubSink) Close() error           { return nil }
func (stubSink) String() string         { return "stub" }

func TestLessOrdersByTimeFirst(t *testing.T) {
	s := stubSink{}
	a := pin.New(1.0, 0x50, s, pin.MidiBytes{0x90})
	b := pin.New(2.0, 0x00, s, pin.MidiBytes{0x90})

	if !Less(a, b) {
		t.Error("Less(earlier-but-lower-priority, later-but-higher-priority) = false, want true")
	}
	if Less(b, a) {
		t.Error("Less(later, earlier) = true, want false")
	}
}

func TestLessOrdersByPriorityOnTie(t *testing.T) {
	s := stubSink{}
	a := pin.New(5.0, 0x10, s, pin.MidiBytes{0x90})
	b := pin.New(5.0, 0x20, s, pin.MidiBytes{0x90})

	if !Less(a, b) {
		t.Error("Less(same time, lower priority) = false, want true")
	}
	if Less(a, a) {
		t.Error("Less(x, x) = true, want false (strict ordering)")
	}
}

func TestSortStableOrderOfKeys(t *testing.T) {
	s := stubSink{}
	pins := []*pin.Pin{
		pin.New(3, 0x50, s, pin.MidiBytes{0x90}),
		pin.New(1, 0x20, s, pin.MidiBytes{0x90}),
		pin.New(1, 0x10, s, pin.MidiBytes{0x90}),
		pin.New(2, 0x00, s, pin.MidiBytes{0x90}),
	}
	Sort(pins)

	wantOrder := []struct {
		time     float64
		priority uint8
	}{
		{1, 0x10},
		{1, 0x20},
		{2, 0x00},
		{3, 0x50},
	}
	for i, want := range wantOrder {
		if pins[i].TimeMs != want.time || pins[i].Priority != want.priority {
			t.Errorf("pins[%d] = {%v, %#x}, want {%v, %#x}", i, pins[i].TimeMs, pins[i].Priority, want.time, want.priority)
		}
	}
}
