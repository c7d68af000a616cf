// Package sink implements the two Sink kinds pins are dispatched to: a MIDI
// output port (via gitlab.com/gomidi/midi/v2) and a talkie UDP endpoint.
package sink

import (
	"fmt"
	"log/slog"

	"gitlab.com/gomidi/midi/v2/drivers"

	"github.com/chase3718/jsontalkieplayer/pin"
)

// MidiSink owns one MIDI output port. Opening is idempotent and sticky:
// once a port fails to open it is marked unavailable and never retried
// (spec.md §4.2).
type MidiSink struct {
	name        string
	out         drivers.Out
	opened      bool
	unavailable bool
	logger      *slog.Logger
}

// NewMidiSink wraps an unopened drivers.Out.
func NewMidiSink(out drivers.Out, logger *slog.Logger) *MidiSink {
	return &MidiSink{name: out.String(), out: out, logger: logger}
}

// Open binds the underlying port. Idempotent; records the unavailable flag
// on first failure.
func (s *MidiSink) Open() bool {
	if s.opened || s.unavailable {
		return s.opened
	}
	if err := s.out.Open(); err != nil {
		s.unavailable = true
		s.logger.Warn("midisink: port open failed, device unavailable", "device", s.name, "err", err)
		return false
	}
	s.opened = true
	return true
}

// Unavailable reports whether a prior Open attempt failed.
func (s *MidiSink) Unavailable() bool { return s.unavailable }

// Send writes a single complete MIDI message. Blocking is acceptable
// (spec.md §4.2: typical latency <1ms).
func (s *MidiSink) Send(p pin.Payload) error {
	mb, ok := p.(pin.MidiBytes)
	if !ok {
		return fmt.Errorf("midisink: payload is not MidiBytes")
	}
	if !s.opened {
		return fmt.Errorf("midisink: port %q not open", s.name)
	}
	return s.out.Send(mb)
}

// Close is idempotent.
func (s *MidiSink) Close() error {
	if !s.opened {
		return nil
	}
	s.opened = false
	return s.out.Close()
}

func (s *MidiSink) String() string { return s.name }
