package timeline

import (
	"encoding/json"
	"math"

	"github.com/chase3718/jsontalkieplayer/midiproto"
	"github.com/chase3718/jsontalkieplayer/pin"
	"github.com/chase3718/jsontalkieplayer/sink"
)

// midiItem is the union of every shape a MIDI document's content element can
// take (spec.md §6): a leading clock descriptor, a device-selection switch,
// or a timestamped message.
type midiItem struct {
	Clock       *midiClockWire   `json:"clock,omitempty"`
	Devices     []string         `json:"devices,omitempty"`
	TimeMs      *float64         `json:"time_ms,omitempty"`
	MidiMessage *midiMessageWire `json:"midi_message,omitempty"`
}

type midiClockWire struct {
	TotalClockPulses            int      `json:"total_clock_pulses"`
	PulseDurationMinNumerator   float64  `json:"pulse_duration_min_numerator"`
	PulseDurationMinDenominator float64  `json:"pulse_duration_min_denominator"`
	ClockedDevices               []string `json:"clocked_devices"`
	ControlledDevices             []string `json:"controlled_devices"`
}

type midiMessageWire struct {
	StatusByte int   `json:"status_byte"`
	DataByte1  *int  `json:"data_byte_1,omitempty"`
	DataByte2  *int  `json:"data_byte_2,omitempty"`
	DataByte   *int  `json:"data_byte,omitempty"`
	DataBytes  []int `json:"data_bytes,omitempty"`
}

func (m midiMessageWire) toMessage() midiproto.Message {
	out := midiproto.Message{StatusByte: byte(m.StatusByte)}
	if m.DataByte1 != nil {
		out.DataByte1 = byte(*m.DataByte1)
	}
	if m.DataByte2 != nil {
		out.DataByte2 = byte(*m.DataByte2)
	}
	if m.DataByte != nil {
		out.DataByte = byte(*m.DataByte)
	}
	if len(m.DataBytes) > 0 {
		bs := make([]byte, len(m.DataBytes))
		for i, v := range m.DataBytes {
			bs[i] = byte(v)
		}
		out.DataBytes = bs
	}
	return out
}

// buildMidiDocument walks one MIDI document's content array in order,
// maintaining the "currently selected devices" set a {"devices": [...]}
// element switches, and the clocked/controlled device sets a leading
// {"clock": {...}} element establishes (spec.md §6).
func (b *Builder) buildMidiDocument(doc Document) ([]*pin.Pin, Stats) {
	var pins []*pin.Pin
	var stats Stats

	connected := make(map[string]*sink.MidiSink)
	unavailable := make(map[string]bool)
	var current []*sink.MidiSink

	resolve := func(name string) *sink.MidiSink {
		if s, ok := connected[name]; ok {
			return s
		}
		if unavailable[name] {
			return nil
		}
		for _, candidate := range b.fuzzyMatchMidi(name) {
			if candidate.Open() {
				connected[name] = candidate
				return candidate
			}
		}
		unavailable[name] = true
		b.logger.Warn("timeline: no MIDI output port matched device name", "device", name)
		return nil
	}

	for _, raw := range doc.Content {
		var item midiItem
		if err := json.Unmarshal(raw, &item); err != nil {
			stats.TotalGenerated++
			stats.TotalIncorrect++
			b.logger.Warn("timeline: malformed midi content item", "err", err)
			continue
		}

		switch {
		case item.Clock != nil:
			clockPins, clockStats := b.buildClock(*item.Clock, resolve)
			pins = append(pins, clockPins...)
			stats.TotalGenerated += clockStats.TotalGenerated
			stats.TotalValidated += clockStats.TotalValidated
			stats.TotalIncorrect += clockStats.TotalIncorrect

		case item.Devices != nil:
			current = current[:0]
			for _, name := range item.Devices {
				if s := resolve(name); s != nil {
					current = append(current, s)
				}
			}

		case item.TimeMs != nil && item.MidiMessage != nil:
			stats.TotalGenerated++
			encoded, priority, ok := midiproto.BuildAndPriority(item.MidiMessage.toMessage())
			if !ok {
				stats.TotalIncorrect++
				b.logger.Warn("timeline: invalid midi_message, dropping", "raw", string(raw))
				continue
			}
			if len(current) == 0 {
				stats.TotalIncorrect++
				b.logger.Warn("timeline: midi_message with no device currently selected")
				continue
			}
			stats.TotalValidated++
			for _, target := range current {
				pins = append(pins, pin.New(*item.TimeMs, priority, target, cloneMidiBytes(encoded)))
			}

		default:
			stats.TotalGenerated++
			stats.TotalIncorrect++
			b.logger.Warn("timeline: unrecognized midi content item", "raw", string(raw))
		}
	}

	return pins, stats
}

// buildClock emits the clocked devices' timing_clock pulse train plus an
// explicit clock_stop/song_position_pointer pair at the train's end time,
// and the controlled devices' MMC play/stop/rewind bracket, per spec.md
// §4.3.1/§6's clock descriptor. The normalizer (package normalize) still
// turns the first pulse of each sink's train into clock_start — only the
// leading edge, not the trailing one, is left to it.
func (b *Builder) buildClock(clock midiClockWire, resolve func(string) *sink.MidiSink) ([]*pin.Pin, Stats) {
	var pins []*pin.Pin
	var stats Stats

	if clock.TotalClockPulses <= 0 || clock.PulseDurationMinNumerator <= 0 || clock.PulseDurationMinDenominator <= 0 {
		stats.TotalGenerated++
		stats.TotalIncorrect++
		b.logger.Warn("timeline: clock descriptor has non-positive pulse count or duration, skipping")
		return pins, stats
	}

	// t_i = i * (num/den) minutes, in ms (original's get_time_ms: i*num*60000/den).
	minutesPerPulse := clock.PulseDurationMinNumerator / clock.PulseDurationMinDenominator
	pulseTimeMs := func(i int) float64 {
		return roundMs(float64(i) * minutesPerPulse * 60000.0)
	}
	endTimeMs := roundMs(float64(clock.TotalClockPulses) * minutesPerPulse * 60000.0)

	for _, name := range clock.ClockedDevices {
		target := resolve(name)
		if target == nil {
			continue
		}
		for i := 0; i < clock.TotalClockPulses; i++ {
			pins = append(pins, pin.New(pulseTimeMs(i), midiproto.PriorityClockPulse, target, pin.MidiBytes{midiproto.SystemTimingClock}))
			stats.TotalGenerated++
			stats.TotalValidated++
		}
		pins = append(pins,
			pin.New(endTimeMs, midiproto.PriorityClockEnd, target, pin.MidiBytes{midiproto.SystemClockStop}),
			pin.New(endTimeMs, midiproto.PriorityClockEnd, target, pin.MidiBytes{midiproto.SystemSongPointer, 0, 0}),
		)
		stats.TotalGenerated += 2
		stats.TotalValidated += 2
	}

	for _, name := range clock.ControlledDevices {
		target := resolve(name)
		if target == nil {
			continue
		}
		pins = append(pins,
			pin.New(0, midiproto.PriorityMMCPlay, target, cloneMidiBytes(midiproto.MMCPlay)),
			pin.New(endTimeMs, midiproto.PriorityMMCEnd, target, cloneMidiBytes(midiproto.MMCStop)),
			pin.New(endTimeMs, midiproto.PriorityMMCEnd, target, cloneMidiBytes(midiproto.MMCRewind)),
		)
		stats.TotalGenerated += 3
		stats.TotalValidated += 3
	}

	return pins, stats
}

// roundMs rounds a millisecond timestamp to 3 decimal places (microsecond
// resolution), matching the original's fixed-precision time_ms output.
func roundMs(ms float64) float64 {
	return math.Round(ms*1000) / 1000
}

func cloneMidiBytes(src []byte) pin.MidiBytes {
	out := make(pin.MidiBytes, len(src))
	copy(out, src)
	return out
}
