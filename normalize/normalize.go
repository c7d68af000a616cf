// Package normalize implements the MIDI redundancy-elimination pass
// (spec.md §4.5): a single forward pass over the sorted worklist that
// rewrites clock-family state transitions, pairs note-on/note-off through a
// reference-counted stack, and drops no-op controller/pitch/pressure
// updates.
//
// The worklist is a container/list.List so the normalizer can hold raw
// back-references (*list.Element) into pins that remain in it — insertion
// and erasure at arbitrary positions must not invalidate those references,
// which a contiguous slice cannot guarantee under erase-by-swap or
// move-on-grow (spec.md §9).
package normalize

import (
	"container/list"

	"github.com/chase3718/jsontalkieplayer/midiproto"
	"github.com/chase3718/jsontalkieplayer/pin"
)

// Result carries the normalized worklist plus the counters §8's
// total_generated = total_validated + total_incorrect + total_redundant
// invariant is checked against.
type Result struct {
	Worklist  *list.List
	Redundant int
}

// sinkState is the per-sink tracking block described in spec.md §4.5.
type sinkState struct {
	lastClock        *list.Element
	lastSongPointer  *list.Element
	noteOnStacks     map[byte][]*list.Element // channel -> stack of note-on elements
	lastByte16       map[uint16]*pin.Pin       // status<<8|data1 -> dummy copy
	lastByte8        map[byte]*pin.Pin         // status -> dummy copy
}

func newSinkState() *sinkState {
	return &sinkState{
		noteOnStacks: make(map[byte][]*list.Element),
		lastByte16:   make(map[uint16]*pin.Pin),
		lastByte8:    make(map[byte]*pin.Pin),
	}
}

// Normalize runs the redundancy-elimination pass over an already-sorted
// slice of pins, returning the surviving worklist as a doubly-linked list.
func Normalize(sorted []*pin.Pin) Result {
	wl := list.New()
	for _, p := range sorted {
		wl.PushBack(p)
	}

	states := make(map[pin.Sink]*sinkState)
	stateFor := func(s pin.Sink) *sinkState {
		st, ok := states[s]
		if !ok {
			st = newSinkState()
			states[s] = st
		}
		return st
	}

	redundant := 0

	var lastOverallTimeMs float64
	if wl.Back() != nil {
		lastOverallTimeMs = wl.Back().Value.(*pin.Pin).TimeMs
	}

	el := wl.Front()
	for el != nil {
		p := el.Value.(*pin.Pin)

		// Only MIDI-payload pins participate in redundancy elimination;
		// talkie pins pass through untouched.
		if _, ok := p.MidiPayload(); !ok {
			el = el.Next()
			continue
		}

		st := stateFor(p.Target)
		next := el.Next()

		switch p.Action() {
		case midiproto.ActionSystem:
			next = normalizeSystem(wl, el, p, st, &redundant)
		case midiproto.ActionNoteOff:
			next = normalizeNoteOff(wl, el, p, st, &redundant)
		case midiproto.ActionNoteOn:
			next = normalizeNoteOn(wl, el, p, st)
		case midiproto.ActionControlChange, midiproto.ActionKeyPressure:
			next = normalizeByte16(wl, el, p, st, &redundant)
		case midiproto.ActionPitchBend:
			next = normalizeByte8(wl, el, p, st, &redundant, 2)
		case midiproto.ActionChannelPressure:
			next = normalizeByte8(wl, el, p, st, &redundant, 1)
		default:
			// Program change and anything else: never redundant.
		}

		el = next
	}

	finalizeSinks(wl, states, lastOverallTimeMs)

	return Result{Worklist: wl, Redundant: redundant}
}

// normalizeSystem implements the clock-family FSM and the song-position
// dedup, both keyed on p.StatusByte().
func normalizeSystem(wl *list.List, el *list.Element, p *pin.Pin, st *sinkState, redundant *int) *list.Element {
	switch p.StatusByte() {
	case midiproto.SystemTimingClock:
		return clockIncoming(wl, el, p, st, redundant, midiproto.SystemTimingClock)
	case midiproto.SystemClockStart:
		return clockIncoming(wl, el, p, st, redundant, midiproto.SystemClockStart)
	case midiproto.SystemClockStop:
		return clockStop(wl, el, p, st, redundant)
	case midiproto.SystemClockContinue:
		return clockContinue(wl, el, p, st, redundant)
	case midiproto.SystemSongPointer:
		return songPointer(wl, el, p, st, redundant)
	default:
		return el.Next()
	}
}

// clockIncoming handles an incoming timing_clock or clock_start pin.
func clockIncoming(wl *list.List, el *list.Element, p *pin.Pin, st *sinkState, redundant *int, incomingStatus byte) *list.Element {
	if st.lastClock != nil {
		last := st.lastClock.Value.(*pin.Pin)
		if last.TimeMs == p.TimeMs {
			if last.StatusByte() == midiproto.SystemClockStop {
				last.SetStatusByte(midiproto.SystemTimingClock)
			}
			*redundant++
			next := el.Next()
			wl.Remove(el)
			return next
		}
		if last.StatusByte() == midiproto.SystemClockStop {
			p.SetStatusByte(midiproto.SystemClockContinue)
		} else if incomingStatus == midiproto.SystemClockStart {
			p.SetStatusByte(midiproto.SystemTimingClock)
		}
	} else {
		p.SetStatusByte(midiproto.SystemClockStart)
	}
	st.lastClock = el
	return el.Next()
}

func clockStop(wl *list.List, el *list.Element, p *pin.Pin, st *sinkState, redundant *int) *list.Element {
	if st.lastClock != nil {
		last := st.lastClock.Value.(*pin.Pin)
		if last.TimeMs == p.TimeMs {
			last.SetStatusByte(midiproto.SystemClockStop)
			*redundant++
			next := el.Next()
			wl.Remove(el)
			return next
		}
		if last.StatusByte() == midiproto.SystemClockStop {
			*redundant++
			next := el.Next()
			wl.Remove(el)
			return next
		}
	}
	st.lastClock = el
	return el.Next()
}

func clockContinue(wl *list.List, el *list.Element, p *pin.Pin, st *sinkState, redundant *int) *list.Element {
	if st.lastClock != nil {
		last := st.lastClock.Value.(*pin.Pin)
		if last.TimeMs == p.TimeMs {
			last.SetStatusByte(midiproto.SystemTimingClock)
			*redundant++
			next := el.Next()
			wl.Remove(el)
			return next
		}
		switch last.StatusByte() {
		case midiproto.SystemClockStart, midiproto.SystemClockContinue:
			p.SetStatusByte(midiproto.SystemTimingClock)
		default:
			last.SetStatusByte(midiproto.SystemClockStop)
		}
	} else {
		p.SetStatusByte(midiproto.SystemClockStart)
	}
	st.lastClock = el
	return el.Next()
}

func songPointer(wl *list.List, el *list.Element, p *pin.Pin, st *sinkState, redundant *int) *list.Element {
	if st.lastSongPointer != nil {
		last := st.lastSongPointer.Value.(*pin.Pin)
		if last.TimeMs == p.TimeMs &&
			last.StatusByte() == midiproto.SystemSongPointer &&
			last.DataByte(1) == p.DataByte(1) &&
			last.DataByte(2) == p.DataByte(2) {
			*redundant++
			next := el.Next()
			wl.Remove(el)
			return next
		}
	}
	st.lastSongPointer = el
	return el.Next()
}

// normalizeNoteOff pairs a note-off against the channel's note-on stack.
func normalizeNoteOff(wl *list.List, el *list.Element, p *pin.Pin, st *sinkState, redundant *int) *list.Element {
	ch := p.Channel()
	stack := st.noteOnStacks[ch]

	for i, noteOnEl := range stack {
		noteOn := noteOnEl.Value.(*pin.Pin)
		if noteOn.SameKey(p) {
			if noteOn.Level == 1 {
				st.noteOnStacks[ch] = append(stack[:i:i], stack[i+1:]...)
				return el.Next()
			}
			noteOn.Level--
			*redundant++
			next := el.Next()
			wl.Remove(el)
			return next
		}
	}

	// Orphan note-off: drop.
	*redundant++
	next := el.Next()
	wl.Remove(el)
	return next
}

// normalizeNoteOn pairs/stacks a note-on against the channel's stack. It
// never counts as redundant even when stacked: stacked note-ons stay in the
// output (paired with an inserted synthetic note-off), and total_redundant
// is only incremented for note-offs that normalizeNoteOff drops.
func normalizeNoteOn(wl *list.List, el *list.Element, p *pin.Pin, st *sinkState) *list.Element {
	ch := p.Channel()
	stack := st.noteOnStacks[ch]

	for _, noteOnEl := range stack {
		noteOn := noteOnEl.Value.(*pin.Pin)
		if noteOn.SameKey(p) {
			noteOn.Level++

			synthetic := pin.New(p.TimeMs, p.Priority, p.Target, pin.MidiBytes{
				midiproto.ActionNoteOff | p.Channel(),
				p.DataByte(1),
				0,
			})
			wl.InsertBefore(synthetic, el)
			return el.Next()
		}
	}

	st.noteOnStacks[ch] = append(stack, el)
	return el.Next()
}

// normalizeByte16 implements the control-change / key-pressure dedup, keyed
// by status<<8|data1, comparing on data byte 2.
func normalizeByte16(wl *list.List, el *list.Element, p *pin.Pin, st *sinkState, redundant *int) *list.Element {
	key := uint16(p.StatusByte())<<8 | uint16(p.DataByte(1))
	if last, ok := st.lastByte16[key]; ok {
		if last.DataByte(2) != p.DataByte(2) {
			last.SetDataByte(2, p.DataByte(2))
			return el.Next()
		}
		*redundant++
		next := el.Next()
		wl.Remove(el)
		return next
	}
	st.lastByte16[key] = copyPin(p)
	return el.Next()
}

// normalizeByte8 implements the pitch-bend (compareBytes=2) and
// channel-pressure (compareBytes=1) dedup, both keyed by status byte alone.
func normalizeByte8(wl *list.List, el *list.Element, p *pin.Pin, st *sinkState, redundant *int, compareBytes int) *list.Element {
	key := p.StatusByte()
	if last, ok := st.lastByte8[key]; ok {
		changed := last.DataByte(1) != p.DataByte(1)
		if compareBytes >= 2 {
			changed = changed || last.DataByte(2) != p.DataByte(2)
		}
		if changed {
			last.SetDataByte(1, p.DataByte(1))
			if compareBytes >= 2 {
				last.SetDataByte(2, p.DataByte(2))
			}
			return el.Next()
		}
		*redundant++
		next := el.Next()
		wl.Remove(el)
		return next
	}
	st.lastByte8[key] = copyPin(p)
	return el.Next()
}

// copyPin returns a value copy of a pin's payload for use as a dummy
// tracking entry — it must not alias the original's backing array, since
// later updates (SetDataByte) on the dummy must not mutate the live pin
// still in the worklist.
func copyPin(p *pin.Pin) *pin.Pin {
	mb, _ := p.MidiPayload()
	cloned := make(pin.MidiBytes, len(mb))
	copy(cloned, mb)
	return &pin.Pin{
		TimeMs:   p.TimeMs,
		Priority: p.Priority,
		Target:   p.Target,
		Payload:  cloned,
		DelayMs:  -1,
		Level:    p.Level,
	}
}

// finalizeSinks emits a terminal note-off for every still-active stack
// entry, at lastOverallTimeMs (the time of the last pin of the sorted input,
// read before the pass), and
// rewrites any sink left in the timing_clock state to clock_stop.
func finalizeSinks(wl *list.List, states map[pin.Sink]*sinkState, lastOverallTimeMs float64) {
	for target, st := range states {
		for ch, stack := range st.noteOnStacks {
			for _, noteOnEl := range stack {
				noteOn := noteOnEl.Value.(*pin.Pin)
				off := pin.New(lastOverallTimeMs, noteOn.Priority, target, pin.MidiBytes{
					midiproto.ActionNoteOff | ch,
					noteOn.DataByte(1),
					noteOn.DataByte(2),
				})
				wl.PushBack(off)
			}
		}
		if st.lastClock != nil {
			last := st.lastClock.Value.(*pin.Pin)
			if last.StatusByte() == midiproto.SystemTimingClock {
				last.SetStatusByte(midiproto.SystemClockStop)
			}
		}
	}
}
