// Package talkieproto implements the talkie wire protocol: the message code
// enum, the envelope fields the builder/discovery care about, and the
// self-referential checksum of spec.md §4.6.
package talkieproto

import (
	"encoding/json"
	"fmt"
)

// Priority is the tie-break priority every talkie pin sorts with. Unlike
// MIDI, talkie traffic has no equivalent of the channel-voice priority table
// (spec.md §4.3.1 is MIDI-only) — all talkie messages share one band: at
// equal time_ms they sort after bank-select, program-change, control-change
// and clock-family MIDI pins (0x0x-0x3x) and before note on/off and the
// classes after it (0x5x and up).
const Priority byte = 0x40

// MessageCode enumerates the "m" field of a talkie message.
type MessageCode int

const (
	Talk MessageCode = iota
	List
	Run
	Set
	Get
	Sys
	Echo
	Err
	Channel
)

// Envelope is the subset of a talkie message's JSON fields the engine reads
// or writes directly; "v" (value) has no field here, since its type varies
// with "m", and is ignored when decoding into an Envelope.
type Envelope struct {
	T json_T        `json:"t"`
	F string        `json:"f"`
	M  MessageCode  `json:"m"`
	N  string       `json:"n,omitempty"`
	I  uint32       `json:"i"`
	C  uint16       `json:"c"`
}

// json_T models the polymorphic "t" (target) field: a device name (string)
// or a channel number.
type json_T struct {
	Name   string
	Number float64
	IsName bool
}

// UnmarshalJSON accepts either a JSON string (device name) or a JSON number
// (channel) for the "t" field.
func (t *json_T) UnmarshalJSON(data []byte) error {
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		t.Name, t.IsName = asString, true
		return nil
	}
	var asNumber float64
	if err := json.Unmarshal(data, &asNumber); err == nil {
		t.Number, t.IsName = asNumber, false
		return nil
	}
	return fmt.Errorf("talkieproto: \"t\" is neither a string nor a number: %s", data)
}

// MarshalJSON emits the string or number form depending on IsName.
func (t json_T) MarshalJSON() ([]byte, error) {
	if t.IsName {
		return json.Marshal(t.Name)
	}
	return json.Marshal(t.Number)
}

// Checksum computes the 16-bit XOR fold over the pre-processed bytes of a
// JSON-serialized talkie message (spec.md §4.6).
//
// Pre-processing walks the bytes looking for the literal sequence `"c":`
// followed by a run of ASCII decimal digits (the checksum field's own
// serialized value). That run is canonicalized to a single '0' byte so the
// computed checksum is stable regardless of what value was embedded when
// the message was serialized — the field is defined in terms of itself.
func Checksum(jsonText []byte) uint16 {
	canon := canonicalizeChecksumField(jsonText)

	var acc uint16
	for i := 0; i < len(canon); i += 2 {
		hi := uint16(canon[i]) << 8
		var lo uint16
		if i+1 < len(canon) {
			lo = uint16(canon[i+1])
		}
		acc ^= hi | lo
	}
	return acc
}

// canonicalizeChecksumField returns a copy of src with the digit run that
// immediately follows the literal bytes `"`,`c`,`"`,`:` collapsed to a
// single '0' byte. Matches the original preprocessor's four-bytes-back
// trigger; assumes compact (whitespace-free) JSON, per spec.md §9's open
// question.
func canonicalizeChecksumField(src []byte) []byte {
	out := make([]byte, 0, len(src))
	trigger := []byte(`"c":`)

	i := 0
	for i < len(src) {
		if i+len(trigger) <= len(src) && string(src[i:i+len(trigger)]) == string(trigger) {
			out = append(out, src[i:i+len(trigger)]...)
			i += len(trigger)

			if i < len(src) && isASCIIDigit(src[i]) {
				out = append(out, '0')
				i++
				for i < len(src) && isASCIIDigit(src[i]) {
					i++
				}
			}
			continue
		}
		out = append(out, src[i])
		i++
	}
	return out
}

func isASCIIDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
