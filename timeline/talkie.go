package timeline

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/chase3718/jsontalkieplayer/pin"
	"github.com/chase3718/jsontalkieplayer/sink"
	"github.com/chase3718/jsontalkieplayer/talkieproto"
)

// talkieItem is the union of a talkie document's content element shapes
// (spec.md §6): a tempo declaration, captured once, or a timestamped message
// addressed to a symbolic device name or channel number.
type talkieItem struct {
	Tempo   *tempoWire                 `json:"tempo,omitempty"`
	Port    *int                       `json:"port,omitempty"`
	TimeMs  *float64                   `json:"time_ms,omitempty"`
	DelayMs *float64                   `json:"delay_ms,omitempty"`
	Message map[string]json.RawMessage `json:"message,omitempty"`
}

type tempoWire struct {
	BpmNumerator   float64 `json:"bpm_numerator"`
	BpmDenominator float64 `json:"bpm_denominator"`
}

// buildTalkieDocument walks one talkie document's content array, tracking
// the first tempo declaration seen and a per-document registry of
// TalkieSinks keyed by symbolic device name (or a synthesized key for
// channel-addressed messages), per spec.md §6.
func (b *Builder) buildTalkieDocument(doc Document) ([]*pin.Pin, Stats) {
	var pins []*pin.Pin
	var stats Stats

	if b.talkieSocket == nil {
		b.logger.Warn("timeline: talkie document present but no UDP socket configured, skipping")
		return pins, stats
	}

	var tempo *tempoWire
	sinksByKey := make(map[string]*sink.TalkieSink)

	for _, raw := range doc.Content {
		var item talkieItem
		if err := json.Unmarshal(raw, &item); err != nil {
			stats.TotalGenerated++
			stats.TotalIncorrect++
			b.logger.Warn("timeline: malformed talkie content item", "err", err)
			continue
		}

		if item.Tempo != nil {
			if tempo == nil {
				tempo = item.Tempo
			}
			continue
		}

		if item.TimeMs == nil || item.Message == nil {
			stats.TotalGenerated++
			stats.TotalIncorrect++
			b.logger.Warn("timeline: unrecognized talkie content item", "raw", string(raw))
			continue
		}

		stats.TotalGenerated++

		port := b.talkiePort
		if item.Port != nil {
			port = *item.Port
		}

		rawTarget, hasTarget := item.Message["t"]
		if !hasTarget {
			stats.TotalIncorrect++
			b.logger.Warn("timeline: talkie message missing target field \"t\"")
			continue
		}
		name, channel, isName, ok := decodeTalkieTarget(rawTarget)
		if !ok {
			stats.TotalIncorrect++
			b.logger.Warn("timeline: talkie message \"t\" is neither a device name nor a channel number")
			continue
		}
		key := name
		if !isName {
			key = channelDeviceKey(channel)
		}

		target, known := sinksByKey[key]
		if !known {
			target = sink.NewTalkieSink(key, port, b.talkieSocket)
			sinksByKey[key] = target

			// A newly addressed named device hasn't yet received the
			// session tempo; push it as the first two messages the device
			// sees, ahead of whatever traffic just created it.
			if isName && tempo != nil {
				if setPin, err := buildTempoSetPin(target, port, "bpm_n", tempo.BpmNumerator); err == nil {
					pins = append(pins, setPin)
					stats.TotalGenerated++
					stats.TotalValidated++
				}
				if setPin, err := buildTempoSetPin(target, port, "bpm_d", tempo.BpmDenominator); err == nil {
					pins = append(pins, setPin)
					stats.TotalGenerated++
					stats.TotalValidated++
				}
			}
		}

		delayMs := 0.0
		if item.DelayMs != nil {
			delayMs = *item.DelayMs
		}
		i := uint32(math.Floor(*item.TimeMs + delayMs))

		fields, err := talkieFieldsFromRaw(item.Message)
		if err != nil {
			stats.TotalIncorrect++
			b.logger.Warn("timeline: decoding talkie message fields", "err", err)
			continue
		}

		text, err := encodeTalkieEnvelope(fields, i)
		if err != nil {
			stats.TotalIncorrect++
			b.logger.Warn("timeline: encoding talkie message", "err", err)
			continue
		}

		stats.TotalValidated++
		pins = append(pins, pin.New(*item.TimeMs, talkieproto.Priority, target, pin.TalkieString(text)))
	}

	return pins, stats
}

// decodeTalkieTarget mirrors talkieproto.json_T's string-or-number decoding
// for the "t" field, without depending on that unexported type.
func decodeTalkieTarget(raw json.RawMessage) (name string, channel int, isName bool, ok bool) {
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return asString, 0, true, true
	}
	var asNumber float64
	if err := json.Unmarshal(raw, &asNumber); err == nil {
		return "", int(asNumber), false, true
	}
	return "", 0, false, false
}

func channelDeviceKey(channel int) string {
	return fmt.Sprintf("channel-%d", channel)
}

// buildTempoSetPin constructs a single {"m": Set, "n": name, "v": value}
// message addressed to target, timestamped at 0 so it is the first traffic
// the new device sees, ahead of the message that triggered its creation.
func buildTempoSetPin(target *sink.TalkieSink, port int, paramName string, value float64) (*pin.Pin, error) {
	fields := map[string]interface{}{
		"t": target.String(),
		"m": int(talkieproto.Set),
		"n": paramName,
		"v": value,
	}
	text, err := encodeTalkieEnvelope(fields, 0)
	if err != nil {
		return nil, err
	}
	return pin.New(0, talkieproto.Priority, target, pin.TalkieString(text)), nil
}

func talkieFieldsFromRaw(raw map[string]json.RawMessage) (map[string]interface{}, error) {
	fields := make(map[string]interface{}, len(raw))
	for k, v := range raw {
		var val interface{}
		if err := json.Unmarshal(v, &val); err != nil {
			return nil, fmt.Errorf("talkie field %q: %w", k, err)
		}
		fields[k] = val
	}
	return fields, nil
}

// encodeTalkieEnvelope sets "i" and computes "c" per spec.md §4.6: marshal
// once with "c" zeroed to get the bytes the checksum folds over, then
// marshal again with the real value.
func encodeTalkieEnvelope(fields map[string]interface{}, i uint32) (string, error) {
	fields["i"] = i
	fields["c"] = 0
	draft, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("marshal draft: %w", err)
	}
	fields["c"] = talkieproto.Checksum(draft)
	final, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("marshal final: %w", err)
	}
	return string(final), nil
}
