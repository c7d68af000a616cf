package timeline

import (
	"log/slog"
	"strings"

	"github.com/chase3718/jsontalkieplayer/pin"
	"github.com/chase3718/jsontalkieplayer/sink"
)

// Stats accumulates the generation counters spec.md §8 checks:
// total_generated = total_validated + total_incorrect + total_redundant
// (total_redundant is added later, by the normalizer).
type Stats struct {
	TotalGenerated int
	TotalValidated int
	TotalIncorrect int
}

// Builder turns parsed documents into pins, resolving device names against
// the MIDI ports and talkie socket handed to it.
type Builder struct {
	logger *slog.Logger

	midiPorts    []*sink.MidiSink
	talkieSocket *sink.TalkieSocket
	talkiePort   int
}

// NewBuilder constructs a Builder. midiPorts are unopened candidate output
// ports (main.go enumerates these via the concrete driver); talkieSocket may
// be nil if no talkie document will be processed; talkiePort is the default
// UDP port used when a talkie message doesn't specify one.
func NewBuilder(logger *slog.Logger, midiPorts []*sink.MidiSink, talkieSocket *sink.TalkieSocket, talkiePort int) *Builder {
	return &Builder{logger: logger, midiPorts: midiPorts, talkieSocket: talkieSocket, talkiePort: talkiePort}
}

// Build processes every document, returning the flat (unsorted) pin list
// and the generation statistics.
func (b *Builder) Build(docs []Document) ([]*pin.Pin, Stats) {
	var pins []*pin.Pin
	var stats Stats

	for _, doc := range docs {
		switch ClassifyDocument(doc) {
		case KindMidi:
			docPins, docStats := b.buildMidiDocument(doc)
			pins = append(pins, docPins...)
			stats.TotalGenerated += docStats.TotalGenerated
			stats.TotalValidated += docStats.TotalValidated
			stats.TotalIncorrect += docStats.TotalIncorrect
		case KindTalkie:
			docPins, docStats := b.buildTalkieDocument(doc)
			pins = append(pins, docPins...)
			stats.TotalGenerated += docStats.TotalGenerated
			stats.TotalValidated += docStats.TotalValidated
			stats.TotalIncorrect += docStats.TotalIncorrect
		default:
			b.logger.Warn("timeline: skipping document with unrecognized filetype/url", "filetype", doc.FileType, "url", doc.URL)
		}
	}

	return pins, stats
}

// fuzzyMatchMidi returns every candidate port, opened or not, whose name contains
// nameSubstring (case-sensitive substring, matching the original's
// std::string::find semantics).
func (b *Builder) fuzzyMatchMidi(nameSubstring string) []*sink.MidiSink {
	var out []*sink.MidiSink
	for _, p := range b.midiPorts {
		if strings.Contains(p.String(), nameSubstring) {
			out = append(out, p)
		}
	}
	return out
}
