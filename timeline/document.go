// Package timeline parses the JSON timeline documents (spec.md §6) into a
// flat sequence of *pin.Pin, resolving device names to sinks along the way.
// It deliberately does not create the concrete MIDI driver or UDP socket —
// those are constructed by cmd/jsontalkieplayer and handed in, keeping the
// "concrete MIDI output driver" and "raw socket creation primitives" out of
// the core (spec.md §1).
package timeline

import (
	"encoding/json"
	"fmt"

	"github.com/chase3718/jsontalkieplayer/config"
)

// Document is one element of the top-level input array (spec.md §6's file
// envelope): `{ "filetype", "url", "content" }`.
type Document struct {
	FileType string            `json:"filetype"`
	URL      string            `json:"url"`
	Content  []json.RawMessage `json:"content"`
}

// ParseDocuments decodes the top-level JSON array of file documents.
func ParseDocuments(raw []byte) ([]Document, error) {
	var docs []Document
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, fmt.Errorf("timeline: parse documents: %w", err)
	}
	return docs, nil
}

// Kind classifies a document by its URL, per spec.md §6. Documents whose
// filetype/url don't match any known variant are skipped by the caller with
// a warning (spec.md §7 "Parse error").
type Kind int

const (
	KindUnknown Kind = iota
	KindMidi
	KindTalkie
)

// ClassifyDocument returns the document's Kind based on its filetype/url,
// or KindUnknown if neither matches.
func ClassifyDocument(d Document) Kind {
	if d.FileType != config.FileType {
		return KindUnknown
	}
	switch d.URL {
	case config.FileURLMidi:
		return KindMidi
	case config.FileURLTalkie:
		return KindTalkie
	default:
		return KindUnknown
	}
}
