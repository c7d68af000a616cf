// Package config centralizes the tunables and compile-time constants shared
// across the timeline engine: file-format markers, the talkie wire port, and
// the scheduler's drag threshold.
package config

import "time"

// FileType is the only accepted value of a timeline document's "filetype" key.
const FileType = "Json Midi Player"

// FileURLMidi and FileURLTalkie are the accepted "url" values for the MIDI and
// talkie content variants respectively (spec.md §6).
const (
	FileURLMidi   = "https://github.com/ruiseixasm/JsonMidiPlayer"
	FileURLTalkie = "https://github.com/ruiseixasm/JsonTalkiePlayer"
)

// Version is the reported player version for --version.
const Version = "1.0.0"

// DragDurationMs is the duration of a single MIDI clock pulse at 120 BPM,
// 24 PPQN: 1000 / ((120/60) * 24) ms. Delay beyond this, per emitted pin,
// accumulates into scheduler drag (spec.md §4.7, §4.9).
const DragDurationMs = 1000.0 / ((120.0 / 60.0) * 24.0)

// TalkieLocalPort is the well-known local UDP port a TalkieSocket binds to,
// and the port replies are expected on during address discovery.
const TalkieLocalPort = 5005

// TalkieBroadcastAddr is used when a talkie sink has no resolved target IP.
const TalkieBroadcastAddr = "255.255.255.255"

// Flags holds the CLI-derived configuration passed down to the engine.
type Flags struct {
	// Delay shifts the entire timeline's start later by this amount —
	// useful for giving playback hardware time to settle (original_source
	// main.cpp's -d/--delay).
	Delay time.Duration
	// Verbose enables Info/Debug-level logging of engine internals.
	Verbose bool
	// Mode holds the --mode value ("midi", "talkie" or "auto"). The builder
	// does not read it: each document is classified by its "url".
	Mode string
}
