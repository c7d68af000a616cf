// Command jsontalkieplayer plays one or more JSON timeline documents
// (spec.md §6) to real MIDI output ports and/or talkie UDP devices,
// reproducing the original_source CLI: positional JSON file arguments,
// concatenated into one timeline, an optional start delay, and a verbose
// end-of-run report.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/chase3718/jsontalkieplayer/config"
	"github.com/chase3718/jsontalkieplayer/discovery"
	"github.com/chase3718/jsontalkieplayer/normalize"
	"github.com/chase3718/jsontalkieplayer/ordering"
	"github.com/chase3718/jsontalkieplayer/report"
	"github.com/chase3718/jsontalkieplayer/rtclock"
	"github.com/chase3718/jsontalkieplayer/schedule"
	"github.com/chase3718/jsontalkieplayer/sink"
	"github.com/chase3718/jsontalkieplayer/timeline"
)

// logger is the package-wide structured logger, configured by initLogger
// once flags are parsed. Safe to use beforehand; defaults to slog.Default().
var logger = slog.Default()

func initLogger(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:     level,
		AddSource: verbose,
	})
	logger = slog.New(h)
	slog.SetDefault(logger)
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("jsontalkieplayer", flag.ContinueOnError)
	delay := fs.Duration("delay", 0, "shift the whole timeline's start later by this amount")
	verbose := fs.Bool("verbose", false, "enable debug logging and the end-of-run report")
	showVersion := fs.Bool("version", false, "print the version and exit")
	mode := fs.String("mode", "auto", "midi, talkie, or auto; only logged: each document's pipeline is chosen from its url")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: jsontalkieplayer [flags] file.json [file2.json ...]\n")
		fs.PrintDefaults()
	}

	switch err := fs.Parse(args); {
	case err == flag.ErrHelp:
		return 2
	case err != nil:
		return 2
	}

	if *showVersion {
		fmt.Println(config.Version)
		return 0
	}

	files := fs.Args()
	if len(files) == 0 {
		fs.Usage()
		return 2
	}

	initLogger(*verbose)
	logger.Info("jsontalkieplayer starting", "files", files, "delay", *delay, "mode", *mode)

	docs, err := loadDocuments(files)
	if err != nil {
		logger.Error("no readable timeline files", "err", err)
		return 1
	}

	midiPorts, closeMidiDriver, err := openMidiPorts()
	if err != nil {
		logger.Warn("midi output enumeration failed, continuing without MIDI ports", "err", err)
	}
	if closeMidiDriver != nil {
		defer closeMidiDriver()
	}

	talkieSocket, err := sink.NewTalkieSocket(logger)
	if err != nil {
		logger.Warn("talkie socket unavailable, continuing without talkie playback", "err", err)
		talkieSocket = nil
	}
	if talkieSocket != nil {
		defer talkieSocket.Close()
	}

	builder := timeline.NewBuilder(logger, midiPorts, talkieSocket, config.TalkieLocalPort)
	pins, stats := builder.Build(docs)

	reporter := report.New()
	reporter.RecordGeneration(stats.TotalGenerated, stats.TotalValidated, stats.TotalIncorrect)

	if len(pins) == 0 {
		logger.Error("no playable content after parsing")
		return 1
	}

	ordering.Sort(pins)
	result := normalize.Normalize(pins)
	reporter.RecordRedundant(result.Redundant)

	rtclock.SetRealtime(logger)
	clock := rtclock.New(*delay)

	var idler schedule.Idler
	if talkieSocket != nil {
		idler = discovery.New(talkieSocket, logger)
	}

	scheduler := schedule.New(clock, reporter, idler, logger)

	start := time.Now()
	scheduler.Run(result.Worklist)
	duration := time.Since(start)

	for _, p := range midiPorts {
		_ = p.Close()
	}

	summary := reporter.Summary(duration)
	if *verbose {
		fmt.Print(summary.Report())
	} else {
		logger.Info("playback complete", "duration", duration.Round(time.Millisecond))
	}

	return 0
}

// loadDocuments reads every file, concatenating their top-level JSON arrays
// into one timeline (original_source main.cpp's multi-file behavior). A
// single unreadable or malformed file is logged and skipped; only a total
// loss of every file is fatal.
func loadDocuments(files []string) ([]timeline.Document, error) {
	var all []timeline.Document
	readable := 0

	for _, path := range files {
		raw, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("skipping unreadable timeline file", "file", path, "err", err)
			continue
		}
		docs, err := timeline.ParseDocuments(raw)
		if err != nil {
			logger.Warn("skipping malformed timeline file", "file", path, "err", err)
			continue
		}
		readable++
		all = append(all, docs...)
	}

	if readable == 0 {
		return nil, fmt.Errorf("none of %d file(s) could be read", len(files))
	}
	return all, nil
}

// openMidiPorts enumerates every available MIDI output port via rtmididrv,
// wrapping each as an unopened sink.MidiSink; actual Open() happens lazily
// per device name the first time a timeline document addresses it
// (spec.md §4.2). The returned close func releases the driver itself.
func openMidiPorts() ([]*sink.MidiSink, func(), error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, nil, fmt.Errorf("rtmididrv: %w", err)
	}
	outs, err := drv.Outs()
	if err != nil {
		drv.Close()
		return nil, nil, fmt.Errorf("list midi outputs: %w", err)
	}

	ports := make([]*sink.MidiSink, 0, len(outs))
	for _, out := range outs {
		ports = append(ports, sink.NewMidiSink(out, logger))
	}
	logger.Debug("midi outputs enumerated", "count", len(ports))

	return ports, func() { drv.Close() }, nil
}
