// Package report accumulates the generation and timing statistics spec.md
// §8 checks invariants against, and formats the verbose end-of-run summary
// original_source/main.cpp prints to stdout.
package report

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Reporter accumulates counters and delay samples as the pipeline runs. It
// is not safe for concurrent use — the engine is single-threaded
// (spec.md §5) apart from discovery polling, which reports nothing.
type Reporter struct {
	totalGenerated int
	totalValidated int
	totalIncorrect int
	totalRedundant int

	delayCount int
	delaySum   float64
	delaySumSq float64
	delayMin   float64
	delayMax   float64

	totalDragMs float64
}

// New returns an empty Reporter.
func New() *Reporter {
	return &Reporter{}
}

// RecordGeneration folds in one document's builder statistics
// (total_generated = total_validated + total_incorrect, prior to the
// normalizer's redundancy pass).
func (r *Reporter) RecordGeneration(generated, validated, incorrect int) {
	r.totalGenerated += generated
	r.totalValidated += validated
	r.totalIncorrect += incorrect
}

// RecordRedundant folds in the normalizer's redundant-pin count.
func (r *Reporter) RecordRedundant(n int) {
	r.totalRedundant += n
}

// TotalDragMs returns the drag accumulated so far (spec.md §4.7/§5): the
// running sum of how far dispatch has fallen behind beyond one pulse
// duration. The scheduler folds this back into each new deadline so a late
// pin shifts every pin after it rather than only itself.
func (r *Reporter) TotalDragMs() float64 {
	return r.totalDragMs
}

// RecordDispatch records one pin's measured delay (spec.md §4.7: the gap
// between its scheduled deadline and the moment it was actually sent) and
// accumulates drag for any delay beyond dragThresholdMs.
func (r *Reporter) RecordDispatch(delayMs, dragThresholdMs float64) {
	if r.delayCount == 0 {
		r.delayMin, r.delayMax = delayMs, delayMs
	} else {
		r.delayMin = math.Min(r.delayMin, delayMs)
		r.delayMax = math.Max(r.delayMax, delayMs)
	}
	r.delaySum += delayMs
	r.delaySumSq += delayMs * delayMs
	r.delayCount++

	if delayMs > dragThresholdMs {
		r.totalDragMs += delayMs - dragThresholdMs
	}
}

// Summary is the immutable snapshot handed to callers once playback ends.
type Summary struct {
	TotalGenerated int
	TotalValidated int
	TotalIncorrect int
	TotalRedundant int

	DelaySamples int
	DelayMinMs   float64
	DelayMaxMs   float64
	DelayMeanMs  float64
	DelayStdDevMs float64

	TotalDragMs float64
	Duration    time.Duration
}

// Summary computes the final snapshot. duration is the wall-clock span of
// the playback run (supplemental to spec.md, per original_source's closing
// duration announcement).
func (r *Reporter) Summary(duration time.Duration) Summary {
	s := Summary{
		TotalGenerated: r.totalGenerated,
		TotalValidated: r.totalValidated,
		TotalIncorrect: r.totalIncorrect,
		TotalRedundant: r.totalRedundant,
		DelaySamples:   r.delayCount,
		TotalDragMs:    r.totalDragMs,
		Duration:       duration,
	}
	if r.delayCount == 0 {
		return s
	}

	mean := r.delaySum / float64(r.delayCount)
	variance := r.delaySumSq/float64(r.delayCount) - mean*mean
	if variance < 0 {
		variance = 0
	}

	s.DelayMinMs = r.delayMin
	s.DelayMaxMs = r.delayMax
	s.DelayMeanMs = mean
	s.DelayStdDevMs = math.Sqrt(variance)
	return s
}

// Report renders the verbose text block original_source/main.cpp prints at
// the end of a run.
func (s Summary) Report() string {
	var b strings.Builder
	fmt.Fprintf(&b, "pins generated:  %d\n", s.TotalGenerated)
	fmt.Fprintf(&b, "pins validated:  %d\n", s.TotalValidated)
	fmt.Fprintf(&b, "pins incorrect:  %d\n", s.TotalIncorrect)
	fmt.Fprintf(&b, "pins redundant:  %d\n", s.TotalRedundant)
	fmt.Fprintf(&b, "pins played:     %d\n", s.TotalGenerated-s.TotalIncorrect-s.TotalRedundant)
	if s.DelaySamples > 0 {
		fmt.Fprintf(&b, "delay min/max/avg/stddev (ms): %.3f / %.3f / %.3f / %.3f\n",
			s.DelayMinMs, s.DelayMaxMs, s.DelayMeanMs, s.DelayStdDevMs)
	}
	fmt.Fprintf(&b, "total drag (ms): %.3f\n", s.TotalDragMs)
	fmt.Fprintf(&b, "duration: %s\n", s.Duration.Round(time.Millisecond))
	return b.String()
}
