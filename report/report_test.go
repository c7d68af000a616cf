package report

import (
	"testing"
	"time"
)

func TestSummaryAggregatesGeneration(t *testing.T) {
	r := New()
	r.RecordGeneration(10, 8, 2)
	r.RecordGeneration(5, 5, 0)
	r.RecordRedundant(3)

	s := r.Summary(0)
	if s.TotalGenerated != 15 || s.TotalValidated != 13 || s.TotalIncorrect != 2 || s.TotalRedundant != 3 {
		t.Errorf("Summary = %+v", s)
	}
}

func TestSummaryDelayStatistics(t *testing.T) {
	r := New()
	for _, d := range []float64{1, 2, 3, 4} {
		r.RecordDispatch(d, 1000)
	}

	s := r.Summary(0)
	if s.DelayMinMs != 1 || s.DelayMaxMs != 4 {
		t.Errorf("min/max = %v/%v, want 1/4", s.DelayMinMs, s.DelayMaxMs)
	}
	if s.DelayMeanMs != 2.5 {
		t.Errorf("mean = %v, want 2.5", s.DelayMeanMs)
	}
	if s.DelayStdDevMs <= 0 {
		t.Errorf("stddev = %v, want > 0", s.DelayStdDevMs)
	}
}

func TestSummaryWithNoSamples(t *testing.T) {
	r := New()
	s := r.Summary(time.Second)
	if s.DelaySamples != 0 {
		t.Errorf("DelaySamples = %d, want 0", s.DelaySamples)
	}
	if s.DelayStdDevMs != 0 {
		t.Errorf("DelayStdDevMs = %v, want 0 with no samples", s.DelayStdDevMs)
	}
}

func TestRecordDispatchAccumulatesDrag(t *testing.T) {
	r := New()
	r.RecordDispatch(5, 10)  // under threshold: no drag
	r.RecordDispatch(15, 10) // 5ms over threshold

	s := r.Summary(0)
	if s.TotalDragMs != 5 {
		t.Errorf("TotalDragMs = %v, want 5", s.TotalDragMs)
	}
}

func TestReportIncludesCounters(t *testing.T) {
	r := New()
	r.RecordGeneration(4, 3, 1)
	r.RecordRedundant(1)
	r.RecordDispatch(2, 100)

	text := r.Summary(2 * time.Second).Report()
	if text == "" {
		t.Fatal("Report() returned empty string")
	}
}
