package sink

import (
	"io"
	"log/slog"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRegisterAndLookup(t *testing.T) {
	socket, err := NewTalkieSocket(testLogger())
	if err != nil {
		t.Skipf("UDP socket unavailable in this environment: %v", err)
	}
	defer socket.Close()

	s := NewTalkieSink("box1", 5006, socket)

	got, ok := socket.SinkByName("box1")
	if !ok || got != s {
		t.Fatalf("SinkByName(box1) = %v, %v, want the registered sink", got, ok)
	}
	if socket.TotalKnownSinks() != 1 {
		t.Errorf("TotalKnownSinks() = %d, want 1", socket.TotalKnownSinks())
	}
}

func TestMarkResolvedIncrementsCounter(t *testing.T) {
	socket, err := NewTalkieSocket(testLogger())
	if err != nil {
		t.Skipf("UDP socket unavailable in this environment: %v", err)
	}
	defer socket.Close()

	if socket.ResolvedAddresses() != 0 {
		t.Fatalf("ResolvedAddresses() = %d before any resolution, want 0", socket.ResolvedAddresses())
	}
	socket.MarkResolved()
	if socket.ResolvedAddresses() != 1 {
		t.Errorf("ResolvedAddresses() = %d, want 1", socket.ResolvedAddresses())
	}
}

func TestPollReceiveReturnsEmptyWhenIdle(t *testing.T) {
	socket, err := NewTalkieSocket(testLogger())
	if err != nil {
		t.Skipf("UDP socket unavailable in this environment: %v", err)
	}
	defer socket.Close()

	got := socket.PollReceive()
	if len(got) != 0 {
		t.Errorf("PollReceive() = %v, want empty with no traffic pending", got)
	}
}
