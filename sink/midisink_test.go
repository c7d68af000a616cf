package sink

import (
	"errors"
	"testing"

	"github.com/chase3718/jsontalkieplayer/pin"
)

// fakeOut is a minimal drivers.Out double: Number/String/IsOpen/Underlying/Close/Open/Send,
// the method set every pack repo exercises against a real port.
type fakeOut struct {
	name      string
	openErr   error
	sendErr   error
	isOpen    bool
	sent      [][]byte
	closeHits int
}

func (f *fakeOut) Number() int             { return 0 }
func (f *fakeOut) String() string          { return f.name }
func (f *fakeOut) IsOpen() bool            { return f.isOpen }
func (f *fakeOut) Underlying() interface{} { return f }

func (f *fakeOut) Open() error {
	if f.openErr != nil {
		return f.openErr
	}
	f.isOpen = true
	return nil
}

func (f *fakeOut) Close() error {
	f.closeHits++
	f.isOpen = false
	return nil
}

func (f *fakeOut) Send(msg []byte) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, msg)
	return nil
}

func TestMidiSinkOpenSucceeds(t *testing.T) {
	out := &fakeOut{name: "synth-1"}
	s := NewMidiSink(out, testLogger())

	if !s.Open() {
		t.Fatal("Open() = false, want true")
	}
	if s.Unavailable() {
		t.Error("Unavailable() = true after a successful open")
	}
	if s.String() != "synth-1" {
		t.Errorf("String() = %q, want synth-1", s.String())
	}
}

func TestMidiSinkOpenFailureIsSticky(t *testing.T) {
	out := &fakeOut{name: "ghost", openErr: errors.New("no such device")}
	s := NewMidiSink(out, testLogger())

	if s.Open() {
		t.Fatal("Open() = true, want false on a failing port")
	}
	if !s.Unavailable() {
		t.Fatal("Unavailable() = false after a failed open")
	}

	out.openErr = nil // a retry would now succeed, but must never be attempted
	if s.Open() {
		t.Error("Open() retried after being marked unavailable")
	}
}

func TestMidiSinkSendRejectsNonMidiPayload(t *testing.T) {
	out := &fakeOut{name: "synth-1"}
	s := NewMidiSink(out, testLogger())
	s.Open()

	if err := s.Send(pin.TalkieString(`{"f":"box1"}`)); err == nil {
		t.Error("Send(TalkieString) err = nil, want error")
	}
}

func TestMidiSinkSendRequiresOpenPort(t *testing.T) {
	out := &fakeOut{name: "synth-1"}
	s := NewMidiSink(out, testLogger())

	if err := s.Send(pin.MidiBytes{0x90, 60, 100}); err == nil {
		t.Error("Send() on unopened port err = nil, want error")
	}
}

func TestMidiSinkSendWritesThroughToPort(t *testing.T) {
	out := &fakeOut{name: "synth-1"}
	s := NewMidiSink(out, testLogger())
	s.Open()

	if err := s.Send(pin.MidiBytes{0x90, 60, 100}); err != nil {
		t.Fatalf("Send() err = %v", err)
	}
	if len(out.sent) != 1 || string(out.sent[0]) != "\x90\x3c\x64" {
		t.Errorf("port received %v, want one [0x90 0x3c 0x64] message", out.sent)
	}
}

func TestMidiSinkCloseIsIdempotent(t *testing.T) {
	out := &fakeOut{name: "synth-1"}
	s := NewMidiSink(out, testLogger())
	s.Open()

	if err := s.Close(); err != nil {
		t.Fatalf("first Close() err = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close() err = %v", err)
	}
	if out.closeHits != 1 {
		t.Errorf("underlying port closed %d times, want 1", out.closeHits)
	}
}
