// Package discovery implements the cooperative talkie address-discovery
// poll (spec.md §4.8): symbolic device names are resolved to a concrete IP
// by listening for a device's own broadcast reply and verifying its
// self-referential checksum before trusting it.
package discovery

import (
	"encoding/json"
	"log/slog"

	"github.com/chase3718/jsontalkieplayer/sink"
	"github.com/chase3718/jsontalkieplayer/talkieproto"
)

// Poller drains pending UDP traffic on a TalkieSocket and resolves any
// sink whose symbolic name appears, with a valid checksum, in a reply.
type Poller struct {
	socket *sink.TalkieSocket
	logger *slog.Logger
}

// New constructs a Poller over socket.
func New(socket *sink.TalkieSocket, logger *slog.Logger) *Poller {
	return &Poller{socket: socket, logger: logger}
}

// Done reports whether every known talkie sink has already been resolved —
// once true, Poll is a no-op and the scheduler's idle callback can skip it.
func (p *Poller) Done() bool {
	return p.socket.TotalKnownSinks() > 0 && p.socket.ResolvedAddresses() >= p.socket.TotalKnownSinks()
}

// Poll drains every datagram currently queued on the socket without
// blocking, resolving sinks whose reply checksum validates. It is the
// scheduler's idle callback during the hybrid-sleep coarse phase
// (spec.md §4.7), so it must never block.
func (p *Poller) Poll() {
	if p.Done() {
		return
	}

	for _, dgram := range p.socket.PollReceive() {
		p.handle(dgram)
	}
}

func (p *Poller) handle(dgram sink.Datagram) {
	var env talkieproto.Envelope
	if err := json.Unmarshal([]byte(dgram.Payload), &env); err != nil {
		p.logger.Debug("discovery: reply is not a valid talkie envelope", "from", dgram.SenderIP, "err", err)
		return
	}

	target, known := p.socket.SinkByName(env.F)
	if !known {
		return
	}
	if target.TargetIP() != "" {
		return
	}

	want := talkieproto.Checksum([]byte(dgram.Payload))
	if want != env.C {
		p.logger.Debug("discovery: reply checksum mismatch, ignoring", "device", env.F, "from", dgram.SenderIP)
		return
	}

	target.SetTargetIP(dgram.SenderIP)
	p.socket.MarkResolved()
	p.logger.Info("discovery: resolved device address", "device", env.F, "ip", dgram.SenderIP)
}
