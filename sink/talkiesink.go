package sink

import (
	"fmt"
	"sync"

	"github.com/chase3718/jsontalkieplayer/config"
	"github.com/chase3718/jsontalkieplayer/pin"
)

// TalkieSink is one networked device addressed by a symbolic name. Until
// address discovery (package discovery) resolves a target IP, sends go out
// as broadcast on the target port; once resolved, sends become unicast.
type TalkieSink struct {
	name       string
	port       int
	socket     *TalkieSocket

	mu       sync.RWMutex
	targetIP string
}

// NewTalkieSink creates a sink for name on the given UDP port and registers
// it with the shared socket.
func NewTalkieSink(name string, port int, socket *TalkieSocket) *TalkieSink {
	s := &TalkieSink{name: name, port: port, socket: socket}
	socket.Register(s)
	return s
}

// SetTargetIP is called by address discovery once a reply checksum
// validates; subsequent sends become unicast.
func (s *TalkieSink) SetTargetIP(ip string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.targetIP = ip
}

// TargetIP returns the currently resolved target IP, or "" if unresolved.
func (s *TalkieSink) TargetIP() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.targetIP
}

// Send routes text through the shared socket: broadcast if no target IP is
// set yet, unicast otherwise.
func (s *TalkieSink) Send(p pin.Payload) error {
	ts, ok := p.(pin.TalkieString)
	if !ok {
		return fmt.Errorf("talkiesink: payload is not TalkieString")
	}
	ip := s.TargetIP()
	if ip == "" {
		return s.socket.SendBroadcast(s.port, string(ts))
	}
	return s.socket.SendUnicast(ip, s.port, string(ts))
}

// Close is a no-op: the underlying socket is shared and closed once by its
// owner (TalkieSocket.Close), not per-sink.
func (s *TalkieSink) Close() error { return nil }

func (s *TalkieSink) String() string { return s.name }

// BroadcastPort is the default port used when a content document doesn't
// specify one explicitly for a device.
const BroadcastPort = config.TalkieLocalPort
