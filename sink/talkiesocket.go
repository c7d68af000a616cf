package sink

import (
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/chase3718/jsontalkieplayer/config"
)

// Datagram is one received UDP payload and its sender.
type Datagram struct {
	SenderIP string
	Payload  string
}

// TalkieSocket is the process-wide UDP endpoint every TalkieSink routes
// through: one socket, bound to config.TalkieLocalPort, broadcast-enabled,
// shared by unicast sends, broadcast sends, and address-discovery polling.
// Touched only from the single playback thread (spec.md §5) — no locking
// is required for the send/receive path itself; the mutex here guards the
// name→sink registry, which the builder populates and address discovery
// reads, and the resolved-address counter.
type TalkieSocket struct {
	conn   *net.UDPConn
	logger *slog.Logger

	mu                sync.Mutex
	sinksByName       map[string]*TalkieSink
	resolvedAddresses int
}

// NewTalkieSocket creates and binds the UDP socket. Idempotent at the
// call-site level: callers construct exactly one TalkieSocket per playback.
func NewTalkieSocket(logger *slog.Logger) (*TalkieSocket, error) {
	addr := &net.UDPAddr{Port: config.TalkieLocalPort}
	conn, err := net.ListenUDP("udp4", addr)
	if err != nil {
		return nil, fmt.Errorf("talkiesocket: bind port %d: %w", config.TalkieLocalPort, err)
	}
	if err := enableBroadcast(conn, logger); err != nil {
		logger.Warn("talkiesocket: enabling SO_BROADCAST failed, unicast still works", "err", err)
	}
	return &TalkieSocket{
		conn:        conn,
		logger:      logger,
		sinksByName: make(map[string]*TalkieSink),
	}, nil
}

// Register records a sink under its symbolic name so address discovery can
// find it by the "f" field of reply traffic.
func (s *TalkieSocket) Register(sink *TalkieSink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sinksByName[sink.name] = sink
}

// SinkByName looks up a previously registered sink.
func (s *TalkieSocket) SinkByName(name string) (*TalkieSink, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sk, ok := s.sinksByName[name]
	return sk, ok
}

// TotalKnownSinks returns the number of registered talkie sinks.
func (s *TalkieSocket) TotalKnownSinks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sinksByName)
}

// ResolvedAddresses returns how many sinks have had their target IP set by
// address discovery so far.
func (s *TalkieSocket) ResolvedAddresses() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolvedAddresses
}

// MarkResolved increments the resolved-address counter. Called by the
// discovery package once per successful resolution.
func (s *TalkieSocket) MarkResolved() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resolvedAddresses++
}

// SendUnicast writes text to ip:port.
func (s *TalkieSocket) SendUnicast(ip string, port int, text string) error {
	addr := &net.UDPAddr{IP: net.ParseIP(ip), Port: port}
	_, err := s.conn.WriteToUDP([]byte(text), addr)
	return err
}

// SendBroadcast writes text to the subnet broadcast address at port.
func (s *TalkieSocket) SendBroadcast(port int, text string) error {
	addr := &net.UDPAddr{IP: net.ParseIP(config.TalkieBroadcastAddr), Port: port}
	_, err := s.conn.WriteToUDP([]byte(text), addr)
	return err
}

// PollReceive drains every currently-available datagram without blocking.
// It bounds its own cost with an immediate read deadline rather than a
// pre-select readiness check, since net.UDPConn's ReadFromUDP has no
// separate non-blocking mode on most platforms.
func (s *TalkieSocket) PollReceive() []Datagram {
	var out []Datagram
	buf := make([]byte, 2048)

	for {
		if err := s.conn.SetReadDeadline(time.Now()); err != nil {
			s.logger.Warn("talkiesocket: set read deadline failed", "err", err)
			return out
		}
		n, addr, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			// Deadline-exceeded (no datagram pending) ends the drain;
			// any other error is logged once and the drain still ends —
			// discovery treats an empty return the same either way.
			if ne, ok := err.(net.Error); !ok || !ne.Timeout() {
				s.logger.Debug("talkiesocket: read error", "err", err)
			}
			return out
		}
		out = append(out, Datagram{SenderIP: addr.IP.String(), Payload: string(buf[:n])})
	}
}

// Close closes the underlying socket.
func (s *TalkieSocket) Close() error {
	return s.conn.Close()
}
