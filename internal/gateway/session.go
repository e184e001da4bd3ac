// Package gateway implements the TCP ingest listener that feeds mirrored
// protocol frames through the codec, the capture store and the event bus.
package gateway

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/ksuid"

	"github.com/veilgate-project/veilgate/internal/events"
	"github.com/veilgate-project/veilgate/internal/frame"
	"github.com/veilgate-project/veilgate/internal/protocol"
	"github.com/veilgate-project/veilgate/internal/util"
)

// Session wraps one peer TCP connection. Each peer opens a session with a
// client_hello frame and keeps the connection for its whole lifetime.
type Session struct {
	mu     sync.Mutex
	conn   net.Conn
	id     string
	logger zerolog.Logger

	state events.SessionState

	// Timestamps
	connectedAt  time.Time
	lastActivity time.Time

	// Counters
	framesIn  uint64
	framesOut uint64

	closed bool
}

// NewSession wraps an accepted net.Conn under a fresh ksuid session id.
func NewSession(conn net.Conn) *Session {
	now := time.Now()
	id := ksuid.New().String()
	return &Session{
		conn:         conn,
		id:           id,
		state:        events.SessionHandshaking,
		connectedAt:  now,
		lastActivity: now,
		logger: util.ComponentLogger("session").With().
			Str("session", id).
			Str("remote", conn.RemoteAddr().String()).
			Logger(),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// State returns the session lifecycle state.
func (s *Session) State() events.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// setEstablished marks the handshake as complete.
func (s *Session) setEstablished() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = events.SessionEstablished
}

// ReadFrame reads one length-prefixed frame from the peer. Blocks until a
// frame arrives, the timeout passes, or the connection dies.
func (s *Session) ReadFrame(timeout time.Duration) (frame.Header, []byte, error) {
	if timeout > 0 {
		s.conn.SetReadDeadline(time.Now().Add(timeout))
	}

	hdr, payload, err := frame.Read(s.conn)
	if err != nil {
		return hdr, nil, err
	}

	s.mu.Lock()
	s.lastActivity = time.Now()
	s.framesIn++
	s.mu.Unlock()

	return hdr, payload, nil
}

// WriteMessage encodes a catalog message and sends it as a frame.
func (s *Session) WriteMessage(m protocol.Message) error {
	payload, err := protocol.Encode(m)
	if err != nil {
		return err
	}
	return s.WriteFrame(m.TypeID(), payload)
}

// WriteFrame sends a raw payload under the given type id.
func (s *Session) WriteFrame(typeID uint32, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("session %s is closed", s.id)
	}

	s.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err := frame.Write(s.conn, typeID, payload); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}

	s.lastActivity = time.Now()
	s.framesOut++
	return nil
}

// Close closes the underlying connection. Safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	s.state = events.SessionClosed
	s.logger.Info().
		Uint64("frames_in", s.framesIn).
		Uint64("frames_out", s.framesOut).
		Msg("session closed")
	return s.conn.Close()
}

// IsClosed returns whether the session has been closed.
func (s *Session) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// FramesIn returns how many frames this session has received.
func (s *Session) FramesIn() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.framesIn
}

// LastActivity returns the time of the last read or write.
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// ConnectedAt returns when the connection was accepted.
func (s *Session) ConnectedAt() time.Time {
	return s.connectedAt
}

// RemoteAddr returns the peer address.
func (s *Session) RemoteAddr() net.Addr {
	return s.conn.RemoteAddr()
}

// Info is a read-only session snapshot for the inspector API.
type Info struct {
	ID           string              `json:"id"`
	RemoteAddr   string              `json:"remote_addr"`
	State        events.SessionState `json:"state"`
	ConnectedAt  time.Time           `json:"connected_at"`
	LastActivity time.Time           `json:"last_activity"`
	FramesIn     uint64              `json:"frames_in"`
	FramesOut    uint64              `json:"frames_out"`
}

// Snapshot returns a point-in-time copy of the session's counters.
func (s *Session) Snapshot() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Info{
		ID:           s.id,
		RemoteAddr:   s.conn.RemoteAddr().String(),
		State:        s.state,
		ConnectedAt:  s.connectedAt,
		LastActivity: s.lastActivity,
		FramesIn:     s.framesIn,
		FramesOut:    s.framesOut,
	}
}

// Registry tracks the live sessions by id.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
	}
}

// Register adds a session to the registry.
func (r *Registry) Register(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID()] = s
	log.Debug().Str("session", s.ID()).Msg("session registered")
}

// Unregister removes a session and closes it.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[id]; ok {
		s.Close()
		delete(r.sessions, id)
		log.Debug().Str("session", id).Msg("session unregistered")
	}
}

// Get returns the session with the given id.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Snapshots returns point-in-time info for every live session.
func (r *Registry) Snapshots() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Info, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s.Snapshot())
	}
	return out
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// CloseAll closes every session in the registry.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, s := range r.sessions {
		s.Close()
		delete(r.sessions, id)
	}

	log.Info().Msg("all sessions closed")
}

// CleanStale closes sessions idle for longer than timeout and returns how
// many were removed.
func (r *Registry) CleanStale(timeout time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cleaned := 0
	cutoff := time.Now().Add(-timeout)

	for id, s := range r.sessions {
		if s.LastActivity().Before(cutoff) {
			s.Close()
			delete(r.sessions, id)
			cleaned++
			log.Warn().
				Str("session", id).
				Time("last_activity", s.LastActivity()).
				Msg("cleaned stale session")
		}
	}

	return cleaned
}
