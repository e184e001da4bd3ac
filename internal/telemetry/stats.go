// Package telemetry aggregates gateway activity counters and publishes
// them over MQTT.
package telemetry

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/veilgate-project/veilgate/internal/events"
)

// Stats accumulates traffic counters from bus events. All counters are
// atomic; Snapshot can be called from any goroutine.
type Stats struct {
	started time.Time

	sessionsOpened    atomic.Uint64
	sessionsClosed    atomic.Uint64
	framesDecoded     atomic.Uint64
	framesPassthrough atomic.Uint64
	framesRejected    atomic.Uint64
	bytesIn           atomic.Uint64
	capturesStored    atomic.Uint64
}

// NewStats returns a zeroed counter set with the uptime clock started.
func NewStats() *Stats {
	return &Stats{started: time.Now()}
}

// Attach subscribes the counters to the event bus.
func (s *Stats) Attach(bus *events.Bus) {
	bus.Subscribe(events.EventSessionOpened, "stats.sessionOpened", func(ctx context.Context, ev events.Event) error {
		s.sessionsOpened.Add(1)
		return nil
	})
	bus.Subscribe(events.EventSessionClosed, "stats.sessionClosed", func(ctx context.Context, ev events.Event) error {
		s.sessionsClosed.Add(1)
		return nil
	})
	bus.Subscribe(events.EventFrameDecoded, "stats.frameDecoded", func(ctx context.Context, ev events.Event) error {
		s.framesDecoded.Add(1)
		if p, ok := ev.Payload.(events.FramePayload); ok {
			s.bytesIn.Add(uint64(p.Size))
		}
		return nil
	})
	bus.Subscribe(events.EventFramePassthrough, "stats.framePassthrough", func(ctx context.Context, ev events.Event) error {
		s.framesPassthrough.Add(1)
		if p, ok := ev.Payload.(events.FramePayload); ok {
			s.bytesIn.Add(uint64(p.Size))
		}
		return nil
	})
	bus.Subscribe(events.EventFrameRejected, "stats.frameRejected", func(ctx context.Context, ev events.Event) error {
		s.framesRejected.Add(1)
		if p, ok := ev.Payload.(events.RejectPayload); ok {
			s.bytesIn.Add(uint64(p.Size))
		}
		return nil
	})
	bus.Subscribe(events.EventCaptureStored, "stats.captureStored", func(ctx context.Context, ev events.Event) error {
		s.capturesStored.Add(1)
		return nil
	})
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	UptimeSec         int64  `json:"uptime_sec"`
	SessionsOpened    uint64 `json:"sessions_opened"`
	SessionsClosed    uint64 `json:"sessions_closed"`
	ActiveSessions    int64  `json:"active_sessions"`
	FramesDecoded     uint64 `json:"frames_decoded"`
	FramesPassthrough uint64 `json:"frames_passthrough"`
	FramesRejected    uint64 `json:"frames_rejected"`
	BytesIn           uint64 `json:"bytes_in"`
	CapturesStored    uint64 `json:"captures_stored"`
}

// Snapshot returns the current counter values.
func (s *Stats) Snapshot() Snapshot {
	opened := s.sessionsOpened.Load()
	closed := s.sessionsClosed.Load()
	return Snapshot{
		UptimeSec:         int64(time.Since(s.started).Seconds()),
		SessionsOpened:    opened,
		SessionsClosed:    closed,
		ActiveSessions:    int64(opened) - int64(closed),
		FramesDecoded:     s.framesDecoded.Load(),
		FramesPassthrough: s.framesPassthrough.Load(),
		FramesRejected:    s.framesRejected.Load(),
		BytesIn:           s.bytesIn.Load(),
		CapturesStored:    s.capturesStored.Load(),
	}
}
