package gateway

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/veilgate-project/veilgate/internal/capture"
	"github.com/veilgate-project/veilgate/internal/config"
	"github.com/veilgate-project/veilgate/internal/events"
	"github.com/veilgate-project/veilgate/internal/frame"
	"github.com/veilgate-project/veilgate/internal/protocol"
	"github.com/veilgate-project/veilgate/internal/util"
)

// Listener accepts peer TCP connections and runs the per-session frame loop.
// One misbehaving peer costs exactly its own connection: a malformed frame or
// undecodable payload drops that session and nothing else.
type Listener struct {
	cfg      *config.Config
	bus      *events.Bus
	registry *Registry
	store    *capture.Store // nil when capture is disabled
	listener net.Listener
}

// NewListener creates a gateway listener. store may be nil.
func NewListener(cfg *config.Config, bus *events.Bus, registry *Registry, store *capture.Store) *Listener {
	return &Listener{
		cfg:      cfg,
		bus:      bus,
		registry: registry,
		store:    store,
	}
}

// Start begins accepting peer connections. Blocks until ctx is cancelled or
// the bind fails.
func (l *Listener) Start(ctx context.Context) error {
	gw := l.cfg.GetGateway()
	addr := fmt.Sprintf("%s:%d", gw.BindAddress, gw.Port)

	// SO_REUSEADDR allows immediate rebinding after a restart
	lc := ReuseAddrListenConfig()
	var err error
	l.listener, err = lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to start gateway listener on %s: %w", addr, err)
	}

	log.Info().Str("addr", addr).Msg("gateway listener started")

	go func() {
		<-ctx.Done()
		l.listener.Close()
	}()

	for {
		conn, err := l.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				log.Info().Msg("gateway listener stopping")
				return nil
			default:
				log.Error().Err(err).Msg("failed to accept connection")
				continue
			}
		}

		log.Debug().
			Str("remote", conn.RemoteAddr().String()).
			Msg("new peer connection")

		go l.handleSession(ctx, conn)
	}
}

// Stop closes the listening socket.
func (l *Listener) Stop() error {
	if l.listener != nil {
		return l.listener.Close()
	}
	return nil
}

// Addr returns the bound listener address, or nil before Start.
func (l *Listener) Addr() net.Addr {
	if l.listener == nil {
		return nil
	}
	return l.listener.Addr()
}

// handleSession drives one peer connection: hello handshake first, then the
// frame loop until the peer leaves, times out, or sends garbage.
func (l *Listener) handleSession(ctx context.Context, conn net.Conn) {
	gw := l.cfg.GetGateway()

	sess := NewSession(conn)
	defer sess.Close()

	logger := util.ComponentLogger("gateway").With().
		Str("session", sess.ID()).
		Str("remote", conn.RemoteAddr().String()).
		Logger()

	if l.registry.Count() >= gw.MaxSessions {
		logger.Warn().Int("max", gw.MaxSessions).Msg("session limit reached, refusing peer")
		l.sendDisconnect(sess, protocol.DisconnectKicked, "session limit reached")
		return
	}

	// Flight-record the connection whether or not the handshake succeeds;
	// rejected hellos are exactly what the recorder is for.
	recorded := false
	if l.store != nil {
		if err := l.store.OpenSession(sess.ID(), conn.RemoteAddr().String()); err != nil {
			logger.Warn().Err(err).Msg("failed to record session open")
		} else {
			recorded = true
		}
	}

	closeReason := "peer gone"
	defer func() {
		if recorded {
			if err := l.store.CloseSession(sess.ID(), sess.FramesIn(), closeReason); err != nil {
				logger.Warn().Err(err).Msg("failed to record session close")
			}
		}
	}()

	if ok, reason := l.handshake(ctx, sess, &gw, logger); !ok {
		closeReason = reason
		return
	}

	sess.setEstablished()
	l.registry.Register(sess)
	defer func() {
		l.registry.Unregister(sess.ID())
		l.bus.Emit(ctx, events.Event{
			Type:   events.EventSessionClosed,
			Source: "gateway",
			Payload: events.SessionPayload{
				SessionID:  sess.ID(),
				RemoteAddr: conn.RemoteAddr().String(),
				OpenedAt:   sess.ConnectedAt(),
				Frames:     sess.FramesIn(),
				Reason:     closeReason,
			},
		})
	}()

	l.bus.Emit(ctx, events.Event{
		Type:   events.EventSessionOpened,
		Source: "gateway",
		Payload: events.SessionPayload{
			SessionID:  sess.ID(),
			RemoteAddr: conn.RemoteAddr().String(),
			OpenedAt:   sess.ConnectedAt(),
		},
	})

	readTimeout := time.Duration(gw.ReadTimeoutSec) * time.Second

	for {
		select {
		case <-ctx.Done():
			closeReason = "shutdown"
			l.sendDisconnect(sess, protocol.DisconnectShutdown, "")
			return
		default:
		}

		hdr, payload, err := sess.ReadFrame(readTimeout)
		if err != nil {
			if sess.IsClosed() {
				closeReason = "closed"
				return
			}
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				logger.Warn().Dur("timeout", readTimeout).Msg("session idle, dropping")
				closeReason = "idle timeout"
				l.sendDisconnect(sess, protocol.DisconnectTimeout, "")
				return
			}
			// Bad length prefix, oversized payload, or a dead socket all
			// end this session and only this session.
			logger.Warn().Err(err).Msg("frame read failed, dropping session")
			closeReason = fmt.Sprintf("read error: %v", err)
			return
		}

		keep, reason := l.processFrame(ctx, sess, hdr, payload, logger)
		if !keep {
			closeReason = reason
			return
		}
	}
}

// handshake expects a client_hello as the very first frame, answers with a
// hello_ack, and reports whether the session may proceed.
func (l *Listener) handshake(ctx context.Context, sess *Session, gw *config.GatewayData, logger zerolog.Logger) (ok bool, reason string) {
	hdr, payload, err := sess.ReadFrame(time.Duration(gw.HandshakeTimeoutSec) * time.Second)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to read handshake frame")
		return false, fmt.Sprintf("handshake read error: %v", err)
	}

	if hdr.TypeID != protocol.TypeClientHello {
		logger.Warn().
			Uint32("type_id", hdr.TypeID).
			Str("name", protocol.Name(hdr.TypeID)).
			Msg("expected client_hello as first frame")
		l.sendDisconnect(sess, protocol.DisconnectProtocolError, "expected client_hello")
		return false, "first frame was not client_hello"
	}

	msg, err := protocol.Decode(hdr.TypeID, payload)
	if err != nil {
		logger.Warn().Err(err).Msg("malformed client_hello, dropping peer")
		l.captureFrame(ctx, sess, hdr, payload, capture.OutcomeRejected, err.Error())
		l.sendDisconnect(sess, protocol.DisconnectProtocolError, "malformed client_hello")
		return false, "malformed client_hello"
	}
	hello := msg.(*protocol.ClientHello)
	l.captureFrame(ctx, sess, hdr, payload, capture.OutcomeDecoded, "")

	ack := &protocol.HelloAck{
		Session:     uuid.New(),
		Accepted:    hello.Protocol == protocol.Version,
		HeartbeatMS: uint16(gw.HeartbeatMS),
		World:       gw.WorldName,
	}
	if gw.MOTD != "" {
		motd := gw.MOTD
		ack.MOTD = &motd
	}

	if err := l.writeMessage(ctx, sess, ack); err != nil {
		logger.Warn().Err(err).Msg("failed to send hello_ack")
		return false, "hello_ack write failed"
	}

	if !ack.Accepted {
		logger.Info().
			Uint32("peer_protocol", hello.Protocol).
			Uint32("supported", protocol.Version).
			Msg("protocol version mismatch, refusing session")
		l.sendDisconnect(sess, protocol.DisconnectProtocolError, "unsupported protocol version")
		return false, fmt.Sprintf("unsupported protocol version %d", hello.Protocol)
	}

	logger.Info().
		Str("display_name", hello.DisplayName).
		Str("locale", hello.Locale).
		Int("features", len(hello.Features)).
		Msg("session established")
	return true, ""
}

// processFrame classifies one inbound frame. Returns keep=false with a close
// reason when the session must be dropped.
func (l *Listener) processFrame(ctx context.Context, sess *Session, hdr frame.Header, payload []byte, logger zerolog.Logger) (keep bool, reason string) {
	basePayload := events.FramePayload{
		SessionID:  sess.ID(),
		Direction:  events.DirectionInbound,
		TypeID:     hdr.TypeID,
		Name:       protocol.Name(hdr.TypeID),
		Size:       len(payload),
		Compressed: protocol.Compressed(hdr.TypeID),
	}

	// The compressed flag is consulted before any payload interpretation.
	// Decompression belongs to the game transport, so flagged frames are
	// recorded raw and never shown to the codec.
	if basePayload.Compressed {
		l.captureFrame(ctx, sess, hdr, payload, capture.OutcomePassthrough, "")
		l.bus.Emit(ctx, events.Event{Type: events.EventFramePassthrough, Source: "gateway", Payload: basePayload})
		return true, ""
	}

	msg, err := protocol.Decode(hdr.TypeID, payload)
	if err != nil {
		logger.Warn().
			Err(err).
			Uint32("type_id", hdr.TypeID).
			Str("name", basePayload.Name).
			Msg("payload decode failed, dropping session")
		l.captureFrame(ctx, sess, hdr, payload, capture.OutcomeRejected, err.Error())
		l.bus.Emit(ctx, events.Event{
			Type:   events.EventFrameRejected,
			Source: "gateway",
			Payload: events.RejectPayload{
				SessionID: sess.ID(),
				TypeID:    hdr.TypeID,
				Size:      len(payload),
				Error:     err.Error(),
			},
		})
		l.sendDisconnect(sess, protocol.DisconnectProtocolError, "malformed payload")
		return false, fmt.Sprintf("malformed %s frame", basePayload.Name)
	}

	if _, isRaw := msg.(*protocol.RawMessage); isRaw {
		l.captureFrame(ctx, sess, hdr, payload, capture.OutcomePassthrough, "")
		l.bus.Emit(ctx, events.Event{Type: events.EventFramePassthrough, Source: "gateway", Payload: basePayload})
		return true, ""
	}

	l.captureFrame(ctx, sess, hdr, payload, capture.OutcomeDecoded, "")
	l.bus.Emit(ctx, events.Event{Type: events.EventFrameDecoded, Source: "gateway", Payload: basePayload})

	return l.respond(ctx, sess, msg, logger)
}

// respond handles the few message types the gateway answers itself.
func (l *Listener) respond(ctx context.Context, sess *Session, msg protocol.Message, logger zerolog.Logger) (keep bool, reason string) {
	switch m := msg.(type) {
	case *protocol.Ping:
		pong := &protocol.Pong{
			Nonce:      m.Nonce,
			SentAt:     m.SentAt,
			ServerTime: time.Now().UnixMilli(),
		}
		if err := l.writeMessage(ctx, sess, pong); err != nil {
			logger.Warn().Err(err).Msg("failed to send pong")
			return false, "write failed"
		}
	case *protocol.Disconnect:
		logger.Info().
			Str("reason", m.Reason.String()).
			Msg("peer disconnected")
		return false, "peer disconnect (" + m.Reason.String() + ")"
	}
	return true, ""
}

// writeMessage encodes and sends a message, recording the outbound frame.
func (l *Listener) writeMessage(ctx context.Context, sess *Session, msg protocol.Message) error {
	payload, err := protocol.Encode(msg)
	if err != nil {
		return err
	}
	if err := sess.WriteFrame(msg.TypeID(), payload); err != nil {
		return err
	}

	if l.store != nil {
		id, err := l.store.Record(capture.Frame{
			SessionID:  sess.ID(),
			Direction:  events.DirectionOutbound.String(),
			TypeID:     msg.TypeID(),
			Name:       protocol.Name(msg.TypeID()),
			Size:       len(payload),
			Compressed: protocol.Compressed(msg.TypeID()),
			Outcome:    capture.OutcomeDecoded,
			Payload:    payload,
		})
		if err != nil {
			log.Warn().Err(err).Msg("failed to capture outbound frame")
		} else {
			l.emitCaptureStored(ctx, id, sess.ID(), msg.TypeID())
		}
	}
	return nil
}

// captureFrame records an inbound frame in the capture store, if enabled.
func (l *Listener) captureFrame(ctx context.Context, sess *Session, hdr frame.Header, payload []byte, outcome, errText string) {
	if l.store == nil {
		return
	}

	id, err := l.store.Record(capture.Frame{
		SessionID:  sess.ID(),
		Direction:  events.DirectionInbound.String(),
		TypeID:     hdr.TypeID,
		Name:       protocol.Name(hdr.TypeID),
		Size:       len(payload),
		Compressed: protocol.Compressed(hdr.TypeID),
		Outcome:    outcome,
		Error:      errText,
		Payload:    payload,
	})
	if err != nil {
		log.Warn().Err(err).Str("session", sess.ID()).Msg("failed to capture frame")
		return
	}

	l.emitCaptureStored(ctx, id, sess.ID(), hdr.TypeID)
}

func (l *Listener) emitCaptureStored(ctx context.Context, captureID, sessionID string, typeID uint32) {
	l.bus.Emit(ctx, events.Event{
		Type:   events.EventCaptureStored,
		Source: "gateway",
		Payload: events.CapturePayload{
			CaptureID: captureID,
			SessionID: sessionID,
			TypeID:    typeID,
		},
	})
}

// sendDisconnect sends a best-effort disconnect before dropping a peer.
func (l *Listener) sendDisconnect(sess *Session, reason protocol.DisconnectReason, detail string) {
	msg := &protocol.Disconnect{Reason: reason}
	if detail != "" {
		msg.Detail = &detail
	}
	if err := sess.WriteMessage(msg); err != nil {
		log.Debug().Err(err).Str("session", sess.ID()).Msg("disconnect not delivered")
	}
}
