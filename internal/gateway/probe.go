package gateway

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/veilgate-project/veilgate/internal/config"
	"github.com/veilgate-project/veilgate/internal/protocol"
	"github.com/veilgate-project/veilgate/internal/wire"
)

// ProbeMagic is the first byte of a UDP discovery probe and its response.
// Clients broadcast a single magic byte to find gateways on the local
// network before opening a TCP session.
const ProbeMagic byte = 0xC9

// ProbeListener answers UDP discovery probes on the gateway port. The
// response carries the schema version, the world name and the TCP port,
// so a client knows before connecting whether its protocol will be
// accepted.
type ProbeListener struct {
	cfg  *config.Config
	conn *net.UDPConn
}

// NewProbeListener creates a discovery probe responder.
func NewProbeListener(cfg *config.Config) *ProbeListener {
	return &ProbeListener{cfg: cfg}
}

// ProbeResponse is the decoded form of a discovery answer.
type ProbeResponse struct {
	Version uint32
	World   string
	Port    uint16
}

// buildProbeResponse encodes [magic:1][version:u32][world:str][port:u16].
func buildProbeResponse(world string, port uint16) []byte {
	w := wire.NewWriter()
	w.U8(ProbeMagic).U32(protocol.Version)
	w.String(world)
	w.U16(port)
	return w.Bytes()
}

// ParseProbeResponse decodes a discovery answer. Used by clients and the
// self-test.
func ParseProbeResponse(data []byte) (*ProbeResponse, error) {
	r := wire.NewReader(data)
	magic, err := r.U8()
	if err != nil {
		return nil, fmt.Errorf("failed to parse probe response: %w", err)
	}
	if magic != ProbeMagic {
		return nil, fmt.Errorf("probe response has wrong magic byte 0x%02x", magic)
	}

	var resp ProbeResponse
	if resp.Version, err = r.U32(); err != nil {
		return nil, fmt.Errorf("failed to parse probe version: %w", err)
	}
	if resp.World, err = r.String(); err != nil {
		return nil, fmt.Errorf("failed to parse probe world: %w", err)
	}
	if resp.Port, err = r.U16(); err != nil {
		return nil, fmt.Errorf("failed to parse probe port: %w", err)
	}
	return &resp, nil
}

// Start begins answering discovery probes. Blocks until ctx is cancelled
// or the bind fails.
func (l *ProbeListener) Start(ctx context.Context) error {
	gw := l.cfg.GetGateway()
	addr := fmt.Sprintf("%s:%d", gw.BindAddress, gw.Port)

	// Same port number as the TCP gateway, UDP side.
	lc := ReuseAddrListenConfig()
	pc, err := lc.ListenPacket(ctx, "udp4", addr)
	if err != nil {
		return fmt.Errorf("failed to start discovery probe listener on %s: %w", addr, err)
	}
	l.conn = pc.(*net.UDPConn)

	log.Info().Str("addr", l.conn.LocalAddr().String()).Msg("discovery probe listener started")

	go func() {
		<-ctx.Done()
		l.conn.Close()
	}()

	buf := make([]byte, 1024)
	for {
		n, remoteAddr, err := l.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-ctx.Done():
				log.Info().Msg("discovery probe listener stopping")
				return nil
			default:
				log.Error().Err(err).Msg("probe read error")
				continue
			}
		}

		if n < 1 || buf[0] != ProbeMagic {
			continue
		}

		response := buildProbeResponse(gw.WorldName, uint16(gw.Port))
		if _, err := l.conn.WriteToUDP(response, remoteAddr); err != nil {
			log.Warn().
				Err(err).
				Str("remote", remoteAddr.String()).
				Msg("failed to send probe response")
		}

		log.Trace().
			Str("remote", remoteAddr.String()).
			Msg("answered discovery probe")
	}
}

// Addr returns the bound UDP address, or nil before Start.
func (l *ProbeListener) Addr() net.Addr {
	if l.conn == nil {
		return nil
	}
	return l.conn.LocalAddr()
}

// SelfTest sends a probe to the local listener and checks the answer.
func (l *ProbeListener) SelfTest() error {
	if l.conn == nil {
		return fmt.Errorf("probe listener not started")
	}
	port := l.conn.LocalAddr().(*net.UDPAddr).Port
	addr := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: port}

	conn, err := net.DialUDP("udp4", nil, addr)
	if err != nil {
		return fmt.Errorf("self-test dial failed: %w", err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte{ProbeMagic}); err != nil {
		return fmt.Errorf("self-test write failed: %w", err)
	}

	buf := make([]byte, 1024)
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	n, err := conn.Read(buf)
	if err != nil {
		return fmt.Errorf("self-test read failed: %w", err)
	}
	if _, err := ParseProbeResponse(buf[:n]); err != nil {
		return fmt.Errorf("self-test response invalid: %w", err)
	}

	log.Debug().Int("port", port).Msg("discovery probe self-test passed")
	return nil
}

// Stop closes the UDP socket.
func (l *ProbeListener) Stop() error {
	if l.conn != nil {
		return l.conn.Close()
	}
	return nil
}
