package gateway

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/veilgate-project/veilgate/internal/capture"
	"github.com/veilgate-project/veilgate/internal/config"
	"github.com/veilgate-project/veilgate/internal/events"
	"github.com/veilgate-project/veilgate/internal/frame"
	"github.com/veilgate-project/veilgate/internal/protocol"
)

type testGateway struct {
	listener *Listener
	registry *Registry
	store    *capture.Store
	bus      *events.Bus
	addr     string
}

func startTestGateway(t *testing.T) *testGateway {
	t.Helper()

	cfg := config.DefaultConfig()
	gw := cfg.GetGateway()
	gw.BindAddress = "127.0.0.1"
	gw.Port = 0
	gw.HandshakeTimeoutSec = 2
	gw.ReadTimeoutSec = 5
	cfg.SetGateway(gw)

	store, err := capture.Open(t.TempDir(), 0)
	require.NoError(t, err)

	bus := events.NewBus()
	registry := NewRegistry()
	listener := NewListener(cfg, bus, registry, store)

	ctx, cancel := context.WithCancel(context.Background())
	go listener.Start(ctx)

	require.Eventually(t, func() bool {
		return listener.Addr() != nil
	}, 2*time.Second, 10*time.Millisecond, "listener never bound")

	t.Cleanup(func() {
		cancel()
		registry.CloseAll()
		bus.Stop()
		store.Close()
	})

	return &testGateway{
		listener: listener,
		registry: registry,
		store:    store,
		bus:      bus,
		addr:     listener.Addr().String(),
	}
}

func writeClientFrame(t *testing.T, conn net.Conn, msg protocol.Message) {
	t.Helper()
	payload, err := protocol.Encode(msg)
	require.NoError(t, err)
	require.NoError(t, frame.Write(conn, msg.TypeID(), payload))
}

func readClientFrame(t *testing.T, conn net.Conn) protocol.Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	hdr, payload, err := frame.Read(conn)
	require.NoError(t, err)
	msg, err := protocol.Decode(hdr.TypeID, payload)
	require.NoError(t, err)
	return msg
}

func dialAndHello(t *testing.T, addr string, version uint32) (net.Conn, *protocol.HelloAck) {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)

	writeClientFrame(t, conn, &protocol.ClientHello{
		Protocol:    version,
		Locale:      "en_US",
		DisplayName: "tester",
		Features:    []string{"capture"},
	})

	msg := readClientFrame(t, conn)
	ack, ok := msg.(*protocol.HelloAck)
	require.True(t, ok, "expected hello_ack, got %T", msg)
	return conn, ack
}

func TestGatewayHandshakeAndPing(t *testing.T) {
	g := startTestGateway(t)

	opened := make(chan events.Event, 1)
	g.bus.Subscribe(events.EventSessionOpened, "test", func(ctx context.Context, ev events.Event) error {
		opened <- ev
		return nil
	})

	conn, ack := dialAndHello(t, g.addr, protocol.Version)
	defer conn.Close()

	require.True(t, ack.Accepted)
	require.Equal(t, "veilgate", ack.World)
	require.NotZero(t, ack.HeartbeatMS)

	writeClientFrame(t, conn, &protocol.Ping{Nonce: 7, SentAt: 1234})
	msg := readClientFrame(t, conn)
	pong, ok := msg.(*protocol.Pong)
	require.True(t, ok, "expected pong, got %T", msg)
	require.Equal(t, uint64(7), pong.Nonce)
	require.Equal(t, int64(1234), pong.SentAt)
	require.NotZero(t, pong.ServerTime)

	select {
	case ev := <-opened:
		payload := ev.Payload.(events.SessionPayload)
		require.NotEmpty(t, payload.SessionID)
	case <-time.After(2 * time.Second):
		t.Fatal("session_opened event never arrived")
	}

	require.Equal(t, 1, g.registry.Count())

	conn.Close()
	require.Eventually(t, func() bool {
		return g.registry.Count() == 0
	}, 2*time.Second, 10*time.Millisecond, "session never unregistered")
}

func TestGatewayRejectsWrongProtocolVersion(t *testing.T) {
	g := startTestGateway(t)

	conn, ack := dialAndHello(t, g.addr, protocol.Version+3)
	defer conn.Close()

	require.False(t, ack.Accepted)

	msg := readClientFrame(t, conn)
	disc, ok := msg.(*protocol.Disconnect)
	require.True(t, ok, "expected disconnect, got %T", msg)
	require.Equal(t, protocol.DisconnectProtocolError, disc.Reason)

	// The refused session never reaches the registry.
	require.Equal(t, 0, g.registry.Count())
}

func TestGatewayFirstFrameMustBeHello(t *testing.T) {
	g := startTestGateway(t)

	conn, err := net.Dial("tcp", g.addr)
	require.NoError(t, err)
	defer conn.Close()

	writeClientFrame(t, conn, &protocol.Ping{Nonce: 1, SentAt: 1})

	msg := readClientFrame(t, conn)
	disc, ok := msg.(*protocol.Disconnect)
	require.True(t, ok, "expected disconnect, got %T", msg)
	require.Equal(t, protocol.DisconnectProtocolError, disc.Reason)
}

func TestGatewayMalformedFrameDropsOnlyThatSession(t *testing.T) {
	g := startTestGateway(t)

	rejected := make(chan events.Event, 1)
	g.bus.Subscribe(events.EventFrameRejected, "test", func(ctx context.Context, ev events.Event) error {
		rejected <- ev
		return nil
	})

	connA, ackA := dialAndHello(t, g.addr, protocol.Version)
	defer connA.Close()
	require.True(t, ackA.Accepted)

	connB, ackB := dialAndHello(t, g.addr, protocol.Version)
	defer connB.Close()
	require.True(t, ackB.Accepted)

	require.Eventually(t, func() bool {
		return g.registry.Count() == 2
	}, 2*time.Second, 10*time.Millisecond)

	// A one-byte ping payload cannot hold the nonce, so the decode fails
	// and session A alone is dropped.
	require.NoError(t, frame.Write(connA, protocol.TypePing, []byte{0x01}))

	msg := readClientFrame(t, connA)
	disc, ok := msg.(*protocol.Disconnect)
	require.True(t, ok, "expected disconnect, got %T", msg)
	require.Equal(t, protocol.DisconnectProtocolError, disc.Reason)

	select {
	case ev := <-rejected:
		payload := ev.Payload.(events.RejectPayload)
		require.Equal(t, protocol.TypePing, payload.TypeID)
		require.NotEmpty(t, payload.Error)
	case <-time.After(2 * time.Second):
		t.Fatal("frame_rejected event never arrived")
	}

	require.Eventually(t, func() bool {
		return g.registry.Count() == 1
	}, 2*time.Second, 10*time.Millisecond, "session A never dropped")

	// Session B is untouched.
	writeClientFrame(t, connB, &protocol.Ping{Nonce: 9, SentAt: 9})
	pong, ok := readClientFrame(t, connB).(*protocol.Pong)
	require.True(t, ok)
	require.Equal(t, uint64(9), pong.Nonce)
}

func TestGatewayPassesOpaqueFramesThrough(t *testing.T) {
	g := startTestGateway(t)

	conn, ack := dialAndHello(t, g.addr, protocol.Version)
	defer conn.Close()
	require.True(t, ack.Accepted)

	// An unregistered type id and a compressed payload both bypass the
	// codec; neither may cost the session.
	require.NoError(t, frame.Write(conn, 0x0999, []byte{0xde, 0xad, 0xbe, 0xef}))
	require.NoError(t, frame.Write(conn, protocol.TypeChunkData, []byte{0x1f, 0x8b, 0x00}))

	writeClientFrame(t, conn, &protocol.Ping{Nonce: 3, SentAt: 3})
	pong, ok := readClientFrame(t, conn).(*protocol.Pong)
	require.True(t, ok)
	require.Equal(t, uint64(3), pong.Nonce)

	frames, err := g.store.RecentFrames(20)
	require.NoError(t, err)

	var sawUnknown, sawCompressed bool
	for _, f := range frames {
		switch f.TypeID {
		case 0x0999:
			sawUnknown = true
			require.Equal(t, capture.OutcomePassthrough, f.Outcome)
		case protocol.TypeChunkData:
			sawCompressed = true
			require.Equal(t, capture.OutcomePassthrough, f.Outcome)
			require.True(t, f.Compressed)
		}
	}
	require.True(t, sawUnknown, "unknown-type frame not captured")
	require.True(t, sawCompressed, "compressed frame not captured")
}

func TestRegistryCleanStale(t *testing.T) {
	registry := NewRegistry()

	serverSide, clientSide := net.Pipe()
	defer clientSide.Close()

	stale := NewSession(serverSide)
	registry.Register(stale)

	time.Sleep(50 * time.Millisecond)

	serverSide2, clientSide2 := net.Pipe()
	defer clientSide2.Close()
	fresh := NewSession(serverSide2)
	registry.Register(fresh)

	removed := registry.CleanStale(25 * time.Millisecond)
	require.Equal(t, 1, removed)
	require.Equal(t, 1, registry.Count())

	_, ok := registry.Get(fresh.ID())
	require.True(t, ok)
	_, ok = registry.Get(stale.ID())
	require.False(t, ok)

	registry.CloseAll()
	require.Equal(t, 0, registry.Count())
}

func TestProbeAnswersDiscovery(t *testing.T) {
	cfg := config.DefaultConfig()
	gw := cfg.GetGateway()
	gw.BindAddress = "127.0.0.1"
	gw.Port = 0
	gw.WorldName = "midgard"
	cfg.SetGateway(gw)

	probe := NewProbeListener(cfg)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go probe.Start(ctx)

	require.Eventually(t, func() bool {
		return probe.Addr() != nil
	}, 2*time.Second, 10*time.Millisecond, "probe never bound")

	require.NoError(t, probe.SelfTest())

	conn, err := net.Dial("udp4", probe.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte{ProbeMagic})
	require.NoError(t, err)

	buf := make([]byte, 1024)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	n, err := conn.Read(buf)
	require.NoError(t, err)

	resp, err := ParseProbeResponse(buf[:n])
	require.NoError(t, err)
	require.Equal(t, protocol.Version, resp.Version)
	require.Equal(t, "midgard", resp.World)
}
