package capture

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir(), 0)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreSessionLifecycle(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.OpenSession("sess-1", "10.0.0.1:4242"))

	sessions, err := s.Sessions(10)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	require.Equal(t, "sess-1", sessions[0].ID)
	require.Nil(t, sessions[0].ClosedAt)

	require.NoError(t, s.CloseSession("sess-1", 17, "peer quit"))

	sessions, err = s.Sessions(10)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	require.NotNil(t, sessions[0].ClosedAt)
	require.Equal(t, int64(17), sessions[0].Frames)
	require.Equal(t, "peer quit", sessions[0].CloseReason)
}

func TestStoreRecordAndFetch(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.OpenSession("sess-1", "10.0.0.1:4242"))

	id, err := s.Record(Frame{
		SessionID: "sess-1",
		Direction: "inbound",
		TypeID:    0x0003,
		Name:      "ping",
		Size:      16,
		Outcome:   OutcomeDecoded,
		Payload:   []byte{1, 2, 3, 4},
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := s.FrameByID(id)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "sess-1", got.SessionID)
	require.Equal(t, uint32(0x0003), got.TypeID)
	require.Equal(t, "ping", got.Name)
	require.Equal(t, OutcomeDecoded, got.Outcome)
	require.Equal(t, []byte{1, 2, 3, 4}, got.Payload)
	require.False(t, got.Compressed)

	missing, err := s.FrameByID("nope")
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestStoreTruncatesPayload(t *testing.T) {
	s, err := Open(t.TempDir(), 8)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.OpenSession("sess-1", "x"))

	big := make([]byte, 100)
	for i := range big {
		big[i] = byte(i)
	}
	id, err := s.Record(Frame{SessionID: "sess-1", Direction: "inbound", Name: "chunk_data", Size: len(big), Outcome: OutcomePassthrough, Payload: big})
	require.NoError(t, err)

	got, err := s.FrameByID(id)
	require.NoError(t, err)
	require.Len(t, got.Payload, 8)
	// Recorded size stays the original wire length.
	require.Equal(t, 100, got.Size)
}

func TestStoreListingsAndCounts(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.OpenSession("a", "1"))
	require.NoError(t, s.OpenSession("b", "2"))

	for i := 0; i < 3; i++ {
		_, err := s.Record(Frame{SessionID: "a", Direction: "inbound", TypeID: 1, Name: "client_hello", Outcome: OutcomeDecoded})
		require.NoError(t, err)
	}
	_, err := s.Record(Frame{SessionID: "b", Direction: "inbound", TypeID: 0x9999, Name: "unknown", Outcome: OutcomePassthrough})
	require.NoError(t, err)

	recent, err := s.RecentFrames(10)
	require.NoError(t, err)
	require.Len(t, recent, 4)
	// List queries omit payloads.
	for _, f := range recent {
		require.Nil(t, f.Payload)
	}

	aFrames, err := s.SessionFrames("a", 10)
	require.NoError(t, err)
	require.Len(t, aFrames, 3)
	for _, f := range aFrames {
		require.Equal(t, "a", f.SessionID)
	}

	sessions, frames, err := s.Counts()
	require.NoError(t, err)
	require.Equal(t, int64(2), sessions)
	require.Equal(t, int64(4), frames)

	counts, err := s.TypeCounts()
	require.NoError(t, err)
	require.Len(t, counts, 2)
	require.Equal(t, "client_hello", counts[0].Name)
	require.Equal(t, int64(3), counts[0].Count)
}

func TestStorePurgeOlderThan(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.OpenSession("old", "1"))

	_, err := s.Record(Frame{SessionID: "old", Direction: "inbound", TypeID: 3, Name: "ping", Outcome: OutcomeDecoded})
	require.NoError(t, err)
	require.NoError(t, s.CloseSession("old", 1, "done"))

	// Everything recorded above is older than a future cutoff.
	removed, err := s.PurgeOlderThan(time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.Equal(t, int64(1), removed)

	sessions, frames, err := s.Counts()
	require.NoError(t, err)
	require.Zero(t, frames)
	require.Zero(t, sessions)

	// A purge on an empty store removes nothing.
	removed, err = s.PurgeOlderThan(time.Now())
	require.NoError(t, err)
	require.Zero(t, removed)
}
