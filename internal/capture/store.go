// Package capture implements the SQLite-backed flight recorder. Every frame
// the gateway sees is written here with its decode outcome, so protocol
// regressions can be replayed against the codec after the fact.
package capture

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/ksuid"
	_ "modernc.org/sqlite"
)

// Decode outcomes recorded per frame.
const (
	OutcomeDecoded     = "decoded"
	OutcomePassthrough = "passthrough"
	OutcomeRejected    = "rejected"
)

const dbFileName = "captures.db"

// Session is one recorded gateway connection.
type Session struct {
	ID          string     `json:"id"`
	RemoteAddr  string     `json:"remote_addr"`
	OpenedAt    time.Time  `json:"opened_at"`
	ClosedAt    *time.Time `json:"closed_at,omitempty"`
	Frames      int64      `json:"frames"`
	CloseReason string     `json:"close_reason,omitempty"`
}

// Frame is one captured protocol frame.
type Frame struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	Direction  string    `json:"direction"`
	TypeID     uint32    `json:"type_id"`
	Name       string    `json:"name"`
	Size       int       `json:"size"`
	Compressed bool      `json:"compressed"`
	Outcome    string    `json:"outcome"`
	Error      string    `json:"error,omitempty"`
	Payload    []byte    `json:"payload,omitempty"`
	CapturedAt time.Time `json:"captured_at"`
}

// TypeCount is a per-type frame tally for the stats endpoint.
type TypeCount struct {
	TypeID uint32 `json:"type_id"`
	Name   string `json:"name"`
	Count  int64  `json:"count"`
}

// Store wraps a SQLite database holding captured sessions and frames.
type Store struct {
	mu         sync.Mutex
	db         *sql.DB
	path       string
	maxPayload int
}

// Open opens or creates the capture database under dir. Stored payloads are
// truncated to maxPayloadBytes; zero keeps payloads whole.
func Open(dir string, maxPayloadBytes int) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create capture directory: %w", err)
	}
	dbPath := filepath.Join(dir, dbFileName)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", dbPath, err)
	}

	// SQLite doesn't support concurrent writers
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		log.Warn().Err(err).Msg("failed to enable WAL mode")
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		log.Warn().Err(err).Msg("failed to enable foreign keys")
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	s := &Store{db: db, path: dbPath, maxPayload: maxPayloadBytes}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	log.Info().Str("path", dbPath).Msg("capture store opened")
	return s, nil
}

// migrate creates the schema when it does not exist yet.
func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id           TEXT PRIMARY KEY,
			remote_addr  TEXT NOT NULL,
			opened_at    TIMESTAMP NOT NULL,
			closed_at    TIMESTAMP,
			frames       INTEGER NOT NULL DEFAULT 0,
			close_reason TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS frames (
			id          TEXT PRIMARY KEY,
			session_id  TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			direction   TEXT NOT NULL,
			type_id     INTEGER NOT NULL,
			name        TEXT NOT NULL,
			size        INTEGER NOT NULL,
			compressed  INTEGER NOT NULL DEFAULT 0,
			outcome     TEXT NOT NULL,
			error       TEXT NOT NULL DEFAULT '',
			payload     BLOB,
			captured_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_frames_session ON frames(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_frames_captured ON frames(captured_at)`,
		`CREATE INDEX IF NOT EXISTS idx_frames_type ON frames(type_id)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// OpenSession records the start of a gateway session.
func (s *Store) OpenSession(id, remoteAddr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO sessions (id, remote_addr, opened_at) VALUES (?, ?, ?)`,
		id, remoteAddr, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record session %s: %w", id, err)
	}
	return nil
}

// CloseSession records the end of a session together with its frame total.
func (s *Store) CloseSession(id string, frames uint64, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`UPDATE sessions SET closed_at = ?, frames = ?, close_reason = ? WHERE id = ?`,
		time.Now().UTC(), int64(frames), reason, id,
	)
	if err != nil {
		return fmt.Errorf("failed to close session %s: %w", id, err)
	}
	return nil
}

// Record stores one captured frame and returns its capture id. The payload is
// truncated to the store's limit; the recorded size keeps the original length.
func (s *Store) Record(f Frame) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := ksuid.New().String()
	payload := f.Payload
	if s.maxPayload > 0 && len(payload) > s.maxPayload {
		payload = payload[:s.maxPayload]
	}

	_, err := s.db.Exec(
		`INSERT INTO frames (id, session_id, direction, type_id, name, size, compressed, outcome, error, payload, captured_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, f.SessionID, f.Direction, int64(f.TypeID), f.Name, f.Size,
		boolToInt(f.Compressed), f.Outcome, f.Error, payload, time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to record frame: %w", err)
	}
	return id, nil
}

// Sessions returns the most recently opened sessions, newest first.
func (s *Store) Sessions(limit int) ([]Session, error) {
	rows, err := s.db.Query(
		`SELECT id, remote_addr, opened_at, closed_at, frames, close_reason
		 FROM sessions ORDER BY opened_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var (
			sess   Session
			closed sql.NullTime
		)
		if err := rows.Scan(&sess.ID, &sess.RemoteAddr, &sess.OpenedAt, &closed, &sess.Frames, &sess.CloseReason); err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		if closed.Valid {
			t := closed.Time
			sess.ClosedAt = &t
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

// RecentFrames returns the newest captured frames without payloads.
func (s *Store) RecentFrames(limit int) ([]Frame, error) {
	return s.queryFrames(
		`SELECT id, session_id, direction, type_id, name, size, compressed, outcome, error, captured_at
		 FROM frames ORDER BY captured_at DESC, id DESC LIMIT ?`, limit)
}

// SessionFrames returns the frames captured for one session, oldest first,
// without payloads.
func (s *Store) SessionFrames(sessionID string, limit int) ([]Frame, error) {
	return s.queryFrames(
		`SELECT id, session_id, direction, type_id, name, size, compressed, outcome, error, captured_at
		 FROM frames WHERE session_id = ? ORDER BY captured_at ASC, id ASC LIMIT ?`, sessionID, limit)
}

func (s *Store) queryFrames(query string, args ...interface{}) ([]Frame, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query frames: %w", err)
	}
	defer rows.Close()

	var out []Frame
	for rows.Next() {
		var (
			f          Frame
			typeID     int64
			compressed int
		)
		if err := rows.Scan(&f.ID, &f.SessionID, &f.Direction, &typeID, &f.Name,
			&f.Size, &compressed, &f.Outcome, &f.Error, &f.CapturedAt); err != nil {
			return nil, fmt.Errorf("failed to scan frame row: %w", err)
		}
		f.TypeID = uint32(typeID)
		f.Compressed = compressed != 0
		out = append(out, f)
	}
	return out, rows.Err()
}

// FrameByID returns a single captured frame including its payload.
func (s *Store) FrameByID(id string) (*Frame, error) {
	row := s.db.QueryRow(
		`SELECT id, session_id, direction, type_id, name, size, compressed, outcome, error, payload, captured_at
		 FROM frames WHERE id = ?`, id)

	var (
		f          Frame
		typeID     int64
		compressed int
	)
	err := row.Scan(&f.ID, &f.SessionID, &f.Direction, &typeID, &f.Name,
		&f.Size, &compressed, &f.Outcome, &f.Error, &f.Payload, &f.CapturedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load frame %s: %w", id, err)
	}
	f.TypeID = uint32(typeID)
	f.Compressed = compressed != 0
	return &f, nil
}

// TypeCounts tallies captured frames per message type, most frequent first.
func (s *Store) TypeCounts() ([]TypeCount, error) {
	rows, err := s.db.Query(
		`SELECT type_id, name, COUNT(*) FROM frames GROUP BY type_id, name ORDER BY COUNT(*) DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query type counts: %w", err)
	}
	defer rows.Close()

	var out []TypeCount
	for rows.Next() {
		var (
			tc     TypeCount
			typeID int64
		)
		if err := rows.Scan(&typeID, &tc.Name, &tc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan type count row: %w", err)
		}
		tc.TypeID = uint32(typeID)
		out = append(out, tc)
	}
	return out, rows.Err()
}

// Counts returns total session and frame row counts.
func (s *Store) Counts() (sessions, frames int64, err error) {
	if err = s.db.QueryRow(`SELECT COUNT(*) FROM sessions`).Scan(&sessions); err != nil {
		return 0, 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	if err = s.db.QueryRow(`SELECT COUNT(*) FROM frames`).Scan(&frames); err != nil {
		return 0, 0, fmt.Errorf("failed to count frames: %w", err)
	}
	return sessions, frames, nil
}

// PurgeOlderThan deletes frames captured before the cutoff, then sessions that
// closed before the cutoff and have no frames left. Returns deleted frame rows.
func (s *Store) PurgeOlderThan(cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM frames WHERE captured_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to purge frames: %w", err)
	}
	removed, _ := res.RowsAffected()

	_, err = s.db.Exec(
		`DELETE FROM sessions WHERE closed_at IS NOT NULL AND closed_at < ?
		 AND NOT EXISTS (SELECT 1 FROM frames WHERE frames.session_id = sessions.id)`,
		cutoff.UTC())
	if err != nil {
		return removed, fmt.Errorf("failed to purge sessions: %w", err)
	}

	return removed, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
