// Package database provides the storage layer for the motion journal.
//
// It implements the Store interface using SQLite in WAL mode. The journal
// records viewer sessions and the camera motions executed during them; it
// is an audit log and is never read back to restore a view.
package database

import (
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaFS embed.FS

// Store defines the interface for journal persistence.
type Store interface {
	// InsertSession creates a session or updates its end time, frame
	// count and metadata.
	InsertSession(session *Session) error
	// InsertMotion records a motion. A second insert for the same
	// session and motion id updates the outcome, end time and frames.
	InsertMotion(m *Motion) error
	// BatchInsertMotions inserts multiple motions in a single transaction.
	BatchInsertMotions(motions []*Motion) error

	// QuerySessions returns sessions ordered by start_time DESC.
	QuerySessions(filter SessionFilter) ([]*Session, error)
	// QueryMotions returns motions matching the filter, ordered by start_time DESC.
	QueryMotions(filter MotionFilter) ([]*Motion, error)
	// GetMotionStats returns aggregated statistics, optionally for one session.
	GetMotionStats(sessionID string) (*MotionStats, error)

	// Close gracefully shuts down the database connection.
	Close() error
}

// ============================================================
// Domain Models
// ============================================================

// Session is one run of the viewer.
type Session struct {
	SessionID string            `json:"session_id"`
	StartTime int64             `json:"start_time"`
	EndTime   *int64            `json:"end_time,omitempty"`
	Frames    int64             `json:"frames"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Vec3 is a position stored in the journal.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Motion is one executed camera motion.
type Motion struct {
	SessionID  string `json:"session_id"`
	MotionID   int64  `json:"motion_id"`
	Kind       string `json:"kind"`
	Outcome    string `json:"outcome"`
	From       Vec3   `json:"from"`
	To         Vec3   `json:"to"`
	StartTime  int64  `json:"start_time"`
	EndTime    *int64 `json:"end_time,omitempty"`
	DurationMs int64  `json:"duration_ms"`
	Frames     int    `json:"frames"`
}

// SessionFilter defines query parameters for session listing.
type SessionFilter struct {
	Since  *int64 `json:"since,omitempty"` // Unix nanoseconds
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}

// MotionFilter defines query parameters for motion listing.
type MotionFilter struct {
	SessionID *string `json:"session_id,omitempty"`
	Kind      *string `json:"kind,omitempty"`
	Outcome   *string `json:"outcome,omitempty"`
	Since     *int64  `json:"since,omitempty"` // Unix nanoseconds
	Until     *int64  `json:"until,omitempty"` // Unix nanoseconds
	Limit     int     `json:"limit"`
	Offset    int     `json:"offset"`
}

// MotionStats holds aggregated motion statistics.
type MotionStats struct {
	SessionID     string  `json:"session_id,omitempty"`
	Sessions      int     `json:"sessions"`
	TotalMotions  int     `json:"total_motions"`
	Linear        int     `json:"linear"`
	Curved        int     `json:"curved"`
	Completed     int     `json:"completed"`
	Superseded    int     `json:"superseded"`
	Cancelled     int     `json:"cancelled"`
	Running       int     `json:"running"`
	TotalFrames   int64   `json:"total_frames"`
	AvgElapsedMs  float64 `json:"avg_elapsed_ms"`
	AvgFrameCount float64 `json:"avg_frame_count"`
}

// ============================================================
// DBService Implementation
// ============================================================

// DBService implements the Store interface using SQLite.
// It manages the database connection pool, prepared statements,
// and ensures thread-safe access through a read-write mutex.
type DBService struct {
	db   *sql.DB
	mu   sync.RWMutex
	path string

	stmtInsertSession *sql.Stmt
	stmtInsertMotion  *sql.Stmt
}

// NewDBService creates a new database service, initializes the schema,
// and prepares frequently-used statements.
//
// Use ":memory:" for in-memory databases (useful for testing).
func NewDBService(path string) (*DBService, error) {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=ON&_cache_size=-16000", path)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database at %s: %w", path, err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	svc := &DBService{
		db:   db,
		path: path,
	}

	if err := svc.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	if err := svc.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("preparing statements: %w", err)
	}

	return svc, nil
}

// Path returns the database file location.
func (s *DBService) Path() string { return s.path }

func (s *DBService) initSchema() error {
	schema, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("reading embedded schema: %w", err)
	}

	if _, err := s.db.Exec(string(schema)); err != nil {
		return fmt.Errorf("executing schema: %w", err)
	}

	return nil
}

func (s *DBService) prepareStatements() error {
	var err error

	s.stmtInsertSession, err = s.db.Prepare(`
		INSERT INTO sessions (session_id, start_time, end_time, frames, metadata)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			end_time = COALESCE(excluded.end_time, sessions.end_time),
			frames = MAX(excluded.frames, sessions.frames),
			metadata = COALESCE(excluded.metadata, sessions.metadata)
	`)
	if err != nil {
		return fmt.Errorf("preparing InsertSession: %w", err)
	}

	s.stmtInsertMotion, err = s.db.Prepare(`
		INSERT INTO motions (session_id, motion_id, kind, outcome,
			from_x, from_y, from_z, to_x, to_y, to_z,
			start_time, end_time, duration_ms, frames)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id, motion_id) DO UPDATE SET
			outcome = excluded.outcome,
			end_time = COALESCE(excluded.end_time, motions.end_time),
			frames = MAX(excluded.frames, motions.frames)
	`)
	if err != nil {
		return fmt.Errorf("preparing InsertMotion: %w", err)
	}

	return nil
}

// InsertSession creates or updates a session.
func (s *DBService) InsertSession(session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var metadataJSON *string
	if session.Metadata != nil {
		b, err := json.Marshal(session.Metadata)
		if err != nil {
			return fmt.Errorf("marshaling session metadata: %w", err)
		}
		str := string(b)
		metadataJSON = &str
	}

	_, err := s.stmtInsertSession.Exec(
		session.SessionID, session.StartTime, session.EndTime,
		session.Frames, metadataJSON,
	)
	if err != nil {
		return fmt.Errorf("inserting session %s: %w", session.SessionID, err)
	}
	return nil
}

// InsertMotion records a motion or updates its terminal state.
func (s *DBService) InsertMotion(m *Motion) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.stmtInsertMotion.Exec(motionArgs(m)...); err != nil {
		return fmt.Errorf("inserting motion %s/%d: %w", m.SessionID, m.MotionID, err)
	}
	return nil
}

// BatchInsertMotions inserts multiple motions within a single transaction.
func (s *DBService) BatchInsertMotions(motions []*Motion) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning batch motion transaction: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	stmt := tx.Stmt(s.stmtInsertMotion)
	for _, m := range motions {
		if _, err := stmt.Exec(motionArgs(m)...); err != nil {
			return fmt.Errorf("batch inserting motion %s/%d: %w", m.SessionID, m.MotionID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing batch motion transaction: %w", err)
	}
	return nil
}

func motionArgs(m *Motion) []interface{} {
	return []interface{}{
		m.SessionID, m.MotionID, m.Kind, m.Outcome,
		m.From.X, m.From.Y, m.From.Z, m.To.X, m.To.Y, m.To.Z,
		m.StartTime, m.EndTime, m.DurationMs, m.Frames,
	}
}

// QuerySessions returns sessions, most recent first.
func (s *DBService) QuerySessions(filter SessionFilter) ([]*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT session_id, start_time, end_time, frames, metadata FROM sessions WHERE 1=1`
	args := make([]interface{}, 0)

	if filter.Since != nil {
		query += ` AND start_time >= ?`
		args = append(args, *filter.Since)
	}

	query += ` ORDER BY start_time DESC`
	query, args = paginate(query, args, filter.Limit, filter.Offset)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		sess := &Session{}
		var metadataStr *string
		if err := rows.Scan(&sess.SessionID, &sess.StartTime, &sess.EndTime, &sess.Frames, &metadataStr); err != nil {
			return nil, fmt.Errorf("scanning session row: %w", err)
		}
		if metadataStr != nil {
			sess.Metadata = make(map[string]string)
			if err := json.Unmarshal([]byte(*metadataStr), &sess.Metadata); err != nil {
				// Non-fatal: metadata is supplementary
				sess.Metadata = map[string]string{"_raw": *metadataStr}
			}
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// QueryMotions returns motions matching the filter, most recent first.
func (s *DBService) QueryMotions(filter MotionFilter) ([]*Motion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT session_id, motion_id, kind, outcome,
			from_x, from_y, from_z, to_x, to_y, to_z,
			start_time, end_time, duration_ms, frames
		FROM motions WHERE 1=1`
	args := make([]interface{}, 0)

	if filter.SessionID != nil {
		query += ` AND session_id = ?`
		args = append(args, *filter.SessionID)
	}
	if filter.Kind != nil {
		query += ` AND kind = ?`
		args = append(args, *filter.Kind)
	}
	if filter.Outcome != nil {
		query += ` AND outcome = ?`
		args = append(args, *filter.Outcome)
	}
	if filter.Since != nil {
		query += ` AND start_time >= ?`
		args = append(args, *filter.Since)
	}
	if filter.Until != nil {
		query += ` AND start_time <= ?`
		args = append(args, *filter.Until)
	}

	query += ` ORDER BY start_time DESC, motion_id DESC`
	query, args = paginate(query, args, filter.Limit, filter.Offset)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying motions: %w", err)
	}
	defer rows.Close()

	return scanMotions(rows)
}

// GetMotionStats aggregates motions across all sessions, or across one
// session when sessionID is not empty.
func (s *DBService) GetMotionStats(sessionID string) (*MotionStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &MotionStats{SessionID: sessionID}

	where := ``
	args := make([]interface{}, 0)
	if sessionID != "" {
		where = ` WHERE session_id = ?`
		args = append(args, sessionID)
	}

	err := s.db.QueryRow(`
		SELECT
			COUNT(*) as total_motions,
			COUNT(DISTINCT session_id) as sessions,
			COALESCE(SUM(CASE WHEN kind = 'linear' THEN 1 ELSE 0 END), 0) as linear,
			COALESCE(SUM(CASE WHEN kind = 'curved' THEN 1 ELSE 0 END), 0) as curved,
			COALESCE(SUM(CASE WHEN outcome = 'completed' THEN 1 ELSE 0 END), 0) as completed,
			COALESCE(SUM(CASE WHEN outcome = 'superseded' THEN 1 ELSE 0 END), 0) as superseded,
			COALESCE(SUM(CASE WHEN outcome = 'cancelled' THEN 1 ELSE 0 END), 0) as cancelled,
			COALESCE(SUM(CASE WHEN outcome = 'running' THEN 1 ELSE 0 END), 0) as running,
			COALESCE(SUM(frames), 0) as total_frames,
			COALESCE(AVG(CASE WHEN end_time IS NOT NULL THEN (end_time - start_time) / 1000000.0 END), 0) as avg_elapsed_ms,
			COALESCE(AVG(frames), 0) as avg_frame_count
		FROM motions`+where, args...).Scan(
		&stats.TotalMotions, &stats.Sessions, &stats.Linear, &stats.Curved,
		&stats.Completed, &stats.Superseded, &stats.Cancelled, &stats.Running,
		&stats.TotalFrames, &stats.AvgElapsedMs, &stats.AvgFrameCount,
	)
	if err != nil {
		return nil, fmt.Errorf("querying motion stats: %w", err)
	}

	return stats, nil
}

// Close gracefully shuts down the database, closing all prepared statements
// and the underlying connection pool.
func (s *DBService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, stmt := range []*sql.Stmt{s.stmtInsertSession, s.stmtInsertMotion} {
		if stmt != nil {
			stmt.Close()
		}
	}

	return s.db.Close()
}

// ============================================================
// Scan Helpers
// ============================================================

func paginate(query string, args []interface{}, limit, offset int) (string, []interface{}) {
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	} else {
		query += ` LIMIT 100`
	}
	if offset > 0 {
		query += ` OFFSET ?`
		args = append(args, offset)
	}
	return query, args
}

func scanMotions(rows *sql.Rows) ([]*Motion, error) {
	var motions []*Motion
	for rows.Next() {
		m := &Motion{}
		if err := rows.Scan(
			&m.SessionID, &m.MotionID, &m.Kind, &m.Outcome,
			&m.From.X, &m.From.Y, &m.From.Z, &m.To.X, &m.To.Y, &m.To.Z,
			&m.StartTime, &m.EndTime, &m.DurationMs, &m.Frames,
		); err != nil {
			return nil, fmt.Errorf("scanning motion row: %w", err)
		}
		motions = append(motions, m)
	}
	return motions, rows.Err()
}
