package store

import (
	"context"
	"database/sql"
	"fmt"
)

// SessionSummary describes one recorded session.
type SessionSummary struct {
	ID        string `json:"id"`
	Engine    string `json:"engine,omitempty"`
	StartedAt string `json:"started_at"`
	Lines     int    `json:"lines"`
}

// ReadSession returns the full transcript of a session ordered by seq.
// Returns an empty slice (not nil) if the session has no entries.
func (s *Store) ReadSession(ctx context.Context, sessionID string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, seq, direction, request_id, text
		FROM transcript
		WHERE session_id = ?
		ORDER BY seq ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query transcript: %w", err)
	}
	return scanEntries(rows)
}

// ReadRequest returns the transcript lines attributed to one analysis
// request, ordered by seq.
func (s *Store) ReadRequest(ctx context.Context, requestID string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, seq, direction, request_id, text
		FROM transcript
		WHERE request_id = ?
		ORDER BY session_id ASC, seq ASC
	`, requestID)
	if err != nil {
		return nil, fmt.Errorf("query request transcript: %w", err)
	}
	return scanEntries(rows)
}

// Sessions lists recorded sessions, oldest first.
func (s *Store) Sessions(ctx context.Context) ([]SessionSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.engine, s.started_at, COUNT(t.seq)
		FROM sessions s
		LEFT JOIN transcript t ON t.session_id = s.id
		GROUP BY s.id
		ORDER BY s.started_at ASC, s.id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []SessionSummary{}
	for rows.Next() {
		var sum SessionSummary
		if err := rows.Scan(&sum.ID, &sum.Engine, &sum.StartedAt, &sum.Lines); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var dir string
		if err := rows.Scan(&e.SessionID, &e.Seq, &dir, &e.RequestID, &e.Text); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.Direction = Direction(dir)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}
