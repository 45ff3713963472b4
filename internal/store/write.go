package store

import (
	"context"
	"fmt"

	"golang.org/x/text/unicode/norm"
)

// Direction says which way a transcript line travelled.
type Direction string

const (
	// DirectionOut is a command sent to the engine.
	DirectionOut Direction = "out"
	// DirectionIn is a line received from the engine.
	DirectionIn Direction = "in"
	// DirectionErr is a transport fault.
	DirectionErr Direction = "err"
)

// Entry is one transcript line.
type Entry struct {
	SessionID string    `json:"session_id"`
	Seq       int64     `json:"seq"`
	Direction Direction `json:"direction"`
	RequestID string    `json:"request_id,omitempty"`
	Text      string    `json:"text"`
}

// BeginSession registers a session and the engine it talks to.
// Re-registering is harmless; a non-empty engine name replaces an empty one.
func (s *Store) BeginSession(ctx context.Context, sessionID, engine string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, engine) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET engine = excluded.engine
		WHERE excluded.engine != ''
	`, sessionID, engine)
	if err != nil {
		return fmt.Errorf("begin session: %w", err)
	}
	return nil
}

// Append inserts a transcript entry.
// The session row is created on demand. Duplicate (session_id, seq) pairs are
// silently ignored so a replayed entry never produces a second line.
//
// Text is stored NFC-normalized; engines are free to print arbitrary UTF-8 in
// id and info string lines.
func (s *Store) Append(ctx context.Context, e Entry) error {
	if e.SessionID == "" {
		return fmt.Errorf("append entry: session id is required")
	}
	if err := s.BeginSession(ctx, e.SessionID, ""); err != nil {
		return fmt.Errorf("append entry: %w", err)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transcript (session_id, seq, direction, request_id, text)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(session_id, seq) DO NOTHING
	`,
		e.SessionID,
		e.Seq,
		string(e.Direction),
		e.RequestID,
		norm.NFC.String(e.Text),
	)
	if err != nil {
		return fmt.Errorf("append entry: %w", err)
	}
	return nil
}
