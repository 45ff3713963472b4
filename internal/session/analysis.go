package session

import (
	"context"
	"sync"
	"time"

	"github.com/roach88/ucibridge/internal/uci"
)

// Request asks the engine for the best reply to Move played from Position.
type Request struct {
	// Position is the position before Move.
	Position uci.Position

	// Move is the move under analysis in UCI long algebraic notation.
	// Empty analyzes Position itself.
	Move string

	// MoveTime bounds the search. Must be positive.
	MoveTime time.Duration

	// Depth optionally bounds the search by plies as well.
	Depth int
}

// position is the position the engine is asked to search.
func (r Request) position() uci.Position {
	if r.Move == "" {
		return r.Position
	}
	return r.Position.With(r.Move)
}

func (r Request) validate() error {
	if r.MoveTime <= 0 {
		return newInvalidRequestError("move time must be positive")
	}
	if r.Depth < 0 {
		return newInvalidRequestError("depth must not be negative")
	}
	return nil
}

// Analysis is the engine's verdict on one Request.
type Analysis struct {
	RequestID string       `json:"request_id"`
	Position  uci.Position `json:"position"`
	Move      string       `json:"move,omitempty"`

	// CounterMove is the engine's best reply. Empty when the engine
	// reported no legal move.
	CounterMove string `json:"counter_move"`
	Ponder      string `json:"ponder,omitempty"`

	// Score is the last primary-line evaluation seen before bestmove.
	Score uci.Score `json:"score"`
	Depth int       `json:"depth,omitempty"`
	PV    []string  `json:"pv,omitempty"`
}

// Pending is a handle on a submitted request.
// It resolves exactly once, when the engine's bestmove for it arrives.
type Pending struct {
	id     string
	done   chan struct{}
	once   sync.Once
	result Analysis
}

func newPending(id string) *Pending {
	return &Pending{id: id, done: make(chan struct{})}
}

// ID returns the request ID assigned at submission.
func (p *Pending) ID() string {
	return p.id
}

// Done is closed once the result is available.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Result returns the analysis if it has resolved.
func (p *Pending) Result() (Analysis, bool) {
	select {
	case <-p.done:
		return p.result, true
	default:
		return Analysis{}, false
	}
}

// Wait blocks until the analysis resolves or ctx is done.
// Giving up does not withdraw the request from the engine.
func (p *Pending) Wait(ctx context.Context) (Analysis, error) {
	select {
	case <-p.done:
		return p.result, nil
	case <-ctx.Done():
		return Analysis{}, ctx.Err()
	}
}

// resolve reports whether this call delivered the result.
func (p *Pending) resolve(a Analysis) bool {
	delivered := false
	p.once.Do(func() {
		p.result = a
		close(p.done)
		delivered = true
	})
	return delivered
}
