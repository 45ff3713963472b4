package session

import (
	"context"
	"time"

	"github.com/roach88/ucibridge/internal/uci"
)

// DefaultCompareMoveTime is the per-position search time Compare uses when
// moveTime is zero.
const DefaultCompareMoveTime = 100 * time.Millisecond

// Compare evaluates each FEN in turn and returns the analyses in input order.
//
// All positions are submitted up front and searched one after another. If
// ctx ends early, the analyses completed so far are returned with the error.
func (s *Session) Compare(ctx context.Context, fens []string, moveTime time.Duration) ([]Analysis, error) {
	if len(fens) == 0 {
		return nil, newInvalidRequestError("no positions to compare")
	}
	if moveTime == 0 {
		moveTime = DefaultCompareMoveTime
	}

	pending := make([]*Pending, 0, len(fens))
	for _, fen := range fens {
		p, err := s.Analyze(ctx, Request{
			Position: uci.Position{FEN: fen},
			MoveTime: moveTime,
		})
		if err != nil {
			return nil, err
		}
		pending = append(pending, p)
	}

	results := make([]Analysis, 0, len(pending))
	for _, p := range pending {
		a, err := p.Wait(ctx)
		if err != nil {
			return results, err
		}
		results = append(results, a)
	}
	return results, nil
}
