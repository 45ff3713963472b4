// Package oracle answers rules questions about a position: which moves are
// legal, which squares can be reached, and from where.
//
// The session treats positions as opaque strings; the oracle is what the
// command line uses to reject illegal moves before they reach the engine and
// to build move hints.
package oracle

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/notnil/chess"

	"github.com/roach88/ucibridge/internal/uci"
)

// ErrIllegalMove is returned when a move is not legal in the position.
var ErrIllegalMove = errors.New("illegal move")

// Board is a position with its rules state.
type Board struct {
	game *chess.Game
}

// New builds a board from pos, replaying its moves. An empty FEN is the
// standard start position.
func New(pos uci.Position) (*Board, error) {
	opts := []func(*chess.Game){chess.UseNotation(chess.UCINotation{})}
	if pos.FEN != "" {
		fen, err := chess.FEN(pos.FEN)
		if err != nil {
			return nil, fmt.Errorf("parse fen: %w", err)
		}
		opts = append(opts, fen)
	}

	b := &Board{game: chess.NewGame(opts...)}
	for _, m := range pos.Moves {
		if err := b.Play(m); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Play applies a move in long algebraic notation.
func (b *Board) Play(move string) error {
	if !b.Legal(move) {
		return fmt.Errorf("%w: %s in %s", ErrIllegalMove, move, b.FEN())
	}
	if err := b.game.MoveStr(move); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrIllegalMove, move, err)
	}
	return nil
}

// FEN returns the current position.
func (b *Board) FEN() string {
	return b.game.Position().String()
}

// SideToMove returns "white" or "black".
func (b *Board) SideToMove() string {
	if b.game.Position().Turn() == chess.White {
		return "white"
	}
	return "black"
}

// Outcome returns "*" while the game is undecided, otherwise "1-0", "0-1"
// or "1/2-1/2".
func (b *Board) Outcome() string {
	return string(b.game.Outcome())
}

// LegalMoves returns every legal move in long algebraic notation, sorted.
func (b *Board) LegalMoves() []string {
	moves := b.game.ValidMoves()
	out := make([]string, 0, len(moves))
	for _, m := range moves {
		out = append(out, encode(m))
	}
	sort.Strings(out)
	return out
}

// Legal reports whether move is legal here.
func (b *Board) Legal(move string) bool {
	move = strings.ToLower(strings.TrimSpace(move))
	for _, m := range b.game.ValidMoves() {
		if encode(m) == move {
			return true
		}
	}
	return false
}

// Targets maps every reachable destination square to the squares a piece
// can move there from. Origins are sorted and listed once even when several
// promotions share them.
func (b *Board) Targets() map[string][]string {
	targets := make(map[string][]string)
	for _, m := range b.game.ValidMoves() {
		dest, origin := m.S2().String(), m.S1().String()
		if !contains(targets[dest], origin) {
			targets[dest] = append(targets[dest], origin)
		}
	}
	for dest := range targets {
		sort.Strings(targets[dest])
	}
	return targets
}

// Hint describes the ways to reach one square.
type Hint struct {
	Target  string   `json:"target"`
	Origins []string `json:"origins"`
	Moves   []string `json:"moves"`
}

// Unique reports whether exactly one piece can reach the target.
func (h Hint) Unique() bool {
	return len(h.Origins) == 1
}

// Move returns the move to play when the hint is unique. A promotion
// defaults to a queen.
func (h Hint) Move() (string, bool) {
	if !h.Unique() {
		return "", false
	}
	for _, m := range h.Moves {
		if len(m) == 4 || strings.HasSuffix(m, "q") {
			return m, true
		}
	}
	return h.Moves[0], true
}

// Hint returns the pieces that can move to target.
// Returns ErrIllegalMove if nothing can.
func (b *Board) Hint(target string) (Hint, error) {
	target = strings.ToLower(strings.TrimSpace(target))
	h := Hint{Target: target}
	for _, m := range b.game.ValidMoves() {
		if m.S2().String() != target {
			continue
		}
		h.Moves = append(h.Moves, encode(m))
		if origin := m.S1().String(); !contains(h.Origins, origin) {
			h.Origins = append(h.Origins, origin)
		}
	}
	if len(h.Moves) == 0 {
		return Hint{}, fmt.Errorf("%w: nothing reaches %s", ErrIllegalMove, target)
	}
	sort.Strings(h.Origins)
	sort.Strings(h.Moves)
	return h, nil
}

func encode(m *chess.Move) string {
	s := m.S1().String() + m.S2().String()
	if p := m.Promo(); p != chess.NoPieceType {
		s += strings.ToLower(p.String())
	}
	return s
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
