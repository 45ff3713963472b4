package uci

import (
	"fmt"
	"strings"
	"time"
)

// Handshake and lifecycle commands.
const (
	CmdUCI        = "uci"
	CmdIsReady    = "isready"
	CmdUCINewGame = "ucinewgame"
	CmdQuit       = "quit"
)

// Option is an engine option set with setoption.
type Option struct {
	Name  string `yaml:"name" json:"name"`
	Value string `yaml:"value" json:"value"`
}

// Command returns "setoption name <N> value <V>".
func (o Option) Command() string {
	return fmt.Sprintf("setoption name %s value %s", o.Name, o.Value)
}

// DefaultOptions put the engine in analysis mode and disable contempt so
// evaluations are symmetric.
func DefaultOptions() []Option {
	return []Option{
		{Name: "UCI_AnalyseMode", Value: "true"},
		{Name: "Analysis Contempt", Value: "Off"},
	}
}

// StartFEN is the standard initial position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// Position is a position to analyze: a FEN, or the start position when FEN is
// empty, followed by moves in long algebraic notation. The FEN is opaque here
// and passed through verbatim.
type Position struct {
	FEN   string   `json:"fen,omitempty"`
	Moves []string `json:"moves,omitempty"`
}

// With returns a copy of p with moves appended.
func (p Position) With(moves ...string) Position {
	out := Position{FEN: p.FEN}
	out.Moves = append(append(out.Moves, p.Moves...), moves...)
	return out
}

// Command returns "position fen <FEN> [moves ...]" or
// "position startpos [moves ...]".
func (p Position) Command() string {
	var b strings.Builder
	b.WriteString("position ")
	if p.FEN == "" {
		b.WriteString("startpos")
	} else {
		b.WriteString("fen ")
		b.WriteString(p.FEN)
	}
	if len(p.Moves) > 0 {
		b.WriteString(" moves ")
		b.WriteString(strings.Join(p.Moves, " "))
	}
	return b.String()
}

// String is a short human-readable form used in logs.
func (p Position) String() string {
	base := p.FEN
	if base == "" {
		base = "startpos"
	}
	if len(p.Moves) == 0 {
		return base
	}
	return base + " +" + strings.Join(p.Moves, " ")
}

// Go is a bounded search request.
type Go struct {
	MoveTime time.Duration
	// Depth additionally caps the search depth when positive.
	Depth int
}

// Command returns "go movetime <ms>" with an optional depth limit.
func (g Go) Command() string {
	cmd := fmt.Sprintf("go movetime %d", g.MoveTime.Milliseconds())
	if g.Depth > 0 {
		cmd = fmt.Sprintf("go depth %d movetime %d", g.Depth, g.MoveTime.Milliseconds())
	}
	return cmd
}
