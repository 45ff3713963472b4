package uci

import (
	"fmt"
	"strings"
)

// LineKind classifies one line of engine output.
type LineKind int

const (
	// LineUnknown is any line outside the recognised set.
	LineUnknown LineKind = iota
	// LineEmpty is a blank line.
	LineEmpty
	// LineID is "id name ..." or "id author ...".
	LineID
	// LineOption is an "option name ..." declaration sent during the handshake.
	LineOption
	// LineUCIOK acknowledges the uci handshake.
	LineUCIOK
	// LineReadyOK acknowledges isready.
	LineReadyOK
	// LineInfo carries intermediate search data.
	LineInfo
	// LineBestMove terminates a search.
	LineBestMove
)

var lineKindNames = map[LineKind]string{
	LineUnknown:  "unknown",
	LineEmpty:    "empty",
	LineID:       "id",
	LineOption:   "option",
	LineUCIOK:    "uciok",
	LineReadyOK:  "readyok",
	LineInfo:     "info",
	LineBestMove: "bestmove",
}

// String returns the protocol token for the kind.
func (k LineKind) String() string {
	if name, ok := lineKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("LineKind(%d)", int(k))
}

// NoMove is what engines print as the best move when the side to move has no
// legal moves.
const NoMove = "(none)"

// Line is a classified line of engine output.
type Line struct {
	Kind LineKind
	Raw  string

	// Key and Value are set for LineID ("name", "Stockfish 16").
	Key   string
	Value string

	// Move and Ponder are set for LineBestMove. Move is empty when the
	// engine reported NoMove or omitted the field.
	Move   string
	Ponder string

	// Info is set for LineInfo.
	Info Info
}

// ParseLine classifies a raw engine line by its first token.
// Truncated lines of a known kind degrade gracefully: a bestmove without a
// move field is reported as LineUnknown, an id without a value likewise.
func ParseLine(raw string) Line {
	line := strings.TrimSpace(raw)
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Line{Kind: LineEmpty, Raw: line}
	}

	switch fields[0] {
	case "uciok":
		return Line{Kind: LineUCIOK, Raw: line}
	case "readyok":
		return Line{Kind: LineReadyOK, Raw: line}
	case "id":
		if len(fields) < 3 {
			return Line{Kind: LineUnknown, Raw: line}
		}
		return Line{Kind: LineID, Raw: line, Key: fields[1], Value: strings.Join(fields[2:], " ")}
	case "option":
		return Line{Kind: LineOption, Raw: line}
	case "info":
		return Line{Kind: LineInfo, Raw: line, Info: ParseInfo(fields[1:])}
	case "bestmove":
		if len(fields) < 2 {
			return Line{Kind: LineUnknown, Raw: line}
		}
		l := Line{Kind: LineBestMove, Raw: line}
		if fields[1] != NoMove {
			l.Move = fields[1]
		}
		if len(fields) >= 4 && fields[2] == "ponder" {
			l.Ponder = fields[3]
		}
		return l
	default:
		return Line{Kind: LineUnknown, Raw: line}
	}
}
