package uci

import (
	"fmt"
	"strconv"
	"strings"
)

// ScoreKind is the unit of an engine evaluation.
type ScoreKind string

const (
	// ScoreCP is an evaluation in centipawns.
	ScoreCP ScoreKind = "cp"
	// ScoreMate is a distance to mate in moves; negative when being mated.
	ScoreMate ScoreKind = "mate"
)

// Score is an engine evaluation from the side to move's point of view.
// The zero Score has no Kind and means no evaluation was reported.
type Score struct {
	Kind       ScoreKind `json:"kind,omitempty"`
	Value      int       `json:"value"`
	LowerBound bool      `json:"lowerbound,omitempty"`
	UpperBound bool      `json:"upperbound,omitempty"`
}

// Known reports whether the score carries an evaluation.
func (s Score) Known() bool {
	return s.Kind != ""
}

// String returns "cp 34", "mate -3" or "none".
func (s Score) String() string {
	if !s.Known() {
		return "none"
	}
	return fmt.Sprintf("%s %d", s.Kind, s.Value)
}

// Info holds the fields of one info line. Fields missing from the line keep
// their zero values.
type Info struct {
	Depth    int
	SelDepth int
	MultiPV  int
	Score    Score
	Nodes    int
	NPS      int
	Time     int
	PV       []string
	// Text is the free-form remainder of an "info string" line.
	Text string
}

// Primary reports whether the line describes the first principal variation.
// Lines without a multipv field are primary.
func (i Info) Primary() bool {
	return i.MultiPV <= 1
}

// ParseInfo parses the fields following the "info" token.
// Unrecognised keywords are skipped; truncated or non-numeric values leave the
// field unset.
func ParseInfo(fields []string) Info {
	var info Info

loop:
	for i := 0; i < len(fields); i++ {
		switch fields[i] {
		case "depth":
			info.Depth = intAfter(fields, i)
			i++
		case "seldepth":
			info.SelDepth = intAfter(fields, i)
			i++
		case "multipv":
			info.MultiPV = intAfter(fields, i)
			i++
		case "nodes":
			info.Nodes = intAfter(fields, i)
			i++
		case "nps":
			info.NPS = intAfter(fields, i)
			i++
		case "time":
			info.Time = intAfter(fields, i)
			i++
		case "hashfull", "tbhits", "currmovenumber", "currmove", "cpuload":
			i++
		case "score":
			if i+2 >= len(fields) {
				break loop
			}
			kind := ScoreKind(fields[i+1])
			value, err := strconv.Atoi(fields[i+2])
			if err == nil && (kind == ScoreCP || kind == ScoreMate) {
				info.Score = Score{Kind: kind, Value: value}
			}
			i += 2
		case "lowerbound":
			info.Score.LowerBound = true
		case "upperbound":
			info.Score.UpperBound = true
		case "pv":
			if i+1 < len(fields) {
				info.PV = append([]string(nil), fields[i+1:]...)
			}
			break loop
		case "string":
			info.Text = strings.Join(fields[i+1:], " ")
			break loop
		}
	}

	return info
}

func intAfter(fields []string, i int) int {
	if i+1 >= len(fields) {
		return 0
	}
	n, err := strconv.Atoi(fields[i+1])
	if err != nil {
		return 0
	}
	return n
}
