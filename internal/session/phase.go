package session

import "fmt"

// Phase is the session's position in the UCI handshake.
type Phase int32

const (
	// PhaseUninitialized is the state before "uci" has been sent.
	PhaseUninitialized Phase = iota
	// PhaseAwaitingHandshake waits for uciok.
	PhaseAwaitingHandshake
	// PhaseAwaitingReady waits for readyok after options and ucinewgame.
	PhaseAwaitingReady
	// PhaseReady accepts analysis work.
	PhaseReady
)

var phaseNames = map[Phase]string{
	PhaseUninitialized:     "uninitialized",
	PhaseAwaitingHandshake: "awaiting_handshake",
	PhaseAwaitingReady:     "awaiting_ready",
	PhaseReady:             "ready",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Phase(%d)", int32(p))
}
