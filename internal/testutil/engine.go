package testutil

import (
	"strings"
	"sync"

	"github.com/roach88/ucibridge/internal/transport"
)

// ScriptedEngine answers isready with readyok and each go with the lines
// scripted for the last position sent. Replies are delivered to the attached
// handler from inside Send, so a handler must only enqueue.
//
// Lines sent before Attach are recorded but not answered.
type ScriptedEngine struct {
	mu      sync.Mutex
	handler transport.Handler
	replies map[string][]string
	last    string
	sent    []string
}

// NewScriptedEngine creates an engine with replies keyed by the exact
// position command, e.g. "position startpos moves e2e4".
func NewScriptedEngine(replies map[string][]string) *ScriptedEngine {
	if replies == nil {
		replies = make(map[string][]string)
	}
	return &ScriptedEngine{replies: replies}
}

// Attach sets the handler that receives engine output.
func (e *ScriptedEngine) Attach(h transport.Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handler = h
}

// Send implements transport.Transport.
func (e *ScriptedEngine) Send(line string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sent = append(e.sent, line)
	if e.handler == nil {
		return nil
	}

	switch {
	case line == "isready":
		e.handler.HandleLine("readyok")
	case strings.HasPrefix(line, "position "):
		e.last = line
	case strings.HasPrefix(line, "go "):
		for _, r := range e.replies[e.last] {
			e.handler.HandleLine(r)
		}
	}
	return nil
}

// Sent returns a copy of every line sent, in order.
func (e *ScriptedEngine) Sent() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.sent...)
}
