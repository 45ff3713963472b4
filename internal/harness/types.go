package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/ucibridge/internal/session"
	"github.com/roach88/ucibridge/internal/store"
)

// TraceEvent is one transcript line.
type TraceEvent struct {
	Seq       int64  `json:"seq"`
	Direction string `json:"direction"`
	Request   string `json:"request,omitempty"`
	Text      string `json:"text"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	Pass bool `json:"pass"`

	// Phase is the session phase after the last step.
	Phase string `json:"phase"`

	// Trace is the session transcript in order.
	Trace []TraceEvent `json:"trace"`

	// Analyses holds resolved requests by ID.
	Analyses map[string]session.Analysis `json:"analyses"`

	// Pending lists unresolved request IDs in submission order.
	Pending []string `json:"pending"`

	// Errors contains step and assertion failures.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:     true,
		Trace:    []TraceEvent{},
		Analyses: make(map[string]session.Analysis),
		Pending:  []string{},
		Errors:   []string{},
	}
}

// AddError adds a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Sent returns the commands sent to the engine, in order.
func (r *Result) Sent() []string {
	var out []string
	for _, ev := range r.Trace {
		if ev.Direction == string(store.DirectionOut) {
			out = append(out, ev.Text)
		}
	}
	return out
}

// Transcript renders the trace one event per line as
// "<seq> <direction> <request or -> <text>".
func (r *Result) Transcript() string {
	var b strings.Builder
	for _, ev := range r.Trace {
		req := ev.Request
		if req == "" {
			req = "-"
		}
		fmt.Fprintf(&b, "%d %s %s %s\n", ev.Seq, ev.Direction, req, ev.Text)
	}
	return b.String()
}

func traceFromEntries(entries []store.Entry) []TraceEvent {
	trace := make([]TraceEvent, len(entries))
	for i, e := range entries {
		trace[i] = TraceEvent{
			Seq:       e.Seq,
			Direction: string(e.Direction),
			Request:   e.RequestID,
			Text:      e.Text,
		}
	}
	return trace
}
