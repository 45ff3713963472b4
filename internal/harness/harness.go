package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/ucibridge/internal/session"
	"github.com/roach88/ucibridge/internal/store"
	"github.com/roach88/ucibridge/internal/transport"
)

// Harness is the scenario execution engine.
// It drives a session with fixed request IDs over a recording transport.
type Harness struct {
	store   *store.Store
	session *session.Session
	pending []*session.Pending
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Create fresh in-memory database and session
// 2. Execute steps, draining the session after each
// 3. Collect transcript, phase and request outcomes
// 4. Evaluate assertions
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	ids := make([]string, scenario.RequestCount())
	for i := range ids {
		ids[i] = fmt.Sprintf("req-%d", i+1)
	}

	opts := []session.SessionOption{
		session.WithSessionID(scenario.Name),
		session.WithIDGenerator(session.NewFixedGenerator(ids...)),
		session.WithTranscript(st),
		session.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))), // Suppress logs in tests
	}
	if scenario.Options != nil {
		opts = append(opts, session.WithEngineOptions(scenario.Options...))
	}

	s, err := session.New(transport.NewRecorder(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}
	defer s.Stop()

	h := &Harness{store: st, session: s}
	ctx := context.Background()

	result := NewResult()
	for i, step := range scenario.Steps {
		if err := h.executeStep(ctx, step); err != nil {
			result.AddError(fmt.Sprintf("steps[%d]: %v", i, err))
		}
	}

	if err := h.collect(ctx, result); err != nil {
		return nil, err
	}

	for i, a := range scenario.Assertions {
		if err := evaluateAssertion(result, a); err != nil {
			result.AddError(fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return result, nil
}

func (h *Harness) executeStep(ctx context.Context, step Step) error {
	switch {
	case step.Analyze != nil:
		p, err := h.session.Analyze(ctx, step.Analyze.Request())
		if err != nil {
			return err
		}
		h.pending = append(h.pending, p)
	case len(step.Engine) > 0:
		for _, line := range step.Engine {
			h.session.HandleLine(line)
		}
	case step.Fault != "":
		h.session.HandleError(errors.New(step.Fault))
	}
	return h.session.Flush(ctx)
}

func (h *Harness) collect(ctx context.Context, result *Result) error {
	entries, err := h.store.ReadSession(ctx, h.session.ID())
	if err != nil {
		return fmt.Errorf("failed to read transcript: %w", err)
	}
	result.Trace = traceFromEntries(entries)
	result.Phase = h.session.Phase().String()

	for _, p := range h.pending {
		if a, ok := p.Result(); ok {
			result.Analyses[p.ID()] = a
		} else {
			result.Pending = append(result.Pending, p.ID())
		}
	}
	return nil
}
