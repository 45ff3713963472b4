package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/ucibridge/internal/uci"
)

// AssertionError is returned when an assertion fails.
// It includes the commands sent so a failure can be read without rerunning.
type AssertionError struct {
	Type     string   // Assertion type for categorization
	Expected string   // Human-readable expected outcome
	Actual   string   // Human-readable actual outcome
	Sent     []string // Commands sent to the engine
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Sent) > 0 {
		fmt.Fprintf(&buf, "\nSent:\n")
		for i, line := range e.Sent {
			fmt.Fprintf(&buf, "  [%d] %s\n", i+1, line)
		}
	}
	return buf.String()
}

func evaluateAssertion(r *Result, a Assertion) error {
	switch a.Type {
	case AssertPhase:
		return assertPhase(r, a)
	case AssertResolved:
		return assertResolved(r, a)
	case AssertPending:
		return assertPending(r, a)
	case AssertSent:
		return assertSent(r, a)
	case AssertSentOrder:
		return assertSentOrder(r, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func assertPhase(r *Result, a Assertion) error {
	if r.Phase == a.Phase {
		return nil
	}
	return &AssertionError{Type: a.Type, Expected: a.Phase, Actual: r.Phase, Sent: r.Sent()}
}

func assertResolved(r *Result, a Assertion) error {
	got, ok := r.Analyses[a.Request]
	if !ok {
		return &AssertionError{
			Type:     a.Type,
			Expected: a.Request + " resolved",
			Actual:   "still pending",
			Sent:     r.Sent(),
		}
	}

	if a.CounterMove != "" {
		want := a.CounterMove
		if want == uci.NoMove {
			want = ""
		}
		if got.CounterMove != want {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%s counter move %q", a.Request, want),
				Actual:   fmt.Sprintf("%q", got.CounterMove),
			}
		}
	}

	if a.Score != "" && got.Score.String() != a.Score {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%s score %s", a.Request, a.Score),
			Actual:   got.Score.String(),
		}
	}
	return nil
}

func assertPending(r *Result, a Assertion) error {
	for _, id := range r.Pending {
		if id == a.Request {
			return nil
		}
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: a.Request + " pending",
		Actual:   fmt.Sprintf("pending %v", r.Pending),
	}
}

func assertSent(r *Result, a Assertion) error {
	for _, line := range r.Sent() {
		if line == a.Line {
			return nil
		}
	}
	return &AssertionError{Type: a.Type, Expected: a.Line, Actual: "not sent", Sent: r.Sent()}
}

// assertSentOrder checks that lines were sent in order. Lines don't need to
// be consecutive (intervening commands are allowed).
func assertSentOrder(r *Result, a Assertion) error {
	sent := r.Sent()
	next := 0
	for _, line := range sent {
		if next < len(a.Lines) && line == a.Lines[next] {
			next++
		}
	}
	if next == len(a.Lines) {
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: strings.Join(a.Lines, " -> "),
		Actual:   fmt.Sprintf("stopped matching at %q", a.Lines[next]),
		Sent:     sent,
	}
}
