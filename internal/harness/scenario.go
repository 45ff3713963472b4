package harness

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/ucibridge/internal/session"
	"github.com/roach88/ucibridge/internal/uci"
)

// Scenario is a scripted conversation between callers, a session and an
// engine.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Options overrides the setoption list sent after uciok. Absent means
	// the session defaults.
	Options []uci.Option `yaml:"options,omitempty"`

	// Steps run in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final state.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is exactly one of Analyze, Engine or Fault.
type Step struct {
	// Analyze submits a request.
	Analyze *AnalyzeStep `yaml:"analyze,omitempty"`

	// Engine feeds lines as if the engine had printed them.
	Engine []string `yaml:"engine,omitempty"`

	// Fault reports a transport error with this message.
	Fault string `yaml:"fault,omitempty"`
}

// AnalyzeStep mirrors session.Request in YAML form.
type AnalyzeStep struct {
	FEN        string   `yaml:"fen,omitempty"`
	Moves      []string `yaml:"moves,omitempty"`
	Move       string   `yaml:"move,omitempty"`
	MoveTimeMS int      `yaml:"movetime_ms"`
	Depth      int      `yaml:"depth,omitempty"`
}

// Request converts the step into a session request.
func (a AnalyzeStep) Request() session.Request {
	return session.Request{
		Position: uci.Position{FEN: a.FEN, Moves: a.Moves},
		Move:     a.Move,
		MoveTime: time.Duration(a.MoveTimeMS) * time.Millisecond,
		Depth:    a.Depth,
	}
}

// Assertion validates the outcome of a scenario.
type Assertion struct {
	// Type specifies the assertion type:
	// - "phase": the session ended in Phase
	// - "resolved": Request resolved, optionally with CounterMove and Score
	// - "pending": Request has not resolved
	// - "sent": Line was sent to the engine
	// - "sent_order": Lines were sent in this order, not necessarily adjacent
	Type string `yaml:"type"`

	// Phase is the expected phase name (used by phase).
	Phase string `yaml:"phase,omitempty"`

	// Request is a request ID such as "req-1" (used by resolved, pending).
	Request string `yaml:"request,omitempty"`

	// CounterMove is the expected best reply (used by resolved).
	// "(none)" expects an empty counter move.
	CounterMove string `yaml:"counter_move,omitempty"`

	// Score is the expected score as "cp 20", "mate -3" or "none"
	// (used by resolved).
	Score string `yaml:"score,omitempty"`

	// Line is a command (used by sent).
	Line string `yaml:"line,omitempty"`

	// Lines are commands in expected order (used by sent_order).
	Lines []string `yaml:"lines,omitempty"`
}

// Assertion type constants.
const (
	AssertPhase     = "phase"
	AssertResolved  = "resolved"
	AssertPending   = "pending"
	AssertSent      = "sent"
	AssertSentOrder = "sent_order"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates a scenario document.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict decoding catches typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// RequestCount returns the number of analyze steps.
func (s *Scenario) RequestCount() int {
	n := 0
	for _, step := range s.Steps {
		if step.Analyze != nil {
			n++
		}
	}
	return n
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		set := 0
		if step.Analyze != nil {
			set++
			if step.Analyze.MoveTimeMS <= 0 {
				return fmt.Errorf("steps[%d].analyze: movetime_ms must be positive", i)
			}
		}
		if len(step.Engine) > 0 {
			set++
		}
		if step.Fault != "" {
			set++
		}
		if set != 1 {
			return fmt.Errorf("steps[%d]: exactly one of analyze, engine or fault is required", i)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertPhase:
		if a.Phase == "" {
			return fmt.Errorf("assertions[%d]: phase is required for phase", index)
		}
	case AssertResolved, AssertPending:
		if a.Request == "" {
			return fmt.Errorf("assertions[%d]: request is required for %s", index, a.Type)
		}
	case AssertSent:
		if a.Line == "" {
			return fmt.Errorf("assertions[%d]: line is required for sent", index)
		}
	case AssertSentOrder:
		if len(a.Lines) == 0 {
			return fmt.Errorf("assertions[%d]: lines list is required for sent_order", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
