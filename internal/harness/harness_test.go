package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarios_Golden(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)

			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestRun_ResolvedAnalysis(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/handshake_and_analyze.yaml")
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)

	require.Contains(t, result.Analyses, "req-1")
	a := result.Analyses["req-1"]
	assert.Equal(t, "e7e5", a.CounterMove)
	assert.Equal(t, "g1f3", a.Ponder)
	assert.Equal(t, 5, a.Depth)
	assert.Equal(t, []string{"e7e5"}, a.PV)
	assert.Empty(t, result.Pending)
}

func TestRun_FailingAssertions(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: failing
description: Every assertion here is wrong
options: []
steps:
  - analyze: {movetime_ms: 10}
  - engine: [uciok]
assertions:
  - {type: phase, phase: ready}
  - {type: resolved, request: req-1}
  - {type: pending, request: req-9}
  - {type: sent, line: go movetime 10}
  - {type: sent_order, lines: [isready, ucinewgame]}
`))
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	assert.Len(t, result.Errors, 5)
	assert.Equal(t, "awaiting_ready", result.Phase)
	assert.Equal(t, []string{"req-1"}, result.Pending)
	assert.Contains(t, result.Errors[0], "Assertion failed: phase")
}

func TestRun_WrongCounterMoveAndScore(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: mismatch
description: Resolved but with different values
steps:
  - engine: [uciok, readyok]
  - analyze: {movetime_ms: 10}
  - engine: ["info depth 3 score mate 2", "bestmove d8h4"]
assertions:
  - {type: resolved, request: req-1, counter_move: e7e5}
  - {type: resolved, request: req-1, score: cp 0}
  - {type: resolved, request: req-1, counter_move: d8h4, score: mate 2}
`))
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)

	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], `"d8h4"`)
	assert.Contains(t, result.Errors[1], "mate 2")
}

func TestResult_Transcript(t *testing.T) {
	r := NewResult()
	r.Trace = []TraceEvent{
		{Seq: 1, Direction: "out", Text: "uci"},
		{Seq: 2, Direction: "in", Request: "req-1", Text: "bestmove e7e5"},
	}

	assert.Equal(t, "1 out - uci\n2 in req-1 bestmove e7e5\n", r.Transcript())
	assert.Equal(t, []string{"uci"}, r.Sent())
}

func TestAssertionError_Format(t *testing.T) {
	err := &AssertionError{Type: "sent", Expected: "isready", Actual: "not sent", Sent: []string{"uci"}}
	assert.Equal(t, "Assertion failed: sent\n  Expected: isready\n  Actual: not sent\n\nSent:\n  [1] uci\n", err.Error())
}
