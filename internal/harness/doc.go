// Package harness replays scripted engine conversations against a session.
//
// A scenario is a YAML file listing steps (analysis requests submitted by a
// caller, lines emitted by the engine, transport faults) and assertions about
// the outcome. The harness drives a real session over an in-memory transport
// with fixed request IDs, records the transcript in an in-memory store, and
// evaluates the assertions.
//
// # Scenario Format
//
//	name: handshake_and_analyze
//	description: One request dispatched after the handshake
//	steps:
//	  - analyze: {move: e2e4, movetime_ms: 100}
//	  - engine: [uciok, readyok]
//	  - engine: ["info depth 5 score cp 20", "bestmove e7e5"]
//	assertions:
//	  - {type: phase, phase: ready}
//	  - {type: resolved, request: req-1, counter_move: e7e5, score: cp 20}
//
// Requests are numbered req-1, req-2, ... in submission order. Steps are
// processed synchronously, so a scenario is fully deterministic.
//
// # Golden Files
//
// RunWithGolden compares the transcript against
// testdata/golden/{scenario.Name}.golden. To regenerate golden files, run:
//
//	go test ./internal/harness -update
package harness
