package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ucibridge/internal/store"
)

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// decode unmarshals the data field of a JSON CLIResponse into v.
func decode(t *testing.T, out string, v any) {
	t.Helper()
	var resp struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	require.Equal(t, "ok", resp.Status, out)
	require.NoError(t, json.Unmarshal(resp.Data, v))
}

func TestRootCommand_Subcommands(t *testing.T) {
	root := NewRootCommand()

	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"analyze", "compare", "hint", "trace", "test", "config"} {
		assert.True(t, names[want], "missing command %s", want)
	}

	for _, flag := range []string{"verbose", "format", "config"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(flag), "missing flag --%s", flag)
	}
}

func TestRootCommand_InvalidFormat(t *testing.T) {
	_, err := execute(t, "hint", "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}

func TestEngineFlags_Apply(t *testing.T) {
	c, err := loadConfig(&RootOptions{})
	require.NoError(t, err)

	f := EngineFlags{Engine: "/opt/sf", Database: "t.db", MoveTime: 250_000_000, Depth: 12}
	f.apply(c)

	assert.Equal(t, "/opt/sf", c.Engine.Path)
	assert.Equal(t, "t.db", c.Transcript.DB)
	assert.Equal(t, 250, c.Analysis.MoveTimeMS)
	assert.Equal(t, 12, c.Analysis.Depth)

	req := request(c)
	assert.Equal(t, int64(250_000_000), int64(req.MoveTime))
	assert.Equal(t, 12, req.Depth)
}

func TestLoadConfig_EngineFromEnv(t *testing.T) {
	t.Setenv(EngineEnv, "/usr/games/fairy")
	c, err := loadConfig(&RootOptions{})
	require.NoError(t, err)
	assert.Equal(t, "/usr/games/fairy", c.Engine.Path)
}

func TestHint_UniqueOrigin(t *testing.T) {
	out, err := execute(t, "hint", "e4", "--format", "json")
	require.NoError(t, err)

	var got HintResult
	decode(t, out, &got)
	assert.Equal(t, "e4", got.Target)
	assert.Equal(t, []string{"e2"}, got.Origins)
	assert.Equal(t, "e2e4", got.Move)
	assert.Equal(t, "white", got.SideToMove)
}

func TestHint_SeveralOrigins(t *testing.T) {
	out, err := execute(t, "hint", "d2", "--moves", "d2d4,d7d5", "--format", "json")
	require.NoError(t, err)

	var got HintResult
	decode(t, out, &got)
	assert.Equal(t, []string{"b1", "c1", "d1", "e1"}, got.Origins)
	assert.Empty(t, got.Move)
}

func TestHint_AllTargetsText(t *testing.T) {
	out, err := execute(t, "hint")
	require.NoError(t, err)
	assert.Contains(t, out, "white to move\n")
	assert.Contains(t, out, "f3 <- f2 g1\n")
	assert.Contains(t, out, "e4 <- e2\n")
}

func TestHint_Errors(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantOut  string
	}{
		{"unreachable_square", []string{"hint", "e5"}, ExitFailure, "E005"},
		{"illegal_history", []string{"hint", "--moves", "e2e5"}, ExitCommandError, "E005"},
		{"bad_fen", []string{"hint", "--fen", "not a fen"}, ExitCommandError, "invalid position"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, GetExitCode(err))
			assert.Contains(t, out, tt.wantOut)
		})
	}
}

func TestAnalyze_IllegalMoveStopsBeforeEngine(t *testing.T) {
	out, err := execute(t, "analyze", "--engine", "/nonexistent/engine", "--move", "e2e5")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E005]: illegal move e2e5 for white")
}

func TestAnalyze_EngineNotFound(t *testing.T) {
	out, err := execute(t, "analyze", "--engine", "/nonexistent/ucibridge-engine", "--move", "e2e4")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E003]")
}

func TestCompare_InvalidPosition(t *testing.T) {
	out, err := execute(t, "compare", "--engine", "/nonexistent/engine", "garbage")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E002]")
}

// fakeEngine writes a shell script that speaks enough UCI to answer each
// search with a fixed reply.
func fakeEngine(t *testing.T) string {
	return writeEngine(t, `echo "info depth 7 score cp 25 pv e7e5 g1f3"; echo "bestmove e7e5 ponder g1f3"`)
}

// writeEngine writes a shell script engine that handshakes normally and runs
// onGo for every go command.
func writeEngine(t *testing.T, onGo string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake engine needs /bin/sh")
	}
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("fake engine needs /bin/sh")
	}

	script := `#!/bin/sh
while read -r line; do
  case "$line" in
    uci) echo "id name fakefish"; echo "uciok" ;;
    isready) echo "readyok" ;;
    go*) ` + onGo + ` ;;
    quit) exit 0 ;;
  esac
done
`
	path := filepath.Join(t.TempDir(), "fakefish")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func TestAnalyze_FakeEngine(t *testing.T) {
	engine := fakeEngine(t)
	db := filepath.Join(t.TempDir(), "trace.db")

	out, err := execute(t, "analyze", "--engine", engine, "--db", db,
		"--move", "e2e4", "--movetime", "50ms", "--timeout", "10s", "--format", "json")
	require.NoError(t, err, out)

	var got struct {
		Move        string   `json:"move"`
		CounterMove string   `json:"counter_move"`
		Ponder      string   `json:"ponder"`
		Depth       int      `json:"depth"`
		PV          []string `json:"pv"`
		Score       struct {
			Kind  string `json:"kind"`
			Value int    `json:"value"`
		} `json:"score"`
	}
	decode(t, out, &got)
	assert.Equal(t, "e2e4", got.Move)
	assert.Equal(t, "e7e5", got.CounterMove)
	assert.Equal(t, "g1f3", got.Ponder)
	assert.Equal(t, 7, got.Depth)
	assert.Equal(t, []string{"e7e5", "g1f3"}, got.PV)
	assert.Equal(t, "cp", got.Score.Kind)
	assert.Equal(t, 25, got.Score.Value)

	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()

	sessions, err := st.Sessions(context.Background())
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "fakefish", sessions[0].Engine)

	entries, err := st.ReadSession(context.Background(), sessions[0].ID)
	require.NoError(t, err)
	var sent []string
	for _, e := range entries {
		if e.Direction == store.DirectionOut {
			sent = append(sent, e.Text)
		}
	}
	require.NotEmpty(t, sent)
	assert.Equal(t, "uci", sent[0])
	assert.Contains(t, sent, "position startpos moves e2e4")
	assert.Contains(t, sent, "go movetime 50")
}

func TestAnalyze_EngineExitsMidSearch(t *testing.T) {
	engine := writeEngine(t, `echo "info depth 1 score cp 5"; exit 0`)
	db := filepath.Join(t.TempDir(), "trace.db")

	out, err := execute(t, "analyze", "--engine", engine, "--db", db,
		"--move", "e2e4", "--movetime", "50ms", "--timeout", "30s")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E003]: engine exited")

	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()

	sessions, err := st.Sessions(context.Background())
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	entries, err := st.ReadSession(context.Background(), sessions[0].ID)
	require.NoError(t, err)

	var faults []store.Entry
	for _, e := range entries {
		if e.Direction == store.DirectionErr {
			faults = append(faults, e)
		}
	}
	require.Len(t, faults, 1)
	assert.Contains(t, faults[0].Text, "engine output ended")
	assert.NotEmpty(t, faults[0].RequestID)
}

func TestCompare_FakeEngine(t *testing.T) {
	engine := fakeEngine(t)
	pq := filepath.Join(t.TempDir(), "scores.parquet")
	fen := "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1"

	out, err := execute(t, "compare", "--engine", engine, "--timeout", "10s",
		"--parquet", pq, "--format", "json", fen, fen)
	require.NoError(t, err, out)

	var got CompareResult
	decode(t, out, &got)
	require.Len(t, got.Results, 2)
	for _, r := range got.Results {
		assert.Equal(t, "e7e5", r.CounterMove)
		assert.Equal(t, fen, r.Position.FEN)
	}
	assert.Equal(t, pq, got.Parquet)

	info, err := os.Stat(pq)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func seedStore(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trace.db")
	st, err := store.Open(path)
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	require.NoError(t, st.BeginSession(ctx, "sess-1", "fakefish"))
	lines := []store.Entry{
		{Seq: 1, Direction: store.DirectionOut, Text: "uci"},
		{Seq: 2, Direction: store.DirectionIn, Text: "uciok"},
		{Seq: 3, Direction: store.DirectionOut, RequestID: "req-1", Text: "position startpos moves e2e4"},
		{Seq: 4, Direction: store.DirectionIn, RequestID: "req-1", Text: "bestmove e7e5"},
	}
	for _, e := range lines {
		e.SessionID = "sess-1"
		require.NoError(t, st.Append(ctx, e))
	}
	return path
}

func TestTrace_ListSessions(t *testing.T) {
	db := seedStore(t)

	out, err := execute(t, "trace", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "sess-1")
	assert.Contains(t, out, "4 lines")
	assert.Contains(t, out, "(fakefish)")
}

func TestTrace_Session(t *testing.T) {
	db := seedStore(t)

	out, err := execute(t, "trace", "--db", db, "--session", "sess-1")
	require.NoError(t, err)
	assert.Contains(t, out, "> -            uci\n")
	assert.Contains(t, out, "< req-1        bestmove e7e5\n")
}

func TestTrace_Request(t *testing.T) {
	db := seedStore(t)

	out, err := execute(t, "trace", "--db", db, "--request", "req-1", "--format", "json")
	require.NoError(t, err)

	var got TraceResult
	decode(t, out, &got)
	require.Len(t, got.Entries, 2)
	assert.Equal(t, "position startpos moves e2e4", got.Entries[0].Text)
	assert.Equal(t, "bestmove e7e5", got.Entries[1].Text)
}

func TestTrace_MissingDatabase(t *testing.T) {
	db := filepath.Join(t.TempDir(), "absent.db")

	out, err := execute(t, "trace", "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E007]")
	assert.NoFileExists(t, db)
}

const scenarioDir = "../harness/testdata/scenarios"

func TestTestCommand_Scenarios(t *testing.T) {
	out, err := execute(t, "test", scenarioDir, "--golden", "../harness/testdata/golden", "--format", "json")
	require.NoError(t, err, out)

	var got TestSummary
	decode(t, out, &got)
	assert.Equal(t, 3, got.Total)
	assert.Equal(t, 3, got.Passed)
	for _, r := range got.Results {
		assert.Equal(t, "match", r.Golden, r.Name)
	}
}

func TestTestCommand_Filter(t *testing.T) {
	out, err := execute(t, "test", scenarioDir, "--filter", "handshake*")
	require.NoError(t, err)
	assert.Contains(t, out, "PASS  handshake_and_analyze\n")
	assert.Contains(t, out, "1 scenarios, 1 passed, 0 failed")
}

func TestTestCommand_UpdateGolden(t *testing.T) {
	golden := filepath.Join(t.TempDir(), "golden")

	_, err := execute(t, "test", scenarioDir, "--golden", golden, "--update")
	require.NoError(t, err)

	want, err := os.ReadFile("../harness/testdata/golden/serialized_requests.golden")
	require.NoError(t, err)
	got, err := os.ReadFile(filepath.Join(golden, "serialized_requests.golden"))
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got))
}

func TestTestCommand_GoldenMissing(t *testing.T) {
	out, err := execute(t, "test", scenarioDir, "--golden", t.TempDir())
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "golden missing")
}

func TestTestCommand_Errors(t *testing.T) {
	_, err := execute(t, "test", t.TempDir())
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = execute(t, "test", scenarioDir, "--update")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestConfigValidate(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(good, []byte("engine:\n  path: stockfish\n"), 0o644))
	require.NoError(t, os.WriteFile(bad, []byte("engine:\n  path: stockfish\nlog:\n  level: loud\n"), 0o644))

	out, err := execute(t, "config", "validate", good)
	require.NoError(t, err)
	assert.Equal(t, good+": ok\n", out)

	out, err = execute(t, "config", "validate", bad, "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var got ValidateResult
	decode(t, out, &got)
	assert.False(t, got.Valid)
	require.NotEmpty(t, got.Errors)
	assert.Equal(t, "log.level", got.Errors[0].Field)

	_, err = execute(t, "config", "validate")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestConfigShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine:\n  path: /opt/sf\nanalysis:\n  movetime_ms: 800\n"), 0o644))

	out, err := execute(t, "-c", path, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "path: /opt/sf")
	assert.Contains(t, out, "movetime_ms: 800")
	assert.Contains(t, out, "level: info")
}
