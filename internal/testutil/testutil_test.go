package testutil

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ucibridge/internal/store"
)

type lineSink struct {
	mu    sync.Mutex
	lines []string
}

func (s *lineSink) HandleLine(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = append(s.lines, line)
}

func (s *lineSink) HandleError(error) {}

func TestScriptedEngine_Replies(t *testing.T) {
	eng := NewScriptedEngine(map[string][]string{
		"position startpos moves e2e4": {"info depth 3 score cp 10", "bestmove e7e5"},
	})
	sink := &lineSink{}

	require.NoError(t, eng.Send("uci"))
	eng.Attach(sink)
	require.NoError(t, eng.Send("isready"))
	require.NoError(t, eng.Send("position startpos moves e2e4"))
	require.NoError(t, eng.Send("go movetime 100"))
	require.NoError(t, eng.Send("position startpos moves d2d4"))
	require.NoError(t, eng.Send("go movetime 100"))

	assert.Equal(t, []string{"readyok", "info depth 3 score cp 10", "bestmove e7e5"}, sink.lines)
	assert.Len(t, eng.Sent(), 6)
	assert.Equal(t, "uci", eng.Sent()[0])
}

func TestScriptedEngine_NoHandler(t *testing.T) {
	eng := NewScriptedEngine(nil)
	assert.NoError(t, eng.Send("isready"))
	assert.Equal(t, []string{"isready"}, eng.Sent())
}

func TestTranscript(t *testing.T) {
	ctx := context.Background()
	tr := NewTranscript()

	require.NoError(t, tr.BeginSession(ctx, "s", "Stockfish 16"))
	require.NoError(t, tr.BeginSession(ctx, "s", ""))
	require.NoError(t, tr.Append(ctx, store.Entry{SessionID: "s", Seq: 1, Direction: store.DirectionOut, Text: "uci"}))

	assert.Equal(t, "Stockfish 16", tr.Engine("s"))
	require.Len(t, tr.Entries(), 1)
	assert.Equal(t, "uci", tr.Entries()[0].Text)

	tr.Reset()
	assert.Empty(t, tr.Entries())
	assert.Empty(t, tr.Engine("s"))
}

func TestTranscript_ConcurrentAppend(t *testing.T) {
	tr := NewTranscript()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(seq int64) {
			defer wg.Done()
			_ = tr.Append(context.Background(), store.Entry{SessionID: "s", Seq: seq})
		}(int64(i))
	}
	wg.Wait()
	assert.Len(t, tr.Entries(), 50)
}
