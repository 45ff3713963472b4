package transport

import (
	"context"
	"errors"
	"io"
	"os/exec"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collector is a Handler that keeps everything it is given.
type collector struct {
	mu     sync.Mutex
	lines  []string
	errs   []error
	signal chan struct{}
}

func newCollector() *collector {
	return &collector{signal: make(chan struct{}, 64)}
}

func (c *collector) HandleLine(line string) {
	c.mu.Lock()
	c.lines = append(c.lines, line)
	c.mu.Unlock()
	c.signal <- struct{}{}
}

func (c *collector) HandleError(err error) {
	c.mu.Lock()
	c.errs = append(c.errs, err)
	c.mu.Unlock()
}

func (c *collector) Lines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.lines...)
}

type failingReader struct{ err error }

func (r failingReader) Read([]byte) (int, error) { return 0, r.err }

func TestPump_DeliversLinesInOrder(t *testing.T) {
	c := newCollector()
	err := Pump(strings.NewReader("id name Test\r\nuciok\n\nreadyok"), c)

	require.NoError(t, err)
	assert.Equal(t, []string{"id name Test", "uciok", "", "readyok"}, c.Lines())
	assert.Empty(t, c.errs)
}

func TestPump_ReportsReadFailure(t *testing.T) {
	c := newCollector()
	boom := errors.New("boom")

	err := Pump(failingReader{err: boom}, c)

	assert.ErrorIs(t, err, boom)
	require.Len(t, c.errs, 1)
	assert.ErrorIs(t, c.errs[0], boom)
}

func TestRecorder(t *testing.T) {
	r := NewRecorder()

	require.NoError(t, r.Send("uci"))
	require.NoError(t, r.Send("isready"))
	assert.Equal(t, []string{"uci", "isready"}, r.Sent())

	boom := errors.New("broken pipe")
	r.FailWith(boom)
	assert.ErrorIs(t, r.Send("go movetime 10"), boom)
	r.FailWith(nil)

	r.Reset()
	assert.Empty(t, r.Sent())

	require.NoError(t, r.Close())
	assert.ErrorIs(t, r.Send("uci"), ErrClosed)
}

func TestStart_RequiresPath(t *testing.T) {
	_, err := Start(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "engine path is required")
}

func TestStart_MissingBinary(t *testing.T) {
	_, err := Start(context.Background(), "/nonexistent/engine-binary")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "locate engine")
}

// TestProcess_EchoEngine uses cat as an engine that echoes every command.
func TestProcess_EchoEngine(t *testing.T) {
	if _, err := exec.LookPath("cat"); err != nil {
		t.Skip("cat not available")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	p, err := Start(ctx, "cat")
	require.NoError(t, err)

	c := newCollector()
	listenDone := make(chan error, 1)
	go func() { listenDone <- p.Listen(ctx, c) }()

	require.NoError(t, p.Send("uciok"))

	select {
	case <-c.signal:
	case <-ctx.Done():
		t.Fatal("no line echoed back")
	}
	assert.Equal(t, "uciok", c.Lines()[0])

	require.NoError(t, p.Close())
	assert.ErrorIs(t, p.Send("isready"), ErrClosed)
	assert.NoError(t, p.Close(), "second close is a no-op")

	select {
	case err := <-listenDone:
		assert.NoError(t, err)
	case <-ctx.Done():
		t.Fatal("listen did not return after close")
	}
}

func startShell(t *testing.T, ctx context.Context, script string) *Process {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	p, err := Start(ctx, "sh", "-c", script)
	require.NoError(t, err)
	return p
}

func TestProcess_ExitWithoutCloseIsFault(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	p := startShell(t, ctx, "echo uciok")
	c := newCollector()

	err := p.Listen(ctx, c)

	assert.ErrorIs(t, err, ErrEngineExited)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Equal(t, []string{"uciok"}, c.Lines())
	require.Len(t, c.errs, 1)
	assert.ErrorIs(t, c.errs[0], ErrEngineExited)

	assert.NoError(t, p.Close())
}

func TestProcess_CloseDeliversFinalLines(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	p := startShell(t, ctx, `echo ready; read line; echo "bye $line"`)
	c := newCollector()
	listenDone := make(chan error, 1)
	go func() { listenDone <- p.Listen(ctx, c) }()

	select {
	case <-c.signal:
	case <-ctx.Done():
		t.Fatal("engine never spoke")
	}
	require.NoError(t, p.Close())

	assert.Equal(t, []string{"ready", "bye quit"}, c.Lines())
	assert.Empty(t, c.errs)
	select {
	case err := <-listenDone:
		assert.NoError(t, err)
	case <-ctx.Done():
		t.Fatal("listen did not return after close")
	}
}
