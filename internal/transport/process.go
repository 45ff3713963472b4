package transport

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/roach88/ucibridge/internal/uci"
)

// closeTimeout is how long Close waits for the engine to exit after quit
// before killing it.
const closeTimeout = 3 * time.Second

// Process is an engine running as a child process, spoken to over its
// standard input and output.
type Process struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
	stderr io.ReadCloser

	mu        sync.Mutex
	closed    bool
	listening bool
	listened  chan struct{} // closed when Listen returns
}

// Start launches the engine binary at path.
func Start(ctx context.Context, path string, args ...string) (*Process, error) {
	if path == "" {
		return nil, errors.New("engine path is required")
	}
	resolved, err := exec.LookPath(path)
	if err != nil {
		return nil, fmt.Errorf("locate engine: %w", err)
	}

	cmd := exec.CommandContext(ctx, resolved, args...)
	cmd.Dir = filepath.Dir(resolved)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start engine: %w", err)
	}

	slog.Debug("engine process started", "path", resolved, "pid", cmd.Process.Pid)
	return &Process{cmd: cmd, stdin: stdin, stdout: stdout, stderr: stderr, listened: make(chan struct{})}, nil
}

// Send writes a single command line to the engine.
func (p *Process) Send(line string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	if !strings.HasSuffix(line, "\n") {
		line += "\n"
	}
	_, err := io.WriteString(p.stdin, line)
	return err
}

// ErrEngineExited reports engine output ending without Close being called.
var ErrEngineExited = fmt.Errorf("engine output ended: %w", io.ErrUnexpectedEOF)

// Listen delivers engine stdout to h line by line and logs stderr, until the
// engine's output ends. It must be called at most once.
//
// EOF after Close returns nil. EOF while the process is still meant to be
// running is a fault: it is passed to h.HandleError and returned.
func (p *Process) Listen(ctx context.Context, h Handler) error {
	p.mu.Lock()
	p.listening = true
	p.mu.Unlock()
	defer close(p.listened)

	go p.drainStderr(ctx)
	if err := Pump(p.stdout, h); err != nil {
		return err
	}

	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return nil
	}
	h.HandleError(ErrEngineExited)
	return ErrEngineExited
}

func (p *Process) drainStderr(ctx context.Context) {
	r := bufio.NewScanner(p.stderr)
	for r.Scan() {
		select {
		case <-ctx.Done():
			return
		default:
		}
		slog.Warn("engine stderr", "line", r.Text())
	}
	if err := r.Err(); err != nil && !errors.Is(err, io.ErrClosedPipe) {
		slog.Debug("engine stderr closed", "error", err)
	}
}

// Close asks the engine to quit and waits for it, killing it if it does not
// exit in time. A running Listen is allowed to drain stdout before the
// process is reaped, so the engine's last lines still reach the handler.
// Close is idempotent.
func (p *Process) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	_ = p.Send(uci.CmdQuit)

	p.mu.Lock()
	p.closed = true
	listening := p.listening
	_ = p.stdin.Close()
	p.mu.Unlock()

	timer := time.NewTimer(closeTimeout)
	defer timer.Stop()

	if listening {
		select {
		case <-p.listened:
		case <-timer.C:
			_ = p.cmd.Process.Kill()
			_ = p.cmd.Wait()
			return errExitTimeout
		}
	}

	done := make(chan error, 1)
	go func() { done <- p.cmd.Wait() }()
	select {
	case err := <-done:
		return err
	case <-timer.C:
		_ = p.cmd.Process.Kill()
		return errExitTimeout
	}
}

var errExitTimeout = errors.New("engine did not exit in time")
