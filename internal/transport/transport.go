// Package transport provides duplex line channels to an analysis engine.
//
// A Transport only writes. Inbound lines and channel faults are delivered to
// a Handler by whoever reads the engine's output, one call at a time, in
// arrival order.
package transport

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strings"
	"sync"
)

// Transport sends one command line to the engine.
type Transport interface {
	Send(line string) error
}

// Handler receives inbound engine output.
type Handler interface {
	HandleLine(line string)
	HandleError(err error)
}

// ErrClosed is returned by Send after the transport has been closed.
var ErrClosed = errors.New("transport is closed")

// maxLineSize bounds a single engine line. Long pv lines at high depth are a
// few KB; 1 MiB leaves headroom for "info string" dumps.
const maxLineSize = 1 << 20

// Pump reads newline-delimited lines from r and hands each to h until r is
// exhausted or closed. Any other read failure is reported to h and returned.
func Pump(r io.Reader, h Handler) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		h.HandleLine(strings.TrimRight(scanner.Text(), "\r"))
	}
	err := scanner.Err()
	if err == nil || errors.Is(err, os.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		return nil
	}
	h.HandleError(err)
	return err
}

// Recorder is an in-memory Transport that keeps every line sent through it.
// It stands in for an engine process in tests and scripted replays.
type Recorder struct {
	mu     sync.Mutex
	sent   []string
	fail   error
	closed bool
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Send records line, or returns the injected failure.
func (r *Recorder) Send(line string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	if r.fail != nil {
		return r.fail
	}
	r.sent = append(r.sent, line)
	return nil
}

// Sent returns a copy of every line sent so far.
func (r *Recorder) Sent() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.sent...)
}

// Reset forgets recorded lines.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = nil
}

// FailWith makes subsequent sends return err. A nil err clears the failure.
func (r *Recorder) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fail = err
}

// Close makes subsequent sends return ErrClosed.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}
