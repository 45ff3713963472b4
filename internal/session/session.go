package session

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/roach88/ucibridge/internal/store"
	"github.com/roach88/ucibridge/internal/transport"
	"github.com/roach88/ucibridge/internal/uci"
	"github.com/roach88/ucibridge/internal/workqueue"
)

// Transcript persists the lines a session exchanges with its engine.
// Implemented by *store.Store.
type Transcript interface {
	BeginSession(ctx context.Context, sessionID, engine string) error
	Append(ctx context.Context, e store.Entry) error
}

// Session drives one engine through the UCI handshake and serializes
// analysis requests onto it.
//
// Thread-safety model:
//   - Analyze(), HandleLine(), HandleError(), Stop(), Phase(): any goroutine
//   - Run() or Flush(): exactly one goroutine at a time
//
// INVARIANTS:
//   - Phase only moves forward, one step at a time
//   - Only the head of the work queue has sent commands to the engine
//   - Requests begin in submission order
type Session struct {
	id         string
	transport  transport.Transport
	options    []uci.Option
	ids        IDGenerator
	clock      *Clock
	transcript Transcript
	log        *slog.Logger

	events *eventQueue
	phase  atomic.Int32

	// Owned by the loop goroutine.
	work    *workqueue.Queue[Analysis]
	backlog []workqueue.Item[Analysis]
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithEngineOptions replaces the setoption commands sent after uciok.
// The default is uci.DefaultOptions().
func WithEngineOptions(opts ...uci.Option) SessionOption {
	return func(s *Session) {
		s.options = append([]uci.Option(nil), opts...)
	}
}

// WithIDGenerator sets the generator for request IDs.
func WithIDGenerator(g IDGenerator) SessionOption {
	return func(s *Session) {
		s.ids = g
	}
}

// WithSessionID fixes the session ID instead of generating one.
func WithSessionID(id string) SessionOption {
	return func(s *Session) {
		s.id = id
	}
}

// WithTranscript records every exchanged line.
func WithTranscript(t Transcript) SessionOption {
	return func(s *Session) {
		s.transcript = t
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) SessionOption {
	return func(s *Session) {
		s.log = l
	}
}

// New creates a session on t and starts the handshake by sending "uci".
// The returned session is AwaitingHandshake; feed it engine output through
// HandleLine and run its loop with Run or Flush.
func New(t transport.Transport, opts ...SessionOption) (*Session, error) {
	s := &Session{
		transport: t,
		options:   uci.DefaultOptions(),
		ids:       UUIDv7Generator{},
		clock:     NewClock(),
		events:    newEventQueue(),
		work:      workqueue.New[Analysis](),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.id == "" {
		s.id = UUIDv7Generator{}.Generate()
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	s.log = s.log.With("session", s.id)

	if err := s.send("", uci.CmdUCI); err != nil {
		return nil, err
	}
	s.setPhase(PhaseAwaitingHandshake)
	return s, nil
}

// ID returns the session ID.
func (s *Session) ID() string {
	return s.id
}

// Phase returns the current handshake phase.
func (s *Session) Phase() Phase {
	return Phase(s.phase.Load())
}

func (s *Session) setPhase(p Phase) {
	old := Phase(s.phase.Swap(int32(p)))
	s.log.Debug("phase changed", "from", old, "to", p)
}

// HandleLine enqueues one line of engine output.
// Implements transport.Handler.
func (s *Session) HandleLine(line string) {
	if !s.events.Enqueue(lineEvent(line)) {
		s.log.Debug("dropping engine line after stop", "line", line)
	}
}

// HandleError enqueues a transport fault.
// Implements transport.Handler.
func (s *Session) HandleError(err error) {
	if !s.events.Enqueue(faultEvent(err)) {
		s.log.Debug("dropping transport fault after stop", "error", err)
	}
}

// Analyze submits a request and returns a handle on its result.
//
// Requests submitted before the handshake completes are held and dispatched
// in order once the engine is ready. Returns an INVALID_REQUEST error for a
// non-positive move time and SESSION_CLOSED after Stop.
func (s *Session) Analyze(ctx context.Context, req Request) (*Pending, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := req.validate(); err != nil {
		return nil, err
	}

	p := newPending(s.ids.Generate())
	if !s.events.Enqueue(submitEvent(req, p)) {
		return nil, newClosedError(p.ID())
	}
	return p, nil
}

// Run processes events until ctx is cancelled or Stop is called.
//
// Run must be called from exactly one goroutine.
func (s *Session) Run(ctx context.Context) error {
	s.log.Info("session starting")

	for {
		if ev, ok := s.events.TryDequeue(); ok {
			s.process(ev)
			continue
		}

		select {
		case <-ctx.Done():
			s.log.Info("session stopping: context cancelled")
			s.events.Close()
			return ctx.Err()

		case <-s.events.Wait():
			// The signal channel closes with the queue.
			if s.events.Closed() && s.events.Len() == 0 {
				s.log.Info("session stopping: queue closed")
				return nil
			}
		}
	}
}

// Flush processes every queued event, including events enqueued while
// flushing, and returns when the queue is empty.
//
// Flush is the synchronous alternative to Run for drivers that feed engine
// output themselves. It must not be called while Run is active.
func (s *Session) Flush(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		ev, ok := s.events.TryDequeue()
		if !ok {
			return nil
		}
		s.process(ev)
	}
}

// Stop closes the session to new events. Run returns once the events
// already queued are processed.
func (s *Session) Stop() {
	s.events.Close()
}

// process routes one event.
// CRITICAL: Called only from the loop goroutine.
func (s *Session) process(ev event) {
	switch ev.typ {
	case eventLine:
		s.processLine(ev.line)
	case eventFault:
		s.processFault(ev.err)
	case eventSubmit:
		s.processSubmit(ev.request, ev.pending)
	default:
		s.log.Error("unknown event type", "type", ev.typ)
	}
}

func (s *Session) processLine(raw string) {
	line := uci.ParseLine(raw)
	if line.Kind == uci.LineEmpty {
		return
	}
	s.record(store.DirectionIn, s.headID(), line.Raw)

	switch line.Kind {
	case uci.LineUCIOK:
		s.onUCIOK()
	case uci.LineReadyOK:
		s.onReadyOK()
	case uci.LineInfo:
		s.onInfo(line.Info)
	case uci.LineBestMove:
		s.onBestMove(line)
	case uci.LineID:
		s.onID(line)
	case uci.LineOption, uci.LineUnknown, uci.LineEmpty:
		s.log.Debug("ignoring engine line", "kind", line.Kind, "line", line.Raw)
	}
}

func (s *Session) onUCIOK() {
	if s.Phase() != PhaseAwaitingHandshake {
		s.log.Debug("ignoring uciok", "phase", s.Phase())
		return
	}

	for _, opt := range s.options {
		_ = s.send("", opt.Command())
	}
	_ = s.send("", uci.CmdUCINewGame)
	_ = s.send("", uci.CmdIsReady)
	s.setPhase(PhaseAwaitingReady)
}

func (s *Session) onReadyOK() {
	if s.Phase() != PhaseAwaitingReady {
		s.log.Debug("ignoring readyok", "phase", s.Phase())
		return
	}

	s.setPhase(PhaseReady)
	s.log.Info("engine ready", "backlog", len(s.backlog))

	backlog := s.backlog
	s.backlog = nil
	for _, item := range backlog {
		s.work.Push(item)
	}
}

// onInfo keeps the latest primary-line score on the head request.
// Lines without a score, or for secondary multipv lines, change nothing.
func (s *Session) onInfo(info uci.Info) {
	if s.work.Len() == 0 {
		return
	}
	if !info.Score.Known() || !info.Primary() {
		return
	}

	s.work.Update(func(a Analysis) Analysis {
		a.Score = info.Score
		if info.Depth > 0 {
			a.Depth = info.Depth
		}
		if len(info.PV) > 0 {
			a.PV = info.PV
		}
		return a
	})
}

func (s *Session) onBestMove(line uci.Line) {
	if s.work.Len() == 0 {
		s.log.Debug("ignoring bestmove with no request in flight", "line", line.Raw)
		return
	}

	s.work.Update(func(a Analysis) Analysis {
		a.CounterMove = line.Move
		a.Ponder = line.Ponder
		return a
	})
	s.work.Pop()
}

func (s *Session) onID(line uci.Line) {
	s.log.Info("engine identified", "key", line.Key, "value", line.Value)
	if line.Key != "name" || s.transcript == nil {
		return
	}
	if err := s.transcript.BeginSession(context.Background(), s.id, line.Value); err != nil {
		s.log.Warn("transcript write failed", "error", err)
	}
}

// processFault records a transport error. The phase and in-flight work are
// left as they are.
func (s *Session) processFault(err error) {
	s.log.Error("transport fault", "phase", s.Phase(), "error", err)
	s.record(store.DirectionErr, s.headID(), err.Error())
}

func (s *Session) processSubmit(req Request, p *Pending) {
	item := workqueue.Item[Analysis]{
		Begin: func() Analysis {
			return s.dispatch(req, p.ID())
		},
		End: func(a Analysis) {
			s.log.Info("analysis complete",
				"request", a.RequestID,
				"counter_move", a.CounterMove,
				"score", a.Score.String(),
			)
			if !p.resolve(a) {
				s.log.Warn("analysis resolved twice", "request", a.RequestID)
			}
		},
	}

	if s.Phase() != PhaseReady {
		s.log.Debug("holding request until engine is ready", "request", p.ID(), "phase", s.Phase())
		s.backlog = append(s.backlog, item)
		return
	}
	s.work.Push(item)
}

// dispatch sends the position and search commands for the new head request.
func (s *Session) dispatch(req Request, requestID string) Analysis {
	pos := req.position()
	s.log.Info("dispatching analysis",
		"request", requestID,
		"position", pos.String(),
		"movetime", req.MoveTime,
	)

	if err := s.send(requestID, pos.Command()); err == nil {
		_ = s.send(requestID, uci.Go{MoveTime: req.MoveTime, Depth: req.Depth}.Command())
	}
	return Analysis{RequestID: requestID, Position: req.Position, Move: req.Move}
}

// send writes one command and records it. A failed write is logged,
// recorded, and returned as a TRANSPORT_FAULT.
func (s *Session) send(requestID, line string) error {
	s.record(store.DirectionOut, requestID, line)
	if err := s.transport.Send(line); err != nil {
		s.log.Error("send failed", "request", requestID, "line", line, "error", err)
		s.record(store.DirectionErr, requestID, err.Error())
		return newTransportError(requestID, err)
	}
	return nil
}

// headID returns the request ID of the in-flight request, or "".
func (s *Session) headID() string {
	if a, ok := s.work.Head(); ok {
		return a.RequestID
	}
	return ""
}

func (s *Session) record(dir store.Direction, requestID, text string) {
	if s.transcript == nil {
		return
	}
	e := store.Entry{
		SessionID: s.id,
		Seq:       s.clock.Next(),
		Direction: dir,
		RequestID: requestID,
		Text:      text,
	}
	if err := s.transcript.Append(context.Background(), e); err != nil {
		s.log.Warn("transcript write failed", "seq", e.Seq, "error", err)
	}
}
