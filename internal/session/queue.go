package session

import "sync"

// eventType distinguishes between event kinds.
type eventType int

const (
	// eventLine is a line of engine output.
	eventLine eventType = iota + 1
	// eventFault is a transport error.
	eventFault
	// eventSubmit is a new analysis request.
	eventSubmit
)

// event is one unit of input for the session loop.
type event struct {
	typ     eventType
	line    string
	err     error
	request Request
	pending *Pending
}

// eventQueue is a thread-safe FIFO of session events.
//
// Transport readers and callers of Analyze enqueue from their own goroutines;
// the session loop is the only consumer. The queue is unbounded so a reader
// never blocks on a slow consumer and reorders nothing.
//
// The queue uses a channel for signaling to enable context-aware waiting
// in the Run loop.
type eventQueue struct {
	mu     sync.Mutex
	events []event
	closed bool
	signal chan struct{} // Signals event availability (buffered, size 1)
}

func newEventQueue() *eventQueue {
	return &eventQueue{
		events: make([]event, 0, 64),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds an event to the back of the queue.
// Returns false if the queue is closed.
func (q *eventQueue) Enqueue(e event) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.events = append(q.events, e)

	// Non-blocking; the size-1 buffer coalesces signals.
	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// TryDequeue removes and returns the front event without blocking.
// Returns (event{}, false) if the queue is empty.
func (q *eventQueue) TryDequeue() (event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return event{}, false
	}

	e := q.events[0]

	// Clear the slot so the Pending it references can be collected.
	q.events[0] = event{}

	if len(q.events) == 1 {
		q.events = q.events[:0]
	} else {
		q.events = q.events[1:]
	}

	return e, true
}

// Wait returns a channel that signals when events may be available.
// The channel is closed when the queue is closed.
func (q *eventQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the current queue length.
func (q *eventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Close stops the queue from accepting events and wakes any waiter.
// Events already queued can still be dequeued.
func (q *eventQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.closed = true
	close(q.signal)
}

// Closed reports whether Close has been called.
func (q *eventQueue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// lineEvent and faultEvent keep call sites short.
func lineEvent(line string) event { return event{typ: eventLine, line: line} }

func faultEvent(err error) event { return event{typ: eventFault, err: err} }

func submitEvent(req Request, p *Pending) event {
	return event{typ: eventSubmit, request: req, pending: p}
}
