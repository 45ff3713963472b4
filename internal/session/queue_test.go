package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventQueue_FIFO(t *testing.T) {
	q := newEventQueue()

	q.Enqueue(lineEvent("A"))
	q.Enqueue(faultEvent(errors.New("B")))
	q.Enqueue(lineEvent("C"))

	e1, ok := q.TryDequeue()
	require.True(t, ok)
	assert.Equal(t, eventLine, e1.typ)
	assert.Equal(t, "A", e1.line)

	e2, ok := q.TryDequeue()
	require.True(t, ok)
	assert.Equal(t, eventFault, e2.typ)
	assert.EqualError(t, e2.err, "B")

	e3, ok := q.TryDequeue()
	require.True(t, ok)
	assert.Equal(t, "C", e3.line)

	_, ok = q.TryDequeue()
	assert.False(t, ok)
}

func TestEventQueue_SignalCoalesces(t *testing.T) {
	q := newEventQueue()

	q.Enqueue(lineEvent("a"))
	q.Enqueue(lineEvent("b"))

	select {
	case <-q.Wait():
	case <-time.After(time.Second):
		t.Fatal("expected a signal")
	}

	select {
	case <-q.Wait():
		t.Fatal("signals should coalesce")
	default:
	}
	assert.Equal(t, 2, q.Len())
}

func TestEventQueue_Close(t *testing.T) {
	q := newEventQueue()
	q.Enqueue(lineEvent("queued"))

	q.Close()
	q.Close()

	assert.True(t, q.Closed())
	assert.False(t, q.Enqueue(lineEvent("late")), "enqueue after close should fail")

	select {
	case <-q.Wait():
	default:
		t.Fatal("wait channel should be closed")
	}

	e, ok := q.TryDequeue()
	require.True(t, ok, "queued events survive close")
	assert.Equal(t, "queued", e.line)
}

func TestEventQueue_ConcurrentEnqueue(t *testing.T) {
	q := newEventQueue()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				q.Enqueue(lineEvent("x"))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1000, q.Len())
}

func TestClock_Monotonic(t *testing.T) {
	c := NewClock()
	assert.Equal(t, int64(1), c.Next())
	assert.Equal(t, int64(2), c.Next())
	assert.Equal(t, int64(3), c.Next())
}

func TestFixedGenerator(t *testing.T) {
	g := NewFixedGenerator("a", "b")
	assert.Equal(t, "a", g.Generate())
	assert.Equal(t, "b", g.Generate())
	assert.Panics(t, func() { g.Generate() })
}

func TestUUIDv7Generator_Sortable(t *testing.T) {
	g := UUIDv7Generator{}
	first := g.Generate()
	time.Sleep(2 * time.Millisecond)
	second := g.Generate()

	assert.Len(t, first, 36)
	assert.Less(t, first, second)
}

func TestPhase_String(t *testing.T) {
	assert.Equal(t, "awaiting_ready", PhaseAwaitingReady.String())
	assert.Equal(t, "Phase(9)", Phase(9).String())
}

func TestSessionError_Message(t *testing.T) {
	err := newTransportError("req-1", errors.New("broken pipe"))
	assert.Equal(t, "TRANSPORT_FAULT: send failed (request=req-1): broken pipe", err.Error())
	assert.True(t, IsTransportFault(err))
	assert.False(t, IsClosed(err))
	assert.False(t, IsClosed(errors.New("plain")))
}
