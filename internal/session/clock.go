package session

import "sync/atomic"

// Clock is a monotonic logical clock that numbers transcript entries.
//
// Sequence numbers, not wall-clock timestamps, order a transcript, so two
// lines recorded in the same millisecond still read back in the order the
// session saw them.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}
