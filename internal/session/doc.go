// Package session mediates between callers and a single UCI analysis engine.
//
// The engine speaks an unframed line protocol with no request IDs and only
// ever works on one search at a time. A Session makes that usable: callers
// submit analysis requests and get back a Pending handle, and the session
// guarantees that the engine is only ever talking about one request.
//
// ARCHITECTURE:
//
// Single-Writer Event Loop:
// Inbound lines, transport faults and analysis submissions are all enqueued
// to one FIFO and processed by one goroutine (Run, or Flush for
// single-goroutine drivers). Only that goroutine touches the phase machine,
// the work queue, or the transport's write side.
//
// Phase Machine:
//
//	Uninitialized -> AwaitingHandshake -> AwaitingReady -> Ready
//
// New sends "uci". uciok triggers the engine options, ucinewgame and isready.
// readyok moves the session to Ready. Requests submitted earlier wait in a
// backlog and are handed to the work queue, in submission order, at that
// moment.
//
// Work Queue:
// Each request becomes one workqueue.Item. Its Begin sends the position and
// go commands; info lines update the head's score; bestmove records the
// counter move and pops the head, which resolves its Pending and begins the
// next request. With a single active head there is always exactly one
// recipient for any inbound line.
//
// FAULTS:
//
// Transport faults are logged and recorded but change nothing: the session
// keeps its phase and in-flight work is not failed. A caller whose request
// was in flight when the engine died waits until its own context gives up.
// Unrecognised engine output is ignored.
package session
