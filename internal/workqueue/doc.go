// Package workqueue implements a strictly ordered, single-flight task runner.
//
// A Queue holds pending work items. Only the head item is ever active: its
// Begin callback runs the moment it becomes head, its result may be replaced
// any number of times through Update, and its End callback receives the
// final result when Pop removes it. Items behind the head are inert until
// every item ahead of them has been popped.
//
// ORDERING:
//
// Items are begun and ended in exactly the order they were pushed. There is
// never more than one begun-but-not-ended item.
//
// OWNERSHIP:
//
// A Queue is not safe for concurrent use. It is meant to be owned by a single
// goroutine, typically an event loop that also owns whatever Begin writes to.
//
// PRECONDITIONS:
//
// Update and Pop on an empty queue are programmer errors and panic. Callers
// check Len first.
package workqueue
