// Package testutil provides stand-ins for an engine and a transcript store.
//
// ScriptedEngine is a transport.Transport that answers isready and go the
// way a real engine would, so sessions can be driven end to end without a
// process. Transcript keeps transcript rows in memory.
package testutil
