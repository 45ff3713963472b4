// Package uci encodes commands for, and classifies output from, engines that
// speak the Universal Chess Interface.
//
// Engine output is an unframed stream of lines with no request IDs. ParseLine
// turns each line into a Line whose Kind is one of a closed set of
// LineKind values, so callers switch over every kind explicitly instead of
// matching strings. Lines the package does not recognise come back as
// LineUnknown and are never an error.
//
// info lines are parsed as keyword/value pairs. Field order and presence vary
// between engines and between lines of the same search, so nothing here
// relies on a field sitting at a fixed offset.
package uci
