// Copyright 2021 The httpstream Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpstream

// A State is a step of the request lifecycle.
//
// A request moves forward through Resolving, Connecting, Writing,
// Reading and Draining to Done. It moves to Failed from whichever state
// it is in when it fails. Done and Failed are terminal.
type State int32

const (
	// Idle is the state of a request that has not begun.
	Idle State = iota
	// Resolving means the target host name is being resolved.
	Resolving
	// Connecting means a transport is being opened to the chosen
	// address.
	Connecting
	// Writing means the request is being written to the transport.
	Writing
	// Reading means response chunks are being read and decoded.
	Reading
	// Draining means the response stream has ended and the decoder is
	// being finalized.
	Draining
	// Done means the request completed normally.
	Done
	// Failed means the request terminated with an error.
	Failed
	// stateSentinel provides the total number of states.
	stateSentinel
)

var stateNames = []string{
	"Idle",
	"Resolving",
	"Connecting",
	"Writing",
	"Reading",
	"Draining",
	"Done",
	"Failed",
}

// String returns the name of the state.
func (s State) String() string {
	if s < 0 || s >= stateSentinel {
		return "State(invalid)"
	}
	return stateNames[s]
}

// Terminal reports whether s is Done or Failed.
func (s State) Terminal() bool {
	return s == Done || s == Failed
}
