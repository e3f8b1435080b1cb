// Copyright 2021 The httpstream Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"time"

	"github.com/gogama/httpstream/transient"
)

// An Execution represents the state of a Target's execution by the
// streaming client, which may involve more than one attempt if the
// client's retry policy asks for it.
//
// The client updates the Execution as each attempt progresses and
// returns it once the execution ends. Retry policies receive it to make
// their decisions, and should treat it as read-only.
type Execution struct {
	// Target is the request target being executed. It is never nil.
	Target *Target

	// Start is the time the execution started. It is assigned when the
	// first attempt begins and remains constant thereafter.
	Start time.Time

	// End is the time the execution ended. It contains the zero value
	// until the execution ends.
	End time.Time

	// Attempt is the zero-based number of the current attempt.
	Attempt int

	// Events is the number of events the current attempt has delivered
	// to the consumer's sink. A failed attempt may only be retried while
	// Events is zero, since the consumer must never see events from two
	// different attempts.
	Events int

	// StatusCode is the response status code seen by the current
	// attempt, or zero if no status line has been decoded.
	StatusCode int

	// Err is the error that terminated the most recent attempt, or nil
	// if it is still running or completed normally.
	Err *Error
}

// Kind returns the kind of error that terminated the most recent
// attempt, or zero if Err is nil.
func (e *Execution) Kind() ErrorKind {
	if e.Err == nil {
		return 0
	}
	return e.Err.Kind
}

// Duration returns the duration of the execution.
//
// If the execution has not started, the duration is zero. If it has
// ended, the duration is End minus Start. Otherwise it is the current
// time minus Start.
func (e *Execution) Duration() time.Duration {
	if !e.Started() {
		return time.Duration(0)
	} else if !e.Ended() {
		return time.Since(e.Start)
	}

	return e.End.Sub(e.Start)
}

// Started indicates whether the execution has started.
func (e *Execution) Started() bool {
	return e.Start != (time.Time{})
}

// Ended indicates whether the execution has ended.
func (e *Execution) Ended() bool {
	return e.End != (time.Time{})
}

// Timeout indicates whether the most recent attempt ended in a timeout.
func (e *Execution) Timeout() bool {
	if e.Err == nil {
		return false
	}
	return transient.Categorize(e.Err) == transient.Timeout
}
