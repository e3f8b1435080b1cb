// Copyright 2021 The httpstream Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"time"

	"github.com/gogama/httpstream/request"
)

// A Policy controls if and how failed attempts are retried during an
// execution. After every attempt that failed before delivering an
// event, a Policy decides whether a retry should be done and, if so,
// how long the wait period should be before the next attempt.
//
// Implementations of Policy must be safe for concurrent use by multiple
// goroutines.
//
// A Policy is composed of the Decider and Waiter interfaces. Use one
// of the built-in retry policies, DefaultPolicy or Never, or construct
// your policy using NewPolicy with existing Decider and Waiter
// implementations.
type Policy interface {
	Decider
	Waiter
}

// DefaultPolicy is a general-purpose retry policy. It is a composition
// of DefaultDecider for retry decisions and DefaultWaiter for wait time
// calculations.
var DefaultPolicy Policy = policy{DefaultDecider, DefaultWaiter}

// Never is a policy that never retries. It is the policy used by a
// zero value httpstream.Client, matching the engine's own single
// attempt behavior.
var Never Policy = policy{Times(0), DefaultWaiter}

type policy struct {
	decider Decider
	waiter  Waiter
}

// NewPolicy composes a Decider and a Waiter into a retry Policy.
func NewPolicy(d Decider, w Waiter) Policy {
	if d == nil {
		panic("httpstream/retry: nil decider")
	}
	if w == nil {
		panic("httpstream/retry: nil waiter")
	}
	return policy{decider: d, waiter: w}
}

func (p policy) Decide(e *request.Execution) bool {
	return p.decider.Decide(e)
}

func (p policy) Wait(e *request.Execution) time.Duration {
	return p.waiter.Wait(e)
}
