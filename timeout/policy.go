// Copyright 2021 The httpstream Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package timeout

import (
	"context"
	"time"
)

// A Phase identifies one suspension point in the request lifecycle
// that a timeout policy can bound.
type Phase int

const (
	// Resolve is the host name lookup.
	Resolve Phase = iota
	// Connect is opening the transport connection.
	Connect
	// Write is sending the request line and headers.
	Write
	// Read is waiting for the next chunk of the response. The timeout
	// applies to each chunk separately, so it acts as an idle timeout
	// rather than a bound on the whole response.
	Read
	// phaseSentinel provides the total number of phases.
	phaseSentinel
)

var phaseNames = []string{
	"Resolve",
	"Connect",
	"Write",
	"Read",
}

// Phases returns every phase, in lifecycle order.
func Phases() []Phase {
	return []Phase{Resolve, Connect, Write, Read}
}

// String returns the name of the phase.
func (p Phase) String() string {
	if p < 0 || p >= phaseSentinel {
		return "Phase(invalid)"
	}
	return phaseNames[p]
}

// A Policy defines a timeout policy which may be plugged into the
// streaming engine to direct how long each phase of a request may
// take before it is abandoned.
//
// Implementations of Policy must be safe for concurrent use by multiple
// goroutines.
type Policy interface {
	// Timeout returns the maximum duration of the given phase. The
	// engine aborts the phase, and with it the request, once the
	// duration has elapsed.
	Timeout(p Phase) time.Duration
}

// DefaultPolicy is the default timeout policy. It allows 5 seconds for
// each of resolving, connecting and writing, and 30 seconds between
// response chunks.
var DefaultPolicy Policy = PerPhase(5*time.Second, 5*time.Second, 5*time.Second, 30*time.Second)

// Infinite is a built-in timeout policy which never times out.
var Infinite Policy = Fixed(1<<63 - 1)

// Fixed constructs a timeout policy that uses the same value to bound
// every phase.
func Fixed(d time.Duration) Policy {
	return policy{d, d, d, d}
}

// PerPhase constructs a timeout policy with a separate value for each
// phase. A non-positive value means the phase never times out.
func PerPhase(resolve, connect, write, read time.Duration) Policy {
	return policy{resolve, connect, write, read}
}

type policy [phaseSentinel]time.Duration

func (p policy) Timeout(phase Phase) time.Duration {
	d := p[phase]
	if d <= 0 {
		return 1<<63 - 1
	}
	return d
}

// WithPhase returns a child of ctx bounded by the timeout policy p sets
// for phase. A nil policy means DefaultPolicy.
//
// Like context.WithTimeout, the returned cancel function must be
// called once the phase is over.
func WithPhase(ctx context.Context, p Policy, phase Phase) (context.Context, context.CancelFunc) {
	if p == nil {
		p = DefaultPolicy
	}
	d := p.Timeout(phase)
	if d == 1<<63-1 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
