// Copyright 2021 The httpstream Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"math/rand"
	"sync"
	"time"

	"github.com/gogama/httpstream/request"
)

// A Waiter specifies how long to wait before retrying a failed
// attempt.
//
// Implementations of Waiter must be safe for concurrent use by multiple
// goroutines. The client never calls the Waiter if the policy Decider
// returned false.
type Waiter interface {
	Wait(e *request.Execution) time.Duration
}

// DefaultWaiter is the default retry wait policy. It uses a jittered
// exponential backoff formula with a base wait of 50 milliseconds and a
// maximum wait of 1 second.
var DefaultWaiter = NewExpWaiter(50*time.Millisecond, 1*time.Second, time.Now())

// NewFixedWaiter constructs a Waiter that always returns the given
// duration.
func NewFixedWaiter(d time.Duration) Waiter {
	return fixedWaiter(d)
}

type fixedWaiter time.Duration

func (w fixedWaiter) Wait(_ *request.Execution) time.Duration {
	return time.Duration(w)
}

// NewExpWaiter constructs a Waiter implementing a "Full Jitter"
// exponential backoff: the wait before retry n is a random duration
// between zero and
//
//	ceil := min(base * 2**n, max)
//
// Base must be positive and max must be at least base.
//
// Parameter jitter seeds the random number generator. Pass nil for no
// jitter, in which case the waiter returns ceil every time. Otherwise
// pass a seed (time.Time, int or int64), a rand.Source, or a *rand.Rand.
func NewExpWaiter(base, max time.Duration, jitter interface{}) Waiter {
	if base < 1 {
		panic("httpstream/retry: base must be positive")
	}
	if max < base {
		panic("httpstream/retry: max must be at least base")
	}
	return &expWaiter{
		base: base,
		max:  max,
		rand: jitterToRand(jitter),
	}
}

type expWaiter struct {
	base time.Duration
	max  time.Duration

	mu   sync.Mutex
	rand *rand.Rand
}

func (w *expWaiter) Wait(e *request.Execution) time.Duration {
	ceil := w.max
	if e.Attempt < 63 {
		if c := w.base << uint(e.Attempt); c >= w.base && c>>uint(e.Attempt) == w.base && c < w.max {
			ceil = c
		}
	}

	if w.rand == nil {
		return ceil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return time.Duration(w.rand.Int63n(int64(ceil)))
}

func jitterToRand(jitter interface{}) *rand.Rand {
	switch j := jitter.(type) {
	case nil:
		return nil
	case time.Time:
		return rand.New(rand.NewSource(j.UnixNano()))
	case int:
		return rand.New(rand.NewSource(int64(j)))
	case int64:
		return rand.New(rand.NewSource(j))
	case *rand.Rand:
		if j == nil {
			panic("httpstream/retry: jitter may not be a typed nil")
		}
		return j
	case rand.Source:
		return rand.New(j)
	default:
		panic("httpstream/retry: invalid jitter type")
	}
}
