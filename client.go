// Copyright 2021 The httpstream Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpstream

import (
	"context"
	"time"

	"github.com/gogama/httpstream/request"
	"github.com/gogama/httpstream/resolve"
	"github.com/gogama/httpstream/retry"
	"github.com/gogama/httpstream/timeout"
	"github.com/gogama/httpstream/transport"
	"go.uber.org/zap"
)

// A Client runs streaming GET requests with optional retry support. Its
// zero value is a valid configuration.
//
// The zero value client uses resolve.Default as the resolver, a zero
// value transport.TCP as the transport factory, timeout.DefaultPolicy
// as the timeout policy, retry.Never as the retry policy, and a no-op
// logger.
//
// Client is safe for concurrent use by multiple goroutines, provided
// its fields are not changed while requests are running. Every request
// runs on its own Request engine, so independent requests share no
// mutable state.
//
// On top of the Request engine, Client adds the following features:
//
// • Client parses the URL into a request.Target;
//
// • Client retries failed attempts using a customizable retry policy,
// but only if the failed attempt delivered no event at all, so the
// consumer never sees events from two attempts; and
//
// • Client records the outcome in a request.Execution.
type Client struct {
	// Resolver resolves target host names.
	//
	// If Resolver is nil, resolve.Default is used.
	Resolver resolve.Resolver
	// Transport opens connections to resolved addresses.
	//
	// If Transport is nil, a zero value transport.TCP is used.
	Transport transport.Factory
	// TimeoutPolicy bounds each phase of an attempt.
	//
	// If TimeoutPolicy is nil, timeout.DefaultPolicy is used.
	TimeoutPolicy timeout.Policy
	// RetryPolicy decides when to retry a failed attempt and how long
	// to sleep before retrying. It is only consulted for attempts that
	// failed before delivering any event.
	//
	// If RetryPolicy is nil, retry.Never is used.
	RetryPolicy retry.Policy
	// Logger receives the client's and the engine's debug logs.
	//
	// If Logger is nil, nothing is logged.
	Logger *zap.Logger
}

// Do runs a streaming GET request for t, delivering its events to sink,
// and returns the final execution state.
//
// The events delivered are those of a single attempt: every earlier
// attempt failed without delivering anything, and its error was
// suppressed in favour of the retry. The sink therefore receives at
// most one ErrorEvent, always last.
//
// The returned Execution is never nil. If the final attempt failed,
// the returned error is the *request.Error carried by the ErrorEvent,
// and the Execution's Err field references the same error.
func (c *Client) Do(ctx context.Context, t *request.Target, sink Sink) (*request.Execution, error) {
	if t == nil {
		panic("httpstream: nil target")
	}
	if sink == nil {
		panic("httpstream: nil sink")
	}

	retryPolicy := c.RetryPolicy
	if retryPolicy == nil {
		retryPolicy = retry.Never
	}
	logger := c.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	log := logger.Named("httpstream").With(zap.Stringer("target", t))

	e := &request.Execution{
		Target: t,
		Start:  time.Now(),
	}

RetryLoop:
	for {
		g := &gate{sink: sink, e: e}
		r := NewRequest(t, c.Resolver, c.Transport,
			WithLogger(logger.With(zap.Int("attempt", e.Attempt))),
			WithTimeoutPolicy(c.TimeoutPolicy))
		if r.Begin(ctx, g) == nil {
			break
		}
		e.Err = g.held.Err
		if e.Events > 0 || ctx.Err() != nil || !retryPolicy.Decide(e) {
			sink.Handle(*g.held)
			break
		}
		wait := retryPolicy.Wait(e)
		log.Debug("retrying", zap.Int("attempt", e.Attempt), zap.Duration("wait", wait), zap.Error(e.Err))
		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			sink.Handle(*g.held)
			break RetryLoop
		}
		e.Attempt++
		e.Err = nil
	}

	e.End = time.Now()
	if e.Err != nil {
		return e, e.Err
	}
	return e, nil
}

// Get parses url and runs a streaming GET request for it, following the
// same policies as Do. The scheme may be omitted, but must be "http"
// if present.
//
// If url is invalid, Get returns a nil Execution and the parse error
// without delivering any event.
func (c *Client) Get(ctx context.Context, url string, sink Sink) (*request.Execution, error) {
	return Get(ctx, c, url, sink)
}

// gate forwards an attempt's events to the consumer, except for the
// terminal error, which it holds until the client decides whether to
// retry.
type gate struct {
	sink Sink
	e    *request.Execution
	held *Event
}

func (g *gate) Handle(evt Event) {
	if evt.Kind == ErrorEvent {
		g.held = &evt
		return
	}
	g.e.Events++
	if evt.Kind == StatusEvent {
		g.e.StatusCode = evt.Status
	}
	g.sink.Handle(evt)
}
