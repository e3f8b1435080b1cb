// Copyright 2021 The httpstream Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpstream

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/gogama/httpstream/request"
	"github.com/gogama/httpstream/resolve"
	"github.com/gogama/httpstream/timeout"
	"github.com/gogama/httpstream/transport"
	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// A Request runs one streaming GET request: it resolves the target
// host, connects a transport, writes the request, and decodes the
// response into events as the response bytes arrive.
//
// A Request is single-use. Use a Client for retries and a simpler
// interface.
type Request struct {
	target     *request.Target
	resolver   resolve.Resolver
	factory    transport.Factory
	newDecoder func() Decoder
	timeouts   timeout.Policy
	logger     *zap.Logger

	state atomic.Int32
	begun atomic.Bool
}

// An Option configures a Request.
type Option func(*Request)

// WithLogger sets the logger a Request writes its lifecycle to. The
// default is a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Request) {
		if l != nil {
			r.logger = l.Named("httpstream")
		}
	}
}

// WithDecoder sets the function a Request calls to create its response
// decoder. The default creates a *parser.Parser.
func WithDecoder(newDecoder func() Decoder) Option {
	return func(r *Request) {
		if newDecoder != nil {
			r.newDecoder = newDecoder
		}
	}
}

// WithTimeoutPolicy sets the per-phase timeout policy of a Request. The
// default is timeout.DefaultPolicy.
func WithTimeoutPolicy(p timeout.Policy) Option {
	return func(r *Request) {
		if p != nil {
			r.timeouts = p
		}
	}
}

// NewRequest constructs a Request for target.
//
// A nil resolver means resolve.Default, and a nil factory means a zero
// value transport.TCP.
func NewRequest(target *request.Target, resolver resolve.Resolver, factory transport.Factory, opts ...Option) *Request {
	if target == nil {
		panic("httpstream: nil target")
	}
	if resolver == nil {
		resolver = resolve.Default
	}
	if factory == nil {
		factory = &transport.TCP{}
	}
	r := &Request{
		target:     target,
		resolver:   resolver,
		factory:    factory,
		newDecoder: newParser,
		timeouts:   timeout.DefaultPolicy,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Target returns the request target.
func (r *Request) Target() *request.Target {
	return r.target
}

// State returns the current lifecycle state. It is safe to call from
// any goroutine.
func (r *Request) State() State {
	return State(r.state.Load())
}

// Begin runs the request to completion on the calling goroutine,
// delivering its events to sink in order.
//
// If the request fails, the last event delivered is an ErrorEvent and
// Begin returns the same *Error it carries. If the request succeeds, no
// ErrorEvent is delivered and Begin returns nil. Begin returns ErrBegun,
// without delivering any event, if the request was already begun.
//
// The transport, once connected, is always released before Begin
// returns.
func (r *Request) Begin(ctx context.Context, sink Sink) error {
	if sink == nil {
		panic("httpstream: nil sink")
	}
	if !r.begun.CompareAndSwap(false, true) {
		return ErrBegun
	}

	log := r.logger.With(zap.String("host", r.target.Host()), zap.Int("port", r.target.Port()))
	em := &emitter{sink: sink}
	if err := r.run(ctx, em, log); err != nil {
		r.transition(Failed, log)
		log.Debug("request failed", zap.Error(err))
		em.emit(Failure(err))
		return err
	}
	r.transition(Done, log)
	em.done = true
	return nil
}

func (r *Request) transition(s State, log *zap.Logger) {
	r.state.Store(int32(s))
	log.Debug("state", zap.Stringer("state", s))
}

func (r *Request) run(ctx context.Context, em *emitter, log *zap.Logger) *Error {
	t := r.target

	r.transition(Resolving, log)
	rctx, cancel := timeout.WithPhase(ctx, r.timeouts, timeout.Resolve)
	ips, err := r.resolver.Resolve(rctx, t.Host())
	cancel()
	if err != nil {
		return &Error{Kind: ErrorDnsResolution, Op: "resolve", Err: err}
	}
	if len(ips) == 0 {
		return &Error{Kind: ErrorDnsResolution, Op: "resolve", Err: resolve.ErrNoAddress}
	}
	ip := resolve.SelectIPv4(ips)
	if ip == nil {
		return &Error{Kind: ErrorMisc, Op: "resolve", Err: resolve.ErrNoIPv4}
	}
	log = log.With(zap.Stringer("ip", ip))

	r.transition(Connecting, log)
	cctx, cancel := timeout.WithPhase(ctx, r.timeouts, timeout.Connect)
	tr, err := r.factory.Connect(cctx, ip, t.Port())
	cancel()
	if err != nil {
		return &Error{Kind: ErrorConnect, Op: "connect", Err: err}
	}

	r.transition(Writing, log)
	wire := request.Build(t)
	wctx, cancel := timeout.WithPhase(ctx, r.timeouts, timeout.Write)
	err = tr.Write(wctx, wire)
	cancel()
	if err != nil {
		return release(tr, nil, &Error{Kind: ErrorMisc, Op: "write", Err: err}, log)
	}
	log.Debug("request written", zap.Int("bytes", len(wire)))

	r.transition(Reading, log)
	s, err := tr.ReadStart()
	if err != nil {
		return release(tr, nil, &Error{Kind: ErrorMisc, Op: "read start", Err: err}, log)
	}
	dec := r.newDecoder()
	cb := newBridge(em, dec, log).callbacks()
	for {
		rdctx, cancel := timeout.WithPhase(ctx, r.timeouts, timeout.Read)
		chunk, err := s.Next(rdctx)
		cancel()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return release(tr, s, &Error{Kind: ErrorMisc, Op: "read", Err: err}, log)
		}
		log.Debug("chunk", zap.Int("bytes", len(chunk)))
		if n := dec.Execute(chunk, cb); n != len(chunk) || dec.Err() != nil {
			err := dec.Err()
			if err == nil {
				err = fmt.Errorf("%w: %d of %d bytes", errShortConsume, n, len(chunk))
			}
			return release(tr, s, &Error{Kind: ErrorMisc, Op: "decode", Err: err}, log)
		}
	}

	r.transition(Draining, log)
	dec.Execute(nil, cb)
	if err := dec.Err(); err != nil {
		log.Warn("response incomplete at end of stream", zap.Error(err))
	}
	return release(tr, s, nil, log)
}

// release stops reading and releases tr. A release error is combined
// into e if the request failed, and logged otherwise.
func release(tr transport.Transport, s transport.ReadStream, e *Error, log *zap.Logger) *Error {
	err := tr.ReadStop(s)
	if err == nil {
		return e
	}
	if e != nil {
		e.Err = multierr.Append(e.Err, err)
		return e
	}
	log.Warn("transport release failed", zap.Error(err))
	return nil
}
