// Copyright 2021 The httpstream Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package transporttest provides a scripted, in-memory Transport and
// Factory for testing code that runs requests over a transport.
package transporttest

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"sync"

	"github.com/gogama/httpstream/transport"
	"go.uber.org/atomic"
)

// ErrExhausted is returned by Factory.Connect when every scripted step
// has been used.
var ErrExhausted = errors.New("httpstream/transporttest: factory script exhausted")

// A Transport is a scripted transport.Transport. Set the exported
// configuration fields before use, then inspect the counters and
// Written afterwards.
//
// The counters are safe to read while the transport is in use.
type Transport struct {
	// Chunks are delivered by the read stream, in order, one per call
	// to Next.
	Chunks [][]byte
	// ReadErr is returned by Next once Chunks are exhausted. If ReadErr
	// is nil, Next returns io.EOF instead.
	ReadErr error
	// Hang makes Next block until its context is done once Chunks are
	// exhausted, instead of returning ReadErr or io.EOF.
	Hang bool
	// WriteErr, if not nil, is returned by every Write.
	WriteErr error
	// ReadStartErr, if not nil, is returned by ReadStart.
	ReadStartErr error
	// ReadStopErr, if not nil, is returned by the first ReadStop.
	ReadStopErr error

	Writes      atomic.Int32
	ReadStarts  atomic.Int32
	ReadStops   atomic.Int32
	NilReadStop atomic.Bool
	Nexts       atomic.Int32

	mu       sync.Mutex
	written  bytes.Buffer
	started  bool
	released bool
	next     int
}

// Respond returns a Transport that answers with response, split into
// chunks of at most n bytes, followed by the end of the stream.
func Respond(response string, n int) *Transport {
	return &Transport{Chunks: Chunks([]byte(response), n)}
}

// Chunks splits b into consecutive chunks of at most n bytes each. If n
// is not positive, the whole of b is one chunk. Every chunk is a fresh
// copy.
func Chunks(b []byte, n int) [][]byte {
	if n <= 0 {
		n = len(b)
	}
	var chunks [][]byte
	for len(b) > 0 {
		k := n
		if k > len(b) {
			k = len(b)
		}
		chunks = append(chunks, append([]byte(nil), b[:k]...))
		b = b[k:]
	}
	return chunks
}

// Written returns a copy of all bytes written to the transport.
func (t *Transport) Written() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]byte(nil), t.written.Bytes()...)
}

// Write records p, unless ctx is done or WriteErr is set.
func (t *Transport) Write(ctx context.Context, p []byte) error {
	t.Writes.Inc()
	if err := ctx.Err(); err != nil {
		return err
	}
	if t.WriteErr != nil {
		return t.WriteErr
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.released {
		return transport.ErrReleased
	}
	t.written.Write(p)
	return nil
}

// ReadStart returns the scripted read stream.
func (t *Transport) ReadStart() (transport.ReadStream, error) {
	t.ReadStarts.Inc()
	if t.ReadStartErr != nil {
		return nil, t.ReadStartErr
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.released {
		return nil, transport.ErrReleased
	}
	if t.started {
		return nil, transport.ErrReadStarted
	}
	t.started = true
	return &stream{t: t}, nil
}

// ReadStop releases the transport. Every call is counted, so tests can
// detect a double release.
func (t *Transport) ReadStop(s transport.ReadStream) error {
	t.ReadStops.Inc()
	if s == nil {
		t.NilReadStop.Store(true)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.released {
		return transport.ErrReleased
	}
	t.released = true
	return t.ReadStopErr
}

type stream struct {
	t *Transport
}

func (s *stream) Next(ctx context.Context) ([]byte, error) {
	t := s.t
	t.Nexts.Inc()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t.mu.Lock()
	if t.released {
		t.mu.Unlock()
		return nil, transport.ErrReleased
	}
	if t.next < len(t.Chunks) {
		chunk := append([]byte(nil), t.Chunks[t.next]...)
		t.next++
		t.mu.Unlock()
		return chunk, nil
	}
	t.mu.Unlock()
	if t.Hang {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if t.ReadErr != nil {
		return nil, t.ReadErr
	}
	return nil, io.EOF
}

// A Step scripts the outcome of one Factory.Connect call: Err if it is
// not nil, otherwise Transport.
type Step struct {
	Transport *Transport
	Err       error
}

// A Factory is a scripted transport.Factory. The n-th call to Connect
// plays Steps[n].
type Factory struct {
	Steps []Step

	Connects atomic.Int32

	mu    sync.Mutex
	ips   []net.IP
	ports []int
}

// NewFactory returns a Factory whose connections succeed in turn with
// each of the given transports.
func NewFactory(ts ...*Transport) *Factory {
	steps := make([]Step, len(ts))
	for i, t := range ts {
		steps[i].Transport = t
	}
	return &Factory{Steps: steps}
}

// Connect plays the next scripted step.
func (f *Factory) Connect(ctx context.Context, ip net.IP, port int) (transport.Transport, error) {
	n := int(f.Connects.Inc()) - 1
	f.mu.Lock()
	f.ips = append(f.ips, ip)
	f.ports = append(f.ports, port)
	f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if n >= len(f.Steps) {
		return nil, ErrExhausted
	}
	step := f.Steps[n]
	if step.Err != nil {
		return nil, step.Err
	}
	if step.Transport == nil {
		return nil, ErrExhausted
	}
	return step.Transport, nil
}

// Dialed returns the addresses passed to Connect, in call order.
func (f *Factory) Dialed() ([]net.IP, []int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]net.IP(nil), f.ips...), append([]int(nil), f.ports...)
}
