// Copyright 2021 The httpstream Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transport

import (
	"context"
	"errors"
	"net"
)

var (
	// ErrReadStarted is returned by Transport.ReadStart when the read
	// side of the transport was already started.
	ErrReadStarted = errors.New("httpstream/transport: read already started")
	// ErrReleased is returned by any Transport method called after
	// the transport was released by ReadStop.
	ErrReleased = errors.New("httpstream/transport: transport released")
)

// A Transport is one bidirectional byte-stream connection, used for
// exactly one request and never reused.
//
// The owner writes the request, starts reading at most once, and
// finally releases the transport by calling ReadStop exactly once, on
// every path.
type Transport interface {
	// Write sends all of p, or returns an error.
	Write(ctx context.Context, p []byte) error
	// ReadStart starts the read side of the transport and returns the
	// stream of incoming chunks. It returns ErrReadStarted on a second
	// call.
	ReadStart() (ReadStream, error)
	// ReadStop stops reading and releases the transport. Pass the
	// stream returned by ReadStart, or nil if the read side was never
	// started.
	ReadStop(s ReadStream) error
}

// A ReadStream delivers the chunks read from a Transport, in order.
type ReadStream interface {
	// Next blocks until the next chunk is available and returns it. The
	// returned slice is owned by the caller and is never reused by the
	// stream. At the end of the stream Next returns io.EOF; any other
	// error means the read failed.
	Next(ctx context.Context) ([]byte, error)
}

// A Factory opens transports. A Factory makes exactly one connection
// attempt per call: it never retries on its own.
//
// Implementations of Factory must be safe for concurrent use by multiple
// goroutines.
type Factory interface {
	Connect(ctx context.Context, ip net.IP, port int) (Transport, error)
}

// The FactoryFunc type is an adapter to allow the use of ordinary
// functions as transport factories.
type FactoryFunc func(ctx context.Context, ip net.IP, port int) (Transport, error)

// Connect calls f(ctx, ip, port).
func (f FactoryFunc) Connect(ctx context.Context, ip net.IP, port int) (Transport, error) {
	return f(ctx, ip, port)
}
