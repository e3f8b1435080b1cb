// Copyright 2021 The httpstream Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transport

import (
	"context"
	"errors"
	"io"
	"net"
	"strconv"
	"time"
)

// DefaultReadBufferSize is the size of each chunk buffer allocated by a
// TCP transport when TCP.ReadBufferSize is not positive.
const DefaultReadBufferSize = 64 * 1024

// aLongTimeAgo is a deadline in the past, used to unblock a pending
// read or write on the connection immediately.
var aLongTimeAgo = time.Unix(1, 0)

// TCP is a Factory that opens plain IPv4 TCP connections. Its zero
// value is ready to use.
type TCP struct {
	// Dialer is used to open connections. If Dialer is nil, a zero
	// net.Dialer is used.
	Dialer *net.Dialer
	// ReadBufferSize is the size of the buffer allocated for every
	// read. If ReadBufferSize is not positive, DefaultReadBufferSize
	// is used.
	ReadBufferSize int
}

var zeroDialer net.Dialer

// Connect dials ip:port over tcp4.
func (f *TCP) Connect(ctx context.Context, ip net.IP, port int) (Transport, error) {
	d := f.Dialer
	if d == nil {
		d = &zeroDialer
	}
	conn, err := d.DialContext(ctx, "tcp4", net.JoinHostPort(ip.String(), strconv.Itoa(port)))
	if err != nil {
		return nil, err
	}
	size := f.ReadBufferSize
	if size <= 0 {
		size = DefaultReadBufferSize
	}
	return &tcpTransport{conn: conn, size: size}, nil
}

// tcpTransport is owned by a single request and is not safe for
// concurrent use.
type tcpTransport struct {
	conn     net.Conn
	size     int
	started  bool
	released bool
}

func (t *tcpTransport) Write(ctx context.Context, p []byte) error {
	if t.released {
		return ErrReleased
	}
	if err := t.conn.SetWriteDeadline(deadline(ctx)); err != nil {
		return err
	}
	stop := t.watch(ctx)
	_, err := t.conn.Write(p)
	stop()
	return t.mapErr(ctx, err)
}

func (t *tcpTransport) ReadStart() (ReadStream, error) {
	if t.released {
		return nil, ErrReleased
	}
	if t.started {
		return nil, ErrReadStarted
	}
	t.started = true
	return &tcpStream{t: t}, nil
}

func (t *tcpTransport) ReadStop(_ ReadStream) error {
	if t.released {
		return ErrReleased
	}
	t.released = true
	return t.conn.Close()
}

// watch arranges for a blocked connection operation to return as soon
// as ctx is done. The returned function must be called once the
// operation returns, and does not return until the deadline poke, if
// any, has finished.
func (t *tcpTransport) watch(ctx context.Context) func() {
	if ctx.Done() == nil {
		return func() {}
	}
	poked := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		_ = t.conn.SetDeadline(aLongTimeAgo)
		close(poked)
	})
	return func() {
		if !stop() {
			<-poked
		}
	}
}

// mapErr prefers the context error over the deadline error it caused.
func (t *tcpTransport) mapErr(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

func deadline(ctx context.Context) time.Time {
	d, _ := ctx.Deadline()
	return d
}

type tcpStream struct {
	t   *tcpTransport
	err error
}

func (s *tcpStream) Next(ctx context.Context) ([]byte, error) {
	t := s.t
	if t.released {
		return nil, ErrReleased
	}
	if s.err != nil {
		return nil, s.err
	}
	if err := t.conn.SetReadDeadline(deadline(ctx)); err != nil {
		return nil, err
	}
	buf := make([]byte, t.size)
	var n int
	var err error
	stop := t.watch(ctx)
	for n == 0 && err == nil {
		n, err = t.conn.Read(buf)
	}
	stop()
	if errors.Is(err, io.EOF) {
		err = io.EOF
	} else {
		err = t.mapErr(ctx, err)
	}
	if n > 0 {
		s.err = err
		return buf[:n], nil
	}
	return nil, err
}
