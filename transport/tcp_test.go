// Copyright 2021 The httpstream Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transport

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestFactoryFunc(t *testing.T) {
	var gotIP net.IP
	var gotPort int
	f := FactoryFunc(func(_ context.Context, ip net.IP, port int) (Transport, error) {
		gotIP, gotPort = ip, port
		return nil, syscall.ECONNREFUSED
	})
	tr, err := f.Connect(context.Background(), net.IPv4(127, 0, 0, 1), 8080)
	assert.Nil(t, tr)
	assert.Equal(t, syscall.ECONNREFUSED, err)
	assert.True(t, gotIP.Equal(net.IPv4(127, 0, 0, 1)))
	assert.Equal(t, 8080, gotPort)
}

func TestTCP(t *testing.T) {
	t.Run("connect refused", testTCPConnectRefused)
	t.Run("exchange", testTCPExchange)
	t.Run("small buffer", testTCPSmallBuffer)
	t.Run("read canceled", testTCPReadCanceled)
	t.Run("read deadline", testTCPReadDeadline)
	t.Run("release without read", testTCPReleaseWithoutRead)
}

func testTCPConnectRefused(t *testing.T) {
	l, ip, port := listen(t)
	require.NoError(t, l.Close())

	tr, err := (&TCP{}).Connect(context.Background(), ip, port)
	assert.Nil(t, tr)
	require.Error(t, err)
	assert.True(t, errors.Is(err, syscall.ECONNREFUSED))
}

func testTCPExchange(t *testing.T) {
	l, ip, port := listen(t)
	defer l.Close()
	req := []byte("GET / HTTP/1.0\r\nHost: localhost\r\n\r\n")
	resp := []byte("HTTP/1.0 200 OK\r\n\r\nTest")
	got := serve(t, l, len(req), func(c net.Conn) {
		_, _ = c.Write(resp)
	})

	tr, err := (&TCP{}).Connect(context.Background(), ip, port)
	require.NoError(t, err)
	require.NoError(t, tr.Write(context.Background(), req))
	s, err := tr.ReadStart()
	require.NoError(t, err)
	_, err = tr.ReadStart()
	assert.Same(t, ErrReadStarted, err)

	data := readAll(t, s)
	assert.Equal(t, resp, data)
	_, err = s.Next(context.Background())
	assert.Equal(t, io.EOF, err)

	require.NoError(t, tr.ReadStop(s))
	assert.Same(t, ErrReleased, tr.ReadStop(s))
	assert.Same(t, ErrReleased, tr.Write(context.Background(), req))
	_, err = s.Next(context.Background())
	assert.Same(t, ErrReleased, err)
	_, err = tr.ReadStart()
	assert.Same(t, ErrReleased, err)
	assert.Equal(t, req, <-got)
}

func testTCPSmallBuffer(t *testing.T) {
	l, ip, port := listen(t)
	defer l.Close()
	resp := []byte("HTTP/1.0 200 OK\r\n\r\nTest")
	got := serve(t, l, 0, func(c net.Conn) {
		_, _ = c.Write(resp)
	})

	tr, err := (&TCP{ReadBufferSize: 4}).Connect(context.Background(), ip, port)
	require.NoError(t, err)
	s, err := tr.ReadStart()
	require.NoError(t, err)
	var all bytes.Buffer
	for {
		chunk, err := s.Next(context.Background())
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		assert.LessOrEqual(t, len(chunk), 4)
		all.Write(chunk)
	}
	assert.Equal(t, resp, all.Bytes())
	require.NoError(t, tr.ReadStop(s))
	<-got
}

func testTCPReadCanceled(t *testing.T) {
	l, ip, port := listen(t)
	defer l.Close()
	release := make(chan struct{})
	got := serve(t, l, 0, func(_ net.Conn) {
		<-release
	})
	defer func() {
		close(release)
		<-got
	}()

	tr, err := (&TCP{}).Connect(context.Background(), ip, port)
	require.NoError(t, err)
	s, err := tr.ReadStart()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)
	chunk, err := s.Next(ctx)
	assert.Nil(t, chunk)
	assert.True(t, errors.Is(err, context.Canceled))
	require.NoError(t, tr.ReadStop(s))
}

func testTCPReadDeadline(t *testing.T) {
	l, ip, port := listen(t)
	defer l.Close()
	release := make(chan struct{})
	got := serve(t, l, 0, func(_ net.Conn) {
		<-release
	})
	defer func() {
		close(release)
		<-got
	}()

	tr, err := (&TCP{}).Connect(context.Background(), ip, port)
	require.NoError(t, err)
	s, err := tr.ReadStart()
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	chunk, err := s.Next(ctx)
	assert.Nil(t, chunk)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	require.NoError(t, tr.ReadStop(s))
}

func testTCPReleaseWithoutRead(t *testing.T) {
	l, ip, port := listen(t)
	defer l.Close()
	got := serve(t, l, 0, func(_ net.Conn) {})

	tr, err := (&TCP{}).Connect(context.Background(), ip, port)
	require.NoError(t, err)
	require.NoError(t, tr.ReadStop(nil))
	assert.Same(t, ErrReleased, tr.ReadStop(nil))
	<-got
}

func listen(t *testing.T) (net.Listener, net.IP, int) {
	l, err := net.Listen("tcp4", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().(*net.TCPAddr)
	return l, addr.IP, addr.Port
}

// serve accepts one connection, reads n request bytes from it, runs
// respond and closes the connection. The returned channel receives the
// request bytes once the connection is closed.
func serve(t *testing.T, l net.Listener, n int, respond func(net.Conn)) <-chan []byte {
	got := make(chan []byte, 1)
	go func() {
		c, err := l.Accept()
		if err != nil {
			got <- nil
			return
		}
		defer c.Close()
		req := make([]byte, n)
		_, err = io.ReadFull(c, req)
		assert.NoError(t, err)
		respond(c)
		got <- req
	}()
	return got
}

func readAll(t *testing.T, s ReadStream) []byte {
	var b bytes.Buffer
	for {
		chunk, err := s.Next(context.Background())
		if err == io.EOF {
			return b.Bytes()
		}
		require.NoError(t, err)
		b.Write(chunk)
	}
}
