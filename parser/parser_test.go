// Copyright 2021 The httpstream Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package parser

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParser(t *testing.T) {
	testCases := []struct {
		name          string
		msg           string
		status        int
		major, minor  int
		contentLength int64
		header        map[string]string
		body          string
		needsEOF      bool
	}{
		{
			name:          "content length",
			msg:           "HTTP/1.1 200 OK\r\nContent-Length: 4\r\nX-Foo: bar\r\n\r\nTest",
			status:        200,
			major:         1,
			minor:         1,
			contentLength: 4,
			header:        map[string]string{"Content-Length": "4", "X-Foo": "bar"},
			body:          "Test",
		},
		{
			name:          "until EOF",
			msg:           "HTTP/1.0 200 OK\r\n\r\nTest",
			status:        200,
			major:         1,
			contentLength: -1,
			header:        map[string]string{},
			body:          "Test",
			needsEOF:      true,
		},
		{
			name: "chunked",
			msg: "HTTP/1.1 200 OK\r\nTransfer-Encoding: gzip, chunked\r\n\r\n" +
				"4;ext=1\r\nTest\r\nA\r\n0123456789\r\n0\r\nTrailer: x\r\n\r\n",
			status:        200,
			major:         1,
			minor:         1,
			contentLength: -1,
			header:        map[string]string{"Transfer-Encoding": "gzip, chunked"},
			body:          "Test0123456789",
		},
		{
			name:          "bare LF line endings",
			msg:           "HTTP/1.0 404 Not Found\nContent-Length: 2\n\nhi",
			status:        404,
			major:         1,
			contentLength: 2,
			header:        map[string]string{"Content-Length": "2"},
			body:          "hi",
		},
		{
			name:          "obsolete line folding",
			msg:           "HTTP/1.0 200 OK\r\nX-Long: a\r\n  \tb\r\nContent-Length: 0\r\n\r\n",
			status:        200,
			major:         1,
			contentLength: 0,
			header:        map[string]string{"X-Long": "a b", "Content-Length": "0"},
		},
		{
			name:          "no reason phrase",
			msg:           "HTTP/1.0 200\r\nContent-Length: 1\r\n\r\nx",
			status:        200,
			major:         1,
			contentLength: 1,
			header:        map[string]string{"Content-Length": "1"},
			body:          "x",
		},
		{
			name:          "no content",
			msg:           "HTTP/1.1 204 No Content\r\nContent-Length: 10\r\n\r\n",
			status:        204,
			major:         1,
			minor:         1,
			contentLength: 10,
			header:        map[string]string{"Content-Length": "10"},
		},
		{
			name:          "not modified",
			msg:           "HTTP/1.1 304 Not Modified\r\n\r\n",
			status:        304,
			major:         1,
			minor:         1,
			contentLength: -1,
			header:        map[string]string{},
		},
		{
			name:          "repeated equal content lengths",
			msg:           "HTTP/1.0 200 OK\r\nContent-Length: 3, 3\r\n\r\nabc",
			status:        200,
			major:         1,
			contentLength: 3,
			header:        map[string]string{"Content-Length": "3, 3"},
			body:          "abc",
		},
		{
			name:          "leading empty lines",
			msg:           "\r\n\r\nHTTP/1.0 200 OK\r\nContent-Length: 1\r\n\r\nx",
			status:        200,
			major:         1,
			contentLength: 1,
			header:        map[string]string{"Content-Length": "1"},
			body:          "x",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			for size := 1; size <= len(testCase.msg); size++ {
				t.Run(fmt.Sprintf("chunk size %d", size), func(t *testing.T) {
					p := New()
					r := &recorder{}
					cb := r.callbacks()
					feed(t, p, cb, testCase.msg, size)
					if testCase.needsEOF {
						assert.Equal(t, 0, r.completes)
					} else {
						assert.Equal(t, 1, r.completes)
					}
					assert.Equal(t, 0, p.Execute(nil, cb))
					require.NoError(t, p.Err())

					assert.Equal(t, 1, r.begins)
					assert.Equal(t, 1, r.headersDone)
					assert.Equal(t, 1, r.completes)
					assert.Equal(t, testCase.status, p.StatusCode())
					assert.Equal(t, testCase.major, p.ProtoMajor())
					assert.Equal(t, testCase.minor, p.ProtoMinor())
					assert.Equal(t, testCase.header, r.header())
					assert.Equal(t, testCase.body, r.body.String())
					if testCase.status != 204 && testCase.status != 304 {
						assert.Equal(t, testCase.contentLength, p.ContentLength())
					}
				})
			}
		})
	}
}

func TestParser_Interim(t *testing.T) {
	msg := "HTTP/1.1 100 Continue\r\n\r\nHTTP/1.1 200 OK\r\nContent-Length: 2\r\n\r\nok"
	for size := 1; size <= len(msg); size++ {
		p := New()
		r := &recorder{p: p}
		feed(t, p, r.callbacks(), msg, size)
		assert.Equal(t, 2, r.begins)
		assert.Equal(t, 2, r.headersDone)
		assert.Equal(t, 2, r.completes)
		assert.Equal(t, []int{100, 200}, r.statuses)
		assert.Equal(t, "ok", r.body.String())
	}
}

func TestParser_Unterminated(t *testing.T) {
	msg := "HTTP/1.0 200 OK\r\nX: y\r\n"
	for size := 1; size <= 3; size++ {
		t.Run(fmt.Sprintf("chunk size %d", size), func(t *testing.T) {
			p := New()
			r := &recorder{}
			cb := r.callbacks()
			feed(t, p, cb, msg, size)
			assert.Equal(t, 0, r.headersDone)
			assert.Equal(t, 0, r.body.Len())
			assert.Equal(t, 0, p.StatusCode())
			assert.Equal(t, int64(-1), p.ContentLength())

			assert.Equal(t, 0, p.Execute(nil, cb))
			assert.Same(t, ErrUnexpectedEOF, p.Err())
			assert.Equal(t, 0, r.body.Len())
		})
	}
}

func TestParser_EOF(t *testing.T) {
	t.Run("empty stream", func(t *testing.T) {
		p := New()
		assert.Equal(t, 0, p.Execute(nil, nil))
		assert.Same(t, ErrUnexpectedEOF, p.Err())
	})
	t.Run("short body", func(t *testing.T) {
		p := New()
		msg := "HTTP/1.0 200 OK\r\nContent-Length: 10\r\n\r\nshort"
		assert.Equal(t, len(msg), p.Execute([]byte(msg), nil))
		p.Execute(nil, nil)
		assert.Same(t, ErrUnexpectedEOF, p.Err())
	})
	t.Run("unfinished chunked body", func(t *testing.T) {
		p := New()
		msg := "HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n4\r\nTe"
		assert.Equal(t, len(msg), p.Execute([]byte(msg), nil))
		p.Execute(nil, nil)
		assert.Same(t, ErrUnexpectedEOF, p.Err())
	})
	t.Run("repeated EOF", func(t *testing.T) {
		p := New()
		msg := "HTTP/1.0 200 OK\r\n\r\nx"
		assert.Equal(t, len(msg), p.Execute([]byte(msg), nil))
		p.Execute(nil, nil)
		p.Execute(nil, nil)
		assert.NoError(t, p.Err())
	})
}

func TestParser_DataAfterMessage(t *testing.T) {
	p := New()
	msg := "HTTP/1.0 200 OK\r\nContent-Length: 1\r\n\r\nab"
	assert.Equal(t, len(msg)-1, p.Execute([]byte(msg), nil))
	assert.Same(t, ErrDataAfterMessage, p.Err())
	assert.Equal(t, 0, p.Execute([]byte("more"), nil))
}

func TestParser_Invalid(t *testing.T) {
	testCases := []struct {
		name string
		msg  string
		want error
	}{
		{"not HTTP", "FOO/1.0 200 OK\r\n\r\n", ErrBadStatusLine},
		{"no status code", "HTTP/1.0\r\n\r\n", ErrBadStatusLine},
		{"non-numeric version", "HTTP/x.0 200 OK\r\n\r\n", ErrBadStatusLine},
		{"no minor version", "HTTP/1 200 OK\r\n\r\n", ErrBadStatusLine},
		{"non-numeric status", "HTTP/1.0 abc OK\r\n\r\n", ErrBadStatusLine},
		{"four digit status", "HTTP/1.0 2000 OK\r\n\r\n", ErrBadStatusLine},
		{"status below 100", "HTTP/1.0 099 Weird\r\n\r\n", ErrBadStatusLine},
		{"no colon", "HTTP/1.0 200 OK\r\nNoColon\r\n\r\n", ErrBadHeader},
		{"space in name", "HTTP/1.0 200 OK\r\nX Y: z\r\n\r\n", ErrBadHeader},
		{"empty name", "HTTP/1.0 200 OK\r\n: z\r\n\r\n", ErrBadHeader},
		{"control in value", "HTTP/1.0 200 OK\r\nX: a\x01b\r\n\r\n", ErrBadHeader},
		{"leading continuation", "HTTP/1.0 200 OK\r\n b\r\n\r\n", ErrBadHeader},
		{"non-numeric length", "HTTP/1.0 200 OK\r\nContent-Length: abc\r\n\r\n", ErrBadContentLength},
		{"negative length", "HTTP/1.0 200 OK\r\nContent-Length: -1\r\n\r\n", ErrBadContentLength},
		{"empty length", "HTTP/1.0 200 OK\r\nContent-Length:\r\n\r\n", ErrBadContentLength},
		{"conflicting lengths", "HTTP/1.0 200 OK\r\nContent-Length: 1\r\nContent-Length: 2\r\n\r\n", ErrBadContentLength},
		{"overflowing length", "HTTP/1.0 200 OK\r\nContent-Length: 99999999999999999999\r\n\r\n", ErrBadContentLength},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			p := New()
			r := &recorder{}
			assert.Equal(t, 0, p.Execute([]byte(testCase.msg), r.callbacks()))
			require.Error(t, p.Err())
			assert.True(t, errors.Is(p.Err(), testCase.want), "got %v", p.Err())
			assert.Equal(t, 0, r.headersDone)
			assert.Empty(t, r.fields)
			assert.Equal(t, 0, p.Execute([]byte("x"), nil))
		})
	}
}

func TestParser_BadChunk(t *testing.T) {
	const head = "HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n"
	testCases := []struct {
		name string
		body string
	}{
		{"non-hex size", "zz\r\n"},
		{"empty size", "\r\n"},
		{"huge size", "1000000000000000\r\n"},
		{"missing CRLF after data", "4\r\nTest!!\r\n"},
		{"overlong size line", "4;" + strings.Repeat("x", maxChunkLineBytes) + "\r\n"},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			for _, size := range []int{1, 2, len(head) + len(testCase.body)} {
				p := New()
				for _, c := range split([]byte(head+testCase.body), size) {
					if p.Execute(c, nil) != len(c) {
						break
					}
				}
				assert.True(t, errors.Is(p.Err(), ErrBadChunk), "size %d got %v", size, p.Err())
			}
		})
	}
}

func TestParser_HeaderTooLarge(t *testing.T) {
	msg := "HTTP/1.0 200 OK\r\nX-Padding: " + strings.Repeat("p", 64) + "\r\n\r\n"
	for _, size := range []int{1, 7, len(msg)} {
		t.Run(fmt.Sprintf("chunk size %d", size), func(t *testing.T) {
			p := &Parser{MaxHeaderBytes: 32}
			r := &recorder{}
			stopped := false
			for _, c := range split([]byte(msg), size) {
				if p.Execute(c, r.callbacks()) != len(c) {
					stopped = true
					break
				}
			}
			assert.True(t, stopped)
			assert.Same(t, ErrHeaderTooLarge, p.Err())
			assert.Equal(t, 0, r.headersDone)
		})
	}
	t.Run("trailer", func(t *testing.T) {
		p := &Parser{MaxHeaderBytes: 64}
		msg := "HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n0\r\nX: " + strings.Repeat("t", 80) + "\r\n\r\n"
		assert.Less(t, p.Execute([]byte(msg), nil), len(msg))
		assert.Same(t, ErrHeaderTooLarge, p.Err())
	})
}

func TestParser_ZeroValue(t *testing.T) {
	var p Parser
	msg := "HTTP/1.0 200 OK\r\nContent-Length: 4\r\n\r\nTest"
	r := &recorder{}
	assert.Equal(t, len(msg), p.Execute([]byte(msg), r.callbacks()))
	assert.NoError(t, p.Err())
	assert.Equal(t, "Test", r.body.String())
	assert.Equal(t, int64(4), p.ContentLength())
}

func TestParser_Abort(t *testing.T) {
	callbacks := []string{
		"OnMessageBegin",
		"OnHeaderField",
		"OnHeaderValue",
		"OnHeadersComplete",
		"OnBody",
		"OnMessageComplete",
	}
	msg := "HTTP/1.0 200 OK\r\nContent-Length: 4\r\n\r\nTest"
	for _, name := range callbacks {
		t.Run(name, func(t *testing.T) {
			p := New()
			r := &recorder{abortOn: name}
			n := p.Execute([]byte(msg), r.callbacks())
			require.Error(t, p.Err())
			assert.True(t, errors.Is(p.Err(), ErrCallback))
			assert.Contains(t, p.Err().Error(), name)
			if name != "OnMessageComplete" {
				assert.Less(t, n, len(msg))
			}
			assert.Equal(t, 0, p.Execute([]byte(msg), r.callbacks()))
		})
	}
}

type recorder struct {
	abortOn     string
	begins      int
	headersDone int
	completes   int
	statuses    []int
	fields      []string
	values      []string
	body        bytes.Buffer
	p           *Parser
}

func (r *recorder) ok(name string) bool {
	return name != r.abortOn
}

func (r *recorder) callbacks() *Callbacks {
	return &Callbacks{
		OnMessageBegin: func() bool {
			r.begins++
			return r.ok("OnMessageBegin")
		},
		OnURL: func(_ []byte) bool {
			panic("response parser invoked OnURL")
		},
		OnHeaderField: func(data []byte) bool {
			r.fields = append(r.fields, string(data))
			r.values = append(r.values, "")
			return r.ok("OnHeaderField")
		},
		OnHeaderValue: func(data []byte) bool {
			r.values[len(r.values)-1] += string(data)
			return r.ok("OnHeaderValue")
		},
		OnHeadersComplete: func() bool {
			r.headersDone++
			if r.p != nil {
				r.statuses = append(r.statuses, r.p.StatusCode())
			}
			return r.ok("OnHeadersComplete")
		},
		OnBody: func(data []byte) bool {
			r.body.Write(data)
			return r.ok("OnBody")
		},
		OnMessageComplete: func() bool {
			r.completes++
			return r.ok("OnMessageComplete")
		},
	}
}

func (r *recorder) header() map[string]string {
	h := make(map[string]string, len(r.fields))
	for i := range r.fields {
		h[r.fields[i]] = r.values[i]
	}
	return h
}

func feed(t *testing.T, p *Parser, cb *Callbacks, msg string, size int) {
	for _, c := range split([]byte(msg), size) {
		n := p.Execute(c, cb)
		require.Equal(t, len(c), n, "error: %v", p.Err())
	}
}

func split(b []byte, n int) [][]byte {
	var chunks [][]byte
	for len(b) > n {
		chunks = append(chunks, b[:n])
		b = b[n:]
	}
	if len(b) > 0 {
		chunks = append(chunks, b)
	}
	return chunks
}
