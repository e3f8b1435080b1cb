// Copyright 2021 The httpstream Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package parser provides an incremental, callback-driven decoder for
HTTP/1.x response messages.

A Parser consumes a response in whatever pieces the network delivers it
in, and reports the message elements through a Callbacks value: the
start of the message, each header field and value, the end of the
header block, each piece of body, and the end of the message. The
decoder understands Content-Length bodies, the chunked transfer coding,
and bodies delimited by the end of the stream.

	p := parser.New()
	cb := &parser.Callbacks{
		OnBody: func(data []byte) bool {
			os.Stdout.Write(data)
			return true
		},
	}
	for chunk := range chunks {
		if n := p.Execute(chunk, cb); n != len(chunk) {
			return p.Err()
		}
	}
	p.Execute(nil, cb) // end of stream
*/
package parser
