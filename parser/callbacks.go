// Copyright 2021 The httpstream Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package parser

// Callbacks receives the elements of a message as Parser decodes them.
//
// Every callback returns true to continue parsing or false to abort it,
// in which case Execute stops and Err reports ErrCallback. A nil
// callback is skipped, as if it had returned true.
//
// Data passed to a callback aliases either the slice given to Execute
// or the parser's internal header buffer, and is only valid for the
// duration of the call. Body data always aliases the slice given to
// Execute.
type Callbacks struct {
	// OnMessageBegin is invoked when the first byte of a message
	// arrives.
	OnMessageBegin func() bool
	// OnURL receives the request target of a request message. Parser
	// decodes responses only, so it never invokes OnURL.
	OnURL func(data []byte) bool
	// OnHeaderField receives the name of a header field.
	OnHeaderField func(data []byte) bool
	// OnHeaderValue receives the value of the most recent header
	// field. It is invoked again, with a single leading space, for
	// each obsolete line folding continuation of that value.
	OnHeaderValue func(data []byte) bool
	// OnHeadersComplete is invoked once the whole header block has
	// arrived. StatusCode and the other accessors are valid from this
	// point on.
	OnHeadersComplete func() bool
	// OnBody receives the next piece of the decoded message body. A
	// chunked body arrives without its chunk framing.
	OnBody func(data []byte) bool
	// OnMessageComplete is invoked when the message ends.
	OnMessageComplete func() bool
}

var noCallbacks Callbacks

func call(f func() bool) bool {
	return f == nil || f()
}

func callData(f func([]byte) bool, data []byte) bool {
	return f == nil || f(data)
}
