// Copyright 2021 The httpstream Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package request contains the core types Target (an immutable parsed
HTTP URL), Error (the terminal failure of a request) and Execution (the
state of a Target's execution across attempts).

Create a target and build its request line:

	t, err := request.NewTarget("http://example.com/search?q=go lang")
	...
	wire := request.Build(t)
	// "GET /search?q=go%20lang HTTP/1.0\r\nHost: example.com\r\n\r\n"

Only plain http targets are supported. A target that names no port
connects to DefaultPort.

Error carries one of three mutually exclusive kinds, ErrorDnsResolution,
ErrorConnect and ErrorMisc, and wraps the underlying cause so that
errors.Is and errors.As see through it.
*/
package request
