// Copyright 2021 The httpstream Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package transport defines the byte-stream abstraction the streaming HTTP
client runs a request over, and provides a plain TCP implementation.

A Transport is single-use. Its owner writes the request bytes, starts
the read side once to obtain a ReadStream, pulls chunks until io.EOF or
an error, and releases the transport with ReadStop. ReadStop is the only
release operation, and is called with a nil stream if the read side was
never started.

Any socket-like type can implement Transport. The transporttest
subpackage provides a scripted fake for tests.
*/
package transport
