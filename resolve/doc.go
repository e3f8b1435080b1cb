// Copyright 2021 The httpstream Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package resolve turns host names into candidate IP addresses for the
streaming HTTP client.

A Resolver makes exactly one lookup attempt per call. Use New to build
a resolver that targets a custom DNS server, restricts the address
family, or answers some host names from a static table. Use Func to
adapt an ordinary function, which is the usual approach in tests.

The request engine only dials IPv4 addresses. SelectIPv4 picks the
first IPv4 candidate out of a resolver's answer.
*/
package resolve
