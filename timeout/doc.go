// Copyright 2021 The httpstream Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package timeout defines policies for bounding each phase of a
// streaming request: name resolution, connecting, writing the request,
// and waiting for each chunk of the response. A generic interface for
// timeout policies is provided, Policy, along with policy generating
// functions and built-in policies.
package timeout
