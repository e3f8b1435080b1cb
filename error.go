// Copyright 2021 The httpstream Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpstream

import (
	"errors"

	"github.com/gogama/httpstream/request"
)

// Error is the terminal failure of a request. See request.Error.
type Error = request.Error

// ErrorKind classifies a terminal failure. See request.ErrorKind.
type ErrorKind = request.ErrorKind

// The error kinds, re-exported from package request.
const (
	ErrorDnsResolution = request.ErrorDnsResolution
	ErrorConnect       = request.ErrorConnect
	ErrorMisc          = request.ErrorMisc
)

// ErrBegun is returned by Request.Begin when the request was already
// begun. A Request is single-use.
var ErrBegun = errors.New("httpstream: request already begun")

// errShortConsume describes a decoder that stopped without reporting
// why.
var errShortConsume = errors.New("httpstream: decoder did not consume the whole chunk")
