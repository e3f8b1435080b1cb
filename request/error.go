// Copyright 2021 The httpstream Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"github.com/gogama/httpstream/transient"
)

// An ErrorKind classifies the condition that terminated a request
// unsuccessfully. The kinds are mutually exclusive: a failed request
// has exactly one.
type ErrorKind int

const (
	// ErrorDnsResolution means the host name could not be resolved, or
	// resolved to no addresses at all.
	ErrorDnsResolution ErrorKind = iota + 1
	// ErrorConnect means the transport factory could not open a
	// connection to the chosen address.
	ErrorConnect
	// ErrorMisc covers every other failure: no usable address among
	// the resolved candidates, a write failure, a failure to start
	// reading, a read failure other than end of stream, or response
	// bytes the decoder would not accept.
	ErrorMisc
)

var errorKindNames = map[ErrorKind]string{
	ErrorDnsResolution: "ErrorDnsResolution",
	ErrorConnect:       "ErrorConnect",
	ErrorMisc:          "ErrorMisc",
}

// String returns the name of the error kind.
func (k ErrorKind) String() string {
	if name, ok := errorKindNames[k]; ok {
		return name
	}
	return "ErrorKind(invalid)"
}

// An Error is the terminal failure of a request.
//
// Op names the lifecycle step that failed ("resolve", "connect",
// "write", "read", ...), and Err holds the underlying cause, which may
// itself combine several errors if releasing the transport also
// failed.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

// Error returns a description of the failure.
func (e *Error) Error() string {
	s := "httpstream: " + e.Op + " failed (" + e.Kind.String() + ")"
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Timeout reports whether the underlying cause was a timeout.
func (e *Error) Timeout() bool {
	return transient.Categorize(e.Err) == transient.Timeout
}
