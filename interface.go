// Copyright 2021 The httpstream Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpstream

import (
	"context"

	"github.com/gogama/httpstream/request"
)

// Doer is the interface that wraps the basic Do method.
//
// Do runs a streaming GET request for a target, delivering its events
// to a sink, and returns the final execution state (and error, if any).
// Client implements the Doer interface, and any other Doer
// implementation must behave substantially the same as Client.Do.
type Doer interface {
	Do(ctx context.Context, t *request.Target, sink Sink) (*request.Execution, error)
}

// Getter is the interface that wraps the basic Get method.
//
// Get parses a URL, runs a streaming GET request for it, and returns
// the final execution state (and error, if any). Client implements the
// Getter interface, and any other Getter implementation must behave
// substantially the same as Client.Get.
//
// Any Doer can be used to emulate a Getter via the Get function.
type Getter interface {
	Get(ctx context.Context, url string, sink Sink) (*request.Execution, error)
}

// Get uses the specified Doer to run a streaming GET request for the
// specified URL, using the same policies as d.Do.
func Get(ctx context.Context, d Doer, url string, sink Sink) (*request.Execution, error) {
	t, err := request.NewTarget(url)
	if err != nil {
		return nil, err
	}
	return d.Do(ctx, t, sink)
}

// Collect uses the specified Getter to run a streaming GET request for
// the specified URL and returns every event delivered, in order,
// together with the error returned by g.Get.
func Collect(ctx context.Context, g Getter, url string) ([]Event, error) {
	var c Collector
	_, err := g.Get(ctx, url, &c)
	return c.Events, err
}
