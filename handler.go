// Copyright 2021 The httpstream Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpstream

// A Sink receives the events of a request.
//
// Handle is invoked synchronously, on the goroutine running the
// request, once per event and in order. A request delivers zero or more
// StatusEvent and PayloadEvent events followed by at most one
// ErrorEvent. A request that succeeds ends without a final event.
type Sink interface {
	Handle(Event)
}

// The SinkFunc type is an adapter to allow the use of ordinary
// functions as event sinks. If f is a function with appropriate
// signature, then SinkFunc(f) is a Sink that calls f.
type SinkFunc func(Event)

// Handle calls f(evt).
func (f SinkFunc) Handle(evt Event) {
	f(evt)
}

// A Collector is a Sink that records every event it receives. Its zero
// value is ready to use.
type Collector struct {
	Events []Event
}

// Handle appends evt to c.Events.
func (c *Collector) Handle(evt Event) {
	c.Events = append(c.Events, evt)
}

// Body returns the concatenation of all collected payloads.
func (c *Collector) Body() []byte {
	var b []byte
	for _, evt := range c.Events {
		if evt.Kind == PayloadEvent {
			b = append(b, evt.Payload...)
		}
	}
	return b
}

// Err returns the terminal error among the collected events, or nil.
func (c *Collector) Err() *Error {
	if n := len(c.Events); n > 0 && c.Events[n-1].Kind == ErrorEvent {
		return c.Events[n-1].Err
	}
	return nil
}
