// Copyright 2021 The httpstream Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpstream

import (
	"fmt"
	"net/http"
)

// A Kind identifies the type of an Event delivered to a Sink.
type Kind int

const (
	// StatusEvent identifies the event that occurs once the response
	// status line and headers have been decoded.
	//
	// The event's Status field holds the status code and its Header
	// field holds the decoded response headers. An interim 1xx response
	// produces a StatusEvent of its own, ahead of the final response's.
	StatusEvent Kind = iota
	// PayloadEvent identifies the event that occurs each time a piece
	// of the response body has been decoded.
	//
	// The event's Payload field holds the body bytes, which belong to
	// the receiver. The concatenation of all payloads of a request is
	// the decoded response body.
	PayloadEvent
	// ErrorEvent identifies the event that terminates a failed
	// request. It is always the last event of the request, and occurs at
	// most once.
	//
	// The event's Err field holds the terminal error.
	ErrorEvent
	// kindSentinel provides the total number of event kinds typed as a
	// Kind.
	kindSentinel

	// numKinds provides the total number of event kinds as an int.
	numKinds = int(kindSentinel)
)

var kindNames = []string{
	"StatusEvent",
	"PayloadEvent",
	"ErrorEvent",
}

// Kinds returns a slice containing all event kinds, in the order in
// which events of each kind first occur in a request.
func Kinds() []Kind {
	return []Kind{
		StatusEvent,
		PayloadEvent,
		ErrorEvent,
	}
}

// Name returns the name of the event kind.
func (k Kind) Name() string {
	if k < 0 || int(k) >= numKinds {
		return "Kind(invalid)"
	}
	return kindNames[k]
}

// String returns the name of the event kind.
func (k Kind) String() string {
	return k.Name()
}

// An Event is one observable step of a request's response, delivered
// to a Sink in order. Which fields are meaningful depends on Kind.
type Event struct {
	Kind    Kind
	Status  int
	Header  http.Header
	Payload []byte
	Err     *Error
}

// Status constructs a StatusEvent.
func Status(code int, header http.Header) Event {
	return Event{Kind: StatusEvent, Status: code, Header: header}
}

// Payload constructs a PayloadEvent.
func Payload(data []byte) Event {
	return Event{Kind: PayloadEvent, Payload: data}
}

// Failure constructs an ErrorEvent.
func Failure(err *Error) Event {
	return Event{Kind: ErrorEvent, Err: err}
}

// String returns a short description of the event.
func (evt Event) String() string {
	switch evt.Kind {
	case StatusEvent:
		return fmt.Sprintf("Status(%d)", evt.Status)
	case PayloadEvent:
		return fmt.Sprintf("Payload(%d bytes)", len(evt.Payload))
	case ErrorEvent:
		if evt.Err == nil {
			return "Error(<nil>)"
		}
		return fmt.Sprintf("Error(%s)", evt.Err.Kind)
	default:
		return evt.Kind.String()
	}
}
