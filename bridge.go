// Copyright 2021 The httpstream Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpstream

import (
	"net/http"

	"github.com/gogama/httpstream/parser"
	"go.uber.org/zap"
)

// A Decoder incrementally decodes a response for the request engine.
// *parser.Parser is the default implementation.
//
// Execute consumes data and returns the number of bytes consumed;
// empty data signals the end of the stream. Err reports why decoding
// stopped. StatusCode returns the status code of the message whose
// headers have just completed.
type Decoder interface {
	Execute(data []byte, cb *parser.Callbacks) int
	Err() error
	StatusCode() int
}

func newParser() Decoder {
	return parser.New()
}

// emitter forwards events to the consumer's sink and enforces that
// nothing follows the terminal event.
type emitter struct {
	sink   Sink
	events int
	done   bool
}

func (em *emitter) emit(evt Event) bool {
	if em.done {
		return false
	}
	if evt.Kind == ErrorEvent {
		em.done = true
	}
	em.events++
	em.sink.Handle(evt)
	return true
}

// bridge turns decoder callbacks into events. It refers to the
// emitter but does not own it.
type bridge struct {
	em     *emitter
	dec    Decoder
	log    *zap.Logger
	header http.Header
	field  string
	value  []byte
	inPair bool
}

func newBridge(em *emitter, dec Decoder, log *zap.Logger) *bridge {
	return &bridge{em: em, dec: dec, log: log}
}

func (b *bridge) callbacks() *parser.Callbacks {
	return &parser.Callbacks{
		OnMessageBegin:    b.onMessageBegin,
		OnURL:             b.onURL,
		OnHeaderField:     b.onHeaderField,
		OnHeaderValue:     b.onHeaderValue,
		OnHeadersComplete: b.onHeadersComplete,
		OnBody:            b.onBody,
		OnMessageComplete: b.onMessageComplete,
	}
}

func (b *bridge) live() bool {
	return !b.em.done
}

func (b *bridge) onMessageBegin() bool {
	b.log.Debug("message begin")
	b.header = make(http.Header)
	b.inPair = false
	return b.live()
}

func (b *bridge) onURL(_ []byte) bool {
	return b.live()
}

func (b *bridge) onHeaderField(data []byte) bool {
	b.flush()
	b.field = string(data)
	b.value = b.value[:0]
	b.inPair = true
	return b.live()
}

func (b *bridge) onHeaderValue(data []byte) bool {
	b.value = append(b.value, data...)
	return b.live()
}

func (b *bridge) flush() {
	if b.header == nil {
		b.header = make(http.Header)
	}
	if b.inPair {
		b.header.Add(b.field, string(b.value))
		b.inPair = false
	}
}

func (b *bridge) onHeadersComplete() bool {
	b.flush()
	code := b.dec.StatusCode()
	header := b.header
	b.header = nil
	b.log.Debug("headers complete", zap.Int("status", code), zap.Int("fields", len(header)))
	return b.em.emit(Status(code, header))
}

func (b *bridge) onBody(data []byte) bool {
	return b.em.emit(Payload(data))
}

func (b *bridge) onMessageComplete() bool {
	b.log.Debug("message complete")
	return b.live()
}
