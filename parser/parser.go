// Copyright 2021 The httpstream Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package parser

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	"golang.org/x/net/http/httpguts"
)

// DefaultMaxHeaderBytes is the largest header block a Parser accepts
// when Parser.MaxHeaderBytes is not positive.
const DefaultMaxHeaderBytes = 1 << 20

const maxChunkLineBytes = 4096

var (
	// ErrBadStatusLine means the status line is not of the form
	// "HTTP/x.y NNN reason".
	ErrBadStatusLine = errors.New("httpstream/parser: malformed status line")
	// ErrBadHeader means a header line is malformed, or carries an
	// invalid field name or value.
	ErrBadHeader = errors.New("httpstream/parser: malformed header")
	// ErrBadContentLength means the Content-Length header is invalid or
	// contradicts itself.
	ErrBadContentLength = errors.New("httpstream/parser: invalid Content-Length")
	// ErrBadChunk means the chunked transfer coding is malformed.
	ErrBadChunk = errors.New("httpstream/parser: malformed chunk")
	// ErrHeaderTooLarge means the header block exceeds the size limit.
	ErrHeaderTooLarge = errors.New("httpstream/parser: header block too large")
	// ErrUnexpectedEOF means the stream ended before the message did.
	ErrUnexpectedEOF = errors.New("httpstream/parser: unexpected end of stream")
	// ErrDataAfterMessage means bytes arrived after the end of the
	// final message.
	ErrDataAfterMessage = errors.New("httpstream/parser: data after end of message")
	// ErrCallback means a callback returned false.
	ErrCallback = errors.New("httpstream/parser: aborted by callback")
)

type state int

const (
	stateStart state = iota
	stateHead
	stateBodyIdentity
	stateBodyEOF
	stateChunkSize
	stateChunkData
	stateChunkDataEnd
	stateTrailer
	stateDone
	stateDead
)

// A Parser incrementally decodes one HTTP/1.x response message.
//
// Feed the response bytes to Execute in as many pieces as they arrive
// in, then call Execute with empty data to signal the end of the
// stream. The header block is buffered until it is complete, while the
// body is passed through to the OnBody callback without copying.
//
// An interim 1xx response is decoded as a message of its own, after
// which the parser expects the final response.
//
// The zero value is ready to use. A Parser is not safe for concurrent
// use.
type Parser struct {
	// MaxHeaderBytes limits the size of the header block, and separately
	// of the chunked trailer. If MaxHeaderBytes is not positive,
	// DefaultMaxHeaderBytes is used.
	MaxHeaderBytes int

	state         state
	head          []byte
	line          []byte
	trailer       int
	major         int
	minor         int
	statusCode    int
	contentLength int64
	chunked       bool
	remaining     int64
	err           error
}

// New returns a new Parser with the default header size limit.
func New() *Parser {
	return &Parser{MaxHeaderBytes: DefaultMaxHeaderBytes}
}

// StatusCode returns the status code of the current message, or zero
// before its headers are complete.
func (p *Parser) StatusCode() int {
	return p.statusCode
}

// ProtoMajor returns the major protocol version of the current message.
func (p *Parser) ProtoMajor() int {
	return p.major
}

// ProtoMinor returns the minor protocol version of the current message.
func (p *Parser) ProtoMinor() int {
	return p.minor
}

// ContentLength returns the value of the Content-Length header of the
// current message, or -1 if it has none or uses chunked framing.
func (p *Parser) ContentLength() int64 {
	if p.chunked || p.statusCode == 0 {
		return -1
	}
	return p.contentLength
}

// Err returns the error that stopped the parser, or nil.
func (p *Parser) Err() error {
	return p.err
}

// Execute decodes data, invoking the callbacks in cb as message elements
// are recognized, and returns the number of bytes consumed. A return
// value smaller than len(data) means parsing stopped; Err reports why.
//
// Empty data signals the end of the stream. A body delimited by the end
// of the stream completes; any other unfinished message is an error.
//
// Once parsing has stopped, Execute consumes nothing.
func (p *Parser) Execute(data []byte, cb *Callbacks) int {
	if cb == nil {
		cb = &noCallbacks
	}
	if p.err != nil {
		return 0
	}
	if len(data) == 0 {
		p.eof(cb)
		return 0
	}

	i := 0
	for i < len(data) && p.err == nil {
		rest := data[i:]
		switch p.state {
		case stateStart:
			i += p.begin(rest, cb)
		case stateHead:
			i += p.readHead(rest, cb)
		case stateBodyIdentity:
			i += p.readIdentity(rest, cb)
		case stateBodyEOF:
			i += p.readToEOF(rest, cb)
		case stateChunkSize:
			i += p.readChunkSize(rest)
		case stateChunkData:
			i += p.readChunkData(rest, cb)
		case stateChunkDataEnd:
			i += p.readChunkDataEnd(rest)
		case stateTrailer:
			i += p.readTrailer(rest, cb)
		case stateDone:
			p.fail(ErrDataAfterMessage)
		}
	}
	return i
}

func (p *Parser) fail(err error) {
	p.err = err
	p.state = stateDead
}

func (p *Parser) abort(name string) {
	p.fail(fmt.Errorf("%w: %s", ErrCallback, name))
}

func (p *Parser) eof(cb *Callbacks) {
	switch p.state {
	case stateBodyEOF:
		p.complete(cb)
	case stateDone, stateDead:
	default:
		p.fail(ErrUnexpectedEOF)
	}
}

func (p *Parser) complete(cb *Callbacks) {
	if p.statusCode/100 == 1 {
		p.state = stateStart
	} else {
		p.state = stateDone
	}
	if !call(cb.OnMessageComplete) {
		p.abort("OnMessageComplete")
	}
}

func (p *Parser) maxHeaderBytes() int {
	if p.MaxHeaderBytes > 0 {
		return p.MaxHeaderBytes
	}
	return DefaultMaxHeaderBytes
}

// begin skips empty lines preceding a message, then starts it.
func (p *Parser) begin(data []byte, cb *Callbacks) int {
	n := 0
	for n < len(data) && (data[n] == '\r' || data[n] == '\n') {
		n++
	}
	if n == len(data) {
		return n
	}
	p.head = p.head[:0]
	p.line = p.line[:0]
	p.trailer = 0
	p.major, p.minor, p.statusCode = 0, 0, 0
	p.contentLength = -1
	p.chunked = false
	p.remaining = 0
	p.state = stateHead
	if !call(cb.OnMessageBegin) {
		p.abort("OnMessageBegin")
	}
	return n
}

func (p *Parser) readHead(data []byte, cb *Callbacks) int {
	max := p.maxHeaderBytes()
	prev := len(p.head)
	buf := data
	from := 0
	if prev > 0 {
		p.head = append(p.head, data...)
		buf = p.head
		from = prev - 2
		if from < 0 {
			from = 0
		}
	}

	end := headEnd(buf, from)
	if end < 0 {
		if prev+len(data) > max {
			p.fail(ErrHeaderTooLarge)
			return 0
		}
		if prev == 0 {
			p.head = append(p.head, data...)
		}
		return len(data)
	}
	if end > max {
		p.fail(ErrHeaderTooLarge)
		return 0
	}

	if err := p.parseHead(buf[:end], cb); err != nil {
		if p.err == nil {
			p.fail(err)
		}
		return 0
	}
	p.head = p.head[:0]
	return end - prev
}

// headEnd returns the index just past the empty line ending the header
// block in buf, or -1. The search starts at from.
func headEnd(buf []byte, from int) int {
	for i := from; i < len(buf); i++ {
		if buf[i] != '\n' {
			continue
		}
		if i+1 < len(buf) && buf[i+1] == '\n' {
			return i + 2
		}
		if i+2 < len(buf) && buf[i+1] == '\r' && buf[i+2] == '\n' {
			return i + 3
		}
	}
	return -1
}

type field struct {
	name  []byte
	value []byte
	folds [][]byte
}

func (f *field) joined() string {
	if len(f.folds) == 0 {
		return string(f.value)
	}
	var b bytes.Buffer
	b.Write(f.value)
	for _, fold := range f.folds {
		b.Write(fold)
	}
	return b.String()
}

func (p *Parser) parseHead(head []byte, cb *Callbacks) error {
	head = trimEOL(trimEOL(head))
	lines := bytes.Split(head, []byte("\n"))

	major, minor, code, ok := parseStatusLine(trimCR(lines[0]))
	if !ok {
		return fmt.Errorf("%w: %q", ErrBadStatusLine, lines[0])
	}

	var fields []field
	for _, line := range lines[1:] {
		line = trimCR(line)
		if len(line) > 0 && (line[0] == ' ' || line[0] == '\t') {
			if len(fields) == 0 {
				return fmt.Errorf("%w: continuation before first field", ErrBadHeader)
			}
			fold := append([]byte{' '}, trimOWS(line)...)
			if !httpguts.ValidHeaderFieldValue(string(fold)) {
				return fmt.Errorf("%w: invalid value continuation", ErrBadHeader)
			}
			last := &fields[len(fields)-1]
			last.folds = append(last.folds, fold)
			continue
		}
		colon := bytes.IndexByte(line, ':')
		if colon < 0 {
			return fmt.Errorf("%w: %q", ErrBadHeader, line)
		}
		name, value := line[:colon], trimOWS(line[colon+1:])
		if !httpguts.ValidHeaderFieldName(string(name)) {
			return fmt.Errorf("%w: invalid field name %q", ErrBadHeader, name)
		}
		if !httpguts.ValidHeaderFieldValue(string(value)) {
			return fmt.Errorf("%w: invalid value for %q", ErrBadHeader, name)
		}
		fields = append(fields, field{name: name, value: value})
	}

	contentLength, chunked, err := framing(fields)
	if err != nil {
		return err
	}
	p.major, p.minor, p.statusCode = major, minor, code
	p.contentLength, p.chunked = contentLength, chunked

	for i := range fields {
		f := &fields[i]
		if !callData(cb.OnHeaderField, f.name) {
			p.abort("OnHeaderField")
			return p.err
		}
		if !callData(cb.OnHeaderValue, f.value) {
			p.abort("OnHeaderValue")
			return p.err
		}
		for _, fold := range f.folds {
			if !callData(cb.OnHeaderValue, fold) {
				p.abort("OnHeaderValue")
				return p.err
			}
		}
	}

	switch {
	case p.statusCode/100 == 1, p.statusCode == 204, p.statusCode == 304:
		p.state = stateDone
	case p.chunked:
		p.state = stateChunkSize
	case p.contentLength == 0:
		p.state = stateDone
	case p.contentLength > 0:
		p.state = stateBodyIdentity
		p.remaining = p.contentLength
	default:
		p.state = stateBodyEOF
	}
	if !call(cb.OnHeadersComplete) {
		p.abort("OnHeadersComplete")
		return p.err
	}
	if p.state == stateDone {
		p.complete(cb)
	}
	return nil
}

// framing determines how the body of a message is delimited.
func framing(fields []field) (contentLength int64, chunked bool, err error) {
	contentLength = -1
	var te []string
	for i := range fields {
		f := &fields[i]
		switch {
		case bytes.EqualFold(f.name, []byte("Transfer-Encoding")):
			te = append(te, f.joined())
		case bytes.EqualFold(f.name, []byte("Content-Length")):
			for _, v := range bytes.Split([]byte(f.joined()), []byte(",")) {
				n, err := parseContentLength(trimOWS(v))
				if err != nil {
					return -1, false, err
				}
				if contentLength >= 0 && n != contentLength {
					return -1, false, fmt.Errorf("%w: conflicting values", ErrBadContentLength)
				}
				contentLength = n
			}
		}
	}
	chunked = httpguts.HeaderValuesContainsToken(te, "chunked")
	if chunked {
		contentLength = -1
	}
	return contentLength, chunked, nil
}

func parseContentLength(v []byte) (int64, error) {
	if len(v) == 0 {
		return -1, fmt.Errorf("%w: empty value", ErrBadContentLength)
	}
	for _, c := range v {
		if c < '0' || c > '9' {
			return -1, fmt.Errorf("%w: %q", ErrBadContentLength, v)
		}
	}
	n, err := strconv.ParseInt(string(v), 10, 64)
	if err != nil {
		return -1, fmt.Errorf("%w: %q", ErrBadContentLength, v)
	}
	return n, nil
}

func parseStatusLine(line []byte) (major, minor, code int, ok bool) {
	const prefix = "HTTP/"
	if !bytes.HasPrefix(line, []byte(prefix)) {
		return
	}
	rest := line[len(prefix):]
	sp := bytes.IndexByte(rest, ' ')
	if sp < 0 {
		return
	}
	proto := rest[:sp]
	dot := bytes.IndexByte(proto, '.')
	if dot < 0 {
		return
	}
	if major, ok = atoi(proto[:dot], 3); !ok {
		return
	}
	if minor, ok = atoi(proto[dot+1:], 3); !ok {
		return
	}
	rest = bytes.TrimLeft(rest[sp:], " ")
	if len(rest) < 3 || (len(rest) > 3 && rest[3] != ' ') {
		return 0, 0, 0, false
	}
	if code, ok = atoi(rest[:3], 3); !ok || code < 100 {
		return 0, 0, 0, false
	}
	return major, minor, code, true
}

func atoi(b []byte, maxDigits int) (int, bool) {
	if len(b) == 0 || len(b) > maxDigits {
		return 0, false
	}
	n := 0
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}

func (p *Parser) readIdentity(data []byte, cb *Callbacks) int {
	n := len(data)
	if int64(n) > p.remaining {
		n = int(p.remaining)
	}
	if !callData(cb.OnBody, data[:n]) {
		p.abort("OnBody")
		return 0
	}
	p.remaining -= int64(n)
	if p.remaining == 0 {
		p.complete(cb)
	}
	return n
}

func (p *Parser) readToEOF(data []byte, cb *Callbacks) int {
	if !callData(cb.OnBody, data) {
		p.abort("OnBody")
		return 0
	}
	return len(data)
}

// readLine accumulates bytes up to the next LF into p.line. It returns
// the number of bytes consumed and whether the line is complete.
func (p *Parser) readLine(data []byte, max int) (int, bool) {
	i := bytes.IndexByte(data, '\n')
	if i < 0 {
		if len(p.line)+len(data) > max {
			p.fail(fmt.Errorf("%w: line too long", ErrBadChunk))
			return 0, false
		}
		p.line = append(p.line, data...)
		return len(data), false
	}
	if len(p.line)+i > max {
		p.fail(fmt.Errorf("%w: line too long", ErrBadChunk))
		return 0, false
	}
	p.line = append(p.line, data[:i]...)
	return i + 1, true
}

func (p *Parser) takeLine() []byte {
	line := trimCR(p.line)
	p.line = p.line[:0]
	return line
}

func (p *Parser) readChunkSize(data []byte) int {
	n, ok := p.readLine(data, maxChunkLineBytes)
	if !ok {
		return n
	}
	line := p.takeLine()
	size, ok := parseChunkSize(line)
	if !ok {
		p.fail(fmt.Errorf("%w: bad size line %q", ErrBadChunk, line))
		return 0
	}
	if size == 0 {
		p.state = stateTrailer
	} else {
		p.state = stateChunkData
		p.remaining = size
	}
	return n
}

func parseChunkSize(line []byte) (int64, bool) {
	if i := bytes.IndexByte(line, ';'); i >= 0 {
		line = line[:i]
	}
	line = trimOWS(line)
	if len(line) == 0 || len(line) > 15 {
		return 0, false
	}
	var n int64
	for _, c := range line {
		switch {
		case '0' <= c && c <= '9':
			c -= '0'
		case 'a' <= c && c <= 'f':
			c = c - 'a' + 10
		case 'A' <= c && c <= 'F':
			c = c - 'A' + 10
		default:
			return 0, false
		}
		n = n<<4 | int64(c)
	}
	return n, true
}

func (p *Parser) readChunkData(data []byte, cb *Callbacks) int {
	n := len(data)
	if int64(n) > p.remaining {
		n = int(p.remaining)
	}
	if !callData(cb.OnBody, data[:n]) {
		p.abort("OnBody")
		return 0
	}
	p.remaining -= int64(n)
	if p.remaining == 0 {
		p.state = stateChunkDataEnd
	}
	return n
}

func (p *Parser) readChunkDataEnd(data []byte) int {
	n, ok := p.readLine(data, 1)
	if !ok {
		return n
	}
	if line := p.takeLine(); len(line) != 0 {
		p.fail(fmt.Errorf("%w: missing CRLF after chunk data", ErrBadChunk))
		return 0
	}
	p.state = stateChunkSize
	return n
}

func (p *Parser) readTrailer(data []byte, cb *Callbacks) int {
	n, ok := p.readLine(data, p.maxHeaderBytes()-p.trailer)
	if !ok {
		if p.err != nil {
			p.fail(ErrHeaderTooLarge)
		}
		return n
	}
	p.trailer += len(p.line) + 1
	if line := p.takeLine(); len(line) == 0 {
		p.complete(cb)
	}
	return n
}

func trimCR(b []byte) []byte {
	return bytes.TrimSuffix(b, []byte("\r"))
}

func trimEOL(b []byte) []byte {
	return trimCR(bytes.TrimSuffix(b, []byte("\n")))
}

func trimOWS(b []byte) []byte {
	return bytes.Trim(b, " \t")
}
