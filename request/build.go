// Copyright 2021 The httpstream Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"bytes"
	"strings"
)

var queryEscaper = strings.NewReplacer(
	"%", "%25",
	"&", "%26",
	"=", "%3D",
	"+", "%2B",
	"#", "%23",
	" ", "%20",
)

// RequestURI returns the request-target sent on the request line for t.
//
// The path defaults to "/" when empty. Each query pair is rendered as
// key=value with spaces encoded as %20, and pairs are joined with '&'.
// Characters that would change how the query splits ('%', '&', '=',
// '+' and '#') are percent-encoded in keys and values.
func RequestURI(t *Target) string {
	if t == nil {
		panic(nilTargetMsg)
	}
	path := t.path
	if path == "" {
		path = "/"
	}
	if len(t.query) == 0 {
		return path
	}
	var b strings.Builder
	b.WriteString(path)
	b.WriteByte('?')
	for i, p := range t.query {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(queryEscaper.Replace(p.Key))
		b.WriteByte('=')
		b.WriteString(queryEscaper.Replace(p.Value))
	}
	return b.String()
}

// Build returns the complete wire form of a GET request for t:
//
//	GET /path?k=v HTTP/1.0\r\n
//	Host: example.com\r\n
//	\r\n
func Build(t *Target) []byte {
	var b bytes.Buffer
	b.WriteString("GET ")
	b.WriteString(RequestURI(t))
	b.WriteString(" HTTP/1.0\r\n")
	b.WriteString("Host: ")
	b.WriteString(t.HostHeader())
	b.WriteString("\r\n\r\n")
	return b.Bytes()
}
