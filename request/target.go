// Copyright 2021 The httpstream Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"errors"
	"fmt"
	"net"
	urlpkg "net/url"
	"strconv"
	"strings"
)

// DefaultPort is the port a Target connects to when its URL does not
// name one.
const DefaultPort = 80

const (
	emptyHostMsg = "httpstream/request: empty host"
	nilTargetMsg = "httpstream/request: nil target"
)

// A QueryParam is one key=value pair from a URL query string, with
// both halves in unescaped form.
type QueryParam struct {
	Key   string
	Value string
}

// A Target is an immutable parsed HTTP URL: the host to resolve, the
// port to connect to, and the path and query to request.
//
// Create a Target with NewTarget. The zero value is not usable.
type Target struct {
	host  string
	port  int
	path  string
	query []QueryParam
}

// NewTarget parses rawURL into a Target.
//
// A URL without a scheme is treated as an http URL, so "example.com/x"
// and "http://example.com/x" produce the same Target. Any scheme other
// than http is rejected, as is a URL with an empty host. Query pairs
// keep the order in which they appear in rawURL.
func NewTarget(rawURL string) (*Target, error) {
	if !strings.Contains(rawURL, "://") {
		rawURL = "http://" + rawURL
	}
	u, err := urlpkg.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(u.Scheme, "http") {
		return nil, fmt.Errorf("httpstream/request: unsupported scheme %q", u.Scheme)
	}
	host := u.Hostname()
	if host == "" {
		return nil, errors.New(emptyHostMsg)
	}
	if strings.Contains(host, ":") && !strings.HasPrefix(u.Host, "[") {
		return nil, fmt.Errorf("httpstream/request: invalid host %q", u.Host)
	}
	port := DefaultPort
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil || port < 1 || port > 65535 {
			return nil, fmt.Errorf("httpstream/request: invalid port %q", p)
		}
	}
	query, err := parseQuery(u.RawQuery)
	if err != nil {
		return nil, err
	}
	return &Target{
		host:  host,
		port:  port,
		path:  u.EscapedPath(),
		query: query,
	}, nil
}

// Host returns the host name (or IP literal) to resolve.
func (t *Target) Host() string {
	return t.host
}

// Port returns the TCP port to connect to.
func (t *Target) Port() int {
	return t.port
}

// Path returns the path in escaped form. It may be empty.
func (t *Target) Path() string {
	return t.path
}

// Query returns a copy of the query pairs, in URL order.
func (t *Target) Query() []QueryParam {
	q := make([]QueryParam, len(t.query))
	copy(q, t.query)
	return q
}

// HostHeader returns the value to send in the Host request header. The
// port is only included when it is not DefaultPort.
func (t *Target) HostHeader() string {
	if t.port == DefaultPort {
		return t.host
	}
	return net.JoinHostPort(t.host, strconv.Itoa(t.port))
}

// String returns the Target as an http URL.
func (t *Target) String() string {
	return "http://" + t.HostHeader() + RequestURI(t)
}

func parseQuery(raw string) ([]QueryParam, error) {
	var query []QueryParam
	for raw != "" {
		var pair string
		pair, raw, _ = strings.Cut(raw, "&")
		if pair == "" {
			continue
		}
		k, v, _ := strings.Cut(pair, "=")
		key, err := urlpkg.QueryUnescape(k)
		if err != nil {
			return nil, err
		}
		value, err := urlpkg.QueryUnescape(v)
		if err != nil {
			return nil, err
		}
		query = append(query, QueryParam{Key: key, Value: value})
	}
	return query, nil
}
