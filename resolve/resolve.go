// Copyright 2021 The httpstream Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package resolve

import (
	"context"
	"errors"
	"net"
)

var (
	// ErrNoAddress is returned by the default resolver when a lookup
	// succeeds but yields no addresses at all.
	ErrNoAddress = errors.New("httpstream/resolve: no addresses")
	// ErrNoIPv4 describes an answer that contains addresses, but no
	// IPv4 address.
	ErrNoIPv4 = errors.New("httpstream/resolve: no IPv4 address")
)

// A Resolver maps a host name to its candidate IP addresses.
//
// Implementations of Resolver must be safe for concurrent use by
// multiple goroutines. A Resolver makes a single attempt: it never
// retries on its own.
type Resolver interface {
	Resolve(ctx context.Context, host string) ([]net.IP, error)
}

// The Func type is an adapter to allow the use of ordinary functions as
// resolvers.
type Func func(ctx context.Context, host string) ([]net.IP, error)

// Resolve calls f(ctx, host).
func (f Func) Resolve(ctx context.Context, host string) ([]net.IP, error) {
	return f(ctx, host)
}

// Config tunes the resolver constructed by New.
type Config struct {
	// Server is the "host:port" address of a DNS server to query
	// instead of the system's configured servers. Empty means the
	// system servers.
	Server string
	// Network is one of "ip", "ip4" or "ip6". Empty means "ip".
	Network string
	// StaticHosts maps host names to literal IP addresses, and is
	// consulted before any DNS query, much like /etc/hosts.
	StaticHosts map[string]string
}

// Clone returns a deep copy of c. Cloning a nil Config returns nil.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	hosts := make(map[string]string, len(c.StaticHosts))
	for k, v := range c.StaticHosts {
		hosts[k] = v
	}
	return &Config{
		Server:      c.Server,
		Network:     c.Network,
		StaticHosts: hosts,
	}
}

// Default is the resolver used when none is configured. It queries the
// system's DNS servers for both address families.
var Default Resolver = New(nil)

type resolver struct {
	network string
	hosts   map[string]net.IP
	lookup  *net.Resolver
}

var zeroDialer net.Dialer

// New constructs a Resolver built on the pure Go resolver from package
// net. A nil Config is equivalent to the zero Config.
//
// Host names present in cfg.StaticHosts resolve without a DNS query.
// Literal IP addresses resolve to themselves. A static host whose value
// is not a valid IP address is ignored.
func New(cfg *Config) Resolver {
	r := &resolver{
		network: "ip",
		hosts:   make(map[string]net.IP),
	}
	var server string
	if cfg != nil {
		if cfg.Network != "" {
			r.network = cfg.Network
		}
		for host, addr := range cfg.StaticHosts {
			if ip := net.ParseIP(addr); ip != nil {
				r.hosts[host] = ip
			}
		}
		server = cfg.Server
	}
	r.lookup = &net.Resolver{
		PreferGo: true,
		Dial: func(ctx context.Context, network, address string) (net.Conn, error) {
			if server != "" {
				address = server
			}
			return zeroDialer.DialContext(ctx, network, address)
		},
	}
	return r
}

func (r *resolver) Resolve(ctx context.Context, host string) ([]net.IP, error) {
	if ip, ok := r.hosts[host]; ok {
		return []net.IP{ip}, nil
	}
	if ip := net.ParseIP(host); ip != nil {
		return []net.IP{ip}, nil
	}
	ips, err := r.lookup.LookupIP(ctx, r.network, host)
	if err != nil {
		return nil, err
	}
	if len(ips) == 0 {
		return nil, ErrNoAddress
	}
	return ips, nil
}

// SelectIPv4 returns the first IPv4 address in ips, in its 4-byte form,
// or nil if there is none.
func SelectIPv4(ips []net.IP) net.IP {
	for _, ip := range ips {
		if ip4 := ip.To4(); ip4 != nil {
			return ip4
		}
	}
	return nil
}
