// Copyright 2021 The httpstream Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package resolve

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFunc(t *testing.T) {
	want := []net.IP{net.IPv4(10, 0, 0, 1)}
	var got string
	f := Func(func(_ context.Context, host string) ([]net.IP, error) {
		got = host
		return want, nil
	})
	ips, err := f.Resolve(context.Background(), "example.com")
	require.NoError(t, err)
	assert.Equal(t, want, ips)
	assert.Equal(t, "example.com", got)
}

func TestNew(t *testing.T) {
	t.Run("nil config", func(t *testing.T) {
		r := New(nil)
		require.IsType(t, &resolver{}, r)
		assert.Equal(t, "ip", r.(*resolver).network)
		assert.Empty(t, r.(*resolver).hosts)
	})
	t.Run("network", func(t *testing.T) {
		r := New(&Config{Network: "ip4"})
		assert.Equal(t, "ip4", r.(*resolver).network)
	})
	t.Run("static hosts", func(t *testing.T) {
		r := New(&Config{StaticHosts: map[string]string{
			"foo.test": "10.1.2.3",
			"bad.test": "not-an-ip",
		}})
		ips, err := r.Resolve(context.Background(), "foo.test")
		require.NoError(t, err)
		require.Len(t, ips, 1)
		assert.True(t, ips[0].Equal(net.IPv4(10, 1, 2, 3)))
		assert.NotContains(t, r.(*resolver).hosts, "bad.test")
	})
	t.Run("literal address", func(t *testing.T) {
		r := New(nil)
		ips, err := r.Resolve(context.Background(), "127.0.0.1")
		require.NoError(t, err)
		require.Len(t, ips, 1)
		assert.True(t, ips[0].Equal(net.IPv4(127, 0, 0, 1)))
	})
	t.Run("canceled lookup", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		r := New(&Config{Server: "127.0.0.1:1"})
		ips, err := r.Resolve(ctx, "no-such-host.invalid")
		assert.Error(t, err)
		assert.Nil(t, ips)
	})
}

func TestConfig_Clone(t *testing.T) {
	var nilConfig *Config
	assert.Nil(t, nilConfig.Clone())

	c := &Config{
		Server:      "1.1.1.1:53",
		Network:     "ip4",
		StaticHosts: map[string]string{"a": "10.0.0.1"},
	}
	d := c.Clone()
	assert.Equal(t, c, d)
	d.StaticHosts["b"] = "10.0.0.2"
	assert.NotContains(t, c.StaticHosts, "b")
}

func TestSelectIPv4(t *testing.T) {
	v6 := net.ParseIP("2001:db8::1")
	v4 := net.IPv4(192, 0, 2, 7)

	testCases := []struct {
		name string
		ips  []net.IP
		want net.IP
	}{
		{"nil", nil, nil},
		{"empty", []net.IP{}, nil},
		{"only IPv6", []net.IP{v6}, nil},
		{"IPv6 then IPv4", []net.IP{v6, v4}, v4.To4()},
		{"first IPv4 wins", []net.IP{net.IPv4(192, 0, 2, 8), v4}, net.IPv4(192, 0, 2, 8).To4()},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			got := SelectIPv4(testCase.ips)
			assert.Equal(t, testCase.want, got)
			if got != nil {
				assert.Len(t, got, net.IPv4len)
			}
		})
	}
}

func TestErrNoAddress(t *testing.T) {
	r := Func(func(_ context.Context, _ string) ([]net.IP, error) {
		return nil, ErrNoAddress
	})
	_, err := r.Resolve(context.Background(), "x")
	assert.True(t, errors.Is(err, ErrNoAddress))
	assert.Equal(t, "httpstream/resolve: no addresses", err.Error())
}
