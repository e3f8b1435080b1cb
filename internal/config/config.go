// Copyright 2021 The httpstream Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gogama/httpstream"
	"github.com/gogama/httpstream/resolve"
	"github.com/gogama/httpstream/retry"
	"github.com/gogama/httpstream/timeout"
	"github.com/gogama/httpstream/transport"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Config is the httpstream command configuration.
type Config struct {
	Timeouts       Timeouts      `yaml:"timeouts"`
	DNS            DNS           `yaml:"dns"`
	ReadBufferSize int           `yaml:"readBufferSize"`
	Retries        int           `yaml:"retries"`
	RetryWait      time.Duration `yaml:"retryWait"`
}

// Timeouts bounds each phase of a request attempt.
type Timeouts struct {
	Resolve time.Duration `yaml:"resolve"`
	Connect time.Duration `yaml:"connect"`
	Write   time.Duration `yaml:"write"`
	Read    time.Duration `yaml:"read"`
}

// DNS configures host name resolution.
type DNS struct {
	Server      string            `yaml:"server"`
	Network     string            `yaml:"network"`
	StaticHosts map[string]string `yaml:"staticHosts"`
}

// Filenames lists the file names searched for when no path is given.
var Filenames = []string{
	".httpstream.yaml",
	".httpstream.yml",
	"httpstream.yaml",
}

// Default returns a configuration with default values.
func Default() *Config {
	return &Config{
		Timeouts: Timeouts{
			Resolve: 5 * time.Second,
			Connect: 5 * time.Second,
			Write:   5 * time.Second,
			Read:    30 * time.Second,
		},
		DNS: DNS{
			Network: "ip",
		},
		ReadBufferSize: transport.DefaultReadBufferSize,
		Retries:        0,
		RetryWait:      250 * time.Millisecond,
	}
}

// Load loads configuration from path, or searches the current directory
// for one of Filenames if path is empty. If nothing is found, the
// defaults are returned.
func Load(path string) (*Config, error) {
	if path != "" {
		return loadFile(path)
	}
	return Find(".")
}

// Find searches dir for one of Filenames and loads the first one found.
func Find(dir string) (*Config, error) {
	for _, name := range Filenames {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return loadFile(p)
		}
	}
	return Default(), nil
}

func loadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML data over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("httpstream/config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate reports the first invalid setting, if any.
func (c *Config) Validate() error {
	t := c.Timeouts
	if t.Resolve <= 0 || t.Connect <= 0 || t.Write <= 0 || t.Read <= 0 {
		return errors.New("httpstream/config: timeouts must be positive")
	}
	switch c.DNS.Network {
	case "", "ip", "ip4", "ip6":
	default:
		return fmt.Errorf("httpstream/config: invalid dns network %q", c.DNS.Network)
	}
	if c.ReadBufferSize < 0 {
		return errors.New("httpstream/config: negative readBufferSize")
	}
	if c.Retries < 0 {
		return errors.New("httpstream/config: negative retries")
	}
	if c.RetryWait < 0 {
		return errors.New("httpstream/config: negative retryWait")
	}
	return nil
}

// Client returns a client configured from c, logging to logger.
func (c *Config) Client(logger *zap.Logger) *httpstream.Client {
	cl := &httpstream.Client{
		Resolver: resolve.New(&resolve.Config{
			Server:      c.DNS.Server,
			Network:     c.DNS.Network,
			StaticHosts: c.DNS.StaticHosts,
		}),
		Transport:     &transport.TCP{ReadBufferSize: c.ReadBufferSize},
		TimeoutPolicy: timeout.PerPhase(c.Timeouts.Resolve, c.Timeouts.Connect, c.Timeouts.Write, c.Timeouts.Read),
		Logger:        logger,
	}
	if c.Retries > 0 {
		cl.RetryPolicy = retry.NewPolicy(
			retry.Times(c.Retries).And(retry.Kind(httpstream.ErrorDnsResolution, httpstream.ErrorConnect).Or(retry.TransientErr)),
			retry.NewFixedWaiter(c.RetryWait))
	}
	return cl
}
