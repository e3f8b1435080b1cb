// Copyright 2021 The httpstream Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Command httpstream streams the body of an HTTP/1.0 GET to standard
// output as it arrives.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/gogama/httpstream"
	"github.com/gogama/httpstream/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	exitSuccess = 0
	exitFailure = 1
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		color.New(color.FgRed).Fprintf(stderr, "error: %v\n", err)
		return exitFailure
	}
	return exitSuccess
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var (
		configFlag  string
		verboseFlag bool
	)
	cmd := &cobra.Command{
		Use:   "httpstream <url>",
		Short: "Stream an HTTP/1.0 GET response body to stdout",
		Long: `httpstream issues an HTTP/1.0 GET request and writes the response
body to stdout piece by piece as it arrives. The status line is written
to stderr.

Examples:
  httpstream http://example.com/feed
  httpstream example.com:8080/events?since=10 --config stream.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return get(cmd.Context(), args[0], configFlag, verboseFlag, stdout, stderr)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.Flags().StringVarP(&configFlag, "config", "c", os.Getenv("HTTPSTREAM_CONFIG"), "Path to YAML config file (env: HTTPSTREAM_CONFIG)")
	cmd.Flags().BoolVarP(&verboseFlag, "verbose", "v", false, "Log request progress to stderr")
	return cmd
}

func get(ctx context.Context, url, configPath string, verbose bool, stdout, stderr io.Writer) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger := newLogger(verbose, stderr)
	defer func() { _ = logger.Sync() }()

	w := &streamWriter{stdout: stdout, stderr: stderr}
	_, err = cfg.Client(logger).Get(ctx, url, w)
	if err != nil {
		return err
	}
	return w.err
}

// newLogger writes warnings as JSON to stderr, or every debug entry in
// console form when verbose is set.
func newLogger(verbose bool, stderr io.Writer) *zap.Logger {
	out := zapcore.Lock(zapcore.AddSync(stderr))
	if verbose {
		enc := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
		return zap.New(zapcore.NewCore(enc, out, zapcore.DebugLevel), zap.ErrorOutput(out), zap.Development())
	}
	enc := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	return zap.New(zapcore.NewCore(enc, out, zapcore.WarnLevel), zap.ErrorOutput(out))
}

// streamWriter writes status lines to stderr and payloads to stdout.
type streamWriter struct {
	stdout io.Writer
	stderr io.Writer
	err    error
}

func (w *streamWriter) Handle(evt httpstream.Event) {
	switch evt.Kind {
	case httpstream.StatusEvent:
		statusColor(evt.Status).Fprintf(w.stderr, "HTTP %d\n", evt.Status)
	case httpstream.PayloadEvent:
		if w.err == nil {
			_, w.err = w.stdout.Write(evt.Payload)
		}
	}
}

func statusColor(code int) *color.Color {
	switch {
	case code >= 500:
		return color.New(color.FgRed, color.Bold)
	case code >= 400:
		return color.New(color.FgYellow)
	case code >= 300:
		return color.New(color.FgCyan)
	default:
		return color.New(color.FgGreen)
	}
}
