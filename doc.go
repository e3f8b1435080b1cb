// Copyright 2021 The httpstream Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package httpstream provides a minimal streaming HTTP/1.0 client. It
issues a GET request and decodes the response incrementally, delivering
it to a Sink as a sequence of events while the bytes arrive, without
ever buffering the whole response.

Create a Client and pass a Sink to begin making requests.

	client := &httpstream.Client{}
	ex, err := client.Get(ctx, "http://example.com/feed?since=1",
		httpstream.SinkFunc(func(evt httpstream.Event) {
			switch evt.Kind {
			case httpstream.StatusEvent:
				log.Printf("status %d", evt.Status)
			case httpstream.PayloadEvent:
				os.Stdout.Write(evt.Payload)
			case httpstream.ErrorEvent:
				log.Printf("failed: %v", evt.Err)
			}
		}))

A request delivers at most one StatusEvent per response message, then
zero or more PayloadEvent events carrying the body, and ends with at
most one ErrorEvent. A request that succeeds ends silently.

Failures fall in exactly one of three kinds: ErrorDnsResolution when the
host cannot be resolved, ErrorConnect when no connection can be opened,
and ErrorMisc for everything else.

For control over how host names are resolved and connections opened,
set a custom Resolver and transport Factory, using packages resolve and
transport:

	client := &httpstream.Client{
		Resolver:  resolve.New(&resolve.Config{Server: "10.0.0.2:53"}),
		Transport: &transport.TCP{ReadBufferSize: 4096},
	}

For control over the client's retry decisions and timing, create a
custom retry policy using components from package retry. Retries only
ever happen for attempts that failed before delivering any event:

	retryWaiter := retry.NewExpWaiter(250*time.Millisecond, 5*time.Second, time.Now())
	retryPolicy := retry.NewPolicy(retry.DefaultDecider, retryWaiter)
	client := &httpstream.Client{
		RetryPolicy: retryPolicy,
	}

For control over how long each phase of a request may take, set a
custom timeout policy using package timeout:

	client := &httpstream.Client{
		TimeoutPolicy: timeout.PerPhase(time.Second, 2*time.Second, time.Second, time.Minute),
	}

To drive a single request directly, without the client, use
NewRequest and Request.Begin. A Request exposes its lifecycle State and
accepts a custom Decoder via WithDecoder.
*/
package httpstream
