// Copyright 2021 The httpstream Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package transient classifies errors from streaming request execution
// as transient or non-transient. This is handy for writing retry
// policies, and for other purposes such as choosing a log level.
//
// Package transient depends only on the standard library packages
// "errors", "net" and "syscall", so it doesn't bring any significant
// dependencies when imported as a standalone package.
package transient
