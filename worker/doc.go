// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Package worker implements the cooperative worker runtime: a
// single-threaded event loop bound to one OS thread (owned or donated),
// multiplexing cross-thread submissions, on-loop timers, and wait-source
// completions.
//
// The worker does not implement its own cooperative scheduler. Priority
// scheduling, timers, and wait-source polling are delegated to an
// underlying loop, supplied by github.com/joeycumines/go-eventloop. This
// package owns only the core runtime concerns: cross-thread ingress (the
// mailbox), the trip algorithm that drives the underlying loop, and the
// thread-local bookkeeping needed for GetCurrent.
package worker
