// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Package hostworker demonstrates a language-binding integration point: a
// Host installs one Goja JavaScript runtime per worker thread via
// OnThreadStart/OnThreadStop, bound to that worker's own underlying loop
// through github.com/joeycumines/goja-eventloop, and exposes the result
// as a completion.Scheduler so a CompletionEvent can be awaited from
// JavaScript-hosted coroutines.
//
// The base worker.Worker never imports this package or knows it exists;
// OnThreadStart/OnThreadStop is the only coupling.
package hostworker
