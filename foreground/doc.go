// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Package foreground implements the system-level "run until done" entry
// point: obtain a donated-thread Worker, schedule a user coroutine on
// it, and run its loop on a sidecar goroutine so the calling goroutine
// is free to shield the loop from OS-signal-induced interruption for
// the duration of the run.
package foreground
