// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Package completion adapts a worker.WaitSource into a Promise minted by
// whatever hosted coroutine scheduler a worker thread has installed via
// OnThreadStart. It has no dependency on any particular scheduler: the
// Scheduler interface is satisfied by anything that can mint a pending
// result and hand back functions to settle it, such as a per-thread
// *eventloop.JS (see the hostworker package for a concrete binding).
package completion
