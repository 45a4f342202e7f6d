// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Package process packages "run this asynchronous routine on this worker
// and signal me when it terminates" into a small state machine: a
// Process moves Initialized -> Running -> Terminated exactly once, and
// exposes its termination as a worker.WaitSource any number of observers
// may await.
package process
