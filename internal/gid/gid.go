// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Package gid extracts the calling goroutine's runtime-assigned ID.
//
// This exists to back a thread-local-style "current worker" lookup: a
// Worker pins its loop to one goroutine for its whole lifetime (via
// runtime.LockOSThread, for owned and donated threads alike), so the goroutine ID is a
// stable enough key for a process-wide registry of "which Worker, if any,
// is this goroutine driving". There is no supported API for this in the
// standard library; parsing the runtime.Stack header is the well-known
// workaround, and is only ever used for this diagnostic-adjacent purpose,
// never for scheduling decisions.
package gid

import (
	"bytes"
	"runtime"
	"strconv"
)

// Current returns the calling goroutine's ID.
func Current() int64 {
	buf := make([]byte, 64)
	n := runtime.Stack(buf, false)
	buf = buf[:n]
	// Expected header: "goroutine 123 [running]:"
	const prefix = "goroutine "
	if !bytes.HasPrefix(buf, []byte(prefix)) {
		return 0
	}
	buf = buf[len(prefix):]
	if idx := bytes.IndexByte(buf, ' '); idx >= 0 {
		buf = buf[:idx]
	}
	id, err := strconv.ParseInt(string(buf), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
