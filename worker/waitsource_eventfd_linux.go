//go:build linux

package worker

import (
	"encoding/binary"

	"golang.org/x/sys/unix"
)

// EventFDWaitSource is a real OS-level wait source backed by a Linux
// eventfd, demonstrating the "device fence" end of the WaitSource
// spectrum: something a driver on another thread (or another process)
// can signal without this package knowing anything about what it
// represents.
type EventFDWaitSource struct {
	fd int
	ws WaitSource
}

// NewEventFDWaitSource creates a non-blocking eventfd and registers it
// with w's underlying loop. Must be called from the worker thread, the
// same rule RegisterIOWaitSource follows. The caller owns disposal via
// Close.
func NewEventFDWaitSource(w *Worker) (*EventFDWaitSource, error) {
	fd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		return nil, err
	}
	ws, err := w.RegisterIOWaitSource(fd)
	if err != nil {
		_ = unix.Close(fd)
		return nil, err
	}
	return &EventFDWaitSource{fd: fd, ws: ws}, nil
}

// Done implements WaitSource.
func (e *EventFDWaitSource) Done() <-chan struct{} { return e.ws.Done() }

// Signal writes to the eventfd from any goroutine (or could be invoked by
// a driver callback on a completely separate thread), waking the loop's
// poller and, in turn, the registered callback.
func (e *EventFDWaitSource) Signal() error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], 1)
	_, err := unix.Write(e.fd, buf[:])
	return err
}

// Close releases the underlying file descriptor. Safe to call after the
// wait source has already signalled.
func (e *EventFDWaitSource) Close() error {
	return unix.Close(e.fd)
}
