//go:build linux || darwin

package worker

import (
	"sync"

	eventloop "github.com/joeycumines/go-eventloop"
)

// ioWaitSource adapts a real OS file descriptor (e.g. a device-exposed
// eventfd, bound via golang.org/x/sys) into a WaitSource, registered with
// the underlying loop's own epoll/kqueue poller rather than a bridge
// goroutine. Use this for wait sources that are genuinely OS-level;
// NewManualWaitSource (or any channel-backed value) covers everything
// else, including device fences with no fd representation.
type ioWaitSource struct {
	once sync.Once
	done chan struct{}
}

func (s *ioWaitSource) Done() <-chan struct{} { return s.done }

// RegisterIOWaitSource registers fd for readability with the worker's
// underlying loop and returns a WaitSource that becomes signalled the
// first time fd becomes readable. UnregisterFD is called automatically
// once signalled; callers remain responsible for closing fd itself.
//
// Must be called from the worker thread (the same rule CallLowLevel
// follows), since it registers directly with the underlying loop's
// poller.
func (w *Worker) RegisterIOWaitSource(fd int) (WaitSource, error) {
	s := &ioWaitSource{done: make(chan struct{})}
	if err := w.loop.RegisterFD(fd, eventloop.EventRead, func(eventloop.IOEvents) {
		s.once.Do(func() {
			_ = w.loop.UnregisterFD(fd)
			close(s.done)
		})
	}); err != nil {
		return nil, err
	}
	return s, nil
}
