package streamtex

import (
	"fmt"
	"sync"
	"time"
)

// Fence is a one-shot synchronization token. The reader of a buffer
// signals the fence when all of its accesses -- including asynchronous
// hardware reads that outlive the software call -- have completed; the
// queue waits on it before handing the buffer back to the producer.
//
// This indirection is what lets a display engine keep scanning out a
// buffer after the composition call returns: reuse is deferred until the
// read is provably done instead of forcing a synchronous wait on every
// frame.
//
// Implementations must be safe for concurrent use. Signal on an already
// signaled fence is a no-op.
type Fence interface {
	// Signal marks the fence as satisfied.
	Signal()

	// Wait blocks until the fence is signaled or the timeout elapses.
	// A non-positive timeout waits forever. Returns an error wrapping
	// ErrFenceTimeout on expiry.
	Wait(timeout time.Duration) error

	// Signaled reports whether the fence has been signaled, without
	// blocking.
	Signaled() bool
}

// FenceFactory creates a fresh unsignaled fence. The queue calls it each
// time the consumer arms a release fence, so platform backends can swap
// in device-level sync objects without touching the queue logic.
type FenceFactory func() Fence

// fenceDestroyer is optionally implemented by fences holding external
// resources, such as device sync objects.
type fenceDestroyer interface {
	Destroy()
}

// releaseFence lets go of a fence the queue no longer tracks, freeing
// any backing resources.
func releaseFence(f Fence) {
	if d, ok := f.(fenceDestroyer); ok {
		d.Destroy()
	}
}

// SyncFence is the default in-process Fence, built on a closed channel.
// Waiters block on the channel; Signal closes it exactly once.
type SyncFence struct {
	once sync.Once
	done chan struct{}
}

// NewSyncFence returns an unsignaled SyncFence.
func NewSyncFence() *SyncFence {
	return &SyncFence{done: make(chan struct{})}
}

// Signal marks the fence as satisfied. Safe to call more than once.
func (f *SyncFence) Signal() {
	f.once.Do(func() { close(f.done) })
}

// Wait blocks until Signal or the timeout. A non-positive timeout waits
// forever.
func (f *SyncFence) Wait(timeout time.Duration) error {
	if timeout <= 0 {
		<-f.done
		return nil
	}
	select {
	case <-f.done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("%w after %v", ErrFenceTimeout, timeout)
	}
}

// Signaled reports whether Signal has been called.
func (f *SyncFence) Signaled() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

var _ Fence = (*SyncFence)(nil)
