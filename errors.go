package streamtex

import "errors"

// Package errors. All failures returned by streamtex wrap one of these
// sentinels, so callers can classify them with errors.Is regardless of
// the contextual message added at the failure site.
var (
	// ErrInvalidState is returned when an operation is not legal for the
	// current slot state, such as enqueueing a slot that was never
	// dequeued or enqueueing the same slot twice.
	ErrInvalidState = errors.New("streamtex: invalid state")

	// ErrNoBufferAvailable is returned by Dequeue when every slot is
	// dequeued, queued, or acquired. The producer must wait for the
	// consumer to release a buffer; streamtex never blocks the caller.
	ErrNoBufferAvailable = errors.New("streamtex: no buffer available")

	// ErrAbandoned is returned by every operation after Abandon.
	// The condition is permanent.
	ErrAbandoned = errors.New("streamtex: stream abandoned")

	// ErrFenceTimeout is returned when a release fence does not signal
	// within the configured timeout. The affected slot is flagged as
	// leaked and never returns to the free pool.
	ErrFenceTimeout = errors.New("streamtex: fence wait timed out")

	// ErrInvalidOperation is returned for attach/detach misuse: updating
	// a detached stream, detaching twice, attaching an attached stream,
	// or issuing a context-affine call from the wrong device context.
	ErrInvalidOperation = errors.New("streamtex: invalid operation")

	// ErrAllocationFailed is returned when the buffer allocator cannot
	// satisfy a request, after one retry with relaxed usage flags.
	ErrAllocationFailed = errors.New("streamtex: buffer allocation failed")
)
