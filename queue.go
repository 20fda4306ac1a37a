// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package streamtex

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/google/uuid"
)

// SlotState is the lifecycle state of one buffer slot. Transitions are
// strictly Free -> Dequeued -> Queued -> Acquired -> Free; the only
// other legal edge is Dequeued -> Free when the producer cancels.
type SlotState uint8

const (
	// SlotFree means the slot is owned by the queue and available to
	// the producer.
	SlotFree SlotState = iota

	// SlotDequeued means the producer owns the slot and is writing
	// into its buffer.
	SlotDequeued

	// SlotQueued means the slot sits in the FIFO waiting for the
	// consumer.
	SlotQueued

	// SlotAcquired means the consumer holds the slot as its current
	// frame. At most one slot is acquired at a time.
	SlotAcquired
)

func (s SlotState) String() string {
	switch s {
	case SlotFree:
		return "free"
	case SlotDequeued:
		return "dequeued"
	case SlotQueued:
		return "queued"
	case SlotAcquired:
		return "acquired"
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

const (
	// DefaultBufferCount is the slot count used when no WithBufferCount
	// option is given. Three slots allow the producer to fill one
	// buffer while a second waits in the FIFO and the consumer reads a
	// third.
	DefaultBufferCount = 3

	// MaxBufferSlots bounds SetBufferCount.
	MaxBufferSlots = 32

	invalidSlot = -1
)

// slot is one entry of the buffer slot table. All fields are guarded by
// the queue mutex.
type slot struct {
	buffer Buffer
	image  Image
	fence  Fence
	state  SlotState

	// Frame metadata set by Enqueue.
	crop        Rect
	transform   Transform
	scalingMode ScalingMode
	timestamp   int64
	traceID     string

	// leaked marks a slot whose release fence timed out. The slot never
	// rejoins the free pool; its buffer is deliberately kept alive since
	// some agent may still be reading it.
	leaked bool
}

// Queue is the producer side of a stream: a fixed table of buffer slots
// plus a FIFO of queued frames. Producers obtain it from Stream.Queue.
//
// The queue assumes a single producer thread of control. Interleaving
// producer calls from several goroutines without external serialization
// leaves the slot handoff undefined (each call is still internally
// consistent, but dequeue/enqueue pairs may interleave).
//
// Frames are presented in enqueue order. The FIFO is never reordered by
// timestamp, so display latency stays bounded regardless of timestamp
// skew between producers and the clock.
type Queue struct {
	mu sync.Mutex

	name      string
	abandoned bool

	slots    []slot
	fifo     []int
	acquired int

	allocator    Allocator
	fenceFactory FenceFactory
	fenceTimeout time.Duration

	// Defaults applied to producer requests.
	defaultWidth  uint32
	defaultHeight uint32
	defaultFormat gputypes.TextureFormat
	consumerUsage gputypes.TextureUsage
	transformHint Transform

	onFrameAvailable  func()
	onBuffersReleased func()
}

// Dequeue hands a free slot to the producer for writing. The returned
// realloc flag tells the producer the slot's buffer was (re)allocated,
// so any cached reference to the old buffer is stale.
//
// A width or height of zero selects the default buffer size; an
// undefined format selects the default format. The consumer usage flags
// are always OR'd into the request. When the existing buffer does not
// match the requested geometry, format, or usage, it is freed and a new
// one is allocated; allocation failures are retried once with the
// consumer's minimal usage before returning ErrAllocationFailed.
//
// Returns ErrNoBufferAvailable when every slot is dequeued, queued, or
// acquired. Dequeue never blocks waiting for a slot.
func (q *Queue) Dequeue(width, height uint32, format gputypes.TextureFormat, usage gputypes.TextureUsage) (slotIndex int, realloc bool, err error) {
	q.mu.Lock()
	if q.abandoned {
		q.mu.Unlock()
		return invalidSlot, false, ErrAbandoned
	}
	if q.allocator == nil {
		q.mu.Unlock()
		return invalidSlot, false, fmt.Errorf("%w: queue has no allocator", ErrInvalidState)
	}
	if width == 0 || height == 0 {
		width, height = q.defaultWidth, q.defaultHeight
	}
	if format == gputypes.TextureFormatUndefined {
		format = q.defaultFormat
	}
	usage |= q.consumerUsage

	idx := invalidSlot
	for i := range q.slots {
		if q.slots[i].state == SlotFree && !q.slots[i].leaked {
			idx = i
			break
		}
	}
	if idx == invalidSlot {
		q.mu.Unlock()
		return invalidSlot, false, fmt.Errorf("%w: all %d slots in use", ErrNoBufferAvailable, len(q.slots))
	}

	sl := &q.slots[idx]
	// Reserve the slot before dropping the lock for allocation.
	sl.state = SlotDequeued
	match := sl.buffer != nil &&
		sl.buffer.Width() == width && sl.buffer.Height() == height &&
		sl.buffer.Format() == format &&
		sl.buffer.Usage()&usage == usage
	if match {
		q.mu.Unlock()
		return idx, false, nil
	}

	oldBuf := sl.buffer
	oldImg := sl.image
	sl.buffer = nil
	sl.image = nil
	sl.fence = nil
	minUsage := q.consumerUsage
	label := fmt.Sprintf("%s:%d", q.name, idx)
	q.mu.Unlock()

	if oldImg != nil {
		oldImg.Destroy()
	}
	if oldBuf != nil {
		oldBuf.Release()
	}

	desc := BufferDescriptor{Label: label, Width: width, Height: height, Format: format, Usage: usage}
	buf, allocErr := q.allocator.Allocate(desc)
	if allocErr != nil && usage != minUsage {
		Logger().Warn("buffer allocation failed, retrying with relaxed usage",
			"stream", q.name, "slot", idx, "err", allocErr)
		desc.Usage = minUsage
		buf, allocErr = q.allocator.Allocate(desc)
	}

	q.mu.Lock()
	sl = &q.slots[idx]
	if allocErr != nil || q.abandoned {
		sl.state = SlotFree
		abandoned := q.abandoned
		q.mu.Unlock()
		if buf != nil {
			buf.Release()
		}
		if abandoned {
			return invalidSlot, false, ErrAbandoned
		}
		return invalidSlot, false, fmt.Errorf("%w: %v", ErrAllocationFailed, allocErr)
	}
	sl.buffer = buf
	q.mu.Unlock()
	return idx, true, nil
}

// Enqueue submits a dequeued slot to the FIFO with its frame metadata.
// The crop rectangle must lie within the slot's buffer; the timestamp is
// in nanoseconds on a monotonic clock whose zero point is defined by the
// producer.
//
// The frame-available callback fires only when the frame landed on an
// empty FIFO; frames queued behind pending frames do not re-notify. The
// callback runs on the caller's goroutine after the queue lock has been
// released.
//
// Returns ErrInvalidState unless the slot is currently dequeued, which
// makes double-enqueue fail deterministically.
func (q *Queue) Enqueue(slotIndex int, crop Rect, transform Transform, scaling ScalingMode, timestamp int64) error {
	q.mu.Lock()
	if q.abandoned {
		q.mu.Unlock()
		return ErrAbandoned
	}
	if slotIndex < 0 || slotIndex >= len(q.slots) {
		q.mu.Unlock()
		return fmt.Errorf("%w: slot %d out of range", ErrInvalidState, slotIndex)
	}
	sl := &q.slots[slotIndex]
	if sl.state != SlotDequeued {
		q.mu.Unlock()
		return fmt.Errorf("%w: enqueue of slot %d in state %s", ErrInvalidState, slotIndex, sl.state)
	}
	if !crop.IsEmpty() && !crop.In(sl.buffer.Width(), sl.buffer.Height()) {
		q.mu.Unlock()
		return fmt.Errorf("%w: crop %s exceeds %dx%d buffer", ErrInvalidState,
			crop, sl.buffer.Width(), sl.buffer.Height())
	}

	sl.state = SlotQueued
	sl.crop = crop
	sl.transform = transform
	sl.scalingMode = scaling
	sl.timestamp = timestamp
	sl.traceID = uuid.NewString()

	wasEmpty := len(q.fifo) == 0
	q.fifo = append(q.fifo, slotIndex)
	cb := q.onFrameAvailable
	name := q.name
	trace := sl.traceID
	q.mu.Unlock()

	Logger().Debug("frame queued",
		"stream", name, "slot", slotIndex, "trace", trace, "ts", timestamp)
	if wasEmpty && cb != nil {
		cb()
	}
	return nil
}

// SlotBuffer returns the buffer backing a slot the producer currently
// holds. The reference is only valid until the slot is enqueued or
// canceled; producers that keep it longer must Retain it.
func (q *Queue) SlotBuffer(slotIndex int) (Buffer, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.abandoned {
		return nil, ErrAbandoned
	}
	if slotIndex < 0 || slotIndex >= len(q.slots) {
		return nil, fmt.Errorf("%w: slot %d out of range", ErrInvalidState, slotIndex)
	}
	sl := &q.slots[slotIndex]
	if sl.state != SlotDequeued {
		return nil, fmt.Errorf("%w: buffer request for slot %d in state %s", ErrInvalidState, slotIndex, sl.state)
	}
	return sl.buffer, nil
}

// CancelDequeue returns a dequeued slot to the free pool without
// queueing it. Producers use it to back out of a frame, for example
// after a failed render into the buffer.
func (q *Queue) CancelDequeue(slotIndex int) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.abandoned {
		return ErrAbandoned
	}
	if slotIndex < 0 || slotIndex >= len(q.slots) {
		return fmt.Errorf("%w: slot %d out of range", ErrInvalidState, slotIndex)
	}
	sl := &q.slots[slotIndex]
	if sl.state != SlotDequeued {
		return fmt.Errorf("%w: cancel of slot %d in state %s", ErrInvalidState, slotIndex, sl.state)
	}
	sl.state = SlotFree
	return nil
}

// ReleaseAcquired forces the acquired slot back to the free pool
// immediately, bypassing the release fence. This is a teardown path for
// detach and shutdown sequences where the consumer guarantees no reads
// are outstanding; during normal operation the slot is released by the
// next UpdateImage after its fence signals.
func (q *Queue) ReleaseAcquired(slotIndex int) error {
	q.mu.Lock()
	if q.abandoned {
		q.mu.Unlock()
		return ErrAbandoned
	}
	if slotIndex < 0 || slotIndex >= len(q.slots) {
		q.mu.Unlock()
		return fmt.Errorf("%w: slot %d out of range", ErrInvalidState, slotIndex)
	}
	sl := &q.slots[slotIndex]
	if sl.state != SlotAcquired {
		q.mu.Unlock()
		return fmt.Errorf("%w: release of slot %d in state %s", ErrInvalidState, slotIndex, sl.state)
	}
	sl.state = SlotFree
	fence := sl.fence
	sl.fence = nil
	if q.acquired == slotIndex {
		q.acquired = invalidSlot
	}
	q.mu.Unlock()

	if fence != nil {
		releaseFence(fence)
	}
	return nil
}

// SetBufferCount changes the slot capacity. All slots are freed and
// reallocated lazily by subsequent Dequeue calls, so the change is only
// legal while the producer is idle: any dequeued or queued slot fails
// the call with ErrInvalidState. An acquired slot is released; the
// consumer's current frame survives because it holds its own buffer
// reference. Fires the buffers-released callback.
func (q *Queue) SetBufferCount(n int) error {
	q.mu.Lock()
	if q.abandoned {
		q.mu.Unlock()
		return ErrAbandoned
	}
	if n < 2 || n > MaxBufferSlots {
		q.mu.Unlock()
		return fmt.Errorf("%w: buffer count %d outside [2, %d]", ErrInvalidState, n, MaxBufferSlots)
	}
	for i := range q.slots {
		switch q.slots[i].state {
		case SlotDequeued, SlotQueued:
			q.mu.Unlock()
			return fmt.Errorf("%w: slot %d is %s; buffer count changes require an idle producer",
				ErrInvalidState, i, q.slots[i].state)
		}
	}

	images, buffers, fences := q.clearSlotsLocked()
	q.slots = make([]slot, n)
	q.fifo = q.fifo[:0]
	q.acquired = invalidSlot
	cb := q.onBuffersReleased
	q.mu.Unlock()

	destroyAll(images, buffers, fences)
	if cb != nil {
		cb()
	}
	return nil
}

// Abandon puts the queue into its terminal state: all slots are freed
// and every subsequent operation on the queue or its stream returns
// ErrAbandoned. Abandon is idempotent and irreversible. Buffers with
// outstanding references elsewhere (the consumer's current frame, an
// external holder) stay allocated until those references drop.
func (q *Queue) Abandon() {
	q.mu.Lock()
	if q.abandoned {
		q.mu.Unlock()
		return
	}
	q.abandoned = true
	images, buffers, fences := q.clearSlotsLocked()
	q.fifo = nil
	q.acquired = invalidSlot
	cb := q.onBuffersReleased
	name := q.name
	q.mu.Unlock()

	destroyAll(images, buffers, fences)
	Logger().Debug("stream abandoned", "stream", name)
	if cb != nil {
		cb()
	}
}

// Abandoned reports whether the queue has been abandoned.
func (q *Queue) Abandoned() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.abandoned
}

// clearSlotsLocked strips every slot of its image, fence, and buffer,
// returning them so the caller can destroy them after releasing the
// lock. Leaked slots are left untouched: their release fence never
// signaled, so some agent may still be reading the buffer through the
// image, and none of the three can be reclaimed safely.
func (q *Queue) clearSlotsLocked() (images []Image, buffers []Buffer, fences []Fence) {
	for i := range q.slots {
		sl := &q.slots[i]
		if sl.leaked {
			continue
		}
		if sl.image != nil {
			images = append(images, sl.image)
			sl.image = nil
		}
		if sl.buffer != nil {
			buffers = append(buffers, sl.buffer)
			sl.buffer = nil
		}
		if sl.fence != nil {
			fences = append(fences, sl.fence)
			sl.fence = nil
		}
		sl.state = SlotFree
	}
	return images, buffers, fences
}

func destroyAll(images []Image, buffers []Buffer, fences []Fence) {
	for _, img := range images {
		img.Destroy()
	}
	for _, b := range buffers {
		b.Release()
	}
	for _, f := range fences {
		releaseFence(f)
	}
}

// SetDefaultBufferSize sets the buffer geometry used when Dequeue is
// called with a zero width or height.
func (q *Queue) SetDefaultBufferSize(width, height uint32) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.abandoned {
		return ErrAbandoned
	}
	if width == 0 || height == 0 {
		return fmt.Errorf("%w: default size %dx%d", ErrInvalidState, width, height)
	}
	q.defaultWidth, q.defaultHeight = width, height
	return nil
}

// SetDefaultBufferFormat sets the format used when Dequeue is called
// with TextureFormatUndefined.
func (q *Queue) SetDefaultBufferFormat(format gputypes.TextureFormat) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.abandoned {
		return ErrAbandoned
	}
	q.defaultFormat = format
	return nil
}

// SetConsumerUsage sets usage flags OR'd into every producer request.
// The consumer side always samples buffers as textures, so
// TextureUsageTextureBinding is added regardless.
func (q *Queue) SetConsumerUsage(usage gputypes.TextureUsage) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.abandoned {
		return ErrAbandoned
	}
	q.consumerUsage = usage | gputypes.TextureUsageTextureBinding
	return nil
}

// SetTransformHint advises producers of the transform the consumer will
// apply, letting them pre-rotate frames and render scanout-ready pixels.
// Purely advisory; the queue does not act on it.
func (q *Queue) SetTransformHint(hint Transform) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.abandoned {
		return ErrAbandoned
	}
	q.transformHint = hint
	return nil
}

// TransformHint returns the advisory transform set by the consumer.
func (q *Queue) TransformHint() Transform {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.transformHint
}

// SetName sets the identifier used in log messages.
func (q *Queue) SetName(name string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.name = name
}

// BufferCount returns the current slot capacity.
func (q *Queue) BufferCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.slots)
}

// QueuedFrames returns the number of frames waiting in the FIFO.
func (q *Queue) QueuedFrames() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.fifo)
}

// SetOnFrameAvailable registers the callback invoked when a frame lands
// on an empty FIFO. The callback runs without the queue lock held and
// may run on any goroutine; it must not call back into the queue or
// stream synchronously, since the producer goroutine it runs on may
// already be inside another queue operation. Pass nil to remove.
func (q *Queue) SetOnFrameAvailable(fn func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.onFrameAvailable = fn
}

// SetOnBuffersReleased registers the callback invoked when the queue
// frees slot buffers outside a producer-driven release: SetBufferCount
// and Abandon. Producers use it to drop cached buffer references. Same
// reentrancy rules as SetOnFrameAvailable. Pass nil to remove.
func (q *Queue) SetOnBuffersReleased(fn func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.onBuffersReleased = fn
}

// DebugString renders the slot table and FIFO for diagnostics.
func (q *Queue) DebugString() string {
	q.mu.Lock()
	defer q.mu.Unlock()
	var b strings.Builder
	fmt.Fprintf(&b, "stream %q abandoned=%v acquired=%d fifo=%v\n",
		q.name, q.abandoned, q.acquired, q.fifo)
	for i := range q.slots {
		sl := &q.slots[i]
		fmt.Fprintf(&b, "  slot %2d: %-8s", i, sl.state)
		if sl.buffer != nil {
			fmt.Fprintf(&b, " %dx%d", sl.buffer.Width(), sl.buffer.Height())
		}
		if sl.leaked {
			b.WriteString(" LEAKED")
		}
		if sl.state == SlotQueued || sl.state == SlotAcquired {
			fmt.Fprintf(&b, " crop=%s transform=%s ts=%d trace=%s",
				sl.crop, sl.transform, sl.timestamp, sl.traceID)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
