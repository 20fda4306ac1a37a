// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package streamtex

import (
	"fmt"

	"github.com/gogpu/gpucontext"
)

// Frame is a snapshot of the consumer's current buffer and its metadata.
// The Buffer reference stays valid for as long as the Frame is the
// stream's current frame; holders that keep a Frame beyond that must
// Retain the buffer themselves.
type Frame struct {
	// Buffer holds the frame pixels.
	Buffer Buffer

	// Crop is the valid region of the buffer, empty when the whole
	// buffer is valid.
	Crop Rect

	// Transform is the producer's pre-applied transform.
	Transform Transform

	// ScalingMode describes how the frame maps onto the output.
	ScalingMode ScalingMode

	// Timestamp is the frame time in nanoseconds, monotonically
	// increasing. Its zero point is producer-defined.
	Timestamp int64

	// TraceID correlates this frame across log lines.
	TraceID string

	// Matrix is the 4x4 column-major texture coordinate transform for
	// sampling this frame. See the package documentation.
	Matrix [16]float32
}

// Stream is the consumer binding of a buffer queue: it latches queued
// frames one at a time, exposes the current frame's buffer and sampling
// transform, and manages the attach/detach lifecycle against a rendering
// context.
//
// For legacy compatibility a Stream starts in the attached state even
// though no context has been seen yet; the first successful UpdateImage
// latches the device reported by the stream's DeviceProvider, and from
// then on all context-affine calls (UpdateImage, ArmReleaseFence,
// DetachFromContext) must be issued while that device is current.
// Context-affine calls need not share an OS thread, but must never
// overlap.
//
// A Stream may be moved between contexts with DetachFromContext and
// AttachToContext. Neither is required when no transfer is needed.
type Stream struct {
	q *Queue

	// Consumer state, guarded by q.mu.
	attached  bool
	device    gpucontext.Device
	provider  gpucontext.DeviceProvider
	binder    ImageBinder
	filtering bool

	hasFrame bool
	current  Frame

	// currentImage is only non-nil after AttachToContext recreated the
	// sampling image for the snapshot frame; during normal operation
	// the image lives in the frame's slot.
	currentImage Image
}

// New creates a Stream and its Queue.
//
// Without WithAllocator the stream uses the in-process software
// allocator; GPU-backed streams pass an allocator, image binder, and
// fence factory from backend/native.
func New(opts ...Option) (*Stream, error) {
	o := defaultStreamOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.bufferCount < 2 || o.bufferCount > MaxBufferSlots {
		return nil, fmt.Errorf("%w: buffer count %d outside [2, %d]",
			ErrInvalidState, o.bufferCount, MaxBufferSlots)
	}
	if o.allocator == nil {
		o.allocator = NewSoftwareAllocator()
	}
	if o.fenceFactory == nil {
		o.fenceFactory = func() Fence { return NewSyncFence() }
	}

	q := &Queue{
		name:          o.name,
		slots:         make([]slot, o.bufferCount),
		acquired:      invalidSlot,
		allocator:     o.allocator,
		fenceFactory:  o.fenceFactory,
		fenceTimeout:  o.fenceTimeout,
		defaultWidth:  o.defaultWidth,
		defaultHeight: o.defaultHeight,
		defaultFormat: o.defaultFormat,
		consumerUsage: o.consumerUsage,
	}
	return &Stream{
		q:         q,
		attached:  true,
		provider:  o.provider,
		binder:    o.binder,
		filtering: o.filtering,
	}, nil
}

// Queue returns the producer side of the stream.
func (s *Stream) Queue() *Queue { return s.q }

// UpdateImage latches the oldest queued frame as the current frame.
//
// Returns (false, nil) when no new frame is queued; repeated calls with
// no new data are harmless and leave the current frame untouched. On
// success the current frame, including its transform matrix, is replaced
// wholesale and the previously latched slot is released back to the
// producer -- but only once its release fence (see ArmReleaseFence) has
// signaled. A fence that exceeds the stream's timeout marks its slot as
// leaked and surfaces ErrFenceTimeout.
func (s *Stream) UpdateImage() (bool, error) {
	return s.update(nil)
}

// UpdateImageIf is UpdateImage with a veto: reject sees the candidate
// frame before it is latched and returns true to skip it. A rejected
// frame's slot goes straight back to the free pool, since the consumer
// never read it. Compositors use this to drop frames whose geometry no
// longer matches the output.
func (s *Stream) UpdateImageIf(reject func(Frame) bool) (bool, error) {
	return s.update(reject)
}

func (s *Stream) update(reject func(Frame) bool) (bool, error) {
	q := s.q
	q.mu.Lock()
	if q.abandoned {
		q.mu.Unlock()
		return false, ErrAbandoned
	}
	if !s.attached {
		q.mu.Unlock()
		return false, fmt.Errorf("%w: stream is detached", ErrInvalidOperation)
	}
	if err := s.latchDeviceLocked(); err != nil {
		q.mu.Unlock()
		return false, err
	}
	if len(q.fifo) == 0 {
		q.mu.Unlock()
		return false, nil
	}

	// The previously acquired slot can only rejoin the free pool once
	// its release fence signals. The wait runs outside the lock so the
	// producer keeps making progress.
	prev := q.acquired
	var prevFence Fence
	if prev != invalidSlot {
		prevFence = q.slots[prev].fence
	}
	timeout := q.fenceTimeout
	q.mu.Unlock()

	if prevFence != nil {
		if err := prevFence.Wait(timeout); err != nil {
			q.mu.Lock()
			if !q.abandoned && q.acquired == prev {
				q.slots[prev].leaked = true
				q.slots[prev].fence = nil
				q.slots[prev].state = SlotFree
				q.acquired = invalidSlot
			}
			name := q.name
			q.mu.Unlock()
			Logger().Error("release fence timed out, slot leaked",
				"stream", name, "slot", prev)
			return false, fmt.Errorf("slot %d: %w", prev, err)
		}
	}

	q.mu.Lock()
	// Re-validate: the queue may have changed during the fence wait.
	if q.abandoned {
		q.mu.Unlock()
		return false, ErrAbandoned
	}
	if !s.attached {
		q.mu.Unlock()
		return false, fmt.Errorf("%w: stream is detached", ErrInvalidOperation)
	}
	if len(q.fifo) == 0 {
		q.mu.Unlock()
		return false, nil
	}

	idx := q.fifo[0]
	sl := &q.slots[idx]
	frame := Frame{
		Buffer:      sl.buffer,
		Crop:        sl.crop,
		Transform:   sl.transform,
		ScalingMode: sl.scalingMode,
		Timestamp:   sl.timestamp,
		TraceID:     sl.traceID,
	}

	if reject != nil && reject(frame) {
		// The acquire/release pair collapses under the lock: the frame
		// was never read, so its slot returns to the free pool at once.
		q.fifo = q.fifo[1:]
		sl.state = SlotFree
		name := q.name
		q.mu.Unlock()
		Logger().Warn("frame rejected", "stream", name, "slot", idx, "trace", frame.TraceID)
		return false, nil
	}

	q.fifo = q.fifo[1:]
	sl.state = SlotAcquired
	prevIdx := q.acquired
	q.acquired = idx
	if prevIdx != invalidSlot && prevIdx != idx {
		ps := &q.slots[prevIdx]
		ps.fence = nil
		ps.state = SlotFree
	}

	if s.binder != nil && sl.image == nil {
		img, err := s.binder.CreateImage(s.device, sl.buffer)
		if err != nil {
			// The frame cannot be sampled; hand its slot back rather
			// than latching an unusable frame.
			sl.state = SlotFree
			q.acquired = invalidSlot
			q.mu.Unlock()
			if prevFence != nil {
				releaseFence(prevFence)
			}
			return false, fmt.Errorf("create image for slot %d: %w", idx, err)
		}
		sl.image = img
	}

	frame.Matrix = computeTransformMatrix(frame.Transform,
		frame.Buffer.Width(), frame.Buffer.Height(), frame.Crop,
		s.filtering, frame.Buffer.Format())

	frame.Buffer.Retain()
	oldFrame := s.current
	hadFrame := s.hasFrame
	oldImage := s.currentImage
	s.current = frame
	s.hasFrame = true
	s.currentImage = nil
	name := q.name
	q.mu.Unlock()

	if oldImage != nil {
		oldImage.Destroy()
	}
	if hadFrame && oldFrame.Buffer != nil {
		oldFrame.Buffer.Release()
	}
	if prevFence != nil {
		releaseFence(prevFence)
	}
	Logger().Debug("frame latched",
		"stream", name, "slot", idx, "trace", frame.TraceID, "ts", frame.Timestamp)
	return true, nil
}

// latchDeviceLocked captures the provider's current device on the first
// update and rejects updates from any other device afterwards.
func (s *Stream) latchDeviceLocked() error {
	if s.provider == nil {
		return nil
	}
	cur := s.provider.Device()
	if s.device == nil {
		s.device = cur
		return nil
	}
	if cur != s.device {
		return fmt.Errorf("%w: call issued from a different device context", ErrInvalidOperation)
	}
	return nil
}

// ArmReleaseFence attaches a fresh fence to the acquired slot and
// returns it. The agent reading the current frame -- a compositor, a
// display engine -- signals the fence when all of its reads have
// completed; until then the slot cannot return to the free pool.
// Arming again replaces the fence, extending the guard to later reads.
//
// Returns ErrInvalidState when no frame is currently acquired.
func (s *Stream) ArmReleaseFence() (Fence, error) {
	q := s.q
	q.mu.Lock()
	if q.abandoned {
		q.mu.Unlock()
		return nil, ErrAbandoned
	}
	if !s.attached {
		q.mu.Unlock()
		return nil, fmt.Errorf("%w: stream is detached", ErrInvalidOperation)
	}
	if q.acquired == invalidSlot {
		q.mu.Unlock()
		return nil, fmt.Errorf("%w: no acquired frame", ErrInvalidState)
	}
	old := q.slots[q.acquired].fence
	f := q.fenceFactory()
	q.slots[q.acquired].fence = f
	q.mu.Unlock()

	if old != nil {
		releaseFence(old)
	}
	return f, nil
}

// DetachFromContext releases the stream's hold on its rendering context:
// every derived sampling image is destroyed while the buffers and the
// queue itself stay intact, and the current frame (buffer reference,
// metadata, matrix) is retained as a snapshot for a later
// AttachToContext. The producer can keep queueing frames while the
// stream is detached; they simply are not consumed.
//
// Returns ErrInvalidOperation when the stream is already detached or
// when a different device context is current.
func (s *Stream) DetachFromContext() error {
	q := s.q
	q.mu.Lock()
	if q.abandoned {
		q.mu.Unlock()
		return ErrAbandoned
	}
	if !s.attached {
		q.mu.Unlock()
		return fmt.Errorf("%w: stream is already detached", ErrInvalidOperation)
	}
	if s.provider != nil && s.device != nil && s.provider.Device() != s.device {
		q.mu.Unlock()
		return fmt.Errorf("%w: detach issued from a different device context", ErrInvalidOperation)
	}

	var images []Image
	for i := range q.slots {
		if q.slots[i].image != nil {
			images = append(images, q.slots[i].image)
			q.slots[i].image = nil
		}
	}
	if s.currentImage != nil {
		images = append(images, s.currentImage)
		s.currentImage = nil
	}
	s.attached = false
	s.device = nil
	name := q.name
	q.mu.Unlock()

	for _, img := range images {
		img.Destroy()
	}
	Logger().Debug("stream detached", "stream", name)
	return nil
}

// AttachToContext binds a detached stream to a new device context and
// recreates the sampling image for the snapshot frame, so the frame that
// was current at detach time is immediately usable in the new context.
// Slot images for other buffers are recreated lazily by later updates.
//
// Returns ErrInvalidOperation when the stream is already attached or dev
// is nil.
func (s *Stream) AttachToContext(dev gpucontext.Device) error {
	q := s.q
	q.mu.Lock()
	if q.abandoned {
		q.mu.Unlock()
		return ErrAbandoned
	}
	if s.attached {
		q.mu.Unlock()
		return fmt.Errorf("%w: stream is already attached", ErrInvalidOperation)
	}
	if dev == nil {
		q.mu.Unlock()
		return fmt.Errorf("%w: attach to nil device", ErrInvalidOperation)
	}

	var img Image
	if s.hasFrame && s.binder != nil {
		var err error
		img, err = s.binder.CreateImage(dev, s.current.Buffer)
		if err != nil {
			q.mu.Unlock()
			return fmt.Errorf("recreate image for current frame: %w", err)
		}
	}
	s.attached = true
	s.device = dev
	s.currentImage = img
	name := q.name
	q.mu.Unlock()

	Logger().Debug("stream attached", "stream", name)
	return nil
}

// IsAttached reports whether the stream is attached to a context.
func (s *Stream) IsAttached() bool {
	s.q.mu.Lock()
	defer s.q.mu.Unlock()
	return s.attached
}

// SetFilteringEnabled toggles the half-texel crop inset that keeps
// bilinear sampling inside the crop rectangle. The current frame's
// matrix is recomputed immediately so the change applies without waiting
// for the next frame.
func (s *Stream) SetFilteringEnabled(enabled bool) {
	q := s.q
	q.mu.Lock()
	defer q.mu.Unlock()
	if s.filtering == enabled {
		return
	}
	s.filtering = enabled
	if s.hasFrame && s.current.Buffer != nil {
		s.current.Matrix = computeTransformMatrix(s.current.Transform,
			s.current.Buffer.Width(), s.current.Buffer.Height(),
			s.current.Crop, s.filtering, s.current.Buffer.Format())
	}
}

// Abandon puts the stream and its queue into the terminal abandoned
// state. See Queue.Abandon.
func (s *Stream) Abandon() {
	q := s.q
	q.mu.Lock()
	img := s.currentImage
	s.currentImage = nil
	q.mu.Unlock()
	if img != nil {
		img.Destroy()
	}
	q.Abandon()
}

// CurrentFrame returns a snapshot of the current frame. The second
// result is false before the first successful UpdateImage.
func (s *Stream) CurrentFrame() (Frame, bool) {
	s.q.mu.Lock()
	defer s.q.mu.Unlock()
	return s.current, s.hasFrame
}

// CurrentBuffer returns the buffer backing the current frame, or nil
// before the first successful UpdateImage.
func (s *Stream) CurrentBuffer() Buffer {
	s.q.mu.Lock()
	defer s.q.mu.Unlock()
	return s.current.Buffer
}

// CurrentCrop returns the crop rectangle of the current frame.
func (s *Stream) CurrentCrop() Rect {
	s.q.mu.Lock()
	defer s.q.mu.Unlock()
	return s.current.Crop
}

// CurrentTransform returns the transform flags of the current frame.
func (s *Stream) CurrentTransform() Transform {
	s.q.mu.Lock()
	defer s.q.mu.Unlock()
	return s.current.Transform
}

// CurrentScalingMode returns the scaling mode of the current frame.
func (s *Stream) CurrentScalingMode() ScalingMode {
	s.q.mu.Lock()
	defer s.q.mu.Unlock()
	return s.current.ScalingMode
}

// Timestamp returns the timestamp of the current frame in nanoseconds.
func (s *Stream) Timestamp() int64 {
	s.q.mu.Lock()
	defer s.q.mu.Unlock()
	return s.current.Timestamp
}

// TransformMatrix returns the 4x4 column-major texture coordinate
// transform of the current frame. Before the first frame it returns the
// matrix for an untransformed, uncropped buffer.
func (s *Stream) TransformMatrix() [16]float32 {
	s.q.mu.Lock()
	defer s.q.mu.Unlock()
	if !s.hasFrame {
		return mtxMul(mtxFlipV, mtxIdentity)
	}
	return s.current.Matrix
}
