// Package streamtex implements a buffer-queue-backed texture streaming
// protocol for Go.
//
// # Overview
//
// streamtex connects a frame producer (a decoder, camera pipeline, or
// renderer) to a texture consumer (a compositor or rendering context)
// through a fixed pool of buffer slots. Buffers travel through a strict
// lifecycle -- Free, Dequeued, Queued, Acquired, Free -- and never get
// copied: ownership moves between producer and consumer with explicit
// fencing so the consumer never reads a buffer before the producer's
// writes land, and the producer never overwrites a buffer the consumer
// is still reading.
//
// # Quick Start
//
//	st, err := streamtex.New(
//	    streamtex.WithBufferCount(3),
//	    streamtex.WithAllocator(alloc),
//	)
//
//	// Producer side: dequeue, fill, enqueue.
//	q := st.Queue()
//	slot, _, err := q.Dequeue(640, 480, gputypes.TextureFormatRGBA8Unorm, 0)
//	buf, _ := q.SlotBuffer(slot)
//	// ... write pixels into buf ...
//	err = q.Enqueue(slot, crop, streamtex.TransformNone,
//	    streamtex.ScalingModeFreeze, timestamp)
//
//	// Consumer side: latch the newest frame and read it.
//	fresh, err := st.UpdateImage()
//	if fresh {
//	    mtx := st.TransformMatrix()
//	    // ... sample st.CurrentBuffer() through mtx ...
//	    fence, _ := st.ArmReleaseFence()
//	    // signal the fence once all reads (including async hardware
//	    // reads) have completed:
//	    fence.Signal()
//	}
//
// # Architecture
//
// The library is organized into:
//   - Public API: Stream (consumer binding), Queue (producer handoff),
//     Fence, Buffer, Allocator
//   - backend/: buffer allocator registry, software allocator and
//     compositor
//   - backend/native/: gogpu/wgpu HAL-backed allocator and fences
//
// # Transform Matrix
//
// Each latched frame carries a 4x4 column-major texture coordinate
// transform derived from the producer's transform flags and crop
// rectangle. The computation is a pure function of the frame metadata,
// so identical inputs always produce bit-identical matrices.
//
// # Concurrency
//
// A Stream and its Queue share one mutex. Producer calls, consumer calls,
// and the frame-available callback may all arrive on different
// goroutines; the callback must never call back into the queue
// synchronously. See the Stream documentation for the attach/detach
// context rules.
package streamtex

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0"
)
