// Command streamdemo runs a software-backed stream end to end: a
// producer draws animated frames into dequeued buffers while a
// compositor latches and renders them, and the final composition is
// saved as a PNG.
package main

import (
	"flag"
	"image"
	"image/color"
	"image/png"
	"log"
	"os"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/streamtex"
	"github.com/gogpu/streamtex/backend"
)

func main() {
	var (
		width  = flag.Int("width", 640, "buffer width")
		height = flag.Int("height", 480, "buffer height")
		frames = flag.Int("frames", 60, "frames to produce")
		output = flag.String("output", "stream.png", "output file")
	)
	flag.Parse()

	st, err := backend.NewStream(
		streamtex.WithName("streamdemo"),
		streamtex.WithDefaultBufferSize(uint32(*width), uint32(*height)),
	)
	if err != nil {
		log.Fatalf("Failed to create stream: %v", err)
	}
	defer st.Abandon()
	q := st.Queue()

	available := 0
	q.SetOnFrameAvailable(func() { available++ })

	comp := backend.NewCompositor(st)
	dst := image.NewRGBA(image.Rect(0, 0, *width, *height))

	for i := 0; i < *frames; i++ {
		slot, _, err := q.Dequeue(0, 0, gputypes.TextureFormatUndefined, 0)
		if err != nil {
			log.Fatalf("Dequeue failed at frame %d: %v", i, err)
		}
		buf, err := q.SlotBuffer(slot)
		if err != nil {
			log.Fatalf("SlotBuffer failed: %v", err)
		}
		drawFrame(buf.(*streamtex.SoftwareBuffer).RGBA(), i)

		err = q.Enqueue(slot, streamtex.Rect{}, streamtex.TransformNone,
			streamtex.ScalingModeScaleToWindow, int64(i)*16_666_667)
		if err != nil {
			log.Fatalf("Enqueue failed at frame %d: %v", i, err)
		}

		if _, err := comp.Compose(dst); err != nil {
			log.Fatalf("Compose failed at frame %d: %v", i, err)
		}
	}

	f, err := os.Create(*output)
	if err != nil {
		log.Fatalf("Failed to create output: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, dst); err != nil {
		log.Fatalf("Failed to encode: %v", err)
	}

	log.Printf("Composed %d frames (%d notifications) to %s (%dx%d)\n",
		*frames, available, *output, *width, *height)
}

// drawFrame renders a set of diagonal bands sliding with the frame
// index, so consecutive frames are visibly distinct.
func drawFrame(img *image.RGBA, frame int) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			band := ((x + y + frame*4) / 32) % 3
			var c color.RGBA
			switch band {
			case 0:
				c = color.RGBA{R: 0xE8, G: 0x4C, B: 0x3D, A: 0xFF}
			case 1:
				c = color.RGBA{R: 0x2E, G: 0xCC, B: 0x71, A: 0xFF}
			default:
				c = color.RGBA{R: 0x34, G: 0x98, B: 0xDB, A: 0xFF}
			}
			img.SetRGBA(x, y, c)
		}
	}
}
