package imageset

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

// Frame is a single image in channel-major (CHW) layout. Sources produce
// frames with pixel values in [0, 255]; ToTensor rescales them to [0, 1].
type Frame struct {
	Channels int
	Height   int
	Width    int
	Pix      []float32

	// Scaled is set once the values were divided by 255.
	Scaled bool
}

// NewFrame allocates a zeroed frame.
func NewFrame(channels, height, width int) *Frame {
	return &Frame{
		Channels: channels,
		Height:   height,
		Width:    width,
		Pix:      make([]float32, channels*height*width),
	}
}

// At returns the value at channel c, row y, column x.
func (f *Frame) At(c, y, x int) float32 {
	return f.Pix[(c*f.Height+y)*f.Width+x]
}

// Set stores v at channel c, row y, column x.
func (f *Frame) Set(c, y, x int, v float32) {
	f.Pix[(c*f.Height+y)*f.Width+x] = v
}

// Clone returns a deep copy.
func (f *Frame) Clone() *Frame {
	out := *f
	out.Pix = append([]float32(nil), f.Pix...)
	return &out
}

// SameShape reports whether f and o have identical dimensions.
func (f *Frame) SameShape(o *Frame) bool {
	return f.Channels == o.Channels && f.Height == o.Height && f.Width == o.Width
}

func (f *Frame) String() string {
	return fmt.Sprintf("Frame[%d,%d,%d]", f.Channels, f.Height, f.Width)
}

// FrameFromImage converts img to a three channel RGB frame. When size is
// positive the image is first scaled to size x size.
func FrameFromImage(img image.Image, size int) *Frame {
	bounds := img.Bounds()
	dstRect := image.Rect(0, 0, bounds.Dx(), bounds.Dy())
	if size > 0 {
		dstRect = image.Rect(0, 0, size, size)
	}
	rgba := image.NewRGBA(dstRect)
	if size > 0 {
		draw.ApproxBiLinear.Scale(rgba, dstRect, img, bounds, draw.Src, nil)
	} else {
		draw.Draw(rgba, dstRect, img, bounds.Min, draw.Src)
	}

	h, w := dstRect.Dy(), dstRect.Dx()
	f := NewFrame(3, h, w)
	plane := h * w
	for y := range h {
		row := rgba.Pix[y*rgba.Stride:]
		for x := range w {
			p := row[x*4:]
			i := y*w + x
			f.Pix[i] = float32(p[0])
			f.Pix[plane+i] = float32(p[1])
			f.Pix[2*plane+i] = float32(p[2])
		}
	}
	return f
}
