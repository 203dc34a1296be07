// Package preview renders a frame sequence as an animated GIF.
package preview

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	"io"

	"github.com/nfnt/resize"

	"github.com/gogpu/atlas/internal/pixel"
)

var (
	// ErrNoFrames is returned when a preview is requested for an empty
	// sequence.
	ErrNoFrames = errors.New("preview: no frames")

	// ErrInvalidOptions is returned for out-of-range options.
	ErrInvalidOptions = errors.New("preview: invalid options")
)

// Options configures a preview.
type Options struct {
	// Delay per frame in hundredths of a second.
	// Default: 4
	Delay int

	// MaxSide scales frames down so neither side exceeds it. Zero keeps
	// frames at their native size.
	MaxSide int

	// Palette selects how colours are chosen.
	// Default: MethodPlan9
	Palette Method

	// Colors bounds the adaptive palette size, from 2 to 256.
	// Default: 256
	Colors int
}

// DefaultOptions returns default preview options.
func DefaultOptions() Options {
	return Options{
		Delay:   4,
		Palette: MethodPlan9,
		Colors:  256,
	}
}

// Validate checks if the options are usable.
func (o Options) Validate() error {
	switch {
	case o.Delay < 0:
		return fmt.Errorf("%w: delay must be non-negative", ErrInvalidOptions)
	case o.MaxSide < 0:
		return fmt.Errorf("%w: max side must be non-negative", ErrInvalidOptions)
	case o.Colors < 2 || o.Colors > 256:
		return fmt.Errorf("%w: colors must be within [2, 256]", ErrInvalidOptions)
	}
	return nil
}

// Render builds a looping animation of frames. The palette is computed
// once from sample, or from the first frame when sample is nil, and shared
// by every frame. Frames are dithered with Floyd-Steinberg; frames smaller
// than the largest one sit at the top-left corner.
func Render(frames []*pixel.Buffer, sample *pixel.Buffer, opts Options) (*gif.GIF, error) {
	if len(frames) == 0 {
		return nil, ErrNoFrames
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if sample == nil {
		sample = frames[0]
	}
	pal := Palette(scale(sample.ToStdImage(), opts.MaxSide), opts.Palette, opts.Colors)

	anim := &gif.GIF{
		Image:    make([]*image.Paletted, 0, len(frames)),
		Delay:    make([]int, 0, len(frames)),
		Disposal: make([]byte, 0, len(frames)),
	}
	var w, h int
	for _, f := range frames {
		src := scale(f.ToStdImage(), opts.MaxSide)
		bounds := src.Bounds()
		w, h = max(w, bounds.Max.X), max(h, bounds.Max.Y)

		dst := image.NewPaletted(bounds, pal)
		draw.FloydSteinberg.Draw(dst, bounds, src, bounds.Min)

		anim.Image = append(anim.Image, dst)
		anim.Delay = append(anim.Delay, opts.Delay)
		anim.Disposal = append(anim.Disposal, gif.DisposalBackground)
	}
	anim.Config = image.Config{ColorModel: pal, Width: w, Height: h}
	return anim, nil
}

// Encode renders frames and writes the GIF to w.
func Encode(w io.Writer, frames []*pixel.Buffer, sample *pixel.Buffer, opts Options) error {
	anim, err := Render(frames, sample, opts)
	if err != nil {
		return err
	}
	return gif.EncodeAll(w, anim)
}

// scale shrinks img to fit within maxSide, keeping its aspect ratio.
func scale(img image.Image, maxSide int) image.Image {
	b := img.Bounds()
	if maxSide <= 0 || (b.Dx() <= maxSide && b.Dy() <= maxSide) {
		return img
	}
	return resize.Thumbnail(uint(maxSide), uint(maxSide), img, resize.Lanczos3)
}
