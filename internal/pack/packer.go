// Package pack lays out an ordered sequence of frames on a single atlas
// image and reports where each frame ended up.
package pack

import (
	"errors"
	"fmt"
	"math"
	"math/bits"

	"github.com/gogpu/atlas/internal/pixel"
)

// Sentinel errors for the pack package.
var (
	// ErrNoFrames is returned by Compile when no frame was added.
	ErrNoFrames = errors.New("pack: no frames to pack")

	// ErrEmptyFrame is returned when a nil or zero-sized frame is added.
	ErrEmptyFrame = errors.New("pack: empty frame")

	// ErrFormatMismatch is returned when a frame's pixel format differs
	// from the first frame added.
	ErrFormatMismatch = errors.New("pack: frame pixel format differs from atlas format")

	// ErrAtlasTooLarge is returned when the frames do not fit in MaxSize.
	ErrAtlasTooLarge = errors.New("pack: frames do not fit in maximum atlas size")
)

// Options configures atlas layout.
type Options struct {
	// Padding in pixels kept free between frames.
	// Default: 0
	Padding int

	// PowerOfTwo rounds atlas width and height up to powers of two.
	// Default: true
	PowerOfTwo bool

	// MaxSize bounds the atlas side length.
	// Default: 8192
	MaxSize int

	// Background fills atlas pixels not covered by a frame.
	// Default: transparent black
	Background pixel.Color
}

// DefaultOptions returns default layout options.
func DefaultOptions() Options {
	return Options{
		Padding:    0,
		PowerOfTwo: true,
		MaxSize:    8192,
	}
}

// Validate checks if the options are usable.
func (o *Options) Validate() error {
	if o.Padding < 0 {
		return &OptionsError{Field: "Padding", Reason: "must be non-negative"}
	}
	if o.MaxSize < 1 {
		return &OptionsError{Field: "MaxSize", Reason: "must be at least 1"}
	}
	if o.MaxSize > 1<<15 {
		return &OptionsError{Field: "MaxSize", Reason: "must be at most 32768"}
	}
	return nil
}

// OptionsError represents an options validation error.
type OptionsError struct {
	Field  string
	Reason string
}

func (e *OptionsError) Error() string {
	return "pack: invalid options." + e.Field + ": " + e.Reason
}

// Label identifies a frame in the placement metadata.
type Label struct {
	// Name is the source file for keyframes, or a description of the
	// blended pair for synthesized frames.
	Name string `json:"name"`

	// Frame is the position of the frame on the animation timeline.
	Frame int `json:"frame"`

	// Synthetic marks frames produced by interpolation.
	Synthetic bool `json:"synthetic,omitempty"`
}

// Region describes where a frame was placed in the atlas.
type Region struct {
	Label

	// Pixel rectangle in the atlas.
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`

	// UV coordinates [0, 1] for texture sampling.
	U0 float32 `json:"u0"`
	V0 float32 `json:"v0"`
	U1 float32 `json:"u1"`
	V1 float32 `json:"v1"`
}

// Atlas is the result of Compile.
type Atlas struct {
	// Image holds every frame at its region. It uses the frames' pixel format.
	Image *pixel.Buffer

	// Regions lists frame placements in the order frames were added.
	Regions []Region

	// Utilization is the fraction of atlas pixels covered by frames.
	Utilization float64
}

type entry struct {
	img   *pixel.Buffer
	label Label
}

// Packer collects frames in order and compiles them into one atlas.
// Frames are referenced, not copied, until Compile.
type Packer struct {
	opts    Options
	entries []entry
}

// NewPacker creates a packer with the given options.
func NewPacker(opts Options) (*Packer, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Packer{opts: opts}, nil
}

// AddFrame appends a frame to the atlas. Every frame must share the pixel
// format of the first one.
func (p *Packer) AddFrame(img *pixel.Buffer, label Label) error {
	if img.IsEmpty() {
		return fmt.Errorf("%w: %q", ErrEmptyFrame, label.Name)
	}
	if len(p.entries) > 0 && p.entries[0].img.Format() != img.Format() {
		return fmt.Errorf("%w: %q is %s, atlas is %s",
			ErrFormatMismatch, label.Name, img.Format(), p.entries[0].img.Format())
	}
	p.entries = append(p.entries, entry{img: img, label: label})
	return nil
}

// Compile lays the frames out and renders the atlas image.
//
// Layout starts from the smallest square that could hold every frame and
// grows it until a shelf packing in insertion order succeeds. The image is
// then trimmed to the used area, rounded to powers of two when enabled.
func (p *Packer) Compile() (*Atlas, error) {
	if len(p.entries) == 0 {
		return nil, ErrNoFrames
	}

	side := p.initialSide()
	var (
		alloc *ShelfAllocator
		rects []Region
	)
	for {
		if side > p.opts.MaxSize {
			return nil, fmt.Errorf("%w: %d frames need more than %dx%d",
				ErrAtlasTooLarge, len(p.entries), p.opts.MaxSize, p.opts.MaxSize)
		}
		alloc = NewShelfAllocator(side, side, p.opts.Padding)
		var ok bool
		if rects, ok = p.layout(alloc); ok {
			break
		}
		side = p.grow(side)
	}

	width, height := 0, 0
	for _, r := range rects {
		width = max(width, r.X+r.Width)
		height = max(height, r.Y+r.Height)
	}
	if p.opts.PowerOfTwo {
		width, height = nextPowerOfTwo(width), nextPowerOfTwo(height)
	}

	format := p.entries[0].img.Format()
	img, err := pixel.New(width, height, format)
	if err != nil {
		return nil, fmt.Errorf("pack: allocate %dx%d atlas: %w", width, height, err)
	}
	img.Fill(p.opts.Background)

	for i, e := range p.entries {
		r := &rects[i]
		if err := e.img.CopyTo(img, r.X, r.Y); err != nil {
			return nil, fmt.Errorf("pack: place %q: %w", e.label.Name, err)
		}
		r.U0 = float32(r.X) / float32(width)
		r.V0 = float32(r.Y) / float32(height)
		r.U1 = float32(r.X+r.Width) / float32(width)
		r.V1 = float32(r.Y+r.Height) / float32(height)
	}

	return &Atlas{
		Image:       img,
		Regions:     rects,
		Utilization: float64(alloc.UsedArea()) / float64(width*height),
	}, nil
}

func (p *Packer) layout(alloc *ShelfAllocator) ([]Region, bool) {
	rects := make([]Region, 0, len(p.entries))
	for _, e := range p.entries {
		w, h := e.img.Width(), e.img.Height()
		x, y, ok := alloc.Allocate(w, h)
		if !ok {
			return nil, false
		}
		rects = append(rects, Region{Label: e.label, X: x, Y: y, Width: w, Height: h})
	}
	return rects, true
}

// initialSide is a lower bound on the square side that can hold all frames.
func (p *Packer) initialSide() int {
	pad := p.opts.Padding
	area, side := 0, 1
	for _, e := range p.entries {
		w, h := e.img.Width()+pad, e.img.Height()+pad
		area += w * h
		side = max(side, w, h)
	}
	side = max(side, int(math.Ceil(math.Sqrt(float64(area)))))
	if p.opts.PowerOfTwo {
		side = nextPowerOfTwo(side)
	}
	return side
}

func (p *Packer) grow(side int) int {
	if p.opts.PowerOfTwo {
		return side * 2
	}
	return side + max(1, side/8)
}

func nextPowerOfTwo(v int) int {
	if v <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(v-1))
}
