package sequence

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gogpu/atlas/internal/pixel"
)

// Loader resolves a keyframe name to a decoded buffer.
type Loader interface {
	Load(name string) (*pixel.Buffer, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(name string) (*pixel.Buffer, error)

// Load calls f(name).
func (f LoaderFunc) Load(name string) (*pixel.Buffer, error) {
	return f(name)
}

// Frame is one entry of an expanded sequence.
type Frame struct {
	Image *pixel.Buffer

	// Source is the keyframe file name, or "first~next" for blended frames.
	Source string

	// Index is the frame's position on the timeline.
	Index int

	// Synthetic marks frames produced by interpolation.
	Synthetic bool

	// Fraction is the blend position between the surrounding keyframes.
	// Zero for keyframes.
	Fraction float64

	// Weight is the share of the later keyframe in a blended frame. It
	// equals Fraction unless an easing curve is set.
	Weight float64
}

// Option configures an Expander.
type Option func(*Expander)

// WithLogger sets the logger used to report progress.
func WithLogger(l *slog.Logger) Option {
	return func(e *Expander) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithEasing sets the curve applied to blend positions. Nil blends
// linearly.
func WithEasing(fn EasingFunc) Option {
	return func(e *Expander) {
		e.easing = fn
	}
}

// Expander turns a Plan into a frame sequence.
type Expander struct {
	loader Loader
	logger *slog.Logger
	easing EasingFunc
}

// NewExpander creates an expander that loads keyframes through loader.
func NewExpander(loader Loader, opts ...Option) *Expander {
	e := &Expander{
		loader: loader,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Expand validates plan, loads its keyframes in order and returns the full
// sequence. Each keyframe has its alpha corrected after load; synthesized
// frames are never corrected themselves.
//
// Without frame indices the sequence is the keyframes in order. With frame
// indices, a gap of G between consecutive keyframes is filled with G-1
// frames blended at fractions 1/G, 2/G, ... (G-1)/G, ordered from the
// earlier keyframe towards the later one. An easing curve, if set, maps
// each fraction to the blend weight.
//
// Expand stops at the first error and returns no frames.
func (e *Expander) Expand(plan Plan) ([]Frame, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	if !plan.Indexed() {
		return e.expandVerbatim(plan)
	}
	return e.expandIndexed(plan)
}

func (e *Expander) expandVerbatim(plan Plan) ([]Frame, error) {
	frames := make([]Frame, 0, plan.Len())
	for i, name := range plan.Sources {
		img, err := e.loadKeyframe(plan, i)
		if err != nil {
			return nil, err
		}
		frames = append(frames, Frame{Image: img, Source: name, Index: i})
	}
	return frames, nil
}

func (e *Expander) expandIndexed(plan Plan) ([]Frame, error) {
	frames := make([]Frame, 0, plan.Len())

	prev, err := e.loadKeyframe(plan, 0)
	if err != nil {
		return nil, err
	}
	prevIndex := plan.Frames[0]
	frames = append(frames, Frame{Image: prev, Source: plan.Sources[0], Index: prevIndex})

	for i := 1; i < len(plan.Sources); i++ {
		cur, err := e.loadKeyframe(plan, i)
		if err != nil {
			return nil, err
		}
		index := plan.Frames[i]
		gap := index - prevIndex
		blendName := plan.Sources[i-1] + "~" + plan.Sources[i]

		for step := 1; step < gap; step++ {
			fraction := float64(step) / float64(gap)
			weight := fraction
			if e.easing != nil {
				weight = e.easing(fraction)
			}
			out := pixel.NewLike(prev)
			if err := pixel.Interpolate(out, prev, cur, weight); err != nil {
				return nil, fmt.Errorf("interpolate %s at %d/%d: %w", blendName, step, gap, err)
			}
			frames = append(frames, Frame{
				Image:     out,
				Source:    blendName,
				Index:     prevIndex + step,
				Synthetic: true,
				Fraction:  fraction,
				Weight:    weight,
			})
			e.logger.Debug("interpolated frame",
				slog.String("pair", blendName),
				slog.Int("index", prevIndex+step),
				slog.Float64("fraction", fraction),
				slog.Float64("weight", weight))
		}

		frames = append(frames, Frame{Image: cur, Source: plan.Sources[i], Index: index})
		prev, prevIndex = cur, index
	}
	return frames, nil
}

// loadKeyframe loads keyframe i and applies its alpha correction, if any.
func (e *Expander) loadKeyframe(plan Plan, i int) (*pixel.Buffer, error) {
	name := plan.Sources[i]
	img, err := e.loader.Load(name)
	if err != nil {
		return nil, fmt.Errorf("keyframe %d: %w", i, err)
	}
	if img.IsEmpty() {
		return nil, fmt.Errorf("keyframe %d %q: %w", i, name, pixel.ErrInvalidDimensions)
	}

	attrs := []slog.Attr{
		slog.String("source", name),
		slog.Int("width", img.Width()),
		slog.Int("height", img.Height()),
		slog.String("format", img.Format().String()),
	}
	if m := plan.multiplier(i); m.Set {
		pixel.CorrectAlpha(img, m.Value)
		attrs = append(attrs, slog.Float64("alpha", m.Value))
	}
	e.logger.LogAttrs(context.Background(), slog.LevelDebug, "loaded keyframe", attrs...)
	return img, nil
}
