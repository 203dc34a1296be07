// Package sequence expands an ordered list of keyframes into the full
// frame sequence of an animation.
//
// Keyframes may carry a timeline index. When they do, the gap between two
// consecutive keyframes is filled with frames blended linearly from the
// pair; when they do not, keyframes are used as they are. Each keyframe can
// have its alpha channel rescaled after it is loaded.
package sequence

import (
	"errors"
	"fmt"
)

// Sentinel errors for plan validation.
var (
	// ErrNoKeyframes is returned when a plan lists no source images.
	ErrNoKeyframes = errors.New("sequence: no keyframes")

	// ErrFrameCount is returned when frame indices are given but their
	// count differs from the number of keyframes.
	ErrFrameCount = errors.New("sequence: frame index count differs from keyframe count")

	// ErrAlphaCount is returned when there are more alpha multipliers
	// than keyframes.
	ErrAlphaCount = errors.New("sequence: more alpha multipliers than keyframes")

	// ErrNegativeIndex is returned for a frame index below zero.
	ErrNegativeIndex = errors.New("sequence: negative frame index")

	// ErrTooManyFrames is returned when a plan expands to more than
	// MaxFrames frames.
	ErrTooManyFrames = errors.New("sequence: too many frames")
)

// MaxFrames bounds the length of an expanded sequence.
const MaxFrames = 1 << 16

// OrderError reports a frame index that does not increase.
type OrderError struct {
	Position int // keyframe position in the plan
	Previous int // index of the keyframe before it
	Index    int
}

func (e *OrderError) Error() string {
	return fmt.Sprintf("sequence: keyframe %d has frame index %d, must be greater than %d",
		e.Position, e.Index, e.Previous)
}

// Multiplier is an optional alpha correction. The zero value applies none.
type Multiplier struct {
	Value float64
	Set   bool
}

// Alpha returns a multiplier that scales alpha by v.
func Alpha(v float64) Multiplier {
	return Multiplier{Value: v, Set: true}
}

// Plan lists the keyframes of one atlas.
type Plan struct {
	// Sources names the keyframe images in order.
	Sources []string

	// Frames holds the timeline index of each keyframe. It is either empty
	// or as long as Sources.
	Frames []int

	// Alpha holds per-keyframe alpha corrections, matched to Sources by
	// position. It may be shorter than Sources; keyframes past its end are
	// not corrected.
	Alpha []Multiplier
}

// Indexed reports whether the plan carries frame indices.
func (p Plan) Indexed() bool {
	return len(p.Frames) > 0
}

// Validate checks the plan before any image is loaded.
func (p Plan) Validate() error {
	if len(p.Sources) == 0 {
		return ErrNoKeyframes
	}
	if len(p.Sources) > MaxFrames {
		return fmt.Errorf("%w: %d keyframes exceed %d", ErrTooManyFrames, len(p.Sources), MaxFrames)
	}
	if len(p.Alpha) > len(p.Sources) {
		return fmt.Errorf("%w: %d multipliers for %d keyframes", ErrAlphaCount, len(p.Alpha), len(p.Sources))
	}
	if !p.Indexed() {
		return nil
	}
	if len(p.Frames) != len(p.Sources) {
		return fmt.Errorf("%w: %d indices for %d keyframes", ErrFrameCount, len(p.Frames), len(p.Sources))
	}
	for i, idx := range p.Frames {
		if idx < 0 {
			return fmt.Errorf("%w: keyframe %d has index %d", ErrNegativeIndex, i, idx)
		}
		if i > 0 && idx <= p.Frames[i-1] {
			return &OrderError{Position: i, Previous: p.Frames[i-1], Index: idx}
		}
	}
	// Indices are non-negative, so the span cannot overflow.
	if span := p.Frames[len(p.Frames)-1] - p.Frames[0]; span >= MaxFrames {
		return fmt.Errorf("%w: frames %d to %d exceed %d", ErrTooManyFrames,
			p.Frames[0], p.Frames[len(p.Frames)-1], MaxFrames)
	}
	return nil
}

// Len returns the number of frames the plan expands to. The plan must be
// valid.
func (p Plan) Len() int {
	if !p.Indexed() {
		return len(p.Sources)
	}
	return 1 + p.Frames[len(p.Frames)-1] - p.Frames[0]
}

// multiplier returns the alpha correction for keyframe i.
func (p Plan) multiplier(i int) Multiplier {
	if i >= len(p.Alpha) {
		return Multiplier{}
	}
	return p.Alpha[i]
}
