package sequence

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fogleman/ease"
)

// EasingFunc maps a linear blend position in (0, 1) to the weight given to
// the later keyframe.
type EasingFunc func(t float64) float64

// ErrUnknownEasing is returned by ParseEasing for unrecognized names.
var ErrUnknownEasing = errors.New("sequence: unknown easing")

var easings = map[string]EasingFunc{
	"linear":       nil,
	"in_quad":      ease.InQuad,
	"out_quad":     ease.OutQuad,
	"in_out_quad":  ease.InOutQuad,
	"in_cubic":     ease.InCubic,
	"out_cubic":    ease.OutCubic,
	"in_out_cubic": ease.InOutCubic,
	"in_sine":      ease.InSine,
	"out_sine":     ease.OutSine,
	"in_out_sine":  ease.InOutSine,
}

// ParseEasing returns the easing curve with the given name. "linear" and
// the empty string return nil, which blends at the linear position.
// Names are case-insensitive and accept '-' in place of '_'.
func ParseEasing(name string) (EasingFunc, error) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
	if key == "" {
		return nil, nil
	}
	fn, ok := easings[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEasing, name)
	}
	return fn, nil
}
