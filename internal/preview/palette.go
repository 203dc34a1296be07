package preview

import (
	"fmt"
	"image"
	"image/color"
	"image/color/palette"
	"math"
	"slices"
	"strings"

	"github.com/cenkalti/dominantcolor"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
)

// Method selects how the preview palette is built.
type Method int

const (
	// MethodPlan9 uses the fixed 256-colour Plan 9 palette.
	MethodPlan9 Method = iota

	// MethodDominant picks the most frequent colours of the sample.
	MethodDominant

	// MethodKMeans clusters sampled pixels and uses the cluster centres.
	MethodKMeans
)

var methodNames = [...]string{
	MethodPlan9:    "plan9",
	MethodDominant: "dominant",
	MethodKMeans:   "kmeans",
}

func (m Method) String() string {
	if m < 0 || int(m) >= len(methodNames) {
		return "Unknown"
	}
	return methodNames[m]
}

// ParseMethod parses a palette method name, case-insensitively.
func ParseMethod(s string) (Method, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return MethodPlan9, nil
	}
	for i, name := range methodNames {
		if s == name {
			return Method(i), nil
		}
	}
	return MethodPlan9, fmt.Errorf("%w: palette %q", ErrInvalidOptions, s)
}

// maxSamples bounds the pixels fed to k-means.
const maxSamples = 12000

// Palette builds a palette of at most k colours from sample. Adaptive
// methods fall back to Plan 9 when the sample has no opaque pixels.
func Palette(sample image.Image, m Method, k int) color.Palette {
	k = min(max(k, 2), 256)

	var cols []colorful.Color
	switch m {
	case MethodDominant:
		cols = dominantPalette(sample, k)
	case MethodKMeans:
		cols = kmeansPalette(sample, k)
	}
	if len(cols) == 0 {
		return palette.Plan9
	}

	pal := make(color.Palette, 0, len(cols))
	for _, c := range cols {
		r, g, b := c.Clamped().RGB255()
		rgba := color.RGBA{R: r, G: g, B: b, A: 255}
		if !slices.Contains(pal, color.Color(rgba)) {
			pal = append(pal, rgba)
		}
	}
	return pal
}

func dominantPalette(img image.Image, k int) []colorful.Color {
	found := dominantcolor.FindWeight(img, k)
	out := make([]colorful.Color, 0, len(found))
	for _, c := range found {
		col, ok := colorful.MakeColor(c.RGBA)
		if ok {
			out = append(out, col)
		}
	}
	return out
}

func kmeansPalette(img image.Image, k int) []colorful.Color {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	if width == 0 || height == 0 {
		return nil
	}

	step := 1
	if width*height > maxSamples {
		step = int(math.Sqrt(float64(width*height)/float64(maxSamples))) + 1
	}

	dataset := make(clusters.Observations, 0, min(width*height, maxSamples))
	for y := b.Min.Y; y < b.Max.Y; y += step {
		for x := b.Min.X; x < b.Max.X; x += step {
			r, g, bl, a := img.At(x, y).RGBA()
			if a == 0 {
				continue
			}
			dataset = append(dataset, clusters.Coordinates{
				float64(r) / 0xffff,
				float64(g) / 0xffff,
				float64(bl) / 0xffff,
			})
		}
	}
	if len(dataset) == 0 {
		return nil
	}

	cc, err := kmeans.New().Partition(dataset, min(k, len(dataset)))
	if err != nil {
		return nil
	}
	// Most populated clusters first.
	slices.SortFunc(cc, func(a, b clusters.Cluster) int {
		return len(b.Observations) - len(a.Observations)
	})

	out := make([]colorful.Color, 0, len(cc))
	for _, c := range cc {
		if len(c.Observations) == 0 || len(c.Center) < 3 {
			continue
		}
		out = append(out, colorful.Color{R: c.Center[0], G: c.Center[1], B: c.Center[2]})
	}
	return out
}
