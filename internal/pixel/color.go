package pixel

import (
	"encoding/binary"
	"math"
)

// Color is a pixel unpacked into normalized floating point channels.
// Values outside [0, 1] are allowed; they saturate when packed.
// Premultiplied formats unpack to straight alpha.
type Color struct {
	R, G, B, A float64
}

// Add returns c + o componentwise.
func (c Color) Add(o Color) Color {
	return Color{c.R + o.R, c.G + o.G, c.B + o.B, c.A + o.A}
}

// Sub returns c - o componentwise.
func (c Color) Sub(o Color) Color {
	return Color{c.R - o.R, c.G - o.G, c.B - o.B, c.A - o.A}
}

// Scale returns c * s componentwise.
func (c Color) Scale(s float64) Color {
	return Color{c.R * s, c.G * s, c.B * s, c.A * s}
}

// Lerp returns c + t*(o - c). All four channels are blended alike.
func (c Color) Lerp(o Color, t float64) Color {
	return c.Add(o.Sub(c).Scale(t))
}

// Unpack decodes the pixel stored in p using format f.
// Formats without alpha unpack with A = 1. Gray formats replicate the gray
// level into R, G and B.
func Unpack(f Format, p []byte) Color {
	switch f {
	case FormatGray8:
		v := fromFixed8(p[0])
		return Color{v, v, v, 1}
	case FormatGray16:
		v := float64(binary.LittleEndian.Uint16(p)) / math.MaxUint16
		return Color{v, v, v, 1}
	case FormatRGB8:
		return Color{fromFixed8(p[0]), fromFixed8(p[1]), fromFixed8(p[2]), 1}
	case FormatRGBA8:
		return Color{fromFixed8(p[0]), fromFixed8(p[1]), fromFixed8(p[2]), fromFixed8(p[3])}
	case FormatBGRA8:
		return Color{fromFixed8(p[2]), fromFixed8(p[1]), fromFixed8(p[0]), fromFixed8(p[3])}
	case FormatRGBAPremul:
		return unpremultiply(Color{fromFixed8(p[0]), fromFixed8(p[1]), fromFixed8(p[2]), fromFixed8(p[3])})
	case FormatBGRAPremul:
		return unpremultiply(Color{fromFixed8(p[2]), fromFixed8(p[1]), fromFixed8(p[0]), fromFixed8(p[3])})
	default:
		return Color{}
	}
}

// Pack encodes c into p using format f. Every channel saturates to the
// representable range and rounds to the nearest step. Gray formats store
// the Rec. 601 luma of R, G and B; formats without alpha drop A.
func Pack(f Format, c Color, p []byte) {
	switch f {
	case FormatGray8:
		p[0] = toFixed8(luma(c))
	case FormatGray16:
		binary.LittleEndian.PutUint16(p, toFixed16(luma(c)))
	case FormatRGB8:
		p[0], p[1], p[2] = toFixed8(c.R), toFixed8(c.G), toFixed8(c.B)
	case FormatRGBA8:
		p[0], p[1], p[2], p[3] = toFixed8(c.R), toFixed8(c.G), toFixed8(c.B), toFixed8(c.A)
	case FormatBGRA8:
		p[0], p[1], p[2], p[3] = toFixed8(c.B), toFixed8(c.G), toFixed8(c.R), toFixed8(c.A)
	case FormatRGBAPremul:
		c = premultiply(c)
		p[0], p[1], p[2], p[3] = toFixed8(c.R), toFixed8(c.G), toFixed8(c.B), toFixed8(c.A)
	case FormatBGRAPremul:
		c = premultiply(c)
		p[0], p[1], p[2], p[3] = toFixed8(c.B), toFixed8(c.G), toFixed8(c.R), toFixed8(c.A)
	}
}

func fromFixed8(v byte) float64 {
	return float64(v) / math.MaxUint8
}

func toFixed8(v float64) byte {
	return byte(saturate(v)*math.MaxUint8 + 0.5)
}

func toFixed16(v float64) uint16 {
	return uint16(saturate(v)*math.MaxUint16 + 0.5)
}

// saturate clamps v to [0, 1]. NaN maps to 0.
func saturate(v float64) float64 {
	if !(v > 0) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func luma(c Color) float64 {
	return 0.299*c.R + 0.587*c.G + 0.114*c.B
}

func premultiply(c Color) Color {
	a := saturate(c.A)
	return Color{c.R * a, c.G * a, c.B * a, a}
}

func unpremultiply(c Color) Color {
	if c.A == 0 {
		return Color{}
	}
	return Color{c.R / c.A, c.G / c.A, c.B / c.A, c.A}
}
