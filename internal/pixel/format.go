// Package pixel provides the frame buffers and per-pixel transforms used to
// build atlas images.
//
// A Buffer stores pixels in one of several byte layouts. Every transform in
// this package works the same way: unpack a pixel into a normalized Color,
// operate on the floating point value, pack it back. Packing saturates each
// channel to the representable range of the target format.
package pixel

import (
	"fmt"
	"strings"
)

// Format represents a pixel storage format.
type Format uint8

const (
	// FormatGray8 is 8-bit grayscale (1 byte per pixel).
	FormatGray8 Format = iota

	// FormatGray16 is 16-bit little-endian grayscale (2 bytes per pixel).
	FormatGray16

	// FormatRGB8 is 24-bit RGB (3 bytes per pixel, no alpha).
	FormatRGB8

	// FormatRGBA8 is 32-bit RGBA with straight alpha (4 bytes per pixel).
	// This is the default frame format.
	FormatRGBA8

	// FormatRGBAPremul is 32-bit RGBA with premultiplied alpha (4 bytes per pixel).
	FormatRGBAPremul

	// FormatBGRA8 is 32-bit BGRA with straight alpha (4 bytes per pixel).
	FormatBGRA8

	// FormatBGRAPremul is 32-bit BGRA with premultiplied alpha (4 bytes per pixel).
	FormatBGRAPremul

	formatCount
)

// FormatInfo contains metadata about a pixel format.
type FormatInfo struct {
	BytesPerPixel   int
	HasAlpha        bool
	IsPremultiplied bool
}

var formatInfoTable = [formatCount]FormatInfo{
	FormatGray8:      {BytesPerPixel: 1},
	FormatGray16:     {BytesPerPixel: 2},
	FormatRGB8:       {BytesPerPixel: 3},
	FormatRGBA8:      {BytesPerPixel: 4, HasAlpha: true},
	FormatRGBAPremul: {BytesPerPixel: 4, HasAlpha: true, IsPremultiplied: true},
	FormatBGRA8:      {BytesPerPixel: 4, HasAlpha: true},
	FormatBGRAPremul: {BytesPerPixel: 4, HasAlpha: true, IsPremultiplied: true},
}

var formatNames = [formatCount]string{
	FormatGray8:      "Gray8",
	FormatGray16:     "Gray16",
	FormatRGB8:       "RGB8",
	FormatRGBA8:      "RGBA8",
	FormatRGBAPremul: "RGBAPremul",
	FormatBGRA8:      "BGRA8",
	FormatBGRAPremul: "BGRAPremul",
}

// Info returns the FormatInfo for this format.
func (f Format) Info() FormatInfo {
	if f >= formatCount {
		return FormatInfo{}
	}
	return formatInfoTable[f]
}

// BytesPerPixel returns the number of bytes per pixel for this format.
func (f Format) BytesPerPixel() int {
	return f.Info().BytesPerPixel
}

// HasAlpha returns true if this format has an alpha channel.
func (f Format) HasAlpha() bool {
	return f.Info().HasAlpha
}

// IsPremultiplied returns true if alpha is premultiplied.
func (f Format) IsPremultiplied() bool {
	return f.Info().IsPremultiplied
}

// IsValid returns true if the format is a valid known format.
func (f Format) IsValid() bool {
	return f < formatCount
}

// RowBytes calculates the number of bytes needed for a row of the given width.
func (f Format) RowBytes(width int) int {
	return width * f.BytesPerPixel()
}

// ImageBytes calculates the total number of bytes needed for an image.
func (f Format) ImageBytes(width, height int) int {
	return f.RowBytes(width) * height
}

func (f Format) String() string {
	if f >= formatCount {
		return "Unknown"
	}
	return formatNames[f]
}

// ParseFormat returns the format whose name matches s, ignoring case.
func ParseFormat(s string) (Format, error) {
	for f := range formatCount {
		if strings.EqualFold(formatNames[f], strings.TrimSpace(s)) {
			return f, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
}
