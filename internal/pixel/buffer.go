package pixel

import (
	"errors"
	"fmt"
)

// Common errors for buffer operations.
var (
	// ErrInvalidDimensions is returned when width or height is non-positive.
	ErrInvalidDimensions = errors.New("pixel: invalid dimensions")

	// ErrInvalidFormat is returned when the format is not recognized.
	ErrInvalidFormat = errors.New("pixel: invalid format")

	// ErrInvalidStride is returned when stride is less than minimum required.
	ErrInvalidStride = errors.New("pixel: stride too small for width")

	// ErrDataTooSmall is returned when provided data is smaller than required.
	ErrDataTooSmall = errors.New("pixel: data buffer too small")

	// ErrOutOfBounds is returned when pixel coordinates are outside buffer bounds.
	ErrOutOfBounds = errors.New("pixel: coordinates out of bounds")

	// ErrShapeMismatch is returned when buffers that must share width,
	// height and format do not.
	ErrShapeMismatch = errors.New("pixel: buffer shape mismatch")
)

// Buffer is a rectangular grid of pixels stored row by row in a single
// byte slice. Rows may be padded: Stride is the distance in bytes between
// the starts of two consecutive rows.
//
// A Buffer is not safe for concurrent mutation.
type Buffer struct {
	data   []byte
	width  int
	height int
	stride int
	format Format
}

// New creates a zeroed buffer with the given dimensions and format.
func New(width, height int, format Format) (*Buffer, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidDimensions
	}
	if !format.IsValid() {
		return nil, ErrInvalidFormat
	}

	stride := format.RowBytes(width)
	return &Buffer{
		data:   make([]byte, stride*height),
		width:  width,
		height: height,
		stride: stride,
		format: format,
	}, nil
}

// NewLike creates a zeroed buffer with the width, height and format of b.
func NewLike(b *Buffer) *Buffer {
	buf, _ := New(b.width, b.height, b.format)
	return buf
}

// FromRaw wraps existing data without copying.
// Stride must be at least format.RowBytes(width).
func FromRaw(data []byte, width, height int, format Format, stride int) (*Buffer, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidDimensions
	}
	if !format.IsValid() {
		return nil, ErrInvalidFormat
	}
	if stride < format.RowBytes(width) {
		return nil, ErrInvalidStride
	}

	requiredSize := stride * height
	if len(data) < requiredSize {
		return nil, ErrDataTooSmall
	}

	return &Buffer{
		data:   data[:requiredSize],
		width:  width,
		height: height,
		stride: stride,
		format: format,
	}, nil
}

// Clone creates a deep copy of the buffer.
func (b *Buffer) Clone() *Buffer {
	data := make([]byte, len(b.data))
	copy(data, b.data)
	return &Buffer{
		data:   data,
		width:  b.width,
		height: b.height,
		stride: b.stride,
		format: b.format,
	}
}

// Width returns the buffer width in pixels.
func (b *Buffer) Width() int { return b.width }

// Height returns the buffer height in pixels.
func (b *Buffer) Height() int { return b.height }

// Stride returns the number of bytes per row, including padding.
func (b *Buffer) Stride() int { return b.stride }

// Format returns the pixel format.
func (b *Buffer) Format() Format { return b.format }

// Data returns the raw pixel data slice.
func (b *Buffer) Data() []byte { return b.data }

// IsEmpty returns true if the buffer has no pixels.
func (b *Buffer) IsEmpty() bool {
	return b == nil || b.width == 0 || b.height == 0 || len(b.data) == 0
}

// SameShape reports whether b and o have equal width, height and format.
func (b *Buffer) SameShape(o *Buffer) bool {
	return b.width == o.width && b.height == o.height && b.format == o.format
}

// RowBytes returns the pixel bytes of row y without padding.
// Returns nil if y is out of bounds.
func (b *Buffer) RowBytes(y int) []byte {
	if y < 0 || y >= b.height {
		return nil
	}
	start := y * b.stride
	return b.data[start : start+b.format.RowBytes(b.width)]
}

// PixelOffset returns the byte offset of pixel (x, y) in the data slice.
// Returns -1 if coordinates are out of bounds.
func (b *Buffer) PixelOffset(x, y int) int {
	if x < 0 || x >= b.width || y < 0 || y >= b.height {
		return -1
	}
	return y*b.stride + x*b.format.BytesPerPixel()
}

// PixelBytes returns the raw bytes of pixel (x, y), or nil if out of bounds.
func (b *Buffer) PixelBytes(x, y int) []byte {
	offset := b.PixelOffset(x, y)
	if offset < 0 {
		return nil
	}
	return b.data[offset : offset+b.format.BytesPerPixel()]
}

// At unpacks pixel (x, y). Returns the zero Color if out of bounds.
func (b *Buffer) At(x, y int) Color {
	p := b.PixelBytes(x, y)
	if p == nil {
		return Color{}
	}
	return Unpack(b.format, p)
}

// Set packs c into pixel (x, y).
func (b *Buffer) Set(x, y int, c Color) error {
	p := b.PixelBytes(x, y)
	if p == nil {
		return ErrOutOfBounds
	}
	Pack(b.format, c, p)
	return nil
}

// Fill packs c into every pixel.
func (b *Buffer) Fill(c Color) {
	if b.IsEmpty() {
		return
	}
	bpp := b.format.BytesPerPixel()
	px := make([]byte, bpp)
	Pack(b.format, c, px)
	for y := range b.height {
		row := b.RowBytes(y)
		for off := 0; off < len(row); off += bpp {
			copy(row[off:off+bpp], px)
		}
	}
}

// Convert returns a copy of b stored in format f. If b already uses f the
// copy is byte-exact.
func (b *Buffer) Convert(f Format) (*Buffer, error) {
	if f == b.format {
		return b.Clone(), nil
	}
	out, err := New(b.width, b.height, f)
	if err != nil {
		return nil, fmt.Errorf("convert %s to %s: %w", b.format, f, err)
	}
	srcBpp, dstBpp := b.format.BytesPerPixel(), f.BytesPerPixel()
	for y := range b.height {
		src, dst := b.RowBytes(y), out.RowBytes(y)
		for x := range b.width {
			c := Unpack(b.format, src[x*srcBpp:])
			Pack(f, c, dst[x*dstBpp:])
		}
	}
	return out, nil
}

// CopyTo copies the pixels of b into dst with the top-left corner at
// (x, y). Both buffers must use the same format and b must fit inside dst.
func (b *Buffer) CopyTo(dst *Buffer, x, y int) error {
	if b.format != dst.format {
		return fmt.Errorf("%w: copy %s into %s", ErrShapeMismatch, b.format, dst.format)
	}
	if x < 0 || y < 0 || x+b.width > dst.width || y+b.height > dst.height {
		return ErrOutOfBounds
	}
	for row := range b.height {
		off := dst.PixelOffset(x, y+row)
		copy(dst.data[off:], b.RowBytes(row))
	}
	return nil
}
