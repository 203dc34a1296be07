package pixel

import "fmt"

// Interpolate fills out with the linear blend of first and next at
// fraction: every pixel becomes C0 + fraction*(C1-C0) over all four
// channels. No gamma or color space conversion is applied. Straight alpha
// formats blend their stored values; premultiplied formats are blended
// after conversion to straight alpha and premultiplied again on store.
//
// out must already be allocated with the width, height and format of first
// and next; Interpolate allocates nothing. A fraction of 0 reproduces first
// and 1 reproduces next.
func Interpolate(out, first, next *Buffer, fraction float64) error {
	if first.IsEmpty() || next.IsEmpty() || out.IsEmpty() {
		return ErrInvalidDimensions
	}
	if !first.SameShape(next) || !first.SameShape(out) {
		return fmt.Errorf("%w: interpolate %dx%d %s with %dx%d %s into %dx%d %s", ErrShapeMismatch,
			first.width, first.height, first.format,
			next.width, next.height, next.format,
			out.width, out.height, out.format)
	}

	f := out.format
	bpp := f.BytesPerPixel()
	for y := range out.height {
		r0, r1, dst := first.RowBytes(y), next.RowBytes(y), out.RowBytes(y)
		for off := 0; off < len(dst); off += bpp {
			c0 := Unpack(f, r0[off:off+bpp])
			c1 := Unpack(f, r1[off:off+bpp])
			Pack(f, c0.Lerp(c1, fraction), dst[off:off+bpp])
		}
	}
	return nil
}
