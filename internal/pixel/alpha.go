package pixel

// CorrectAlpha multiplies the alpha channel of every pixel in buf by
// multiplier, in place and in raster order. Color channels are left as
// they are. The multiplier is not range checked; results outside the
// representable range saturate when the pixel is packed.
//
// A nil or empty buffer, or one whose format stores no alpha, is left
// untouched.
func CorrectAlpha(buf *Buffer, multiplier float64) {
	if buf.IsEmpty() || !buf.format.HasAlpha() {
		return
	}
	bpp := buf.format.BytesPerPixel()
	for y := range buf.height {
		row := buf.RowBytes(y)
		for off := 0; off < len(row); off += bpp {
			p := row[off : off+bpp]
			c := Unpack(buf.format, p)
			c.A *= multiplier
			Pack(buf.format, c, p)
		}
	}
}
