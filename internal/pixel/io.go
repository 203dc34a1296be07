package pixel

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif" // register GIF decoder
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp" // register WebP decoder
)

// I/O errors.
var (
	// ErrUnsupportedFormat is returned when a file extension has no encoder.
	ErrUnsupportedFormat = errors.New("pixel: unsupported file format")
)

// JPEGQuality is the quality used when saving JPEG files.
const JPEGQuality = 95

// Decode decodes an image from r, auto-detecting the file format.
// PNG, JPEG, GIF, BMP, TIFF and WebP are recognized.
func Decode(r io.Reader) (*Buffer, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("pixel: decode: %w", err)
	}
	// The decoded image is not shared, so its pixels can back the buffer.
	if buf, ok := wrapStdImage(img); ok {
		return buf, nil
	}
	return FromStdImage(img)
}

// wrapStdImage returns a Buffer over the pixels of img without copying.
// It reports false for image types with no matching Format and for
// sub-images whose last row is cut short.
func wrapStdImage(img image.Image) (*Buffer, bool) {
	var (
		pix    []byte
		stride int
		format Format
	)
	switch src := img.(type) {
	case *image.NRGBA:
		pix, stride, format = src.Pix, src.Stride, FormatRGBA8
	case *image.RGBA:
		pix, stride, format = src.Pix, src.Stride, FormatRGBAPremul
	case *image.Gray:
		pix, stride, format = src.Pix, src.Stride, FormatGray8
	default:
		return nil, false
	}
	b := img.Bounds()
	buf, err := FromRaw(pix, b.Dx(), b.Dy(), format, stride)
	if err != nil {
		return nil, false
	}
	return buf, true
}

// Load decodes the image file at path.
func Load(path string) (*Buffer, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("pixel: open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return Decode(f)
}

// Save encodes buf to path. The encoder is chosen from the file extension:
// .png, .jpg/.jpeg, .bmp or .tif/.tiff.
func Save(buf *Buffer, path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	if !canEncode(ext) {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("pixel: create file: %w", err)
	}
	if err := Encode(f, buf, ext); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func canEncode(ext string) bool {
	switch ext {
	case ".png", ".jpg", ".jpeg", ".bmp", ".tif", ".tiff":
		return true
	}
	return false
}

// Encode writes buf to w in the file format named by ext (".png", ".jpg",
// ".jpeg", ".bmp", ".tif" or ".tiff").
func Encode(w io.Writer, buf *Buffer, ext string) error {
	img := buf.ToStdImage()

	var err error
	switch strings.ToLower(ext) {
	case ".png":
		err = png.Encode(w, img)
	case ".jpg", ".jpeg":
		err = jpeg.Encode(w, img, &jpeg.Options{Quality: JPEGQuality})
	case ".bmp":
		err = bmp.Encode(w, img)
	case ".tif", ".tiff":
		err = tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return fmt.Errorf("pixel: encode %s: %w", ext, err)
	}
	return nil
}

// FromStdImage copies a standard library image into a Buffer.
// NRGBA maps to RGBA8, RGBA to RGBAPremul, Gray to Gray8 and Gray16 to
// Gray16. Any other image type is converted to RGBA8.
func FromStdImage(img image.Image) (*Buffer, error) {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	switch src := img.(type) {
	case *image.NRGBA:
		return copyRows(src.Pix, src.Stride, width, height, FormatRGBA8)
	case *image.RGBA:
		return copyRows(src.Pix, src.Stride, width, height, FormatRGBAPremul)
	case *image.Gray:
		return copyRows(src.Pix, src.Stride, width, height, FormatGray8)
	case *image.Gray16:
		buf, err := New(width, height, FormatGray16)
		if err != nil {
			return nil, err
		}
		for y := range height {
			row := buf.RowBytes(y)
			s := src.Pix[y*src.Stride:]
			for x := range width {
				// image.Gray16 is big-endian, Buffer is little-endian.
				row[x*2] = s[x*2+1]
				row[x*2+1] = s[x*2]
			}
		}
		return buf, nil
	}

	buf, err := New(width, height, FormatRGBA8)
	if err != nil {
		return nil, err
	}
	for y := range height {
		row := buf.RowBytes(y)
		for x := range width {
			c := color.NRGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
			row[x*4], row[x*4+1], row[x*4+2], row[x*4+3] = c.R, c.G, c.B, c.A
		}
	}
	return buf, nil
}

func copyRows(pix []byte, stride, width, height int, format Format) (*Buffer, error) {
	buf, err := New(width, height, format)
	if err != nil {
		return nil, err
	}
	n := format.RowBytes(width)
	for y := range height {
		copy(buf.RowBytes(y), pix[y*stride:y*stride+n])
	}
	return buf, nil
}

// ToStdImage converts the buffer to a standard library image.
// Straight alpha formats become *image.NRGBA, premultiplied formats
// *image.RGBA and grayscale formats *image.Gray or *image.Gray16.
func (b *Buffer) ToStdImage() image.Image {
	rect := image.Rect(0, 0, b.width, b.height)

	switch b.format {
	case FormatGray8:
		gray := image.NewGray(rect)
		for y := range b.height {
			copy(gray.Pix[y*gray.Stride:], b.RowBytes(y))
		}
		return gray

	case FormatGray16:
		gray16 := image.NewGray16(rect)
		for y := range b.height {
			row := b.RowBytes(y)
			dst := gray16.Pix[y*gray16.Stride:]
			for x := range b.width {
				dst[x*2] = row[x*2+1]
				dst[x*2+1] = row[x*2]
			}
		}
		return gray16

	case FormatRGBA8:
		nrgba := image.NewNRGBA(rect)
		for y := range b.height {
			copy(nrgba.Pix[y*nrgba.Stride:], b.RowBytes(y))
		}
		return nrgba

	case FormatRGBAPremul:
		rgba := image.NewRGBA(rect)
		for y := range b.height {
			copy(rgba.Pix[y*rgba.Stride:], b.RowBytes(y))
		}
		return rgba

	case FormatBGRA8, FormatBGRAPremul:
		var pix []byte
		var stride int
		var out image.Image
		if b.format == FormatBGRA8 {
			nrgba := image.NewNRGBA(rect)
			pix, stride, out = nrgba.Pix, nrgba.Stride, nrgba
		} else {
			rgba := image.NewRGBA(rect)
			pix, stride, out = rgba.Pix, rgba.Stride, rgba
		}
		for y := range b.height {
			row := b.RowBytes(y)
			dst := pix[y*stride:]
			for x := range b.width {
				o := x * 4
				dst[o], dst[o+1], dst[o+2], dst[o+3] = row[o+2], row[o+1], row[o], row[o+3]
			}
		}
		return out

	default: // FormatRGB8
		nrgba := image.NewNRGBA(rect)
		for y := range b.height {
			row := b.RowBytes(y)
			dst := nrgba.Pix[y*nrgba.Stride:]
			for x := range b.width {
				dst[x*4], dst[x*4+1], dst[x*4+2], dst[x*4+3] = row[x*3], row[x*3+1], row[x*3+2], 255
			}
		}
		return nrgba
	}
}

// DirLoader loads frames relative to a directory and normalizes them to a
// single pixel format.
type DirLoader struct {
	// Dir is prepended to relative names. Empty means the working directory.
	Dir string

	// Format every loaded buffer is converted to.
	Format Format
}

// Load resolves name against the loader directory, decodes it and
// converts it to the loader format.
func (l DirLoader) Load(name string) (*Buffer, error) {
	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(l.Dir, name)
	}
	buf, err := Load(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	if buf.format == l.Format {
		return buf, nil
	}
	return buf.Convert(l.Format)
}
