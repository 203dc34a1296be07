package pixel

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func TestFromStdImage_NRGBA(t *testing.T) {
	nrgba := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	nrgba.Set(3, 3, color.NRGBA{R: 128, G: 64, B: 32, A: 200})

	buf, err := FromStdImage(nrgba)
	if err != nil {
		t.Fatalf("FromStdImage() error: %v", err)
	}
	if buf.Format() != FormatRGBA8 {
		t.Errorf("Format = %v, want RGBA8", buf.Format())
	}
	assertBytes(t, "pixel", buf.PixelBytes(3, 3), []byte{128, 64, 32, 200})
}

func TestFromStdImage_Formats(t *testing.T) {
	rect := image.Rect(0, 0, 4, 4)
	paletted := image.NewPaletted(rect, color.Palette{color.NRGBA{1, 2, 3, 255}})

	tests := []struct {
		name string
		img  image.Image
		want Format
	}{
		{"rgba", image.NewRGBA(rect), FormatRGBAPremul},
		{"gray", image.NewGray(rect), FormatGray8},
		{"gray16", image.NewGray16(rect), FormatGray16},
		{"paletted", paletted, FormatRGBA8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf, err := FromStdImage(tt.img)
			if err != nil {
				t.Fatalf("FromStdImage() error: %v", err)
			}
			if buf.Format() != tt.want {
				t.Errorf("Format = %v, want %v", buf.Format(), tt.want)
			}
		})
	}
}

func TestWrapStdImage(t *testing.T) {
	nrgba := image.NewNRGBA(image.Rect(0, 0, 4, 3))
	buf, ok := wrapStdImage(nrgba)
	if !ok {
		t.Fatal("wrapStdImage(NRGBA) = false")
	}
	if buf.Format() != FormatRGBA8 || buf.Width() != 4 || buf.Height() != 3 {
		t.Fatalf("buffer = %dx%d %s", buf.Width(), buf.Height(), buf.Format())
	}
	buf.PixelBytes(1, 2)[3] = 77
	if got := nrgba.NRGBAAt(1, 2).A; got != 77 {
		t.Errorf("image alpha = %d, want 77 (pixels not shared)", got)
	}

	// The last row of a sub-image is short, so it is copied instead.
	sub := nrgba.SubImage(image.Rect(1, 1, 3, 3))
	if _, ok := wrapStdImage(sub); ok {
		t.Error("wrapStdImage(sub-image) = true")
	}
	if _, ok := wrapStdImage(image.NewCMYK(image.Rect(0, 0, 2, 2))); ok {
		t.Error("wrapStdImage(CMYK) = true")
	}
}

func TestFromStdImage_Gray16Endianness(t *testing.T) {
	g := image.NewGray16(image.Rect(0, 0, 1, 1))
	g.SetGray16(0, 0, color.Gray16{Y: 0x1234})

	buf, _ := FromStdImage(g)
	assertBytes(t, "gray16", buf.Data(), []byte{0x34, 0x12})

	back := buf.ToStdImage().(*image.Gray16)
	if y := back.Gray16At(0, 0).Y; y != 0x1234 {
		t.Errorf("round trip = %#x, want 0x1234", y)
	}
}

func TestToStdImage_BGRA8(t *testing.T) {
	buf := mustNew(t, 1, 1, FormatBGRA8)
	copy(buf.Data(), []byte{50, 100, 200, 255})

	nrgba, ok := buf.ToStdImage().(*image.NRGBA)
	if !ok {
		t.Fatalf("ToStdImage() returned %T, want *image.NRGBA", buf.ToStdImage())
	}
	if c := nrgba.NRGBAAt(0, 0); c != (color.NRGBA{200, 100, 50, 255}) {
		t.Errorf("pixel = %v, want {200 100 50 255}", c)
	}
}

func TestToStdImage_RGB8(t *testing.T) {
	buf := mustNew(t, 1, 1, FormatRGB8)
	copy(buf.Data(), []byte{1, 2, 3})

	nrgba := buf.ToStdImage().(*image.NRGBA)
	if c := nrgba.NRGBAAt(0, 0); c != (color.NRGBA{1, 2, 3, 255}) {
		t.Errorf("pixel = %v, want opaque {1 2 3}", c)
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := newPatterned(t, 6, 4, FormatRGBA8)

	for _, ext := range []string{".png", ".bmp", ".tiff"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(dir, "frame"+ext)
			if err := Save(src, path); err != nil {
				t.Fatalf("Save() error: %v", err)
			}
			got, err := Load(path)
			if err != nil {
				t.Fatalf("Load() error: %v", err)
			}
			if got.Width() != 6 || got.Height() != 4 {
				t.Errorf("dimensions = %dx%d, want 6x4", got.Width(), got.Height())
			}
		})
	}

	path := filepath.Join(dir, "exact.png")
	if err := Save(src, path); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	rgba, _ := got.Convert(FormatRGBA8)
	assertBytes(t, "png", rgba.Data(), src.Data())
}

func TestSave_Unsupported(t *testing.T) {
	buf := mustNew(t, 1, 1, FormatRGBA8)
	path := filepath.Join(t.TempDir(), "atlas.xyz")

	if err := Save(buf, path); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Save() error = %v, want ErrUnsupportedFormat", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Save() created a file for an unsupported format")
	}
}

func TestDecode_Invalid(t *testing.T) {
	if _, err := Decode(bytes.NewReader([]byte("not an image"))); err == nil {
		t.Error("Decode() expected error for garbage input")
	}
}

func TestDirLoader(t *testing.T) {
	dir := t.TempDir()
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.NRGBA{255, 0, 0, 255})

	f, err := os.Create(filepath.Join(dir, "a.png"))
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	_ = f.Close()

	loader := DirLoader{Dir: dir, Format: FormatBGRA8}
	buf, err := loader.Load("a.png")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if buf.Format() != FormatBGRA8 {
		t.Errorf("Format = %v, want BGRA8", buf.Format())
	}
	assertBytes(t, "red", buf.PixelBytes(0, 0), []byte{0, 0, 255, 255})

	if _, err := loader.Load("missing.png"); err == nil {
		t.Error("Load() expected error for missing file")
	}
}
