package pixel

import (
	"errors"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		width   int
		height  int
		format  Format
		wantErr error
	}{
		{"valid RGBA8", 10, 20, FormatRGBA8, nil},
		{"valid Gray16", 3, 3, FormatGray16, nil},
		{"zero width", 0, 10, FormatRGBA8, ErrInvalidDimensions},
		{"negative height", 10, -1, FormatRGBA8, ErrInvalidDimensions},
		{"invalid format", 10, 10, Format(99), ErrInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf, err := New(tt.width, tt.height, tt.format)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("New() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			if buf.Width() != tt.width || buf.Height() != tt.height {
				t.Errorf("dimensions = %dx%d, want %dx%d", buf.Width(), buf.Height(), tt.width, tt.height)
			}
			if buf.Stride() != tt.format.RowBytes(tt.width) {
				t.Errorf("Stride() = %d, want %d", buf.Stride(), tt.format.RowBytes(tt.width))
			}
			if len(buf.Data()) != tt.format.ImageBytes(tt.width, tt.height) {
				t.Errorf("len(Data()) = %d, want %d", len(buf.Data()), tt.format.ImageBytes(tt.width, tt.height))
			}
		})
	}
}

func TestFromRaw(t *testing.T) {
	data := make([]byte, 100)

	if _, err := FromRaw(data, 4, 4, FormatRGBA8, 8); !errors.Is(err, ErrInvalidStride) {
		t.Errorf("small stride error = %v, want ErrInvalidStride", err)
	}
	if _, err := FromRaw(data, 5, 5, FormatRGBA8, 20); !errors.Is(err, ErrDataTooSmall) {
		t.Errorf("short data error = %v, want ErrDataTooSmall", err)
	}

	buf, err := FromRaw(data, 4, 4, FormatRGBA8, 20)
	if err != nil {
		t.Fatalf("FromRaw() error: %v", err)
	}
	if len(buf.Data()) != 80 {
		t.Errorf("len(Data()) = %d, want 80", len(buf.Data()))
	}
	if off := buf.PixelOffset(1, 2); off != 44 {
		t.Errorf("PixelOffset(1, 2) = %d, want 44", off)
	}
}

func TestBuffer_Clone(t *testing.T) {
	buf := mustNew(t, 3, 3, FormatRGBA8)
	_ = buf.Set(1, 1, Color{1, 0, 0, 1})

	clone := buf.Clone()
	_ = buf.Set(1, 1, Color{0, 1, 0, 1})

	if got := clone.At(1, 1); got != (Color{1, 0, 0, 1}) {
		t.Errorf("clone pixel = %+v, want red (clone must not share data)", got)
	}
	if !clone.SameShape(buf) {
		t.Error("clone shape differs from original")
	}
}

func TestBuffer_SetOutOfBounds(t *testing.T) {
	buf := mustNew(t, 2, 2, FormatRGBA8)
	if err := buf.Set(2, 0, Color{}); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("Set() error = %v, want ErrOutOfBounds", err)
	}
	if buf.PixelBytes(-1, 0) != nil {
		t.Error("PixelBytes(-1, 0) should be nil")
	}
	if buf.RowBytes(2) != nil {
		t.Error("RowBytes(2) should be nil")
	}
	if got := buf.At(5, 5); got != (Color{}) {
		t.Errorf("At(5, 5) = %+v, want zero", got)
	}
}

func TestBuffer_Fill(t *testing.T) {
	buf := mustNew(t, 3, 2, FormatBGRA8)
	buf.Fill(Color{R: 1, G: 0.5, B: 0, A: 1})

	for y := range 2 {
		for x := range 3 {
			p := buf.PixelBytes(x, y)
			if p[0] != 0 || p[1] != 128 || p[2] != 255 || p[3] != 255 {
				t.Fatalf("(%d,%d) = %v, want [0 128 255 255]", x, y, p)
			}
		}
	}
}

func TestBuffer_Convert(t *testing.T) {
	src := mustNew(t, 2, 1, FormatRGBA8)
	copy(src.Data(), []byte{10, 20, 30, 40, 50, 60, 70, 80})

	bgra, err := src.Convert(FormatBGRA8)
	if err != nil {
		t.Fatalf("Convert() error: %v", err)
	}
	assertBytes(t, "BGRA8", bgra.Data(), []byte{30, 20, 10, 40, 70, 60, 50, 80})

	back, err := bgra.Convert(FormatRGBA8)
	if err != nil {
		t.Fatalf("Convert() error: %v", err)
	}
	assertBytes(t, "RGBA8", back.Data(), src.Data())

	rgb, _ := src.Convert(FormatRGB8)
	assertBytes(t, "RGB8", rgb.Data(), []byte{10, 20, 30, 50, 60, 70})

	same, _ := src.Convert(FormatRGBA8)
	same.Data()[0] = 99
	if src.Data()[0] != 10 {
		t.Error("Convert to the same format must copy")
	}
}

func TestBuffer_CopyTo(t *testing.T) {
	dst := mustNew(t, 4, 4, FormatRGBA8)
	src := mustNew(t, 2, 2, FormatRGBA8)
	src.Fill(Color{1, 1, 1, 1})

	if err := src.CopyTo(dst, 1, 2); err != nil {
		t.Fatalf("CopyTo() error: %v", err)
	}
	for y := range 4 {
		for x := range 4 {
			inside := x >= 1 && x < 3 && y >= 2
			got := dst.At(x, y).A
			if inside && got != 1 || !inside && got != 0 {
				t.Errorf("(%d,%d) alpha = %v, inside = %v", x, y, got, inside)
			}
		}
	}

	if err := src.CopyTo(dst, 3, 3); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("CopyTo() overflow error = %v, want ErrOutOfBounds", err)
	}
	other := mustNew(t, 4, 4, FormatRGB8)
	if err := src.CopyTo(other, 0, 0); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("CopyTo() format error = %v, want ErrShapeMismatch", err)
	}
}
