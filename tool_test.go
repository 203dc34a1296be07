package atlas

import (
	"encoding/json"
	"image/gif"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/atlas/internal/config"
	"github.com/gogpu/atlas/internal/pack"
	"github.com/gogpu/atlas/internal/pixel"
	"github.com/gogpu/atlas/internal/sequence"
)

// writeKeyframe saves a solid 4x4 PNG into dir.
func writeKeyframe(t *testing.T, dir, name string, c pixel.Color) {
	t.Helper()
	buf, err := pixel.New(4, 4, pixel.FormatRGBA8)
	require.NoError(t, err)
	buf.Fill(c)
	require.NoError(t, pixel.Save(buf, filepath.Join(dir, name)))
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "atlas.cfg")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestBuild_InterpolatedSequence(t *testing.T) {
	dir := t.TempDir()
	writeKeyframe(t, dir, "red.png", pixel.Color{R: 1, A: 1})
	writeKeyframe(t, dir, "blue.png", pixel.Color{B: 1, A: 1})
	cfgPath := writeConfig(t, dir, `
InputImage  = red.png;blue.png
Frame       = 0;3
Alpha       = 1;0.5
OutputImage = out.png
ImagePath   = `+dir+`
Metadata    = out.json
Preview     = out.gif
`)

	res, err := Build(cfgPath)
	require.NoError(t, err)

	assert.Equal(t, 4, res.Frames)
	assert.Equal(t, filepath.Join(dir, "out.png"), res.Output)

	img, err := pixel.Load(res.Output)
	require.NoError(t, err)
	assert.Equal(t, 8, img.Width())
	assert.Equal(t, 8, img.Height())

	// Regions follow sequence order; the middle frames are blends.
	regions := res.Atlas.Regions
	require.Len(t, regions, 4)
	wantRed := []byte{255, 170, 85, 0}
	wantAlpha := []byte{255, 213, 170, 128}
	for i, r := range regions {
		assert.Equal(t, i, r.Frame)
		assert.Equal(t, i == 1 || i == 2, r.Synthetic)
		px := img.PixelBytes(r.X, r.Y)
		assert.Equal(t, wantRed[i], px[0], "frame %d red", i)
		assert.Equal(t, wantAlpha[i], px[3], "frame %d alpha", i)
	}

	data, err := os.ReadFile(filepath.Join(dir, "out.json"))
	require.NoError(t, err)
	var md pack.Metadata
	require.NoError(t, json.Unmarshal(data, &md))
	assert.Equal(t, "out.png", md.Image)
	assert.Len(t, md.Frames, 4)
	assert.Equal(t, "red.png~blue.png", md.Frames[1].Name)

	f, err := os.Open(filepath.Join(dir, "out.gif"))
	require.NoError(t, err)
	defer f.Close()
	anim, err := gif.DecodeAll(f)
	require.NoError(t, err)
	assert.Len(t, anim.Image, 4)
	assert.Equal(t, config.DefaultPreviewDelay, anim.Delay[0])
}

func TestBuild_VerbatimSequence(t *testing.T) {
	dir := t.TempDir()
	writeKeyframe(t, dir, "a.png", pixel.Color{R: 1, A: 1})
	writeKeyframe(t, dir, "b.png", pixel.Color{G: 1, A: 1})
	cfgPath := writeConfig(t, dir, "InputImage = a.png b.png a.png\nImagePath = "+dir+"\n")

	res, err := Build(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Frames)
	assert.Empty(t, res.Metadata)
	assert.Empty(t, res.Preview)
	assert.FileExists(t, filepath.Join(dir, config.DefaultOutputImage))
	for _, r := range res.Atlas.Regions {
		assert.False(t, r.Synthetic)
	}
}

func TestBuild_FailuresWriteNothing(t *testing.T) {
	tests := []struct {
		name    string
		cfg     string
		wantErr error
	}{
		{
			name:    "missing keyframe",
			cfg:     "InputImage = a.png missing.png\nFrame = 0 2\n",
			wantErr: os.ErrNotExist,
		},
		{
			name:    "shape mismatch",
			cfg:     "InputImage = a.png big.png\nFrame = 0 2\n",
			wantErr: pixel.ErrShapeMismatch,
		},
		{
			name:    "too large",
			cfg:     "InputImage = a.png big.png\nMaxSize = 4\n",
			wantErr: pack.ErrAtlasTooLarge,
		},
		{
			name:    "frame span too large",
			cfg:     "InputImage = a.png a.png\nFrame = 0 1099511627776\n",
			wantErr: sequence.ErrTooManyFrames,
		},
		{
			name:    "unsupported output",
			cfg:     "InputImage = a.png\nOutputImage = out.xyz\n",
			wantErr: pixel.ErrUnsupportedFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeKeyframe(t, dir, "a.png", pixel.Color{A: 1})
			big, err := pixel.New(6, 6, pixel.FormatRGBA8)
			require.NoError(t, err)
			require.NoError(t, pixel.Save(big, filepath.Join(dir, "big.png")))

			cfgPath := writeConfig(t, dir, tt.cfg+"ImagePath = "+dir+"\nMetadata = out.json\n")
			before, err := os.ReadDir(dir)
			require.NoError(t, err)

			_, err = Build(cfgPath)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)

			after, err := os.ReadDir(dir)
			require.NoError(t, err)
			assert.Len(t, after, len(before), "files were written on failure")
		})
	}
}

func TestBuild_FailedWriteLeavesNoOutputs(t *testing.T) {
	dir := t.TempDir()
	writeKeyframe(t, dir, "a.png", pixel.Color{R: 1, A: 1})
	cfgPath := writeConfig(t, dir, "InputImage = a.png\nImagePath = "+dir+
		"\nMetadata = out.json\nPreview = missing/out.gif\n")
	before, err := os.ReadDir(dir)
	require.NoError(t, err)

	_, err = Build(cfgPath)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)

	after, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, after, len(before), "outputs or temporary files left behind")
	assert.NoFileExists(t, filepath.Join(dir, config.DefaultOutputImage))
}

func TestBuild_ConfigErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Build(writeConfig(t, dir, "InputImage = a b\nFrame = 4 2\n"))
	var oe *sequence.OrderError
	assert.ErrorAs(t, err, &oe)

	_, err = Build(writeConfig(t, dir, "Frame = 1\n"))
	assert.ErrorIs(t, err, config.ErrNoInputs)

	_, err = New(nil)
	assert.Error(t, err)
}

func TestTool_WithLoader(t *testing.T) {
	dir := t.TempDir()
	var loaded []string
	loader := sequence.LoaderFunc(func(name string) (*pixel.Buffer, error) {
		loaded = append(loaded, name)
		buf, err := pixel.New(2, 2, pixel.FormatBGRA8)
		if err != nil {
			return nil, err
		}
		buf.Fill(pixel.Color{G: 1, A: 1})
		return buf, nil
	})

	cfg := &config.Config{
		InputImages:  []string{"x", "y"},
		OutputImage:  "atlas.bmp",
		ImagePath:    dir,
		PixelFormat:  "RGBA8",
		MaxSize:      64,
		PreviewDelay: 4,

		PreviewColors: 256,
	}
	tool, err := New(cfg, WithLoader(loader))
	require.NoError(t, err)

	res, err := tool.Run()
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, loaded)
	assert.Equal(t, pixel.FormatRGBA8, res.Atlas.Image.Format())
	assert.FileExists(t, filepath.Join(dir, "atlas.bmp"))
}

func TestBuild_AdaptivePreview(t *testing.T) {
	dir := t.TempDir()
	writeKeyframe(t, dir, "a.png", pixel.Color{R: 1, A: 1})
	writeKeyframe(t, dir, "b.png", pixel.Color{G: 1, A: 1})
	cfgPath := writeConfig(t, dir, `
InputImage     = a.png b.png
Frame          = 0 2
Easing         = in_out_sine
ImagePath      = `+dir+`
Preview        = anim.gif
PreviewPalette = kmeans
PreviewColors  = 8
PreviewSize    = 2
`)

	res, err := Build(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "anim.gif"), res.Preview)

	f, err := os.Open(res.Preview)
	require.NoError(t, err)
	defer f.Close()
	anim, err := gif.DecodeAll(f)
	require.NoError(t, err)
	require.Len(t, anim.Image, 3)
	assert.Equal(t, 2, anim.Config.Width)
	assert.LessOrEqual(t, len(anim.Image[0].Palette), 8)
}
