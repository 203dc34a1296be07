package atlas

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/gogpu/atlas/internal/config"
	"github.com/gogpu/atlas/internal/pack"
	"github.com/gogpu/atlas/internal/pixel"
	"github.com/gogpu/atlas/internal/preview"
	"github.com/gogpu/atlas/internal/sequence"
)

// Option configures a Tool.
type Option func(*toolOptions)

type toolOptions struct {
	loader sequence.Loader
}

// WithLoader replaces the default loader, which reads image files from the
// configured image directory. Frames from a custom loader are converted to
// the configured pixel format when they differ.
func WithLoader(l sequence.Loader) Option {
	return func(o *toolOptions) {
		o.loader = l
	}
}

// Tool runs one atlas build.
type Tool struct {
	cfg     *config.Config
	format  pixel.Format
	easing  sequence.EasingFunc
	pack    pack.Options
	preview preview.Options
	loader  sequence.Loader
}

// Result describes a finished build.
type Result struct {
	Atlas *pack.Atlas

	// Frames is the length of the expanded sequence.
	Frames int

	// Output, Metadata and Preview are the files written. Metadata and
	// Preview are empty when not configured.
	Output   string
	Metadata string
	Preview  string
}

// New validates cfg and returns a Tool for it.
func New(cfg *config.Config, opts ...Option) (*Tool, error) {
	if cfg == nil {
		return nil, errors.New("atlas: nil config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	format, err := cfg.Format()
	if err != nil {
		return nil, err
	}
	easing, err := cfg.EasingFunc()
	if err != nil {
		return nil, err
	}
	packOpts, err := cfg.PackOptions()
	if err != nil {
		return nil, err
	}
	previewOpts, err := cfg.PreviewOptions()
	if err != nil {
		return nil, err
	}

	o := toolOptions{
		loader: pixel.DirLoader{Dir: cfg.ImagePath, Format: format},
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &Tool{
		cfg:     cfg,
		format:  format,
		easing:  easing,
		pack:    packOpts,
		preview: previewOpts,
		loader:  o.loader,
	}, nil
}

// Build loads the config file at path and runs it.
func Build(path string, opts ...Option) (*Result, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	tool, err := New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return tool.Run()
}

// Run expands the keyframes, packs the sequence and writes the outputs.
// All outputs are encoded and staged before any of them replaces a file.
func (t *Tool) Run() (*Result, error) {
	log := Logger()
	start := time.Now()
	plan := t.cfg.Plan()

	log.Info("atlas build started",
		slog.Int("keyframes", len(plan.Sources)),
		slog.Bool("indexed", plan.Indexed()),
		slog.Int("frames", plan.Len()),
		slog.String("format", t.format.String()),
		slog.String("output", t.cfg.OutputPath()))

	expander := sequence.NewExpander(t.loader,
		sequence.WithLogger(log),
		sequence.WithEasing(t.easing))
	frames, err := expander.Expand(plan)
	if err != nil {
		return nil, fmt.Errorf("atlas: expand: %w", err)
	}

	atl, err := t.compile(frames)
	if err != nil {
		return nil, err
	}
	log.Info("atlas packed",
		slog.Int("width", atl.Image.Width()),
		slog.Int("height", atl.Image.Height()),
		slog.Float64("utilization", atl.Utilization))

	res := &Result{
		Atlas:    atl,
		Frames:   len(frames),
		Output:   t.cfg.OutputPath(),
		Metadata: t.cfg.MetadataPath(),
		Preview:  t.cfg.PreviewPath(),
	}

	outputs, err := t.encode(res, frames)
	if err != nil {
		return nil, err
	}
	if err := writeAll(outputs); err != nil {
		return nil, err
	}
	for _, out := range outputs {
		log.Info("wrote file",
			slog.String("path", out.path),
			slog.String("size", humanize.IBytes(uint64(len(out.data)))))
	}

	log.Info("atlas build finished",
		slog.Int("frames", res.Frames),
		slog.Duration("elapsed", time.Since(start)))
	return res, nil
}

func (t *Tool) compile(frames []sequence.Frame) (*pack.Atlas, error) {
	packer, err := pack.NewPacker(t.pack)
	if err != nil {
		return nil, fmt.Errorf("atlas: %w", err)
	}
	for _, f := range frames {
		img := f.Image
		if img.Format() != t.format {
			if img, err = img.Convert(t.format); err != nil {
				return nil, fmt.Errorf("atlas: frame %d: %w", f.Index, err)
			}
		}
		label := pack.Label{Name: f.Source, Frame: f.Index, Synthetic: f.Synthetic}
		if err := packer.AddFrame(img, label); err != nil {
			return nil, fmt.Errorf("atlas: frame %d: %w", f.Index, err)
		}
	}
	atl, err := packer.Compile()
	if err != nil {
		return nil, fmt.Errorf("atlas: %w", err)
	}
	return atl, nil
}

type encodedFile struct {
	path string
	data []byte
}

func (t *Tool) encode(res *Result, frames []sequence.Frame) ([]encodedFile, error) {
	var files []encodedFile

	var img bytes.Buffer
	if err := pixel.Encode(&img, res.Atlas.Image, filepath.Ext(res.Output)); err != nil {
		return nil, fmt.Errorf("atlas: encode %s: %w", res.Output, err)
	}
	files = append(files, encodedFile{res.Output, img.Bytes()})

	if res.Metadata != "" {
		var md bytes.Buffer
		if err := res.Atlas.WriteMetadata(&md, filepath.Base(res.Output)); err != nil {
			return nil, fmt.Errorf("atlas: encode %s: %w", res.Metadata, err)
		}
		files = append(files, encodedFile{res.Metadata, md.Bytes()})
	}

	if res.Preview != "" {
		images := make([]*pixel.Buffer, len(frames))
		for i, f := range frames {
			images[i] = f.Image
		}
		var gif bytes.Buffer
		if err := preview.Encode(&gif, images, res.Atlas.Image, t.preview); err != nil {
			return nil, fmt.Errorf("atlas: encode %s: %w", res.Preview, err)
		}
		files = append(files, encodedFile{res.Preview, gif.Bytes()})
	}
	return files, nil
}

// writeAll stages every output in a temporary file next to its target and
// renames them into place only once all of them were written, so a write
// that fails leaves none of the outputs behind.
func writeAll(files []encodedFile) error {
	staged := make([]string, 0, len(files))
	cleanup := func() {
		for _, tmp := range staged {
			_ = os.Remove(tmp)
		}
	}

	for _, f := range files {
		tmp, err := stage(f)
		if err != nil {
			cleanup()
			return fmt.Errorf("atlas: write %s: %w", f.path, err)
		}
		staged = append(staged, tmp)
	}
	for i, f := range files {
		if err := os.Rename(staged[i], f.path); err != nil {
			cleanup()
			return fmt.Errorf("atlas: write %s: %w", f.path, err)
		}
	}
	return nil
}

func stage(f encodedFile) (string, error) {
	tmp, err := os.CreateTemp(filepath.Dir(f.path), "."+filepath.Base(f.path)+".*")
	if err != nil {
		return "", err
	}
	if _, err := tmp.Write(f.data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		_ = os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}
