// Package config loads atlas build settings.
//
// Settings come from a single file whose parser is picked by extension:
// TOML for .toml, YAML for .yaml and .yml, and the flat "Key = value"
// format for anything else. Keys are snake_case; the flat format also
// accepts CamelCase ("InputImage").
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/gogpu/atlas/internal/pack"
	"github.com/gogpu/atlas/internal/pixel"
	"github.com/gogpu/atlas/internal/preview"
	"github.com/gogpu/atlas/internal/sequence"
)

// DefaultFile is the config file read when none is named.
const DefaultFile = "atlas.cfg"

// Defaults applied to unset keys.
const (
	DefaultOutputImage  = "atlas.png"
	DefaultImagePath    = "."
	DefaultPixelFormat  = "RGBA8"
	DefaultMaxSize      = 8192
	DefaultPreviewDelay = 4
	DefaultPreviewColor = 256
)

// ErrNoInputs is returned when input_image is missing or empty.
var ErrNoInputs = errors.New("config: no input images")

// FieldError reports an invalid value for one key.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return "config: invalid " + e.Field + ": " + e.Reason
}

// Config holds the settings of one atlas build.
type Config struct {
	// InputImages names the keyframes in order.
	InputImages []string `koanf:"-"`

	// Frames holds one timeline index per keyframe, or nothing.
	Frames []int `koanf:"-"`

	// Alpha holds per-keyframe alpha multipliers. Blank entries skip
	// correction for their keyframe.
	Alpha []sequence.Multiplier `koanf:"-"`

	OutputImage string `koanf:"output_image"`
	ImagePath   string `koanf:"image_path"`
	PixelFormat string `koanf:"pixel_format"`
	Easing      string `koanf:"easing"` // blend curve, default linear

	Padding         int     `koanf:"padding"`
	PowerOfTwo      *bool   `koanf:"power_of_two"` // default: true
	MaxSize         int     `koanf:"max_size"`
	Background      string  `koanf:"background"` // hex colour, e.g. "#ff00ff"
	BackgroundAlpha float64 `koanf:"background_alpha"`

	Metadata     string `koanf:"metadata"`      // JSON sidecar path, optional
	Preview      string `koanf:"preview"`       // animated GIF path, optional
	PreviewDelay int    `koanf:"preview_delay"` // 1/100 s per preview frame

	PreviewSize    int    `koanf:"preview_size"`    // max preview side, 0 keeps frame size
	PreviewPalette string `koanf:"preview_palette"` // plan9, dominant or kmeans
	PreviewColors  int    `koanf:"preview_colors"`  // adaptive palette size
}

// Load reads and validates the config file at path.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), parserFor(path)); err != nil {
		return nil, fmt.Errorf("config: load %s: %w", path, err)
	}

	cfg, err := fromKoanf(k)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parserFor(path string) koanf.Parser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return toml.Parser()
	case ".yaml", ".yml":
		return YAML()
	default:
		return CFG()
	}
}

func fromKoanf(k *koanf.Koanf) (*Config, error) {
	cfg := &Config{
		OutputImage:  DefaultOutputImage,
		ImagePath:    DefaultImagePath,
		PixelFormat:  DefaultPixelFormat,
		MaxSize:      DefaultMaxSize,
		PreviewDelay: DefaultPreviewDelay,

		PreviewColors: DefaultPreviewColor,
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	// Keys present with an empty value fall back to their default.
	if cfg.OutputImage == "" {
		cfg.OutputImage = DefaultOutputImage
	}
	if cfg.ImagePath == "" {
		cfg.ImagePath = DefaultImagePath
	}
	if cfg.PixelFormat == "" {
		cfg.PixelFormat = DefaultPixelFormat
	}

	cfg.InputImages = nonBlank(listValue(k, "input_image"))

	for i, s := range nonBlank(listValue(k, "frame")) {
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, &FieldError{Field: "frame", Reason: fmt.Sprintf("entry %d: %q is not an integer", i, s)}
		}
		cfg.Frames = append(cfg.Frames, n)
	}

	for i, s := range listValue(k, "alpha") {
		if s == "" {
			cfg.Alpha = append(cfg.Alpha, sequence.Multiplier{})
			continue
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, &FieldError{Field: "alpha", Reason: fmt.Sprintf("entry %d: %q is not a number", i, s)}
		}
		cfg.Alpha = append(cfg.Alpha, sequence.Alpha(v))
	}
	return cfg, nil
}

// listValue reads key as a list. Strings are split on ';', ',' and
// whitespace; arrays keep their entries, including blank ones.
func listValue(k *koanf.Koanf, key string) []string {
	switch v := k.Get(key).(type) {
	case nil:
		return nil
	case string:
		return splitList(v)
	case []interface{}:
		out := make([]string, len(v))
		for i, e := range v {
			if e != nil {
				out[i] = strings.TrimSpace(fmt.Sprint(e))
			}
		}
		return out
	case []string:
		out := make([]string, len(v))
		for i, e := range v {
			out[i] = strings.TrimSpace(e)
		}
		return out
	default:
		return []string{fmt.Sprint(v)}
	}
}

func splitList(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ';' || r == ',' || r == ' ' || r == '\t'
	})
}

func nonBlank(list []string) []string {
	out := list[:0]
	for _, s := range list {
		if s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Validate checks settings that do not need any image to be read.
func (c *Config) Validate() error {
	if len(c.InputImages) == 0 {
		return ErrNoInputs
	}
	if _, err := c.Format(); err != nil {
		return err
	}
	if _, err := c.PackOptions(); err != nil {
		return err
	}
	if _, err := c.EasingFunc(); err != nil {
		return err
	}
	if _, err := c.PreviewOptions(); err != nil {
		return err
	}
	return c.Plan().Validate()
}

// Plan returns the keyframe plan described by the config.
func (c *Config) Plan() sequence.Plan {
	return sequence.Plan{
		Sources: c.InputImages,
		Frames:  c.Frames,
		Alpha:   c.Alpha,
	}
}

// Format returns the pixel format frames are normalized to.
func (c *Config) Format() (pixel.Format, error) {
	f, err := pixel.ParseFormat(c.PixelFormat)
	if err != nil {
		return 0, &FieldError{Field: "pixel_format", Reason: err.Error()}
	}
	return f, nil
}

// EasingFunc returns the blend curve for synthesized frames. Nil means
// linear.
func (c *Config) EasingFunc() (sequence.EasingFunc, error) {
	fn, err := sequence.ParseEasing(c.Easing)
	if err != nil {
		return nil, &FieldError{Field: "easing", Reason: err.Error()}
	}
	return fn, nil
}

// PreviewOptions returns the animated preview settings.
func (c *Config) PreviewOptions() (preview.Options, error) {
	opts := preview.Options{
		Delay:   c.PreviewDelay,
		MaxSide: c.PreviewSize,
		Colors:  c.PreviewColors,
	}
	m, err := preview.ParseMethod(c.PreviewPalette)
	if err != nil {
		return opts, &FieldError{Field: "preview_palette", Reason: err.Error()}
	}
	opts.Palette = m

	switch {
	case opts.Delay < 0:
		return opts, &FieldError{Field: "preview_delay", Reason: "must be non-negative"}
	case opts.MaxSide < 0:
		return opts, &FieldError{Field: "preview_size", Reason: "must be non-negative"}
	}
	if err := opts.Validate(); err != nil {
		return opts, &FieldError{Field: "preview_colors", Reason: "must be within [2, 256]"}
	}
	return opts, nil
}

// PackOptions returns the atlas layout options.
func (c *Config) PackOptions() (pack.Options, error) {
	opts := pack.DefaultOptions()
	opts.Padding = c.Padding
	opts.MaxSize = c.MaxSize
	if c.PowerOfTwo != nil {
		opts.PowerOfTwo = *c.PowerOfTwo
	}

	if c.Background != "" {
		col, err := colorful.Hex(c.Background)
		if err != nil {
			return opts, &FieldError{Field: "background", Reason: err.Error()}
		}
		opts.Background = pixel.Color{R: col.R, G: col.G, B: col.B}
	}
	if c.BackgroundAlpha < 0 || c.BackgroundAlpha > 1 {
		return opts, &FieldError{Field: "background_alpha", Reason: "must be within [0, 1]"}
	}
	opts.Background.A = c.BackgroundAlpha

	if err := opts.Validate(); err != nil {
		var oe *pack.OptionsError
		if errors.As(err, &oe) {
			return opts, &FieldError{Field: snakeCase(oe.Field), Reason: oe.Reason}
		}
		return opts, err
	}
	return opts, nil
}

// OutputPath returns where the atlas image is written.
func (c *Config) OutputPath() string {
	return c.resolve(c.OutputImage)
}

// MetadataPath returns where placement metadata is written, or "".
func (c *Config) MetadataPath() string {
	return c.resolve(c.Metadata)
}

// PreviewPath returns where the animated preview is written, or "".
func (c *Config) PreviewPath() string {
	return c.resolve(c.Preview)
}

// resolve places relative output names under ImagePath.
func (c *Config) resolve(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.ImagePath, name)
}
