package pack

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Metadata is the JSON document written next to an atlas image.
type Metadata struct {
	Image  string   `json:"image"`
	Width  int      `json:"width"`
	Height int      `json:"height"`
	Format string   `json:"format"`
	Frames []Region `json:"frames"`
}

// Metadata describes the atlas for an image saved under imageName.
func (a *Atlas) Metadata(imageName string) Metadata {
	return Metadata{
		Image:  imageName,
		Width:  a.Image.Width(),
		Height: a.Image.Height(),
		Format: a.Image.Format().String(),
		Frames: a.Regions,
	}
}

// WriteMetadata writes the atlas metadata as indented JSON to w.
func (a *Atlas) WriteMetadata(w io.Writer, imageName string) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(a.Metadata(imageName)); err != nil {
		return fmt.Errorf("pack: encode metadata: %w", err)
	}
	return nil
}

// SaveMetadata writes the atlas metadata to path.
func (a *Atlas) SaveMetadata(path, imageName string) error {
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("pack: create metadata file: %w", err)
	}
	if err := a.WriteMetadata(f, imageName); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
