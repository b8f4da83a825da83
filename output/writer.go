package output

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"os"
	"path/filepath"
)

// File describes an image written to disk.
type File struct {
	Path   string
	Format Format
	Width  int
	Height int
	Bytes  int
	SHA256 string
}

// Writer writes encoded images into directories, creating them as needed.
type Writer struct {
	format Format
}

// NewWriter returns a Writer that encodes in format f.
func NewWriter(f Format) *Writer {
	return &Writer{format: f}
}

// Format returns the format the writer encodes in.
func (w *Writer) Format() Format {
	return w.format
}

// FileName returns base plus the writer's extension, e.g. "tag_3.png".
func (w *Writer) FileName(base string) string {
	return base + w.format.Ext()
}

// Write encodes img and stores it as dir/base+ext.
func (w *Writer) Write(dir, base string, img image.Image) (*File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir %s: %w", dir, err)
	}

	var buf bytes.Buffer
	if err := Encode(&buf, img, w.format); err != nil {
		return nil, err
	}

	path := filepath.Join(dir, w.FileName(base))
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", path, err)
	}

	sum := sha256.Sum256(buf.Bytes())
	b := img.Bounds()
	return &File{
		Path:   path,
		Format: w.format,
		Width:  b.Dx(),
		Height: b.Dy(),
		Bytes:  buf.Len(),
		SHA256: hex.EncodeToString(sum[:]),
	}, nil
}

// ReadImage opens and decodes the image at path.
func ReadImage(path string) (image.Image, Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	img, format, err := Decode(f)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", path, err)
	}
	return img, format, nil
}
