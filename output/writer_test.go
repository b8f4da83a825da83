package output

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checker(side int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, side, side))
	for y := 0; y < side; y++ {
		for x := 0; x < side; x++ {
			if (x+y)%2 == 0 {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return img
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", PNG, false},
		{"png", PNG, false},
		{".PNG", PNG, false},
		{"bmp", BMP, false},
		{"tif", TIFF, false},
		{"TIFF", TIFF, false},
		{"jpeg", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncodeDecodeLossless(t *testing.T) {
	src := checker(16)
	for _, f := range []Format{PNG, BMP, TIFF} {
		t.Run(string(f), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Encode(&buf, src, f))

			img, got, err := Decode(&buf)
			require.NoError(t, err)
			assert.Equal(t, f, got)
			assert.Equal(t, src.Bounds(), img.Bounds())
			for y := 0; y < 16; y++ {
				for x := 0; x < 16; x++ {
					g := color.GrayModel.Convert(img.At(x, y)).(color.Gray)
					require.Equal(t, src.GrayAt(x, y), g, "pixel (%d,%d)", x, y)
				}
			}
		})
	}
}

func TestEncodeUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, Encode(&buf, checker(2), Format("webp")))
}

func TestWriterWrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "markers")
	w := NewWriter(PNG)

	file, err := w.Write(dir, "tag_0", checker(8))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "tag_0.png"), file.Path)
	assert.Equal(t, PNG, file.Format)
	assert.Equal(t, 8, file.Width)
	assert.Equal(t, 8, file.Height)

	data, err := os.ReadFile(file.Path)
	require.NoError(t, err)
	assert.Equal(t, len(data), file.Bytes)
	sum := sha256.Sum256(data)
	assert.Equal(t, hex.EncodeToString(sum[:]), file.SHA256)

	img, f, err := ReadImage(file.Path)
	require.NoError(t, err)
	assert.Equal(t, PNG, f)
	_, isGray := img.(*image.Gray)
	assert.True(t, isGray, "png output of a gray image stays single channel")
}

func TestReadImageMissing(t *testing.T) {
	_, _, err := ReadImage(filepath.Join(t.TempDir(), "nope.png"))
	assert.Error(t, err)
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "image/png", PNG.ContentType())
	assert.Equal(t, "image/bmp", BMP.ContentType())
	assert.Equal(t, "image/tiff", TIFF.ContentType())
	assert.Equal(t, ".tiff", TIFF.Ext())
}
