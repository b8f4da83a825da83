// Package qr wraps the go-qrcode encoder to produce the QR variant of the
// board markers, and decodes them back for verification.
package qr

import (
	"fmt"
	"image"

	"github.com/skip2/go-qrcode"
	"golang.org/x/image/draw"
)

const (
	// ModuleSize is the side of one QR module in pixels.
	ModuleSize = 10
	// QuietZone is the white border around the symbol, in modules. go-qrcode
	// always uses this width when its border is enabled.
	QuietZone = 4
	// Level is the error recovery level, roughly 30% of codewords.
	Level = qrcode.Highest
)

// Payload returns the text encoded in the QR marker for id.
func Payload(id int) string {
	return fmt.Sprintf("MARKER-%d", id)
}

// Encode renders payload as a black on white QR code with ModuleSize pixel
// modules and a QuietZone module border. The smallest version that fits
// the payload is chosen.
func Encode(payload string) (*image.RGBA, error) {
	code, err := qrcode.New(payload, Level)
	if err != nil {
		return nil, fmt.Errorf("encode qr %q: %w", payload, err)
	}

	// A negative size asks go-qrcode for a fixed pixel width per module.
	src := code.Image(-ModuleSize)
	img := image.NewRGBA(src.Bounds())
	draw.Draw(img, img.Bounds(), src, src.Bounds().Min, draw.Src)
	return img, nil
}

// EncodeMarker renders the QR marker for id.
func EncodeMarker(id int) (*image.RGBA, error) {
	return Encode(Payload(id))
}
