// Package verify re-reads generated marker files and checks them against
// what the generators are expected to produce.
package verify

import (
	"fmt"
	"image"
	"image/color"
	"path/filepath"

	"github.com/openclaw/markergen/marker"
	"github.com/openclaw/markergen/output"
	"github.com/openclaw/markergen/qr"
)

// Result is the outcome of checking one file.
type Result struct {
	ID     int
	Path   string
	OK     bool
	Detail string
}

func (r Result) String() string {
	status := "ok"
	if !r.OK {
		status = "FAIL"
	}
	if r.Detail == "" {
		return fmt.Sprintf("%-4s %s", status, r.Path)
	}
	return fmt.Sprintf("%-4s %s: %s", status, r.Path, r.Detail)
}

// Failed reports whether any result is not OK.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.OK {
			return true
		}
	}
	return false
}

// Tags checks tag_{id} files in dir: each must decode, have the expected
// side and match a fresh render pixel for pixel.
func Tags(dir string, format output.Format, renderer *marker.Renderer, size, border int, ids []int) []Result {
	results := make([]Result, 0, len(ids))
	for _, id := range ids {
		path := filepath.Join(dir, fmt.Sprintf("tag_%d%s", id, format.Ext()))
		res := Result{ID: id, Path: path}

		img, _, err := output.ReadImage(path)
		if err != nil {
			res.Detail = err.Error()
			results = append(results, res)
			continue
		}

		want := renderer.Render(id, size, border)
		res.Detail = compareGray(want, img)
		res.OK = res.Detail == ""
		results = append(results, res)
	}
	return results
}

// QR checks qr_{id} files in dir: each must decode to the payload for id.
func QR(dir string, format output.Format, ids []int) []Result {
	results := make([]Result, 0, len(ids))
	for _, id := range ids {
		path := filepath.Join(dir, fmt.Sprintf("qr_%d%s", id, format.Ext()))
		res := Result{ID: id, Path: path}

		img, _, err := output.ReadImage(path)
		if err != nil {
			res.Detail = err.Error()
			results = append(results, res)
			continue
		}

		text, err := qr.Decode(img)
		switch {
		case err != nil:
			res.Detail = err.Error()
		case text != qr.Payload(id):
			res.Detail = fmt.Sprintf("decoded %q, want %q", text, qr.Payload(id))
		default:
			res.OK = true
			res.Detail = text
		}
		results = append(results, res)
	}
	return results
}

// compareGray returns "" if got has the bounds and gray levels of want,
// otherwise a description of the first difference.
func compareGray(want *image.Gray, got image.Image) string {
	wb, gb := want.Bounds(), got.Bounds()
	if wb.Size() != gb.Size() {
		return fmt.Sprintf("size %dx%d, want %dx%d", gb.Dx(), gb.Dy(), wb.Dx(), wb.Dy())
	}
	for y := 0; y < wb.Dy(); y++ {
		for x := 0; x < wb.Dx(); x++ {
			g := color.GrayModel.Convert(got.At(gb.Min.X+x, gb.Min.Y+y)).(color.Gray)
			if w := want.GrayAt(wb.Min.X+x, wb.Min.Y+y); g != w {
				return fmt.Sprintf("pixel (%d,%d) is %d, want %d", x, y, g.Y, w.Y)
			}
		}
	}
	return ""
}
