package marker

import (
	"image"
	"image/color"
	"log/slog"

	"golang.org/x/image/draw"
)

// DefaultFamily is the tag family the patterns imitate. It is carried for
// logging only and does not change the rendered image.
const DefaultFamily = "tag36h11"

// frameUnits is the width of the black frame around the data cells.
const frameUnits = 1

var (
	Black = color.Gray{Y: 0}
	White = color.Gray{Y: 255}
)

// Geometry describes how a requested pixel size maps onto the tag grid.
type Geometry struct {
	Border int // white margin in units
	Units  int // logical units per side, margin included
	Unit   int // pixels per unit
	Side   int // pixels per side, always Unit*Units
}

// Units returns the number of logical units along one side of a tag with
// the given margin: data cells, frame and margin on both sides.
func Units(border int) int {
	return GridSize + 2*frameUnits + 2*border
}

// Layout computes the geometry for a requested size. The unit size is
// truncated, so Side may be smaller than size. A size too small for one
// pixel per unit yields a zero Side. A negative border is treated as zero.
func Layout(size, border int) Geometry {
	if border < 0 {
		border = 0
	}
	units := Units(border)
	unit := size / units
	return Geometry{
		Border: border,
		Units:  units,
		Unit:   unit,
		Side:   unit * units,
	}
}

// FrameOrigin returns the pixel offset of the frame's top-left corner.
func (g Geometry) FrameOrigin() image.Point {
	off := g.Border * g.Unit
	return image.Pt(off, off)
}

// DataOrigin returns the pixel offset of the top-left data cell.
func (g Geometry) DataOrigin() image.Point {
	off := (g.Border + frameUnits) * g.Unit
	return image.Pt(off, off)
}

// FillBlock paints the unit-sized block at (row, col), counted in units
// from origin, with c.
func FillBlock(img *image.Gray, origin image.Point, row, col, unit int, c color.Gray) {
	fillRect(img, blockRect(origin, row, col, unit), c)
}

func blockRect(origin image.Point, row, col, unit int) image.Rectangle {
	p := origin.Add(image.Pt(col*unit, row*unit))
	return image.Rectangle{Min: p, Max: p.Add(image.Pt(unit, unit))}
}

func fillRect(img *image.Gray, r image.Rectangle, c color.Gray) {
	draw.Draw(img, r, image.NewUniform(c), image.Point{}, draw.Src)
}

// Renderer draws tags into grayscale images.
type Renderer struct {
	family string
	log    *slog.Logger
}

// NewRenderer returns a Renderer. An empty family defaults to
// DefaultFamily and a nil logger to slog.Default().
func NewRenderer(family string, log *slog.Logger) *Renderer {
	if family == "" {
		family = DefaultFamily
	}
	if log == nil {
		log = slog.Default()
	}
	return &Renderer{family: family, log: log}
}

// Family returns the tag family name the renderer reports.
func (r *Renderer) Family() string {
	return r.family
}

// Render draws the tag for id at the requested size with border units of
// white margin. IDs without a pattern are drawn with the pattern of ID 0
// and a warning is logged.
func (r *Renderer) Render(id, size, border int) *image.Gray {
	g := Layout(size, border)
	img := image.NewGray(image.Rect(0, 0, g.Side, g.Side))
	fillRect(img, img.Bounds(), White)

	pattern, ok := Lookup(id)
	if !ok {
		r.log.Warn("tag id has no predefined pattern, using generic pattern",
			"id", id, "family", r.family, "fallback_id", 0)
	}

	drawFrame(img, g)

	origin := g.DataOrigin()
	for row := 0; row < GridSize; row++ {
		for col := 0; col < GridSize; col++ {
			if pattern[row][col] == 0 {
				FillBlock(img, origin, row, col, g.Unit, Black)
			}
		}
	}
	return img
}

// drawFrame paints the black ring one unit wide just inside the margin.
func drawFrame(img *image.Gray, g Geometry) {
	start := g.FrameOrigin().X
	end := start + (GridSize+2*frameUnits)*g.Unit
	w := frameUnits * g.Unit

	fillRect(img, image.Rect(start, start, end, start+w), Black) // top
	fillRect(img, image.Rect(start, end-w, end, end), Black)     // bottom
	fillRect(img, image.Rect(start, start, start+w, end), Black) // left
	fillRect(img, image.Rect(end-w, start, end, end), Black)     // right
}
