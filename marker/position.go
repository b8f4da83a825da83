package marker

// Position names where a marker sits on the board.
type Position string

const (
	TopLeft      Position = "top-left"
	TopCenter    Position = "top-center"
	TopRight     Position = "top-right"
	RightCenter  Position = "right-center"
	BottomRight  Position = "bottom-right"
	BottomCenter Position = "bottom-center"
	BottomLeft   Position = "bottom-left"
	LeftCenter   Position = "left-center"
)

// Clockwise walk around the board starting at the top-left corner.
var positions = [Count]Position{
	TopLeft,
	TopCenter,
	TopRight,
	RightCenter,
	BottomRight,
	BottomCenter,
	BottomLeft,
	LeftCenter,
}

var positionLabels = map[Position]string{
	TopLeft:      "Top-Left",
	TopCenter:    "Top-Center",
	TopRight:     "Top-Right",
	RightCenter:  "Right-Center",
	BottomRight:  "Bottom-Right",
	BottomCenter: "Bottom-Center",
	BottomLeft:   "Bottom-Left",
	LeftCenter:   "Left-Center",
}

// PositionOf returns the board position for id, or "" if id is unknown.
func PositionOf(id int) Position {
	if id < 0 || id >= Count {
		return ""
	}
	return positions[id]
}

// Label returns the human-readable position label for id.
func Label(id int) string {
	if l, ok := positionLabels[PositionOf(id)]; ok {
		return l
	}
	return "Unknown"
}
