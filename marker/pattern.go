// Package marker rasterizes the simplified AprilTag-style fiducial markers
// used by the board: a white margin, a one unit black frame and a 6x6 grid
// of data cells looked up from a fixed table.
package marker

// GridSize is the number of data cells along each side of a tag.
const GridSize = 6

// Count is the number of marker IDs that have a predefined pattern.
const Count = 8

// Pattern is a grid of data cells where 0 is black and 1 is white.
type Pattern [GridSize][GridSize]uint8

// The grids approximate the 36h11 layout; they are not valid family codes.
var patterns = [Count]Pattern{
	{
		{0, 0, 0, 0, 0, 0},
		{0, 1, 1, 0, 0, 0},
		{0, 1, 1, 1, 0, 0},
		{0, 1, 1, 0, 0, 0},
		{0, 0, 0, 0, 0, 0},
		{0, 0, 0, 0, 1, 0},
	},
	{
		{0, 0, 0, 0, 0, 0},
		{0, 1, 1, 0, 0, 0},
		{0, 1, 1, 1, 0, 0},
		{0, 1, 1, 0, 1, 0},
		{0, 0, 0, 0, 0, 0},
		{0, 0, 0, 0, 1, 0},
	},
	{
		{0, 0, 0, 0, 0, 0},
		{0, 1, 1, 0, 0, 0},
		{0, 1, 1, 1, 0, 0},
		{0, 1, 1, 1, 0, 0},
		{0, 0, 0, 0, 0, 0},
		{0, 0, 0, 0, 1, 0},
	},
	{
		{0, 0, 0, 0, 0, 0},
		{0, 1, 1, 0, 1, 0},
		{0, 1, 1, 1, 0, 0},
		{0, 1, 1, 0, 0, 0},
		{0, 0, 0, 0, 0, 0},
		{0, 0, 0, 0, 1, 0},
	},
	{
		{0, 0, 0, 0, 0, 0},
		{0, 1, 1, 0, 1, 0},
		{0, 1, 1, 1, 0, 0},
		{0, 1, 1, 0, 1, 0},
		{0, 0, 0, 0, 0, 0},
		{0, 0, 0, 0, 1, 0},
	},
	{
		{0, 0, 0, 0, 0, 0},
		{0, 1, 1, 0, 1, 0},
		{0, 1, 1, 1, 0, 0},
		{0, 1, 1, 1, 0, 0},
		{0, 0, 0, 0, 0, 0},
		{0, 0, 0, 0, 1, 0},
	},
	{
		{0, 0, 0, 0, 0, 0},
		{0, 1, 1, 1, 0, 0},
		{0, 1, 1, 1, 0, 0},
		{0, 1, 1, 0, 0, 0},
		{0, 0, 0, 0, 0, 0},
		{0, 0, 0, 0, 1, 0},
	},
	{
		{0, 0, 0, 0, 0, 0},
		{0, 1, 1, 1, 0, 0},
		{0, 1, 1, 1, 0, 0},
		{0, 1, 1, 0, 1, 0},
		{0, 0, 0, 0, 0, 0},
		{0, 0, 0, 0, 1, 0},
	},
}

// Lookup returns the pattern for id. IDs without a pattern get the pattern
// of ID 0 and ok is false.
func Lookup(id int) (p Pattern, ok bool) {
	if id < 0 || id >= Count {
		return patterns[0], false
	}
	return patterns[id], true
}

// IDs returns every marker ID with a predefined pattern, in order.
func IDs() []int {
	ids := make([]int, Count)
	for i := range ids {
		ids[i] = i
	}
	return ids
}
