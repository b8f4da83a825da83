package marker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLabel(t *testing.T) {
	tests := []struct {
		id       int
		position Position
		label    string
	}{
		{0, TopLeft, "Top-Left"},
		{1, TopCenter, "Top-Center"},
		{2, TopRight, "Top-Right"},
		{3, RightCenter, "Right-Center"},
		{4, BottomRight, "Bottom-Right"},
		{5, BottomCenter, "Bottom-Center"},
		{6, BottomLeft, "Bottom-Left"},
		{7, LeftCenter, "Left-Center"},
		{8, "", "Unknown"},
		{-1, "", "Unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.position, PositionOf(tt.id), "id %d", tt.id)
		assert.Equal(t, tt.label, Label(tt.id), "id %d", tt.id)
	}
}

func TestIDs(t *testing.T) {
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7}, IDs())
}
