package compositor

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegionAddSubtract(t *testing.T) {
	var r Region
	r.Add(image.Rect(0, 0, 10, 10))
	r.Subtract(image.Rect(5, 5, 10, 10))

	assert.True(t, r.Contains(image.Pt(2, 2)))
	assert.False(t, r.Contains(image.Pt(7, 7)))
	assert.False(t, r.Contains(image.Pt(12, 2)))

	// Re-adding part of the hole brings it back; order matters.
	r.Add(image.Rect(6, 6, 8, 8))
	assert.True(t, r.Contains(image.Pt(7, 7)))
	assert.False(t, r.Contains(image.Pt(9, 9)))
}

func TestRegionEmpty(t *testing.T) {
	var r Region
	assert.True(t, r.Empty())
	assert.True(t, (*Region)(nil).Empty())

	r.Add(image.Rect(0, 0, 1, 1))
	assert.False(t, r.Empty())
}

func TestRegionClone(t *testing.T) {
	var r Region
	r.Add(image.Rect(0, 0, 10, 10))

	c := r.Clone()
	r.Subtract(image.Rect(0, 0, 10, 10))

	assert.True(t, c.Contains(image.Pt(5, 5)))
	assert.False(t, r.Contains(image.Pt(5, 5)))
	assert.Nil(t, (*Region)(nil).Clone())
}
