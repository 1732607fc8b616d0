package command

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/GriffinCanCode/filedeck/internal/domain/tree"
)

func TestSelection(t *testing.T) {
	s := NewSelection()
	assert.Equal(t, 0, s.Len())

	assert.True(t, s.Toggle(5))
	assert.True(t, s.Toggle(2))
	assert.Equal(t, []tree.ID{2, 5}, s.IDs())

	assert.False(t, s.Toggle(5))
	assert.False(t, s.Contains(5))
	assert.Equal(t, 1, s.Len())

	s.Set(9, 7, 8)
	assert.Equal(t, []tree.ID{7, 8, 9}, s.IDs())

	s.Remove(8)
	s.Retain([]tree.ID{9, 100})
	assert.Equal(t, []tree.ID{9}, s.IDs())

	s.Clear()
	assert.Empty(t, s.IDs())
}

func TestSelectionLargeIDs(t *testing.T) {
	s := NewSelection()
	big := tree.ID(1_760_000_000_000)
	s.Toggle(big)
	s.Toggle(big + 1)
	assert.Equal(t, []tree.ID{big, big + 1}, s.IDs())
}
