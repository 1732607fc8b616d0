package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/filedeck/internal/domain/tree"
)

func TestNewStartsAtRoot(t *testing.T) {
	h := New()

	assert.True(t, h.Current().IsRoot())
	assert.Equal(t, 1, h.Len())
	assert.False(t, h.CanBack())
	assert.False(t, h.CanForward())
}

func TestBackForward(t *testing.T) {
	h := New()
	p1 := tree.Path{1}
	p2 := tree.Path{1, 2}

	require.True(t, h.NavigateTo(p1))
	require.True(t, h.NavigateTo(p2))

	got, moved := h.Back()
	require.True(t, moved)
	assert.Equal(t, p1, got)

	got, moved = h.Forward()
	require.True(t, moved)
	assert.Equal(t, p2, got)
	assert.Equal(t, 3, h.Len(), "back/forward must not change the list")
}

func TestNavigateSamePathDoesNotAppend(t *testing.T) {
	h := New()

	assert.False(t, h.NavigateTo(tree.Root))
	assert.True(t, h.NavigateTo(tree.Path{5}))
	assert.False(t, h.NavigateTo(tree.Path{5}))
	assert.Equal(t, 2, h.Len())
}

func TestNavigateTruncatesForward(t *testing.T) {
	h := New()
	h.NavigateTo(tree.Path{1})
	h.NavigateTo(tree.Path{1, 2})
	h.NavigateTo(tree.Path{1, 2, 3})

	h.Back()
	h.Back()
	require.Equal(t, tree.Path{1}, h.Current())

	h.NavigateTo(tree.Path{9})
	assert.Equal(t, []tree.Path{tree.Root, {1}, {9}}, h.Entries())
	assert.False(t, h.CanForward())
	assert.Equal(t, 2, h.Cursor())
}

func TestBoundsAreNoOps(t *testing.T) {
	h := New()

	got, moved := h.Back()
	assert.False(t, moved)
	assert.True(t, got.IsRoot())

	h.NavigateTo(tree.Path{1})
	_, moved = h.Forward()
	assert.False(t, moved)
	assert.Equal(t, 1, h.Cursor())
}

func TestRootEntryIsPermanent(t *testing.T) {
	h := New()
	h.NavigateTo(tree.Path{1})
	h.Back()
	h.NavigateTo(tree.Path{2})

	assert.True(t, h.Entries()[0].IsRoot())
	assert.Equal(t, 1, h.Cursor())
}

func TestEntriesAreCopies(t *testing.T) {
	h := New()
	p := tree.Path{1, 2}
	h.NavigateTo(p)
	p[0] = 99

	assert.Equal(t, tree.Path{1, 2}, h.Current())

	entries := h.Entries()
	entries[1][0] = 42
	assert.Equal(t, tree.Path{1, 2}, h.Current())
}

func TestReset(t *testing.T) {
	h := New()
	h.NavigateTo(tree.Path{1})
	h.Reset()

	assert.Equal(t, 1, h.Len())
	assert.True(t, h.Current().IsRoot())
}
