// Package history tracks folder navigation with back/forward support.
//
// The first entry is always the root path and can never be truncated away.
// Navigating to a path different from the one under the cursor drops any
// forward entries and appends; Back and Forward only move the cursor.
package history

import (
	"github.com/GriffinCanCode/filedeck/internal/domain/tree"
)

// History is a browser-style list of visited paths plus a cursor.
type History struct {
	entries []tree.Path
	cursor  int
}

// New returns a history positioned at the root.
func New() *History {
	return &History{entries: []tree.Path{tree.Root}}
}

// NavigateTo records path as the current location. It returns true when a
// new entry was appended.
func (h *History) NavigateTo(path tree.Path) bool {
	if h.entries[h.cursor].Equal(path) {
		return false
	}
	h.entries = append(h.entries[:h.cursor+1], path.Clone())
	h.cursor++
	return true
}

// Back moves the cursor one entry towards the root. At the first entry it
// does nothing and reports false.
func (h *History) Back() (tree.Path, bool) {
	if !h.CanBack() {
		return h.Current(), false
	}
	h.cursor--
	return h.Current(), true
}

// Forward moves the cursor one entry forward, if there is one.
func (h *History) Forward() (tree.Path, bool) {
	if !h.CanForward() {
		return h.Current(), false
	}
	h.cursor++
	return h.Current(), true
}

// Current returns a copy of the path under the cursor.
func (h *History) Current() tree.Path {
	return h.entries[h.cursor].Clone()
}

// CanBack reports whether Back would move.
func (h *History) CanBack() bool {
	return h.cursor > 0
}

// CanForward reports whether Forward would move.
func (h *History) CanForward() bool {
	return h.cursor < len(h.entries)-1
}

// Cursor returns the index of the current entry.
func (h *History) Cursor() int {
	return h.cursor
}

// Len returns the number of entries.
func (h *History) Len() int {
	return len(h.entries)
}

// Entries returns a copy of every recorded path.
func (h *History) Entries() []tree.Path {
	out := make([]tree.Path, len(h.entries))
	for i, p := range h.entries {
		out[i] = p.Clone()
	}
	return out
}

// Reset returns to a single root entry.
func (h *History) Reset() {
	h.entries = []tree.Path{tree.Root}
	h.cursor = 0
}
