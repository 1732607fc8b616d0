package command

import (
	"github.com/RoaringBitmap/roaring/roaring64"

	"github.com/GriffinCanCode/filedeck/internal/domain/tree"
)

// Selection is the set of selected node ids. It is not safe for concurrent
// use; the Workspace guards it.
type Selection struct {
	bm *roaring64.Bitmap
}

// NewSelection creates an empty selection.
func NewSelection() *Selection {
	return &Selection{bm: roaring64.New()}
}

// Toggle flips membership of nodeID and reports whether it is now selected.
func (s *Selection) Toggle(nodeID tree.ID) bool {
	if s.bm.CheckedRemove(uint64(nodeID)) {
		return false
	}
	s.bm.Add(uint64(nodeID))
	return true
}

// Set replaces the selection with ids.
func (s *Selection) Set(ids ...tree.ID) {
	s.bm.Clear()
	for _, nid := range ids {
		s.bm.Add(uint64(nid))
	}
}

// Remove drops ids from the selection.
func (s *Selection) Remove(ids ...tree.ID) {
	for _, nid := range ids {
		s.bm.Remove(uint64(nid))
	}
}

// Retain keeps only ids present in keep.
func (s *Selection) Retain(keep []tree.ID) {
	other := roaring64.New()
	for _, nid := range keep {
		other.Add(uint64(nid))
	}
	s.bm.And(other)
}

func (s *Selection) Contains(nodeID tree.ID) bool {
	return s.bm.Contains(uint64(nodeID))
}

// IDs returns the selected ids in ascending order.
func (s *Selection) IDs() []tree.ID {
	raw := s.bm.ToArray()
	out := make([]tree.ID, len(raw))
	for i, v := range raw {
		out[i] = tree.ID(v)
	}
	return out
}

func (s *Selection) Len() int {
	return int(s.bm.GetCardinality())
}

func (s *Selection) Clear() {
	s.bm.Clear()
}
