package tree

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/filedeck/internal/shared/id"
)

var (
	ErrFolderNotFound = errors.New("folder not found")
	ErrDuplicateID    = errors.New("duplicate node id")
	ErrNilNode        = errors.New("node cannot be nil")
)

const (
	DefaultFileName   = "new_file.txt"
	DefaultFolderName = "New Folder"
)

// IDSource issues fresh node ids.
type IDSource interface {
	Next() int64
	Observe(v int64)
}

// Location is the result of FindWithParent: the node and the path of the
// folder whose children contain it.
type Location struct {
	Node   Node
	Parent Path
	Index  int
}

// Destination is a folder that can receive a move.
type Destination struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
	// Path is the path of the folder that contains this destination.
	Path Path `json:"path"`
}

// Target returns the path to move into.
func (d Destination) Target() Path {
	return d.Path.Child(d.ID)
}

// Stats summarises the tree.
type Stats struct {
	Folders      int `json:"folders"`
	Files        int `json:"files"`
	MaxDepth     int `json:"max_depth"`
	PayloadBytes int `json:"payload_bytes"`
}

// Option customises a Store.
type Option func(*Store)

// WithIDSource sets the id source used by CreateFile and CreateFolder.
func WithIDSource(src IDSource) Option {
	return func(s *Store) {
		s.ids = src
	}
}

// WithLogger sets a custom logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Store owns the tree and serialises access to it.
type Store struct {
	mu     sync.RWMutex
	root   []Node
	ids    IDSource
	logger *zap.Logger
}

// hit is an internal lookup result pointing into live storage.
type hit struct {
	node      Node
	container *[]Node
	index     int
	parent    Path
}

// NewStore creates a store holding a copy of nodes.
func NewStore(nodes []Node, opts ...Option) *Store {
	s := &Store{
		root:   CloneAll(nodes),
		ids:    id.NewSequence(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.ids.Observe(int64(MaxID(s.root)))
	return s
}

// IDs returns the store's id source.
func (s *Store) IDs() IDSource {
	return s.ids
}

// Resolve returns a copy of the contents of the folder at path. Any
// segment that does not name a folder yields an empty result.
func (s *Store) Resolve(path Path) []Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := s.containerAt(path)
	if c == nil {
		return []Node{}
	}
	return CloneAll(*c)
}

// Exists reports whether every segment of path resolves to a folder.
func (s *Store) Exists(path Path) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.containerAt(path) != nil
}

// FindWithParent locates id depth-first from the root.
func (s *Store) FindWithParent(nodeID ID) (Location, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.locate(nodeID)
	if !ok {
		return Location{}, false
	}
	return Location{Node: Clone(h.node), Parent: h.parent.Clone(), Index: h.index}, true
}

// Find returns a copy of the node with the given id.
func (s *Store) Find(nodeID ID) (Node, bool) {
	loc, ok := s.FindWithParent(nodeID)
	return loc.Node, ok
}

// Insert appends a copy of node to the folder at path.
func (s *Store) Insert(path Path, node Node) error {
	if node == nil {
		return ErrNilNode
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.containerAt(path)
	if c == nil {
		return fmt.Errorf("%w: %s", ErrFolderNotFound, path)
	}

	incoming := IDs([]Node{node})
	if err := checkUnique(incoming); err != nil {
		return err
	}
	existing := make(map[ID]struct{})
	for _, v := range IDs(s.root) {
		existing[v] = struct{}{}
	}
	for _, v := range incoming {
		if _, dup := existing[v]; dup {
			return fmt.Errorf("%w: %d", ErrDuplicateID, v)
		}
	}

	*c = append(*c, Clone(node))
	s.observe(incoming)
	return nil
}

// Delete removes every listed id it can find and returns how many were
// removed. Unknown ids are skipped. Deleting a folder drops its subtree.
func (s *Store) Delete(ids ...ID) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for _, v := range ids {
		h, ok := s.locate(v)
		if !ok {
			continue
		}
		*h.container = slices.Delete(*h.container, h.index, h.index+1)
		removed++
	}
	return removed
}

// Move detaches the node and appends it to the folder at dest. It reports
// false and changes nothing when the node or destination does not resolve,
// when the node already lives in dest, or when dest lies inside the node.
func (s *Store) Move(nodeID ID, dest Path) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.locate(nodeID)
	if !ok {
		return false
	}
	if dest.Contains(nodeID) {
		s.logger.Debug("refusing to move node into its own subtree",
			zap.Int64("id", int64(nodeID)),
			zap.String("dest", dest.String()))
		return false
	}
	target := s.containerAt(dest)
	if target == nil || target == h.container {
		return false
	}

	*h.container = slices.Delete(*h.container, h.index, h.index+1)
	*target = append(*target, h.node)
	return true
}

// Rename sets the node's name to the trimmed newName. Empty names are
// discarded and reported as false.
func (s *Store) Rename(nodeID ID, newName string) bool {
	name := strings.TrimSpace(newName)
	if name == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.locate(nodeID)
	if !ok {
		return false
	}
	switch n := h.node.(type) {
	case *Folder:
		n.Name = name
	case *File:
		n.Name = name
	}
	return true
}

// SetContent replaces a file's payload. Folders are left untouched.
func (s *Store) SetContent(nodeID ID, content Payload) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.locate(nodeID)
	if !ok {
		return false
	}
	f, isFile := h.node.(*File)
	if !isFile {
		return false
	}
	f.Content = content
	return true
}

// ListDestinations returns every folder except excludeID and its subtree,
// in pre-order, each with the path of its containing folder.
func (s *Store) ListDestinations(excludeID ID) []Destination {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dests := []Destination{}
	Walk(s.root, func(n Node, parent Path) bool {
		f, ok := n.(*Folder)
		if !ok || f.ID == excludeID {
			return false
		}
		dests = append(dests, Destination{ID: f.ID, Name: f.Name, Path: parent})
		return true
	})
	return dests
}

// CreateFile allocates an id and appends a new file to the folder at path.
func (s *Store) CreateFile(path Path, name string, content Payload) (*File, error) {
	if strings.TrimSpace(name) == "" {
		name = DefaultFileName
	}
	f := NewFile(ID(s.ids.Next()), strings.TrimSpace(name), content)
	if err := s.Insert(path, f); err != nil {
		return nil, err
	}
	return f, nil
}

// CreateFolder allocates an id and appends a new empty folder at path.
func (s *Store) CreateFolder(path Path, name string) (*Folder, error) {
	if strings.TrimSpace(name) == "" {
		name = DefaultFolderName
	}
	f := NewFolder(ID(s.ids.Next()), strings.TrimSpace(name))
	if err := s.Insert(path, f); err != nil {
		return nil, err
	}
	return f, nil
}

// Replace swaps the whole tree for a copy of nodes.
func (s *Store) Replace(nodes []Node) error {
	if err := Validate(nodes); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.root = CloneAll(nodes)
	s.observe(IDs(s.root))
	return nil
}

// Snapshot returns a deep copy of the root sequence.
func (s *Store) Snapshot() []Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return CloneAll(s.root)
}

// Len returns the number of root entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.root)
}

// Breadcrumb renders path as "Home / A / B". Unresolved segments render
// as empty names and everything after them resolves against nothing.
func (s *Store) Breadcrumb(path Path) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var b strings.Builder
	b.WriteString("Home")
	level := s.root
	for _, seg := range path {
		var found *Folder
		for _, n := range level {
			if f, ok := n.(*Folder); ok && f.ID == seg {
				found = f
				break
			}
		}
		b.WriteString(" / ")
		if found == nil {
			level = nil
			continue
		}
		b.WriteString(found.Name)
		level = found.Children
	}
	return b.String()
}

// Stats walks the tree and counts folders, files, depth and payload size.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var st Stats
	Walk(s.root, func(n Node, parent Path) bool {
		if depth := len(parent) + 1; depth > st.MaxDepth {
			st.MaxDepth = depth
		}
		switch v := n.(type) {
		case *Folder:
			st.Folders++
		case *File:
			st.Files++
			st.PayloadBytes += v.Content.Len()
		}
		return true
	})
	return st
}

// Validate checks that ids are unique across nodes.
func Validate(nodes []Node) error {
	for _, n := range nodes {
		if n == nil {
			return ErrNilNode
		}
		if f, ok := n.(*Folder); ok {
			if err := Validate(f.Children); err != nil {
				return err
			}
		}
	}
	return checkUnique(IDs(nodes))
}

// ============================================================================
// Internal helpers (callers hold s.mu)
// ============================================================================

// containerAt returns the live children slice of the folder at path, or
// nil if any segment fails to resolve to a folder.
func (s *Store) containerAt(path Path) *[]Node {
	c := &s.root
	for _, seg := range path {
		var next *[]Node
		for _, n := range *c {
			if f, ok := n.(*Folder); ok && f.ID == seg {
				next = &f.Children
				break
			}
		}
		if next == nil {
			return nil
		}
		c = next
	}
	return c
}

func (s *Store) locate(nodeID ID) (hit, bool) {
	return locateIn(&s.root, Root, nodeID)
}

func locateIn(c *[]Node, parent Path, nodeID ID) (hit, bool) {
	for i, n := range *c {
		if n.NodeID() == nodeID {
			return hit{node: n, container: c, index: i, parent: parent}, true
		}
		if f, ok := n.(*Folder); ok {
			if h, found := locateIn(&f.Children, parent.Child(f.ID), nodeID); found {
				return h, true
			}
		}
	}
	return hit{}, false
}

func (s *Store) observe(ids []ID) {
	for _, v := range ids {
		s.ids.Observe(int64(v))
	}
}

func checkUnique(ids []ID) error {
	seen := make(map[ID]struct{}, len(ids))
	for _, v := range ids {
		if _, dup := seen[v]; dup {
			return fmt.Errorf("%w: %d", ErrDuplicateID, v)
		}
		seen[v] = struct{}{}
	}
	return nil
}
