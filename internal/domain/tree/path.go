package tree

import (
	"fmt"
	"strconv"
	"strings"
)

// Path is the sequence of folder ids from the root to a folder.
// The empty path denotes the root.
type Path []ID

// Root is the path of the top-level container.
var Root = Path{}

// Child returns a new path extended by id. The receiver is never modified.
func (p Path) Child(id ID) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, id)
}

// Parent returns the path without its last segment. Root is its own parent.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return Root
	}
	out := make(Path, len(p)-1)
	copy(out, p[:len(p)-1])
	return out
}

// Equal reports whether two paths name the same folder.
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// Contains reports whether id is one of the path's segments.
func (p Path) Contains(id ID) bool {
	for _, seg := range p {
		if seg == id {
			return true
		}
	}
	return false
}

// IsRoot reports whether the path denotes the root.
func (p Path) IsRoot() bool {
	return len(p) == 0
}

// Clone returns an independent copy.
func (p Path) Clone() Path {
	out := make(Path, len(p))
	copy(out, p)
	return out
}

// String renders the path as slash-separated ids ("" for root).
func (p Path) String() string {
	parts := make([]string, len(p))
	for i, id := range p {
		parts[i] = strconv.FormatInt(int64(id), 10)
	}
	return strings.Join(parts, "/")
}

// ParsePath parses the String form. Empty input and "/" yield Root.
func ParsePath(s string) (Path, error) {
	s = strings.Trim(strings.TrimSpace(s), "/")
	if s == "" {
		return Root, nil
	}
	parts := strings.Split(s, "/")
	out := make(Path, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid path segment %q: %w", part, err)
		}
		out = append(out, ID(v))
	}
	return out, nil
}
