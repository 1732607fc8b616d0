package tree

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Match is a search hit.
type Match struct {
	Node Node `json:"node"`
	// Parent is the path of the folder containing the node.
	Parent Path `json:"parent"`
	// NamePath is the slash-joined names from the root to the node.
	NamePath string `json:"name_path"`
}

// Search matches a doublestar pattern against every node's name path
// ("Docs/2024/report.txt"). A pattern without a slash matches base names
// at any depth.
func (s *Store) Search(pattern string) ([]Match, error) {
	pattern = strings.TrimSpace(pattern)
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, doublestar.ErrBadPattern)
	}
	if !strings.Contains(pattern, "/") {
		pattern = "**/" + pattern
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := []Match{}
	searchIn(s.root, Root, "", pattern, &matches)
	return matches, nil
}

func searchIn(nodes []Node, parent Path, prefix, pattern string, out *[]Match) {
	for _, n := range nodes {
		namePath := n.NodeName()
		if prefix != "" {
			namePath = prefix + "/" + namePath
		}
		if ok, _ := doublestar.Match(pattern, namePath); ok {
			*out = append(*out, Match{Node: Clone(n), Parent: parent.Clone(), NamePath: namePath})
		}
		if f, isFolder := n.(*Folder); isFolder {
			searchIn(f.Children, parent.Child(f.ID), namePath, pattern, out)
		}
	}
}
