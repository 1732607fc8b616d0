package tree

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownKind is returned when a serialized node has an unrecognised type tag.
var ErrUnknownKind = errors.New("unknown node type")

type folderWire struct {
	ID       ID     `json:"id"`
	Type     Kind   `json:"type"`
	Name     string `json:"name"`
	Children Nodes  `json:"children"`
}

type fileWire struct {
	ID      ID      `json:"id"`
	Type    Kind    `json:"type"`
	Name    string  `json:"name"`
	Content Payload `json:"content"`
}

// MarshalJSON encodes {id, type:"folder", name, children}.
func (f *Folder) MarshalJSON() ([]byte, error) {
	children := f.Children
	if children == nil {
		children = []Node{}
	}
	return json.Marshal(folderWire{ID: f.ID, Type: KindFolder, Name: f.Name, Children: children})
}

// MarshalJSON encodes {id, type:"file", name, content}.
func (f *File) MarshalJSON() ([]byte, error) {
	return json.Marshal(fileWire{ID: f.ID, Type: KindFile, Name: f.Name, Content: f.Content})
}

// Nodes is a sequence of nodes that knows how to decode the tagged wire form.
type Nodes []Node

// UnmarshalJSON decodes a JSON array of tagged nodes.
func (ns *Nodes) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Nodes, 0, len(raw))
	for i, item := range raw {
		n, err := UnmarshalNode(item)
		if err != nil {
			return fmt.Errorf("node %d: %w", i, err)
		}
		out = append(out, n)
	}
	*ns = out
	return nil
}

// UnmarshalNode decodes a single tagged node.
func UnmarshalNode(data []byte) (Node, error) {
	var head struct {
		Type Kind `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, err
	}

	switch head.Type {
	case KindFolder:
		var w folderWire
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, err
		}
		children := []Node(w.Children)
		if children == nil {
			children = []Node{}
		}
		return &Folder{ID: w.ID, Name: w.Name, Children: children}, nil
	case KindFile:
		var w fileWire
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, err
		}
		return &File{ID: w.ID, Name: w.Name, Content: w.Content}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, head.Type)
	}
}

// MarshalNodes encodes a node sequence as a JSON array.
func MarshalNodes(nodes []Node) ([]byte, error) {
	if nodes == nil {
		nodes = []Node{}
	}
	return json.Marshal(nodes)
}

// UnmarshalNodes decodes a JSON array of tagged nodes.
func UnmarshalNodes(data []byte) ([]Node, error) {
	var ns Nodes
	if err := json.Unmarshal(data, &ns); err != nil {
		return nil, err
	}
	return []Node(ns), nil
}
