package tree

import (
	"encoding/base64"
)

// ID identifies a node. Ids are unique across the whole tree.
type ID int64

// Kind discriminates the two node variants on the wire.
type Kind string

const (
	KindFolder Kind = "folder"
	KindFile   Kind = "file"
)

// Node is a Folder or a File. The interface is sealed to this package.
type Node interface {
	NodeID() ID
	NodeName() string
	Kind() Kind
	sealed()
}

// Folder holds an ordered sequence of child nodes.
type Folder struct {
	ID       ID
	Name     string
	Children []Node
}

// File holds a binary payload encoded as text.
type File struct {
	ID      ID
	Name    string
	Content Payload
}

func (f *Folder) NodeID() ID       { return f.ID }
func (f *Folder) NodeName() string { return f.Name }
func (f *Folder) Kind() Kind       { return KindFolder }
func (f *Folder) sealed()          {}

func (f *File) NodeID() ID       { return f.ID }
func (f *File) NodeName() string { return f.Name }
func (f *File) Kind() Kind       { return KindFile }
func (f *File) sealed()          {}

// NewFolder creates an empty folder.
func NewFolder(id ID, name string) *Folder {
	return &Folder{ID: id, Name: name, Children: []Node{}}
}

// NewFile creates a file with the given payload.
func NewFile(id ID, name string, content Payload) *File {
	return &File{ID: id, Name: name, Content: content}
}

// Payload is binary file content stored as standard base64 text.
//
// Content is kept in its encoded form so documents round-trip byte for byte;
// callers decode at the boundary where raw bytes are needed (archives,
// content inspection, editing).
type Payload string

// EncodePayload encodes raw bytes as a Payload.
func EncodePayload(data []byte) Payload {
	return Payload(base64.StdEncoding.EncodeToString(data))
}

// TextPayload encodes a UTF-8 string as a Payload.
func TextPayload(s string) Payload {
	return EncodePayload([]byte(s))
}

// Decode returns the raw bytes behind the payload.
func (p Payload) Decode() ([]byte, error) {
	return base64.StdEncoding.DecodeString(string(p))
}

// Bytes returns the raw content. Payloads that are not valid base64 are
// plain text written by hand and come back as-is.
func (p Payload) Bytes() []byte {
	if data, err := p.Decode(); err == nil {
		return data
	}
	return []byte(p)
}

// Len returns the encoded length in bytes.
func (p Payload) Len() int {
	return len(p)
}

// Clone returns a deep copy of a node.
func Clone(n Node) Node {
	switch v := n.(type) {
	case *Folder:
		return &Folder{ID: v.ID, Name: v.Name, Children: CloneAll(v.Children)}
	case *File:
		c := *v
		return &c
	default:
		return nil
	}
}

// CloneAll deep-copies a sequence of nodes. The result is never nil.
func CloneAll(nodes []Node) []Node {
	out := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		if c := Clone(n); c != nil {
			out = append(out, c)
		}
	}
	return out
}

// Walk visits every node in pre-order together with the path of the folder
// that contains it. Returning false from fn skips the node's children.
func Walk(nodes []Node, fn func(n Node, parent Path) bool) {
	walk(nodes, Root, fn)
}

func walk(nodes []Node, parent Path, fn func(Node, Path) bool) {
	for _, n := range nodes {
		descend := fn(n, parent)
		if f, ok := n.(*Folder); ok && descend {
			walk(f.Children, parent.Child(f.ID), fn)
		}
	}
}

// MaxID returns the largest id in nodes, or zero for an empty tree.
func MaxID(nodes []Node) ID {
	var max ID
	Walk(nodes, func(n Node, _ Path) bool {
		if n.NodeID() > max {
			max = n.NodeID()
		}
		return true
	})
	return max
}

// IDs collects every id in nodes in pre-order.
func IDs(nodes []Node) []ID {
	var ids []ID
	Walk(nodes, func(n Node, _ Path) bool {
		ids = append(ids, n.NodeID())
		return true
	})
	return ids
}
