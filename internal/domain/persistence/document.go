package persistence

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bytedance/sonic"

	"github.com/GriffinCanCode/filedeck/internal/domain/tree"
)

const (
	// CurrentVersion is the schema version written by Save and every export.
	CurrentVersion = 2
	// LegacyVersion is assumed for documents that carry no version.
	LegacyVersion = 1

	// Documents above this size decode through sonic.
	sonicDecodeThreshold = 10 << 10
	// Trees with more nodes than this encode through sonic.
	sonicEncodeThreshold = 256
)

var ErrInvalidDocument = errors.New("invalid document")

// Document is the versioned, serialized form of the whole tree.
type Document struct {
	Version int
	Data    []tree.Node
}

type documentWire struct {
	Version int         `json:"version"`
	Data    []tree.Node `json:"data"`
}

type documentDecodeWire struct {
	Version *int        `json:"version"`
	Data    *tree.Nodes `json:"data"`
}

// MarshalJSON encodes {"version": n, "data": [...]}.
func (d Document) MarshalJSON() ([]byte, error) {
	data := d.Data
	if data == nil {
		data = []tree.Node{}
	}
	return json.Marshal(documentWire{Version: d.Version, Data: data})
}

// Decode parses a serialized document. A bare JSON array is accepted as an
// unversioned legacy document; a missing or zero version means LegacyVersion.
// The result is not migrated.
func Decode(data []byte) (Document, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Document{}, fmt.Errorf("%w: empty input", ErrInvalidDocument)
	}

	if trimmed[0] == '[' {
		var nodes tree.Nodes
		if err := unmarshal(trimmed, &nodes); err != nil {
			return Document{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
		return Document{Version: LegacyVersion, Data: nonNil(nodes)}, nil
	}

	var wire documentDecodeWire
	if err := unmarshal(trimmed, &wire); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if wire.Data == nil {
		return Document{}, fmt.Errorf("%w: missing data", ErrInvalidDocument)
	}

	doc := Document{Version: LegacyVersion, Data: nonNil(*wire.Data)}
	if wire.Version != nil && *wire.Version > 0 {
		doc.Version = *wire.Version
	}
	return doc, nil
}

// Encode serializes doc compactly.
func Encode(doc Document) ([]byte, error) {
	if len(tree.IDs(doc.Data)) > sonicEncodeThreshold {
		return sonic.ConfigStd.Marshal(doc)
	}
	return json.Marshal(doc)
}

// EncodeIndent serializes doc with two-space indentation.
func EncodeIndent(doc Document) ([]byte, error) {
	if len(tree.IDs(doc.Data)) > sonicEncodeThreshold {
		return sonic.ConfigStd.MarshalIndent(doc, "", "  ")
	}
	return json.MarshalIndent(doc, "", "  ")
}

// Versioned wraps nodes in a document stamped with CurrentVersion.
func Versioned(nodes []tree.Node) Document {
	return Document{Version: CurrentVersion, Data: nodes}
}

// migration upgrades a document from version v to v+1.
type migration func(Document) Document

// migrations is keyed by the version a step upgrades from.
var migrations = map[int]migration{
	// v1 -> v2 changed no fields; documents are only restamped.
	1: func(d Document) Document { return d },
}

// Migrate upgrades doc to CurrentVersion. Documents already at or above
// CurrentVersion are returned unchanged, so Migrate is idempotent.
func Migrate(doc Document) Document {
	if doc.Version <= 0 {
		doc.Version = LegacyVersion
	}
	for doc.Version < CurrentVersion {
		if step, ok := migrations[doc.Version]; ok {
			doc = step(doc)
		}
		doc.Version++
	}
	return doc
}

func unmarshal(data []byte, v any) error {
	if len(data) > sonicDecodeThreshold {
		return sonic.ConfigStd.Unmarshal(data, v)
	}
	return json.Unmarshal(data, v)
}

func nonNil(nodes tree.Nodes) []tree.Node {
	if nodes == nil {
		return []tree.Node{}
	}
	return []tree.Node(nodes)
}
