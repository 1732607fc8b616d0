// Package id provides id generation for the backend.
//
// Two kinds of ids are issued here:
//   - Node ids: int64, millisecond-based and strictly increasing, matching the
//     numeric ids stored in persisted documents
//   - Request ids: prefixed ULIDs for logs
//
// Node ids start from the wall clock but never repeat: when two ids are
// requested within the same millisecond, or when a loaded tree already
// contains larger ids, the sequence continues from the last value.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ============================================================================
// Node ID Sequence
// ============================================================================

// Sequence issues strictly increasing node ids.
type Sequence struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// NewSequence creates a clock-seeded sequence.
func NewSequence() *Sequence {
	return &Sequence{now: time.Now}
}

// NewSequenceWithClock creates a sequence driven by a custom clock.
// Useful for testing with deterministic time
func NewSequenceWithClock(now func() time.Time) *Sequence {
	return &Sequence{now: now}
}

// Next returns max(now in ms, last+1).
func (s *Sequence) Next() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := s.now().UnixMilli()
	if v <= s.last {
		v = s.last + 1
	}
	s.last = v
	return v
}

// Observe records an id issued elsewhere so later ids stay above it.
func (s *Sequence) Observe(v int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v > s.last {
		s.last = v
	}
}

// Last returns the most recent id issued or observed.
func (s *Sequence) Last() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// ============================================================================
// ULID Generator
// ============================================================================

// RequestID identifies an API request
type RequestID string

// RequestPrefix is prepended to generated request ids.
const RequestPrefix = "req"

// Generator generates ULIDs with optional prefixes
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a new ULID generator
func NewGenerator() *Generator {
	return &Generator{entropy: rand.Reader}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.Generate().String())
}

// NewRequestID generates a new request ID
func NewRequestID() RequestID {
	return RequestID(Default().GenerateWithPrefix(RequestPrefix))
}

func (id RequestID) String() string { return string(id) }

// IsValid checks if an ID string is a valid ULID
func IsValid(s string) bool {
	_, err := ulid.Parse(s)
	return err == nil
}
