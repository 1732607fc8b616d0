// Package storage provides the key-value store that persisted documents
// live in.
//
// Backends:
//   - Bolt: a single-bucket go.etcd.io/bbolt file, the durable default
//   - Memory: a map, for tests and throwaway sessions
//
// Writes overwrite any previous value for the key. There is no history.
package storage

import (
	"context"
	"errors"
	"fmt"
)

// ErrClosed is returned by operations on a closed backend.
var ErrClosed = errors.New("storage backend closed")

// Backend is a minimal key-value store.
type Backend interface {
	// Get returns the value and true, or nil and false when the key is absent.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Driver names a backend implementation.
type Driver string

const (
	DriverBolt   Driver = "bolt"
	DriverMemory Driver = "memory"
)

// Options selects and configures a backend.
type Options struct {
	Driver Driver
	Path   string
}

// Open creates the backend described by opts.
func Open(opts Options) (Backend, error) {
	switch opts.Driver {
	case DriverBolt, "":
		return OpenBolt(opts.Path)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver: %s", opts.Driver)
	}
}
