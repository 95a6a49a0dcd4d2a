// Package storage persists the snapshot blob. Two stores exist: a plain
// JSON file and a SQLite database holding the blob in a single row. Both
// treat the blob as opaque; encoding and migration live in the snapshot
// package.
package storage

import (
	"context"
	"errors"
)

// ErrNoSnapshot is returned by Load when nothing has been persisted yet.
var ErrNoSnapshot = errors.New("no snapshot stored")

// Store reads and writes the snapshot blob.
type Store interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, blob []byte) error
	Close() error
}

// MemoryStore keeps the blob in process memory. It backs tests and the
// ephemeral backend, where state lives only as long as the process.
type MemoryStore struct {
	blob []byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(context.Context) ([]byte, error) {
	if s.blob == nil {
		return nil, ErrNoSnapshot
	}
	out := make([]byte, len(s.blob))
	copy(out, s.blob)
	return out, nil
}

func (s *MemoryStore) Save(_ context.Context, blob []byte) error {
	s.blob = make([]byte, len(blob))
	copy(s.blob, blob)
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
