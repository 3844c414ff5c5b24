// Package storage provides the key/value persistence collaborator used
// by the timer engine. Values are opaque JSON blobs; there is no
// transactional guarantee across keys.
package storage

import "sync"

// Well-known record keys.
const (
	KeyTimerState  = "timerState"
	KeyWorkSession = "workSession"
)

// KV is the persistence contract. Get returns (nil, nil) when the key
// has never been written.
type KV interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	SetMultiple(values map[string][]byte) error
}

// MemoryStore is an in-process KV used as the secondary storage medium
// when the disk store is unavailable, and as a test double.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string][]byte
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string][]byte)}
}

func (store *MemoryStore) Get(key string) ([]byte, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	value, ok := store.values[key]
	if !ok {
		return nil, nil
	}
	copied := make([]byte, len(value))
	copy(copied, value)
	return copied, nil
}

func (store *MemoryStore) Set(key string, value []byte) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	copied := make([]byte, len(value))
	copy(copied, value)
	store.values[key] = copied
	return nil
}

func (store *MemoryStore) SetMultiple(values map[string][]byte) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	for key, value := range values {
		copied := make([]byte, len(value))
		copy(copied, value)
		store.values[key] = copied
	}
	return nil
}
