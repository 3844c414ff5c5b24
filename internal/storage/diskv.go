package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/peterbourgon/diskv/v3"
)

const stateDirName = "state"

// DiskStore persists records with diskv under the application's config
// directory. Writes go to disk immediately; a small read cache keeps
// the per-tick loads cheap.
type DiskStore struct {
	d *diskv.Diskv
}

// OpenDiskStore creates the state directory for appName and returns a
// store over it.
func OpenDiskStore(appName string) (*DiskStore, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("resolve user config dir: %w", err)
	}
	return OpenDiskStoreAt(filepath.Join(configDir, appName, stateDirName))
}

// OpenDiskStoreAt creates a store rooted at basePath.
func OpenDiskStoreAt(basePath string) (*DiskStore, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}
	return &DiskStore{d: diskv.New(diskv.Options{
		BasePath:     basePath,
		CacheSizeMax: 64 * 1024,
	})}, nil
}

func (store *DiskStore) Get(key string) ([]byte, error) {
	value, err := store.d.Read(key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return value, nil
}

func (store *DiskStore) Set(key string, value []byte) error {
	if err := store.d.Write(key, value); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// SetMultiple writes each key in turn. diskv has no cross-key
// transaction; a failure leaves earlier keys written.
func (store *DiskStore) SetMultiple(values map[string][]byte) error {
	for key, value := range values {
		if err := store.Set(key, value); err != nil {
			return err
		}
	}
	return nil
}
