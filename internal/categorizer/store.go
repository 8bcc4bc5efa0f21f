package categorizer

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/boltdb/bolt"

	"statement-categorizer/pkg/errors"
)

// KVStore is the persistence collaborator of the engine
type KVStore interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
}

// MemoryStore keeps values in process memory
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

// Get returns the value stored under key
func (s *MemoryStore) Get(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.data[key]
	return value, ok, nil
}

// Set stores value under key
func (s *MemoryStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = value
	return nil
}

// DefaultBucket is the bolt bucket used when none is configured
const DefaultBucket = "categorizer"

// BoltStore persists values in a single bucket of a bolt database file
type BoltStore struct {
	db     *bolt.DB
	bucket []byte
	path   string
}

// OpenBoltStore opens or creates the database at path. Bolt holds an
// exclusive file lock, so a second process waits up to a second and then
// fails.
func OpenBoltStore(path, bucket string) (*BoltStore, error) {
	if bucket == "" {
		bucket = DefaultBucket
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.StorageError(errors.CodeStoreUnavailable, path, err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.StorageError(errors.CodeStoreUnavailable, path, err)
	}

	name := []byte(bucket)
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(name)
		return err
	})
	if err != nil {
		db.Close()
		return nil, errors.StorageError(errors.CodeStoreUnavailable, path, err)
	}

	return &BoltStore{db: db, bucket: name, path: path}, nil
}

// Get returns the value stored under key
func (s *BoltStore) Get(key string) (string, bool, error) {
	var (
		value string
		found bool
	)

	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(s.bucket).Get([]byte(key))
		if v != nil {
			value, found = string(v), true
		}
		return nil
	})
	if err != nil {
		return "", false, errors.StorageError(errors.CodeStoreUnavailable, s.path, err)
	}
	return value, found, nil
}

// Set stores value under key
func (s *BoltStore) Set(key, value string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Put([]byte(key), []byte(value))
	})
	if err != nil {
		return errors.StorageError(errors.CodeStoreWrite, s.path, err)
	}
	return nil
}

// Path returns the database file location
func (s *BoltStore) Path() string {
	return s.path
}

// Close releases the database file lock
func (s *BoltStore) Close() error {
	return s.db.Close()
}
