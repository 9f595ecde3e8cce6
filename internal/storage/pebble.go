// internal/storage/pebble.go
// Durable local key-value storage backed by Pebble.
// Each concern gets its own collection (a dedicated Pebble database under the
// base path) so counters, preferences and the notification log stay isolated.

package storage

import (
	"encoding/json"
	"fmt"
	"log"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/pebble"
)

// Collection names
const (
	CollectionUnreadCounts     = "unread_counts"
	CollectionNotificationLog  = "notification_log"
	CollectionNotificationPref = "notification_prefs"
)

// Store manages the per-collection Pebble databases.
type Store struct {
	mu          sync.Mutex
	basePath    string
	collections map[string]*pebble.DB
}

// NewStore creates a store rooted at basePath. Databases are opened lazily.
func NewStore(basePath string) *Store {
	return &Store{
		basePath:    basePath,
		collections: make(map[string]*pebble.DB),
	}
}

// collection returns the database for a collection, opening it on first use.
func (s *Store) collection(name string) (*pebble.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if db, exists := s.collections[name]; exists {
		return db, nil
	}

	opts := &pebble.Options{
		Cache:      pebble.NewCache(8 << 20),
		DisableWAL: false,
	}

	db, err := pebble.Open(filepath.Join(s.basePath, name), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open collection %s: %w", name, err)
	}

	s.collections[name] = db
	return db, nil
}

// Close closes all open collections.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	for name, db := range s.collections {
		if err := db.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close collection %s: %w", name, err)
		}
	}
	s.collections = make(map[string]*pebble.DB)
	return firstErr
}

// GetJSON loads and unmarshals the value stored under key in a collection.
// Returns false when the key is absent.
func (s *Store) GetJSON(collectionName, key string, out interface{}) (bool, error) {
	db, err := s.collection(collectionName)
	if err != nil {
		return false, err
	}

	value, closer, err := db.Get([]byte(key))
	if err != nil {
		if err == pebble.ErrNotFound {
			return false, nil
		}
		return false, fmt.Errorf("failed to read %s/%s: %w", collectionName, key, err)
	}
	defer closer.Close()

	if err := json.Unmarshal(value, out); err != nil {
		// Corrupt entries degrade to "absent" rather than poisoning the caller.
		log.Printf("Discarding corrupt entry %s/%s: %v", collectionName, key, err)
		return false, nil
	}

	return true, nil
}

// SetJSON marshals and durably stores a value under key in a collection.
func (s *Store) SetJSON(collectionName, key string, value interface{}) error {
	db, err := s.collection(collectionName)
	if err != nil {
		return err
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s/%s: %w", collectionName, key, err)
	}

	if err := db.Set([]byte(key), data, pebble.Sync); err != nil {
		return fmt.Errorf("failed to write %s/%s: %w", collectionName, key, err)
	}

	return nil
}

// Delete removes a key from a collection. Deleting an absent key is a no-op.
func (s *Store) Delete(collectionName, key string) error {
	db, err := s.collection(collectionName)
	if err != nil {
		return err
	}

	if err := db.Delete([]byte(key), pebble.Sync); err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", collectionName, key, err)
	}

	return nil
}

// UnreadCounts is the persisted peer-id to unread-count map for one user.
type UnreadCounts map[string]int

// LoadUnreadCounts returns the persisted counters for a user, empty when none
// were saved or the saved entry cannot be decoded.
func (s *Store) LoadUnreadCounts(userID string) (UnreadCounts, error) {
	counts := UnreadCounts{}
	found, err := s.GetJSON(CollectionUnreadCounts, userID, &counts)
	if err != nil {
		return nil, err
	}
	if !found || counts == nil {
		return UnreadCounts{}, nil
	}
	return counts, nil
}

// SaveUnreadCounts durably replaces the counters for a user.
func (s *Store) SaveUnreadCounts(userID string, counts UnreadCounts) error {
	if userID == "" {
		return fmt.Errorf("user id is required")
	}
	return s.SetJSON(CollectionUnreadCounts, userID, counts)
}
