package prefs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	profilesBucketName = "profiles"

	// DefaultProfile is the scope used when none is configured.
	DefaultProfile = "default"
)

// BoltStore is a Store backed by a bbolt file. Each profile is a nested
// bucket, so several people can share one database without seeing each
// other's favorites.
type BoltStore struct {
	mu      sync.RWMutex
	db      *bolt.DB
	path    string
	profile string
	closed  bool
}

// OpenBoltStore opens (creating if needed) the database at path, scoped to profile.
func OpenBoltStore(path, profile string) (*BoltStore, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, fmt.Errorf("store path is required")
	}
	if strings.TrimSpace(profile) == "" {
		profile = DefaultProfile
	}
	if err := os.MkdirAll(filepath.Dir(trimmed), 0o755); err != nil {
		return nil, fmt.Errorf("ensure store dir: %w", err)
	}
	db, err := bolt.Open(trimmed, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open preference db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		root, err := tx.CreateBucketIfNotExists([]byte(profilesBucketName))
		if err != nil {
			return err
		}
		_, err = root.CreateBucketIfNotExists([]byte(profile))
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure profile bucket: %w", err)
	}
	return &BoltStore{db: db, path: trimmed, profile: profile}, nil
}

// Path returns the database file path.
func (s *BoltStore) Path() string { return s.path }

// Profile returns the profile scope.
func (s *BoltStore) Profile() string { return s.profile }

// Get implements Store.
func (s *BoltStore) Get(key string) (string, bool, error) {
	var (
		value string
		ok    bool
	)
	err := s.view(func(tx *bolt.Tx) error {
		bucket := s.bucket(tx)
		if bucket == nil {
			return nil
		}
		if raw := bucket.Get([]byte(key)); raw != nil {
			value, ok = string(raw), true
		}
		return nil
	})
	return value, ok, err
}

// Set implements Store.
func (s *BoltStore) Set(key, value string) error {
	return s.update(func(tx *bolt.Tx) error {
		bucket := s.bucket(tx)
		if bucket == nil {
			return fmt.Errorf("missing profile bucket %q", s.profile)
		}
		if err := bucket.Put([]byte(key), []byte(value)); err != nil {
			return fmt.Errorf("write %s: %w", key, err)
		}
		return nil
	})
}

// Close releases the database file lock.
func (s *BoltStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func (s *BoltStore) bucket(tx *bolt.Tx) *bolt.Bucket {
	root := tx.Bucket([]byte(profilesBucketName))
	if root == nil {
		return nil
	}
	return root.Bucket([]byte(s.profile))
}

func (s *BoltStore) view(fn func(*bolt.Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	return s.db.View(fn)
}

func (s *BoltStore) update(fn func(*bolt.Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	return s.db.Update(fn)
}
