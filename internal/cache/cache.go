// Package cache stores finished comparisons in a bbolt database.
//
// Commits are immutable, so a comparison between two resolved hashes never
// goes stale; entries are keyed by repository, both full hashes and the
// diff context width.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/kilupskalvis/commitdiff/internal/models"
)

var bucketComparisons = []byte("comparisons")

// entry is the stored form of a comparison.
type entry struct {
	StoredAt time.Time                `json:"stored_at"`
	Result   *models.ComparisonResult `json:"result"`
}

// Cache is a bbolt-backed comparison cache.
type Cache struct {
	db *bolt.DB
}

// Open opens or creates the cache database at path.
func Open(path string) (*Cache, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create cache directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketComparisons)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create bucket %s: %w", bucketComparisons, err)
	}

	return &Cache{db: db}, nil
}

// Close closes the database.
func (c *Cache) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Key builds the cache key for a comparison.
func Key(repo, fromHash, toHash string, contextLines int) string {
	return fmt.Sprintf("%s\x00%s\x00%s\x00%d", repo, fromHash, toHash, contextLines)
}

// Get returns the cached comparison for key, if any.
func (c *Cache) Get(key string) (*models.ComparisonResult, bool, error) {
	var e entry
	found := false
	err := c.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketComparisons).Get([]byte(key))
		if v == nil {
			return nil
		}
		found = true
		return json.Unmarshal(v, &e)
	})
	if err != nil {
		return nil, false, fmt.Errorf("read cache entry: %w", err)
	}
	if !found || e.Result == nil {
		return nil, false, nil
	}
	return e.Result, true, nil
}

// Put stores a comparison under key, replacing any previous entry.
func (c *Cache) Put(key string, r *models.ComparisonResult) error {
	data, err := json.Marshal(entry{StoredAt: time.Now().UTC(), Result: r})
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketComparisons).Put([]byte(key), data)
	})
}

// Len returns the number of cached comparisons.
func (c *Cache) Len() (int, error) {
	n := 0
	err := c.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(bucketComparisons).Stats().KeyN
		return nil
	})
	return n, err
}

// Clear removes every cached comparison and returns how many were removed.
func (c *Cache) Clear() (int, error) {
	n, err := c.Len()
	if err != nil {
		return 0, err
	}
	err = c.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bucketComparisons); err != nil {
			return err
		}
		_, err := tx.CreateBucket(bucketComparisons)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("clear cache: %w", err)
	}
	return n, nil
}
