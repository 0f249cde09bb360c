// Package accountcache remembers which chart-of-accounts entry a label
// resolved to, in a bbolt file shared by all owners.
package accountcache

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

const bucketPrefix = "owner:"

// ErrLocked is returned when another process holds the cache file.
var ErrLocked = errors.New("account cache is locked by another process")

// entry is the stored value for one label.
type entry struct {
	AccountID    string    `json:"account_id"`
	RememberedAt time.Time `json:"remembered_at"`
}

// Cache wraps the bbolt database.
type Cache struct {
	db *bolt.DB
}

// Open opens or creates the cache file.
func Open(path string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if errors.Is(err, bolt.ErrTimeout) {
		return nil, fmt.Errorf("%w: %s", ErrLocked, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open account cache: %w", err)
	}

	return &Cache{db: db}, nil
}

// OpenOptional is Open for callers that can resolve accounts by name alone.
// A locked cache yields (nil, nil) and a warning; other errors are returned.
func OpenOptional(path string, log *slog.Logger) (*Cache, error) {
	if log == nil {
		log = slog.Default()
	}

	c, err := Open(path)
	if errors.Is(err, ErrLocked) {
		log.Warn("account cache in use, resolving accounts by name", "path", path)
		return nil, nil
	}
	return c, err
}

// Close closes the cache file.
func (c *Cache) Close() error {
	return c.db.Close()
}

// ForOwner returns a view whose keys live in the owner's bucket.
func (c *Cache) ForOwner(ownerID string) *OwnerCache {
	return &OwnerCache{db: c.db, bucket: []byte(bucketPrefix + ownerID)}
}

// OwnerCache is one owner's label to account-id map.
type OwnerCache struct {
	db     *bolt.DB
	bucket []byte
}

// Lookup returns the remembered account id for name.
func (c *OwnerCache) Lookup(name string) (string, bool, error) {
	var (
		e     entry
		found bool
	)

	err := c.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(c.bucket)
		if b == nil {
			return nil
		}

		data := b.Get([]byte(name))
		if data == nil {
			return nil
		}

		found = true
		return json.Unmarshal(data, &e)
	})
	if err != nil {
		return "", false, fmt.Errorf("failed to read account cache: %w", err)
	}

	return e.AccountID, found, nil
}

// Remember stores the account id for name, replacing any previous value.
func (c *OwnerCache) Remember(name, accountID string) error {
	data, err := json.Marshal(entry{AccountID: accountID, RememberedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	return c.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(c.bucket)
		if err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", c.bucket, err)
		}
		return b.Put([]byte(name), data)
	})
}

// Forget drops the entry for name. Missing entries are not an error.
func (c *OwnerCache) Forget(name string) error {
	return c.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(c.bucket)
		if b == nil {
			return nil
		}
		return b.Delete([]byte(name))
	})
}

// Len returns the number of remembered labels.
func (c *OwnerCache) Len() (int, error) {
	var n int
	err := c.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(c.bucket)
		if b == nil {
			return nil
		}
		n = b.Stats().KeyN
		return nil
	})
	return n, err
}
