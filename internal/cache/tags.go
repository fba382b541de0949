package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"
)

const bucketName = "commit_tags"

// entry is what gets stored per commit
type entry struct {
	Tags     []string  `json:"tags"`
	TaggedAt time.Time `json:"tagged_at"`
}

// TagCache stores computed tags per commit in bbolt. Keys include the catalog
// fingerprint, so a changed catalog never serves stale tags.
type TagCache struct {
	db     *bolt.DB
	logger logrus.FieldLogger
}

// Open opens (or creates) the cache file at path
func Open(path string, logger logrus.FieldLogger) (*TagCache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open tag cache %s: %w", path, err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init tag cache: %w", err)
	}
	return &TagCache{db: db, logger: logger}, nil
}

func key(fingerprint, sha string) []byte {
	return []byte(fingerprint + ":" + sha)
}

// Get returns the cached tags for sha under the given catalog fingerprint
func (c *TagCache) Get(fingerprint, sha string) ([]string, bool) {
	var e entry
	found := false
	err := c.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket([]byte(bucketName)).Get(key(fingerprint, sha))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &e)
	})
	if err != nil {
		c.logger.WithError(err).WithField("sha", sha).Warn("corrupt tag cache entry ignored")
		return nil, false
	}
	return e.Tags, found
}

// Put stores tags for sha
func (c *TagCache) Put(fingerprint, sha string, tags []string) error {
	data, err := json.Marshal(entry{Tags: tags, TaggedAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Put(key(fingerprint, sha), data)
	})
}

// Purge drops every entry that was not computed under fingerprint and
// returns how many were removed.
func (c *TagCache) Purge(fingerprint string) (int, error) {
	removed := 0
	prefix := fingerprint + ":"
	err := c.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		var stale [][]byte
		err := b.ForEach(func(k, _ []byte) error {
			if len(k) < len(prefix) || string(k[:len(prefix)]) != prefix {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		removed = len(stale)
		return nil
	})
	return removed, err
}

// Close closes the cache file
func (c *TagCache) Close() error {
	return c.db.Close()
}
