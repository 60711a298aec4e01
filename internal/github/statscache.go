package github

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/rohankatakam/devpulse/internal/errors"
	"github.com/rohankatakam/devpulse/internal/models"
)

const statsBucket = "commit_stats"

// CommitStats are the line counts GitHub only returns from the commit
// detail endpoint
type CommitStats struct {
	Additions int `json:"additions"`
	Deletions int `json:"deletions"`
	Total     int `json:"total"`
}

func (s CommitStats) apply(c *models.RawCommit) {
	c.Additions = s.Additions
	c.Deletions = s.Deletions
	c.TotalChanges = s.Total
}

// StatsCache persists commit stats by repository and sha. Commits are
// immutable, so entries never expire.
type StatsCache struct {
	db *bolt.DB
}

// OpenStatsCache opens (creating if needed) the cache file in dir
func OpenStatsCache(dir string) (*StatsCache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.FileSystemErrorf(err, "failed to create cache directory %s", dir)
	}
	path := filepath.Join(dir, "commit_stats.db")
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, errors.FileSystemErrorf(err, "failed to open stats cache %s", path)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(statsBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, errors.FileSystemErrorf(err, "failed to initialise stats cache %s", path)
	}
	return &StatsCache{db: db}, nil
}

func statsKey(repository, sha string) []byte {
	return []byte(repository + "@" + sha)
}

// Get returns the cached stats; ok is false on a miss
func (c *StatsCache) Get(repository, sha string) (stats CommitStats, ok bool, err error) {
	err = c.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(statsBucket))
		if bucket == nil {
			return nil
		}
		data := bucket.Get(statsKey(repository, sha))
		if data == nil {
			return nil
		}
		ok = true
		return json.Unmarshal(data, &stats)
	})
	return stats, ok, err
}

// Put stores stats for one commit
func (c *StatsCache) Put(repository, sha string, stats CommitStats) error {
	return c.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(statsBucket))
		if err != nil {
			return err
		}
		data, err := json.Marshal(stats)
		if err != nil {
			return err
		}
		return bucket.Put(statsKey(repository, sha), data)
	})
}

// Len returns the number of cached commits
func (c *StatsCache) Len() (int, error) {
	var n int
	err := c.db.View(func(tx *bolt.Tx) error {
		if bucket := tx.Bucket([]byte(statsBucket)); bucket != nil {
			n = bucket.Stats().KeyN
		}
		return nil
	})
	return n, err
}

// Close releases the cache file
func (c *StatsCache) Close() error {
	return c.db.Close()
}
