// Package kv defines a bolt-db, key-value store implementation of the slashd
// database interface.
package kv

import (
	"os"
	"path"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

var databaseFileName = "slashd.db"

// Store defines an implementation of the slashd Database interface using
// BoltDB as the underlying persistent kv-store, with a ristretto cache in
// front of the slashed-commitments bucket. Only slashed digests are cached:
// the set is append-only, so a cached positive can never go stale. Account
// records are mutable and are always read from bolt.
type Store struct {
	db           *bolt.DB
	databasePath string
	slashedCache *ristretto.Cache
}

// Config options for the slashd db.
type Config struct {
	CacheItems   int64
	MaxCacheSize int64
}

// Close closes the underlying boltdb database.
func (s *Store) Close() error {
	s.slashedCache.Clear()
	return s.db.Close()
}

func (s *Store) update(fn func(*bolt.Tx) error) error {
	return s.db.Update(fn)
}

func (s *Store) view(fn func(*bolt.Tx) error) error {
	return s.db.View(fn)
}

// ClearDB removes any previously stored data at the configured data directory.
func (s *Store) ClearDB() error {
	if _, err := os.Stat(s.databasePath); os.IsNotExist(err) {
		return nil
	}
	s.slashedCache.Clear()
	return os.Remove(s.databasePath)
}

// DatabasePath at which this database writes files.
func (s *Store) DatabasePath() string {
	return s.databasePath
}

func createBuckets(tx *bolt.Tx, buckets ...[]byte) error {
	for _, bucket := range buckets {
		if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
			return err
		}
	}
	return nil
}

// NewKVStore initializes a new boltDB key-value store at the directory path
// specified, creates the kv-buckets based on the schema, and stores an open
// connection db object as a property of the Store struct.
func NewKVStore(dirPath string, cfg *Config) (*Store, error) {
	if err := os.MkdirAll(dirPath, 0700); err != nil {
		return nil, err
	}
	datafile := path.Join(dirPath, databaseFileName)
	boltDB, err := bolt.Open(datafile, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		if err == bolt.ErrTimeout {
			return nil, errors.New("cannot obtain database lock, database may be in use by another process")
		}
		return nil, err
	}
	if cfg.CacheItems == 0 {
		cfg.CacheItems = 20000
	}
	if cfg.MaxCacheSize == 0 {
		cfg.MaxCacheSize = 1 << 28 // 256MB
	}
	slashedCache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: cfg.CacheItems,
		MaxCost:     cfg.MaxCacheSize,
		BufferItems: 64,
	})
	if err != nil {
		return nil, errors.Wrap(err, "could not create slashed commitment cache")
	}
	kv := &Store{db: boltDB, databasePath: datafile, slashedCache: slashedCache}

	if err := kv.db.Update(func(tx *bolt.Tx) error {
		return createBuckets(
			tx,
			proposerAccountsBucket,
			slashedCommitmentsBucket,
		)
	}); err != nil {
		return nil, err
	}
	return kv, nil
}
