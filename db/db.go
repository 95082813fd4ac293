// Package db defines a persistent backend for the slashd service.
package db

import (
	"github.com/inclusion-protocol/slashd/db/iface"
	"github.com/inclusion-protocol/slashd/db/kv"
)

// ReadOnlyDatabase exposes the db read only functions for all slashd buckets.
type ReadOnlyDatabase = iface.ReadOnlyDatabase

// WriteAccessDatabase exposes the db writing functions for all slashd buckets.
type WriteAccessDatabase = iface.WriteAccessDatabase

// Database defines the necessary methods for the slashd backend which may be
// implemented by any key-value or relational database in practice. This is
// the full database interface which should not be used often. Prefer a more
// restrictive interface in this package.
type Database = iface.Database

// NewDB initializes a new DB at the specified path.
func NewDB(dirPath string, cfg *kv.Config) (Database, error) {
	return kv.NewKVStore(dirPath, cfg)
}
