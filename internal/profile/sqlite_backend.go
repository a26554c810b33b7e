package profile

import (
	_ "github.com/mattn/go-sqlite3" // registers the "sqlite3" driver
)

// SQLiteStore is the default local profile store, for a single install —
// the same scenario Fast-MBTiler's SetupMBTileTables targets for a local
// output file.
type SQLiteStore struct {
	*sqlStore
}

// NewSQLiteStore opens (creating if necessary) a sqlite-backed profile
// store at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	s, err := openSQLStore("sqlite3", path)
	if err != nil {
		return nil, err
	}
	return &SQLiteStore{sqlStore: s}, nil
}
