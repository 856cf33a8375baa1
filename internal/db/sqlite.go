package db

import (
	"context"

	_ "github.com/mattn/go-sqlite3"
)

// OpenSQLite opens a SQLite database file. Foreign key enforcement is
// switched on so that PRAGMA foreign_key_list reflects declared keys.
func OpenSQLite(ctx context.Context, path string, maxConns int) (Source, error) {
	dsn := path
	if dsn != ":memory:" {
		dsn = "file:" + path + "?_foreign_keys=on"
	}
	return openSQL(ctx, "sqlite3", dsn, maxConns, func(q queryer) MetaData {
		return &sqliteMeta{q: q}
	})
}
