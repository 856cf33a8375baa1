package db

import (
	"context"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

// OpenMySQL opens a MySQL or MariaDB source from a go-sql-driver DSN
// (user:pass@tcp(host:port)/database). maxConns of zero leaves the pool
// unbounded.
func OpenMySQL(ctx context.Context, dsn string, maxConns int) (Source, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse MySQL DSN: %w", err)
	}
	cfg.ParseTime = true

	return openSQL(ctx, "mysql", cfg.FormatDSN(), maxConns, func(q queryer) MetaData {
		return &mysqlMeta{q: q, defaultDatabase: cfg.DBName}
	})
}

// MySQLDatabaseName returns the database named in a DSN, if any.
func MySQLDatabaseName(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("failed to parse MySQL DSN: %w", err)
	}
	return cfg.DBName, nil
}
