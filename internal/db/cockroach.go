package db

import (
	"context"

	_ "github.com/lib/pq"
)

// OpenCockroach opens a CockroachDB source. CockroachDB speaks the PostgreSQL
// wire protocol and exposes pg_catalog, so the PostgreSQL metadata queries
// are reused over lib/pq.
func OpenCockroach(ctx context.Context, connString string, maxConns int) (Source, error) {
	return openSQL(ctx, "postgres", connString, maxConns, func(q queryer) MetaData {
		return &postgresMeta{q: q}
	})
}
