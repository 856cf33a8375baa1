package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgxSource is a Source backed by a pgx connection pool.
type pgxSource struct {
	pool *pgxpool.Pool
}

// OpenPostgres opens a pooled PostgreSQL source. maxConns of zero keeps the
// pgxpool default.
func OpenPostgres(ctx context.Context, connString string, maxConns int) (Source, error) {
	poolCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	if maxConns > 0 {
		poolCfg.MaxConns = int32(maxConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test the connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &pgxSource{pool: pool}, nil
}

func (s *pgxSource) Conn(ctx context.Context) (Conn, error) {
	c, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return &pgxConn{conn: c, meta: &postgresMeta{q: pgxQueryer{c: c}}}, nil
}

func (s *pgxSource) Close() error {
	s.pool.Close()
	return nil
}

type pgxQueryer struct {
	c interface {
		Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	}
}

func (q pgxQueryer) query(ctx context.Context, query string, args ...any) ([]Row, error) {
	rows, err := q.c.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	labels := make([]string, len(fields))
	for i, f := range fields {
		labels[i] = f.Name
	}

	var out []Row
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		out = append(out, NewRow(labels, values))
	}

	return out, rows.Err()
}

type pgxConn struct {
	conn *pgxpool.Conn
	meta MetaData
}

func (c *pgxConn) MetaData() MetaData { return c.meta }

func (c *pgxConn) Query(ctx context.Context, query string, args ...any) ([]Row, error) {
	return pgxQueryer{c: c.conn}.query(ctx, query, args...)
}

func (c *pgxConn) Begin(ctx context.Context) (Tx, error) {
	tx, err := c.conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &pgxTx{tx: tx}, nil
}

// Close returns the connection to the pool.
func (c *pgxConn) Close() error {
	c.conn.Release()
	return nil
}

type pgxTx struct {
	tx pgx.Tx
}

func (t *pgxTx) Exec(ctx context.Context, query string, args []any, returnKeys bool) (Result, error) {
	if returnKeys && returningClause.MatchString(query) {
		rows, err := t.tx.Query(ctx, query, args...)
		if err != nil {
			return Result{}, err
		}
		defer rows.Close()

		var out Result
		for rows.Next() {
			values, err := rows.Values()
			if err != nil {
				return Result{}, err
			}
			out.RowsAffected++
			out.GeneratedKeys = append(out.GeneratedKeys, values...)
		}
		return out, rows.Err()
	}

	tag, err := t.tx.Exec(ctx, query, args...)
	if err != nil {
		return Result{}, err
	}
	return Result{RowsAffected: tag.RowsAffected()}, nil
}

func (t *pgxTx) Commit(ctx context.Context) error   { return t.tx.Commit(ctx) }
func (t *pgxTx) Rollback(ctx context.Context) error { return t.tx.Rollback(ctx) }
