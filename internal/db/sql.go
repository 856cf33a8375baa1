package db

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
)

// sqlSource is a Source backed by a database/sql pool.
type sqlSource struct {
	db      *sql.DB
	newMeta func(q queryer) MetaData
}

func openSQL(ctx context.Context, driver, dsn string, maxConns int, newMeta func(q queryer) MetaData) (*sqlSource, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if maxConns > 0 {
		db.SetMaxOpenConns(maxConns)
	}

	// Test the connection
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &sqlSource{db: db, newMeta: newMeta}, nil
}

func (s *sqlSource) Conn(ctx context.Context) (Conn, error) {
	c, err := s.db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	q := sqlQueryer{c: c}
	return &sqlConn{conn: c, meta: s.newMeta(q)}, nil
}

func (s *sqlSource) Close() error {
	return s.db.Close()
}

// queryer runs a query and buffers the result.
type queryer interface {
	query(ctx context.Context, query string, args ...any) ([]Row, error)
}

type sqlQueryer struct {
	c interface {
		QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	}
}

func (q sqlQueryer) query(ctx context.Context, query string, args ...any) ([]Row, error) {
	rows, err := q.c.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSQLRows(rows)
}

func collectSQLRows(rows *sql.Rows) ([]Row, error) {
	labels, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []Row
	for rows.Next() {
		values := make([]any, len(labels))
		ptrs := make([]any, len(labels))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		out = append(out, NewRow(labels, values))
	}

	return out, rows.Err()
}

type sqlConn struct {
	conn *sql.Conn
	meta MetaData
}

func (c *sqlConn) MetaData() MetaData { return c.meta }

func (c *sqlConn) Query(ctx context.Context, query string, args ...any) ([]Row, error) {
	return sqlQueryer{c: c.conn}.query(ctx, query, args...)
}

func (c *sqlConn) Begin(ctx context.Context) (Tx, error) {
	tx, err := c.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqlTx{tx: tx}, nil
}

func (c *sqlConn) Close() error {
	return c.conn.Close()
}

type sqlTx struct {
	tx *sql.Tx
}

var returningClause = regexp.MustCompile(`(?i)\bRETURNING\b`)

func (t *sqlTx) Exec(ctx context.Context, query string, args []any, returnKeys bool) (Result, error) {
	if returnKeys && returningClause.MatchString(query) {
		rows, err := t.tx.QueryContext(ctx, query, args...)
		if err != nil {
			return Result{}, err
		}
		defer rows.Close()
		return collectSQLKeys(rows)
	}

	res, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return Result{}, err
	}
	out := Result{}
	if n, err := res.RowsAffected(); err == nil {
		out.RowsAffected = n
	}
	if returnKeys {
		// Drivers without LastInsertId support simply yield no key.
		if id, err := res.LastInsertId(); err == nil {
			out.GeneratedKeys = []any{id}
		}
	}
	return out, nil
}

func (t *sqlTx) Commit(context.Context) error   { return t.tx.Commit() }
func (t *sqlTx) Rollback(context.Context) error { return t.tx.Rollback() }

// collectSQLKeys reads the rows of an INSERT ... RETURNING statement, keeping
// every returned value in row then column order.
func collectSQLKeys(rows *sql.Rows) (Result, error) {
	labels, err := rows.Columns()
	if err != nil {
		return Result{}, err
	}

	var out Result
	for rows.Next() {
		values := make([]any, len(labels))
		ptrs := make([]any, len(labels))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return Result{}, err
		}
		out.RowsAffected++
		out.GeneratedKeys = append(out.GeneratedKeys, values...)
	}

	return out, rows.Err()
}
