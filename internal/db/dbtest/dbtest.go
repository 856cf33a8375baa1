// Package dbtest provides an in-memory db.Conn for tests: scripted metadata
// result sets, canned query answers and scripted statement failures.
package dbtest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/tordrt/dbmeta/internal/db"
	"github.com/tordrt/dbmeta/internal/schema"
)

// StateError is a driver error carrying a SQL state.
type StateError struct {
	State string
	Msg   string
}

func (e *StateError) Error() string {
	if e.Msg == "" {
		return "sql state " + e.State
	}
	return e.Msg + " (sql state " + e.State + ")"
}

func (e *StateError) SQLState() string { return e.State }

// Table holds the metadata rows of one table. Scope is the schema or catalog
// name the table is listed under.
type Table struct {
	Scope        string
	Name         string
	View         bool
	Columns      []db.Row
	Indexes      []db.Row
	PrimaryKeys  []db.Row
	ImportedKeys []db.Row
}

// Fixture is the database behind every connection handed out by a Source.
// Populate it before use; it is read concurrently afterwards.
type Fixture struct {
	TypeInfo []db.Row
	Schemas  []db.Row
	Catalogs []db.Row
	Tables   []*Table

	// Answers maps a query text to the rows Conn.Query returns for it.
	Answers map[string][]db.Row

	// Fail maps a metadata method name ("Columns", "Tables", ...) to the
	// error it returns.
	Fail map[string]error

	// Hook, when set, runs at the start of every metadata call.
	Hook func(method, scope, table string)

	// ExecErrors scripts Tx.Exec failures in call order across all
	// transactions; a nil entry or an exhausted script means success.
	ExecErrors  []error
	CommitErr   error
	RollbackErr error

	// NextKey is the first generated key handed out for inserts.
	NextKey int64

	mu        sync.Mutex
	execCalls int
	executed  []string
	committed []string
	begins    int
	commits   int
	rollbacks int
	calls     map[string]int

	open     atomic.Int64
	acquired atomic.Int64
}

// Column builds a column metadata row.
func Column(name, typeName string, dataType, size, nullable, position int) db.Row {
	return db.Row{
		db.LabelColumnName:      name,
		db.LabelTypeName:        typeName,
		db.LabelDataType:        dataType,
		db.LabelColumnSize:      size,
		db.LabelDecimalDigits:   0,
		db.LabelNullable:        nullable,
		db.LabelOrdinalPosition: position,
		db.LabelIsAutoincrement: "NO",
		db.LabelIsGenerated:     "NO",
	}
}

// IndexColumn builds an index metadata row. An empty index name is reported
// as NULL.
func IndexColumn(index, column string, unique bool, position int, order string) db.Row {
	r := db.Row{
		db.LabelIndexName:       index,
		db.LabelColumnName:      column,
		db.LabelNonUnique:       !unique,
		db.LabelOrdinalPosition: position,
		db.LabelAscOrDesc:       order,
	}
	if index == "" {
		r[db.LabelIndexName] = nil
	}
	return r
}

// PrimaryKey builds a primary key metadata row.
func PrimaryKey(column string, seq int) db.Row {
	return db.Row{db.LabelColumnName: column, db.LabelKeySeq: seq}
}

// ForeignKey builds an imported-key metadata row.
func ForeignKey(name, column string, seq int, refSchema, refTable, refColumn string) db.Row {
	return db.Row{
		db.LabelFKName:       name,
		db.LabelFKColumnName: column,
		db.LabelKeySeq:       seq,
		db.LabelPKTableSchem: refSchema,
		db.LabelPKTableName:  refTable,
		db.LabelPKColumnName: refColumn,
	}
}

// Calls returns how often a metadata method was called.
func (f *Fixture) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

// Begins returns the number of transactions started.
func (f *Fixture) Begins() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.begins
}

// Commits returns the number of committed transactions.
func (f *Fixture) Commits() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.commits
}

// Rollbacks returns the number of rolled back transactions.
func (f *Fixture) Rollbacks() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rollbacks
}

// Committed returns the statements of committed transactions in order.
func (f *Fixture) Committed() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.committed...)
}

// Open returns the number of connections handed out and not yet closed.
func (f *Fixture) Open() int64 { return f.open.Load() }

// Acquired returns the number of connections handed out in total.
func (f *Fixture) Acquired() int64 { return f.acquired.Load() }

func (f *Fixture) enter(method, scope, table string) error {
	f.mu.Lock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[method]++
	f.mu.Unlock()

	if f.Hook != nil {
		f.Hook(method, scope, table)
	}
	if err := f.Fail[method]; err != nil {
		return err
	}
	return nil
}

func (f *Fixture) table(scope, name string) *Table {
	for _, t := range f.Tables {
		if t.Scope == scope && t.Name == name {
			return t
		}
	}
	return nil
}

// Source returns a db.Source over the fixture.
func (f *Fixture) Source() db.Source { return &source{f: f} }

// Lease returns a db.Lease over the fixture that ignores the dbms identity.
func (f *Fixture) Lease() db.Lease { return &lease{f: f} }

type source struct{ f *Fixture }

func (s *source) Conn(ctx context.Context) (db.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.f.open.Add(1)
	s.f.acquired.Add(1)
	return &conn{f: s.f}, nil
}

func (s *source) Close() error { return nil }

type lease struct{ f *Fixture }

func (l *lease) Acquire(ctx context.Context, _ *schema.Dbms) (db.Conn, error) {
	return (&source{f: l.f}).Conn(ctx)
}

func (l *lease) Release(c db.Conn) error { return c.Close() }

type conn struct {
	f      *Fixture
	closed bool
}

func (c *conn) MetaData() db.MetaData { return meta{f: c.f} }

func (c *conn) Query(_ context.Context, query string, _ ...any) ([]db.Row, error) {
	if err := c.f.enter("Query", "", query); err != nil {
		return nil, err
	}
	rows, ok := c.f.Answers[query]
	if !ok {
		return nil, fmt.Errorf("dbtest: no answer for query %q", query)
	}
	return cloneRows(rows), nil
}

func (c *conn) Begin(context.Context) (db.Tx, error) {
	c.f.mu.Lock()
	c.f.begins++
	c.f.mu.Unlock()
	return &tx{f: c.f}, nil
}

func (c *conn) Close() error {
	if c.closed {
		return errors.New("dbtest: connection closed twice")
	}
	c.closed = true
	c.f.open.Add(-1)
	return nil
}

type tx struct {
	f    *Fixture
	done []string
}

func (t *tx) Exec(_ context.Context, query string, _ []any, returnKeys bool) (db.Result, error) {
	f := t.f
	f.mu.Lock()
	defer f.mu.Unlock()

	call := f.execCalls
	f.execCalls++
	if call < len(f.ExecErrors) && f.ExecErrors[call] != nil {
		return db.Result{}, f.ExecErrors[call]
	}

	f.executed = append(f.executed, query)
	t.done = append(t.done, query)
	res := db.Result{RowsAffected: 1}
	if returnKeys {
		f.NextKey++
		res.GeneratedKeys = []any{f.NextKey}
	}
	return res, nil
}

func (t *tx) Commit(context.Context) error {
	t.f.mu.Lock()
	defer t.f.mu.Unlock()
	if t.f.CommitErr != nil {
		return t.f.CommitErr
	}
	t.f.commits++
	t.f.committed = append(t.f.committed, t.done...)
	return nil
}

func (t *tx) Rollback(context.Context) error {
	t.f.mu.Lock()
	defer t.f.mu.Unlock()
	t.f.rollbacks++
	return t.f.RollbackErr
}

type meta struct{ f *Fixture }

func (m meta) TypeInfo(context.Context) ([]db.Row, error) {
	if err := m.f.enter("TypeInfo", "", ""); err != nil {
		return nil, err
	}
	return cloneRows(m.f.TypeInfo), nil
}

func (m meta) Schemas(context.Context) ([]db.Row, error) {
	if err := m.f.enter("Schemas", "", ""); err != nil {
		return nil, err
	}
	return cloneRows(m.f.Schemas), nil
}

func (m meta) Catalogs(context.Context) ([]db.Row, error) {
	if err := m.f.enter("Catalogs", "", ""); err != nil {
		return nil, err
	}
	return cloneRows(m.f.Catalogs), nil
}

func (m meta) Tables(_ context.Context, catalog, schemaPattern, _ string, types []string) ([]db.Row, error) {
	scope := firstNonEmpty(schemaPattern, catalog)
	if err := m.f.enter("Tables", scope, ""); err != nil {
		return nil, err
	}
	var rows []db.Row
	for _, t := range m.f.Tables {
		if t.Scope != scope {
			continue
		}
		kind := db.TableTypeTable
		if t.View {
			kind = db.TableTypeView
		}
		if !contains(types, kind) {
			continue
		}
		rows = append(rows, db.Row{
			db.LabelTableSchem: t.Scope,
			db.LabelTableName:  t.Name,
			db.LabelTableType:  kind,
		})
	}
	return rows, nil
}

func (m meta) Columns(_ context.Context, catalog, schemaPattern, table string) ([]db.Row, error) {
	return m.child("Columns", firstNonEmpty(schemaPattern, catalog), table, func(t *Table) []db.Row { return t.Columns })
}

func (m meta) IndexInfo(_ context.Context, catalog, schemaName, table string, _, _ bool) ([]db.Row, error) {
	return m.child("IndexInfo", firstNonEmpty(schemaName, catalog), table, func(t *Table) []db.Row { return t.Indexes })
}

func (m meta) PrimaryKeys(_ context.Context, catalog, schemaName, table string) ([]db.Row, error) {
	return m.child("PrimaryKeys", firstNonEmpty(schemaName, catalog), table, func(t *Table) []db.Row { return t.PrimaryKeys })
}

func (m meta) ImportedKeys(_ context.Context, catalog, schemaName, table string) ([]db.Row, error) {
	return m.child("ImportedKeys", firstNonEmpty(schemaName, catalog), table, func(t *Table) []db.Row { return t.ImportedKeys })
}

func (m meta) child(method, scope, table string, pick func(*Table) []db.Row) ([]db.Row, error) {
	if err := m.f.enter(method, scope, table); err != nil {
		return nil, err
	}
	t := m.f.table(scope, table)
	if t == nil {
		return nil, nil
	}
	return cloneRows(pick(t)), nil
}

func cloneRows(rows []db.Row) []db.Row {
	out := make([]db.Row, len(rows))
	for i, r := range rows {
		c := make(db.Row, len(r))
		for k, v := range r {
			c[k] = v
		}
		out[i] = c
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func contains(list []string, s string) bool {
	if len(list) == 0 {
		return true
	}
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
