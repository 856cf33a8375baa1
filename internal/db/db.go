// Package db defines the connection capability consumed by discovery and the
// statement executor, together with driver-backed implementations for the
// supported vendors.
//
// Metadata is exposed as buffered result sets whose rows are keyed by the
// standard metadata column labels (TABLE_SCHEM, COLUMN_NAME, ...), so the
// discovery code reads every vendor the same way.
package db

import (
	"context"
	"fmt"

	"github.com/tordrt/dbmeta/internal/schema"
)

// Standard metadata result-set labels.
const (
	LabelTableCat        = "TABLE_CAT"
	LabelTableSchem      = "TABLE_SCHEM"
	LabelTableCatalog    = "TABLE_CATALOG"
	LabelTableName       = "TABLE_NAME"
	LabelTableType       = "TABLE_TYPE"
	LabelColumnName      = "COLUMN_NAME"
	LabelDataType        = "DATA_TYPE"
	LabelTypeName        = "TYPE_NAME"
	LabelColumnSize      = "COLUMN_SIZE"
	LabelDecimalDigits   = "DECIMAL_DIGITS"
	LabelNullable        = "NULLABLE"
	LabelOrdinalPosition = "ORDINAL_POSITION"
	LabelIsAutoincrement = "IS_AUTOINCREMENT"
	LabelIsGenerated     = "IS_GENERATEDCOLUMN"
	LabelNonUnique       = "NON_UNIQUE"
	LabelIndexName       = "INDEX_NAME"
	LabelAscOrDesc       = "ASC_OR_DESC"
	LabelKeySeq          = "KEY_SEQ"
	LabelPKName          = "PK_NAME"
	LabelPKTableCat      = "PKTABLE_CAT"
	LabelPKTableSchem    = "PKTABLE_SCHEM"
	LabelPKTableName     = "PKTABLE_NAME"
	LabelPKColumnName    = "PKCOLUMN_NAME"
	LabelFKColumnName    = "FKCOLUMN_NAME"
	LabelFKName          = "FK_NAME"
)

// Table types accepted by MetaData.Tables.
const (
	TableTypeTable = "TABLE"
	TableTypeView  = "VIEW"
)

// MetaData is the catalog view of a connection. Empty catalog or schema
// arguments mean "do not filter on this".
type MetaData interface {
	TypeInfo(ctx context.Context) ([]Row, error)
	Schemas(ctx context.Context) ([]Row, error)
	Catalogs(ctx context.Context) ([]Row, error)
	Tables(ctx context.Context, catalog, schemaPattern, tablePattern string, types []string) ([]Row, error)
	Columns(ctx context.Context, catalog, schemaPattern, table string) ([]Row, error)
	IndexInfo(ctx context.Context, catalog, schema, table string, unique, approximate bool) ([]Row, error)
	PrimaryKeys(ctx context.Context, catalog, schema, table string) ([]Row, error)
	ImportedKeys(ctx context.Context, catalog, schema, table string) ([]Row, error)
}

// Conn is one physical connection. It is never shared between goroutines.
type Conn interface {
	MetaData() MetaData
	Query(ctx context.Context, query string, args ...any) ([]Row, error)
	// Begin starts a transaction, switching the connection out of autocommit.
	Begin(ctx context.Context) (Tx, error)
	Close() error
}

// Tx is an open transaction.
type Tx interface {
	// Exec runs a statement. With returnKeys set, the generated keys of an
	// insert are captured in the result.
	Exec(ctx context.Context, query string, args []any, returnKeys bool) (Result, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Result is the outcome of Tx.Exec.
type Result struct {
	RowsAffected  int64
	GeneratedKeys []any
}

// Source hands out connections to one database, typically from a pool.
type Source interface {
	Conn(ctx context.Context) (Conn, error)
	Close() error
}

// Lease acquires and releases connections by dbms identity.
type Lease interface {
	Acquire(ctx context.Context, d *schema.Dbms) (Conn, error)
	Release(c Conn) error
}

// WithConn leases a connection for the duration of fn and always releases it.
func WithConn(ctx context.Context, l Lease, d *schema.Dbms, fn func(Conn) error) (err error) {
	c, err := l.Acquire(ctx, d)
	if err != nil {
		return fmt.Errorf("failed to acquire connection to %s: %w", d.ID, err)
	}
	defer func() {
		if rerr := l.Release(c); rerr != nil && err == nil {
			err = fmt.Errorf("failed to release connection to %s: %w", d.ID, rerr)
		}
	}()
	return fn(c)
}
