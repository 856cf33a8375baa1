// Package dbms describes the supported database vendors: their naming
// conventions, type catalogs and override rules, the metadata lookup names
// they expect, and how to open a connection source for them.
package dbms

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/tordrt/dbmeta/internal/db"
	"github.com/tordrt/dbmeta/internal/schema"
	"github.com/tordrt/dbmeta/internal/typemap"
)

// Call identifies a metadata call whose lookup names a vendor may override.
type Call int

const (
	CallTables Call = iota
	CallColumns
	CallIndexes
	CallForeignKeys
	CallPrimaryKeys
)

func (c Call) String() string {
	switch c {
	case CallTables:
		return "tables"
	case CallColumns:
		return "columns"
	case CallIndexes:
		return "indexes"
	case CallForeignKeys:
		return "foreign keys"
	case CallPrimaryKeys:
		return "primary keys"
	}
	return fmt.Sprintf("call(%d)", int(c))
}

// OpenFunc opens a connection source for a dbms. maxConns bounds the
// source's pool; zero keeps the driver default.
type OpenFunc func(ctx context.Context, conn schema.Connection, maxConns int) (db.Source, error)

// Type is the descriptor of one database vendor.
type Type struct {
	Name   string
	Naming Naming

	// DataTypes is a static data-type set. When non-empty it is used to
	// build the discovered type mapping instead of querying TypeInfo.
	DataTypes []typemap.Entry

	// SchemaNameColumn is the result-set label holding the schema name in
	// schema rows; empty means db.LabelTableSchem.
	SchemaNameColumn string

	// CatalogLookup and SchemaLookup return the catalog and schema
	// arguments passed to a metadata call for s. Nil means the defaults:
	// no catalog, and the schema's name.
	CatalogLookup func(call Call, s *schema.Schema) string
	SchemaLookup  func(call Call, s *schema.Schema) string
	// TableLookup returns the table argument for a per-table call. Nil means
	// the table's name.
	TableLookup func(call Call, t *schema.Table) string

	// Catalog resolves column types for this vendor.
	Catalog *typemap.Catalog

	Open OpenFunc
}

// SchemaColumn returns the label holding the schema name in schema rows.
func (t *Type) SchemaColumn() string {
	if t.SchemaNameColumn == "" {
		return db.LabelTableSchem
	}
	return t.SchemaNameColumn
}

// CatalogName returns the catalog argument for call on s.
func (t *Type) CatalogName(call Call, s *schema.Schema) string {
	if t.CatalogLookup == nil {
		return ""
	}
	return t.CatalogLookup(call, s)
}

// SchemaName returns the schema argument for call on s.
func (t *Type) SchemaName(call Call, s *schema.Schema) string {
	if t.SchemaLookup == nil {
		return s.Name
	}
	return t.SchemaLookup(call, s)
}

// TableName returns the table argument for call on tbl.
func (t *Type) TableName(call Call, tbl *schema.Table) string {
	if t.TableLookup == nil {
		return tbl.Name
	}
	return t.TableLookup(call, tbl)
}

// UnsupportedTypeError is returned for a vendor name with no registered
// descriptor.
type UnsupportedTypeError struct {
	Name      string
	Supported []string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported database type %q (supported: %s)", e.Name, strings.Join(e.Supported, ", "))
}

// Registry maps vendor names to descriptors. It is built explicitly and
// passed to whoever needs it.
type Registry struct {
	mu    sync.RWMutex
	types map[string]*Type
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{types: make(map[string]*Type)}
}

// DefaultRegistry returns a registry holding every built-in vendor.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, t := range builtins() {
		r.MustRegister(t)
	}
	return r
}

// Register adds a descriptor. Names are case-insensitive and must be unique.
func (r *Registry) Register(t *Type) error {
	if t == nil || t.Name == "" {
		return fmt.Errorf("dbms type must have a name")
	}
	if t.Catalog == nil {
		return fmt.Errorf("dbms type %s has no type catalog", t.Name)
	}
	key := strings.ToLower(t.Name)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.types[key]; ok {
		return fmt.Errorf("dbms type %s already registered", t.Name)
	}
	r.types[key] = t
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(t *Type) {
	if err := r.Register(t); err != nil {
		panic(err)
	}
}

// Lookup returns the descriptor for name.
func (r *Registry) Lookup(name string) (*Type, error) {
	r.mu.RLock()
	t, ok := r.types[strings.ToLower(name)]
	r.mu.RUnlock()
	if !ok {
		return nil, &UnsupportedTypeError{Name: name, Supported: r.Names()}
	}
	return t, nil
}

// Names returns the registered vendor names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.types))
	for _, t := range r.types {
		names = append(names, t.Name)
	}
	sort.Strings(names)
	return names
}
