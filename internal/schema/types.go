// Package schema holds the configuration document tree populated by
// discovery: Project → Dbms → Schema → Table → {Column, Index,
// PrimaryKeyColumn, ForeignKey}.
//
// Children are owned by their parent and created through the parent's AddX
// methods, which allocate and append in one step. Appends are safe under
// concurrent writers; field writes are not, and rely on each node being
// populated by a single task.
package schema

import (
	"fmt"
	"strings"
	"sync"
)

// Kind identifies the node variant.
type Kind int

const (
	KindProject Kind = iota
	KindDbms
	KindSchema
	KindTable
	KindColumn
	KindIndex
	KindIndexColumn
	KindPrimaryKeyColumn
	KindForeignKey
	KindForeignKeyColumn
)

var kindNames = [...]string{
	"project", "dbms", "schema", "table", "column", "index",
	"index column", "primary key column", "foreign key", "foreign key column",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Node is the capability set shared by every document node.
type Node interface {
	Kind() Kind
	NodeID() string
	NodeName() string
	// Parent is a back-reference; nil for the project root.
	Parent() Node
}

// OrderType is the sort direction of an index column.
type OrderType string

const (
	OrderAsc  OrderType = "ASC"
	OrderDesc OrderType = "DESC"
	OrderNone OrderType = "NONE"
)

// DuplicateIDError is returned when adding a child whose id is already taken
// by a sibling.
type DuplicateIDError struct {
	Kind   Kind
	ID     string
	Parent string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("duplicate %s id %q in %s", e.Kind, e.ID, e.Parent)
}

// Project is the document root.
type Project struct {
	ID     string  `yaml:"id"`
	Name   string  `yaml:"name,omitempty"`
	Dbmses []*Dbms `yaml:"dbms"`

	mu sync.Mutex
}

// Connection holds the parameters used to reach a dbms. They are opaque to
// discovery and only interpreted by the driver factory.
type Connection struct {
	URL      string            `yaml:"url,omitempty"`
	Host     string            `yaml:"host,omitempty"`
	Port     int               `yaml:"port,omitempty"`
	Database string            `yaml:"database,omitempty"`
	Username string            `yaml:"username,omitempty"`
	Password string            `yaml:"password,omitempty"`
	Params   map[string]string `yaml:"params,omitempty"`
}

// Dbms is one database connection target.
type Dbms struct {
	ID         string     `yaml:"id"`
	Name       string     `yaml:"name,omitempty"`
	TypeName   string     `yaml:"type"`
	Connection Connection `yaml:"connection"`
	Schemas    []*Schema  `yaml:"schemas,omitempty"`

	parent *Project
	mu     sync.Mutex
}

// Schema is a discovered schema or catalog namespace.
type Schema struct {
	ID     string   `yaml:"id"`
	Name   string   `yaml:"name"`
	Tables []*Table `yaml:"tables,omitempty"`

	parent *Dbms
	mu     sync.Mutex
}

// Table is a discovered relation.
type Table struct {
	ID                string              `yaml:"id"`
	Name              string              `yaml:"name"`
	View              bool                `yaml:"view,omitempty"`
	Columns           []*Column           `yaml:"columns,omitempty"`
	Indexes           []*Index            `yaml:"indexes,omitempty"`
	PrimaryKeyColumns []*PrimaryKeyColumn `yaml:"primary_key_columns,omitempty"`
	ForeignKeys       []*ForeignKey       `yaml:"foreign_keys,omitempty"`

	parent *Schema
	mu     sync.Mutex
}

// Column is a table column. DatabaseType holds the canonical type; TypeName
// keeps the raw vendor type name it was resolved from.
type Column struct {
	ID              string   `yaml:"id"`
	Name            string   `yaml:"name"`
	OrdinalPosition int      `yaml:"ordinal_position"`
	Nullable        bool     `yaml:"nullable"`
	DatabaseType    string   `yaml:"database_type"`
	TypeName        string   `yaml:"type_name,omitempty"`
	ColumnSize      int      `yaml:"column_size,omitempty"`
	DecimalDigits   int      `yaml:"decimal_digits,omitempty"`
	AutoIncrement   bool     `yaml:"auto_increment,omitempty"`
	EnumConstants   []string `yaml:"enum_constants,omitempty"`

	parent *Table
}

// EnumConstantsString returns the enum constants in their legacy
// comma-joined form.
func (c *Column) EnumConstantsString() string {
	return strings.Join(c.EnumConstants, ",")
}

// Index is a table index.
type Index struct {
	ID      string         `yaml:"id"`
	Name    string         `yaml:"name"`
	Unique  bool           `yaml:"unique"`
	Columns []*IndexColumn `yaml:"columns,omitempty"`

	parent *Table
	mu     sync.Mutex
}

// IndexColumn is one column of an index.
type IndexColumn struct {
	ID              string    `yaml:"id"`
	Name            string    `yaml:"name"`
	OrdinalPosition int       `yaml:"ordinal_position"`
	OrderType       OrderType `yaml:"order_type"`

	parent *Index
}

// PrimaryKeyColumn is one column of the table's primary key.
type PrimaryKeyColumn struct {
	ID              string `yaml:"id"`
	Name            string `yaml:"name"`
	OrdinalPosition int    `yaml:"ordinal_position"`

	parent *Table
}

// ForeignKey is a foreign key constraint declared on a table.
type ForeignKey struct {
	ID      string              `yaml:"id"`
	Name    string              `yaml:"name"`
	Columns []*ForeignKeyColumn `yaml:"columns,omitempty"`

	parent *Table
	mu     sync.Mutex
}

// ForeignKeyColumn is one local→referenced column pair of a foreign key.
// ForeignDbmsName defaults to the owning dbms; cross-dbms keys are only
// produced by later manual edits.
type ForeignKeyColumn struct {
	ID                string `yaml:"id"`
	Name              string `yaml:"name"`
	OrdinalPosition   int    `yaml:"ordinal_position"`
	ForeignTableName  string `yaml:"foreign_table_name"`
	ForeignColumnName string `yaml:"foreign_column_name"`
	ForeignSchemaName string `yaml:"foreign_schema_name,omitempty"`
	ForeignDbmsName   string `yaml:"foreign_dbms_name,omitempty"`

	parent *ForeignKey
}
