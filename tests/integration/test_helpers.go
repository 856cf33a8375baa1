//go:build integration
// +build integration

package integration

import (
	"context"
	"os"
	"testing"

	"github.com/tordrt/dbmeta"
	"github.com/tordrt/dbmeta/internal/schema"
)

// envOr returns the environment variable name, or def when it is unset.
func envOr(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}

// discoverSchema discovers url and returns the named schema of the result.
func discoverSchema(t *testing.T, url, schemaName string, opts *dbmeta.Options) *schema.Schema {
	t.Helper()

	p, err := dbmeta.DiscoverURL(context.Background(), url, opts)
	if err != nil {
		t.Fatalf("Failed to discover %s: %v", url, err)
	}
	d, ok := p.FindDbms("main")
	if !ok {
		t.Fatal("Discovered project has no dbms")
	}
	s, ok := d.FindSchema(schemaName)
	if !ok {
		t.Fatalf("Schema %s not discovered", schemaName)
	}
	return s
}

// verifyTablesExist checks that all expected tables are present in the schema
func verifyTablesExist(t *testing.T, s *schema.Schema, expectedTables []string) {
	t.Helper()

	if len(s.Tables) != len(expectedTables) {
		t.Errorf("Expected %d tables, got %d", len(expectedTables), len(s.Tables))
	}

	for _, tableName := range expectedTables {
		if _, ok := s.FindTable(tableName); !ok {
			t.Errorf("Expected table %s not found in schema", tableName)
		}
	}
}

// verifyColumns checks that expected columns exist in a table
func verifyColumns(t *testing.T, table *schema.Table, expectedColumns []string) {
	t.Helper()

	columnMap := make(map[string]bool)
	for _, col := range table.Columns {
		columnMap[col.Name] = true
	}

	for _, colName := range expectedColumns {
		if !columnMap[colName] {
			t.Errorf("Expected column %s not found in %s table", colName, table.Name)
		}
	}
}

// verifyColumnType checks the canonical type a column resolved to
func verifyColumnType(t *testing.T, table *schema.Table, columnName, expected string) {
	t.Helper()

	for _, col := range table.Columns {
		if col.Name == columnName {
			if col.DatabaseType != expected {
				t.Errorf("Expected %s.%s to resolve to %s, got %s (%s)", table.Name, columnName, expected, col.DatabaseType, col.TypeName)
			}
			return
		}
	}
	t.Errorf("Column %s not found in table %s", columnName, table.Name)
}

// verifyPrimaryKey checks that a table has the expected primary key
func verifyPrimaryKey(t *testing.T, table *schema.Table, expectedPK []string) {
	t.Helper()

	var got []string
	for _, pk := range table.PrimaryKeyColumns {
		got = append(got, pk.Name)
	}
	if len(got) != len(expectedPK) {
		t.Errorf("Expected primary key %v, got %v", expectedPK, got)
		return
	}
	for i, pk := range expectedPK {
		if got[i] != pk {
			t.Errorf("Expected primary key %v, got %v", expectedPK, got)
			return
		}
	}
}

// verifyUniqueConstraint checks that a column is covered by a unique index
func verifyUniqueConstraint(t *testing.T, s *schema.Schema, tableName, columnName string) {
	t.Helper()

	table := findTable(t, s, tableName)
	for _, idx := range table.Indexes {
		if idx.Unique && len(idx.Columns) == 1 && idx.Columns[0].Name == columnName {
			return
		}
	}
	t.Errorf("Expected %s column to have unique constraint", columnName)
}

// verifyForeignKey checks that a foreign key relationship exists
func verifyForeignKey(t *testing.T, s *schema.Schema, tableName, sourceColumn, targetTable string) {
	t.Helper()

	table := findTable(t, s, tableName)
	for _, fk := range table.ForeignKeys {
		for _, c := range fk.Columns {
			if c.Name == sourceColumn && c.ForeignTableName == targetTable {
				return
			}
		}
	}

	t.Errorf("Expected foreign key relationship from %s.%s to %s not found", tableName, sourceColumn, targetTable)
}

// verifyEnumValues checks that a column has the expected enum values
func verifyEnumValues(t *testing.T, s *schema.Schema, tableName, columnName string, expectedValues []string) {
	t.Helper()

	table := findTable(t, s, tableName)
	for _, col := range table.Columns {
		if col.Name == columnName {
			if len(col.EnumConstants) != len(expectedValues) {
				t.Errorf("Expected enum values %v for %s, got %v", expectedValues, columnName, col.EnumConstants)
			}
			return
		}
	}

	t.Errorf("Column %s not found in table %s", columnName, tableName)
}

// findTable finds a table by name in the schema or fails the test
func findTable(t *testing.T, s *schema.Schema, tableName string) *schema.Table {
	t.Helper()

	table, ok := s.FindTable(tableName)
	if !ok {
		t.Fatalf("Table %s not found", tableName)
	}
	return table
}
