//go:build integration
// +build integration

package integration

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/tordrt/dbmeta"
)

func sqliteURL(t *testing.T) string {
	t.Helper()

	// Use environment variable if set, otherwise use default test database
	path := envOr("SQLITE_TEST_PATH", "../../test.db")
	if _, err := os.Stat(path); err != nil {
		t.Skipf("SQLite test database not available: %v", err)
	}
	return "sqlite://" + path
}

func TestSQLiteDiscovery(t *testing.T) {
	s := discoverSchema(t, sqliteURL(t), "main", nil)

	// Verify tables exist
	expectedTables := []string{"users", "products", "orders", "order_items"}
	verifyTablesExist(t, s, expectedTables)

	// Verify users table structure
	table := findTable(t, s, "users")
	verifyPrimaryKey(t, table, []string{"id"})
	verifyColumns(t, table, []string{"id", "username", "email", "status", "created_at"})
	verifyUniqueConstraint(t, s, "users", "email")

	// Verify foreign key relationships
	verifyForeignKey(t, s, "orders", "user_id", "users")
	verifyForeignKey(t, s, "order_items", "order_id", "orders")
}

func TestSQLiteFormats(t *testing.T) {
	url := sqliteURL(t)

	for _, format := range []string{"text", "markdown", "yaml"} {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			err := dbmeta.DiscoverAndFormat(t.Context(), url, nil, &dbmeta.OutputOptions{Writer: &buf, Format: format})
			if err != nil {
				t.Fatalf("DiscoverAndFormat() error = %v", err)
			}
			if !strings.Contains(buf.String(), "users") {
				t.Errorf("%s output does not mention users:\n%s", format, buf.String())
			}
		})
	}
}
