package formatter

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/tordrt/dbmeta/internal/schema"
)

func shopProject(t *testing.T) *schema.Project {
	t.Helper()
	p := &schema.Project{ID: "shop", Name: "Shop"}
	d, err := p.AddDbms("main")
	require.NoError(t, err)
	d.TypeName = "postgres"
	s, err := d.AddSchema("public")
	require.NoError(t, err)

	users, err := s.AddTable("users")
	require.NoError(t, err)
	col := users.AddColumn()
	col.ID, col.Name, col.DatabaseType, col.TypeName, col.AutoIncrement = "id", "id", "int32", "serial", true
	col = users.AddColumn()
	col.ID, col.Name, col.DatabaseType, col.TypeName, col.ColumnSize, col.Nullable = "email", "email", "string", "varchar", 120, true
	col = users.AddColumn()
	col.ID, col.Name, col.DatabaseType, col.TypeName = "status", "status", "string", "enum"
	col.EnumConstants = []string{"active", "banned"}
	pk := users.AddPrimaryKeyColumn()
	pk.ID, pk.Name, pk.OrdinalPosition = "id", "id", 1
	idx := users.AddIndex()
	idx.ID, idx.Name, idx.Unique = "users_email_key", "users_email_key", true
	ic := idx.AddIndexColumn()
	ic.ID, ic.Name, ic.OrdinalPosition, ic.OrderType = "email", "email", 1, schema.OrderAsc

	orders, err := s.AddTable("orders")
	require.NoError(t, err)
	col = orders.AddColumn()
	col.ID, col.Name, col.DatabaseType, col.TypeName, col.ColumnSize, col.DecimalDigits = "total", "total", "decimal", "numeric", 10, 2
	col = orders.AddColumn()
	col.ID, col.Name, col.DatabaseType = "user_id", "user_id", "int32"
	idx = orders.AddIndex()
	idx.ID, idx.Name = "orders_recent", "orders_recent"
	ic = idx.AddIndexColumn()
	ic.ID, ic.Name, ic.OrderType = "user_id", "user_id", schema.OrderDesc
	fk := orders.AddForeignKey()
	fk.ID, fk.Name = "orders_user_fk", "orders_user_fk"
	fc := fk.AddForeignKeyColumn()
	fc.ID, fc.Name, fc.ForeignTableName, fc.ForeignColumnName, fc.ForeignSchemaName = "user_id", "user_id", "users", "id", "public"

	view, err := s.AddTable("active_users")
	require.NoError(t, err)
	view.View = true
	return p
}

func TestTextFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewTextFormatter(&buf).Format(shopProject(t)))

	want := `DBMS main (postgres)

SCHEMA public

TABLE users (PK: id)
  id: int32 [serial] NOT NULL AUTO_INCREMENT
  email: string [varchar(120)]
  status: string [enum] (active|banned) NOT NULL

  INDEXES:
    users_email_key (email) UNIQUE

TABLE orders
  total: decimal [numeric(10,2)] NOT NULL
  user_id: int32 NOT NULL

  FOREIGN KEYS:
    orders_user_fk (user_id) → public.users(id)

  INDEXES:
    orders_recent (user_id DESC)

VIEW active_users
`
	assert.Equal(t, want, buf.String())
}

func TestMarkdownFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewMarkdownFormatter(&buf).Format(shopProject(t)))
	out := buf.String()

	assert.Contains(t, out, "# Shop\n\n## main (postgres)\n\n### Schema public\n\n#### users\n\n")
	assert.Contains(t, out, "- **id:** int32 [serial], PK, NOT NULL, AUTO_INCREMENT\n")
	assert.Contains(t, out, "- **email:** string [varchar(120)]\n")
	assert.Contains(t, out, "##### References\n\n- user_id → public.users(id) (`orders_user_fk`)\n")
	assert.Contains(t, out, "- users_email_key on (email), unique\n")
	assert.Contains(t, out, "#### active_users (view)")
}

func TestYAMLFormatterRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	f, err := New("yaml", &buf)
	require.NoError(t, err)
	require.NoError(t, f.Format(shopProject(t)))

	var p schema.Project
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &p))
	p.Relink()
	assert.Equal(t, 3, schema.Count(&p, schema.KindTable))
	assert.Equal(t, 1, schema.Count(&p, schema.KindForeignKeyColumn))
	assert.Contains(t, buf.String(), "enum_constants:")
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	_, err := New("html", &bytes.Buffer{})
	assert.ErrorContains(t, err, "html")
	_, err = NewMultiFileFormatter(t.TempDir(), "yaml")
	assert.Error(t, err)
}

func TestMultiFileFormatter(t *testing.T) {
	for _, format := range []string{"markdown", "text"} {
		t.Run(format, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "out")
			f, err := NewMultiFileFormatter(dir, format)
			require.NoError(t, err)
			require.NoError(t, f.Format(shopProject(t)))

			ext := f.getFileExtension()
			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			var names []string
			for _, e := range entries {
				names = append(names, e.Name())
			}
			assert.ElementsMatch(t, []string{
				"_overview" + ext,
				"public.users" + ext,
				"public.orders" + ext,
				"public.active_users" + ext,
			}, names)

			overview, err := os.ReadFile(filepath.Join(dir, "_overview"+ext))
			require.NoError(t, err)
			assert.Regexp(t, `public\.orders\W* \(references: users\)`, string(overview))

			users, err := os.ReadFile(filepath.Join(dir, "public.users"+ext))
			require.NoError(t, err)
			assert.Contains(t, string(users), "public.orders(user_id)")
		})
	}
}
