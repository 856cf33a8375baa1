package discovery

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tordrt/dbmeta/internal/db"
	"github.com/tordrt/dbmeta/internal/dbms"
	"github.com/tordrt/dbmeta/internal/schema"
	"github.com/tordrt/dbmeta/internal/sqltypes"
	"github.com/tordrt/dbmeta/internal/task"
	"github.com/tordrt/dbmeta/internal/typemap"
)

// subtask fills one child collection of a table.
type subtask func(ctx context.Context, conn db.Conn, m *typemap.Mapping, t *schema.Table) error

// discoverTable runs the four per-table subtasks concurrently. Each waits for
// the type mapping and leases its own connection.
func (r *run) discoverTable(ctx, work context.Context, t *schema.Table) error {
	r.sink.SetCurrentAction(fmt.Sprintf("Reading %s.%s", t.Schema().Name, t.Name))

	var g errgroup.Group
	for _, st := range []subtask{r.columns, r.indexes, r.primaryKeys, r.foreignKeys} {
		if r.typeMap.Cancelled() {
			// The run is being abandoned; Discover reports it.
			break
		}
		if err := r.sem.Acquire(ctx, 1); err != nil {
			g.Go(func() error { return err })
			break
		}
		g.Go(func() error {
			defer r.sem.Release(1)
			m, err := r.typeMap.Wait(work)
			if errors.Is(err, task.ErrCancelled) {
				// The run is being abandoned; Discover reports it.
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to build type map: %w", err)
			}
			return db.WithConn(work, r.lease, r.dbms, func(conn db.Conn) error {
				return st(work, conn, m, t)
			})
		})
	}
	return g.Wait()
}

func (r *run) fullName(t *schema.Table) string {
	return t.Schema().Name + "." + t.Name
}

func (r *run) lookup(call dbms.Call, t *schema.Table) (catalog, schemaName, table string) {
	s := t.Schema()
	return r.typ.CatalogName(call, s), r.typ.SchemaName(call, s), r.typ.TableName(call, t)
}

func (r *run) columns(ctx context.Context, conn db.Conn, m *typemap.Mapping, t *schema.Table) error {
	catalog, schemaName, table := r.lookup(dbms.CallColumns, t)
	rows, err := conn.MetaData().Columns(ctx, catalog, schemaName, table)
	if err != nil {
		return fmt.Errorf("failed to read columns of %s: %w", r.fullName(t), err)
	}

	for _, row := range rows {
		if err := r.column(ctx, conn, m, t, row); err != nil {
			return fmt.Errorf("failed to read columns of %s: %w", r.fullName(t), err)
		}
	}
	return nil
}

func (r *run) column(ctx context.Context, conn db.Conn, m *typemap.Mapping, t *schema.Table, row db.Row) error {
	name, _ := row.String(db.LabelColumnName)
	typeName, _ := row.String(db.LabelTypeName)

	position, err := row.RequiredInt(db.LabelOrdinalPosition)
	if err != nil {
		return err
	}
	if v, ok := row[db.LabelNullable]; !ok || v == nil {
		return fmt.Errorf("%w NULL for column %s", ErrNullable, name)
	}
	nullableCode, err := row.Int(db.LabelNullable)
	if err != nil {
		return err
	}
	var nullable bool
	switch nullableCode {
	case sqltypes.NoNulls:
		nullable = false
	case sqltypes.Nullable, sqltypes.NullableUnknown:
		nullable = true
	default:
		return fmt.Errorf("%w %d for column %s", ErrNullable, nullableCode, name)
	}

	info := typemap.ColumnInfo{TypeName: typeName}
	if info.DataType, err = row.Int(db.LabelDataType); err != nil {
		return err
	}
	if info.ColumnSize, err = row.Int(db.LabelColumnSize); err != nil {
		return err
	}
	if info.DecimalDigits, err = row.Int(db.LabelDecimalDigits); err != nil {
		return err
	}

	res, ok := r.typ.Catalog.Resolve(m, info)
	if !ok {
		r.logger.Warn("unresolved column type",
			zap.String("table", r.fullName(t)),
			zap.String("column", name),
			zap.String("type_name", typeName),
			zap.Int("data_type", info.DataType),
			zap.Int("decimal_digits", info.DecimalDigits),
		)
	}

	col := t.AddColumn()
	col.ID = name
	col.Name = name
	col.OrdinalPosition = position
	col.Nullable = nullable
	col.DatabaseType = string(res.Type)
	col.TypeName = typeName
	col.ColumnSize = info.ColumnSize
	col.DecimalDigits = info.DecimalDigits
	col.AutoIncrement = yes(row, db.LabelIsAutoincrement) || yes(row, db.LabelIsGenerated)

	if strings.EqualFold(typeName, "ENUM") {
		values, err := r.enumConstants(ctx, conn, t, name)
		if err != nil {
			return err
		}
		col.EnumConstants = values
	}
	return nil
}

// enumConstants probes the declared constants of an enum column.
func (r *run) enumConstants(ctx context.Context, conn db.Conn, t *schema.Table, column string) ([]string, error) {
	naming := r.typ.Naming
	query := fmt.Sprintf("SHOW COLUMNS FROM %s WHERE field=%s",
		naming.FullName(t.Schema().Name, t.Name), naming.QuoteValue(column))

	rows, err := conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w of %s: %w", ErrEnumProbe, column, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w of %s: no row returned", ErrEnumProbe, column)
	}
	columnType, ok := rows[0].String("TYPE")
	if !ok {
		return nil, fmt.Errorf("%w of %s: no type returned", ErrEnumProbe, column)
	}
	return ParseEnum(columnType)
}

func (r *run) indexes(ctx context.Context, conn db.Conn, _ *typemap.Mapping, t *schema.Table) error {
	catalog, schemaName, table := r.lookup(dbms.CallIndexes, t)
	rows, err := conn.MetaData().IndexInfo(ctx, catalog, schemaName, table, false, false)
	if err != nil {
		return fmt.Errorf("failed to read indexes of %s: %w", r.fullName(t), err)
	}

	byName := make(map[string]*schema.Index)
	for _, row := range rows {
		name, ok := row.String(db.LabelIndexName)
		if !ok {
			r.logger.Debug("skipping index row without a name", zap.String("table", r.fullName(t)))
			continue
		}

		idx, ok := byName[name]
		if !ok {
			nonUnique, err := row.Bool(db.LabelNonUnique)
			if err != nil {
				return fmt.Errorf("failed to read indexes of %s: %w", r.fullName(t), err)
			}
			idx = t.AddIndex()
			idx.ID = name
			idx.Name = name
			idx.Unique = !nonUnique
			byName[name] = idx
		}

		position, err := row.RequiredInt(db.LabelOrdinalPosition)
		if err != nil {
			return fmt.Errorf("failed to read indexes of %s: %w", r.fullName(t), err)
		}
		column, _ := row.String(db.LabelColumnName)
		order, _ := row.String(db.LabelAscOrDesc)

		ic := idx.AddIndexColumn()
		ic.ID = column
		ic.Name = column
		ic.OrdinalPosition = position
		ic.OrderType = orderType(order)
	}
	return nil
}

func (r *run) primaryKeys(ctx context.Context, conn db.Conn, _ *typemap.Mapping, t *schema.Table) error {
	catalog, schemaName, table := r.lookup(dbms.CallPrimaryKeys, t)
	rows, err := conn.MetaData().PrimaryKeys(ctx, catalog, schemaName, table)
	if err != nil {
		return fmt.Errorf("failed to read primary keys of %s: %w", r.fullName(t), err)
	}
	if len(rows) == 0 {
		r.logger.Warn("table has no primary key", zap.String("table", r.fullName(t)))
		return nil
	}

	for _, row := range rows {
		seq, err := row.RequiredInt(db.LabelKeySeq)
		if err != nil {
			return fmt.Errorf("failed to read primary keys of %s: %w", r.fullName(t), err)
		}
		name, _ := row.String(db.LabelColumnName)

		pk := t.AddPrimaryKeyColumn()
		pk.ID = name
		pk.Name = name
		pk.OrdinalPosition = seq
	}
	return nil
}

func (r *run) foreignKeys(ctx context.Context, conn db.Conn, _ *typemap.Mapping, t *schema.Table) error {
	catalog, schemaName, table := r.lookup(dbms.CallForeignKeys, t)
	rows, err := conn.MetaData().ImportedKeys(ctx, catalog, schemaName, table)
	if err != nil {
		return fmt.Errorf("failed to read foreign keys of %s: %w", r.fullName(t), err)
	}

	byName := make(map[string]*schema.ForeignKey)
	for _, row := range rows {
		column, _ := row.String(db.LabelFKColumnName)
		name, ok := row.String(db.LabelFKName)
		if !ok || name == "" {
			name = fmt.Sprintf("%s_%s_fkey", t.Name, column)
		}

		fk, ok := byName[name]
		if !ok {
			fk = t.AddForeignKey()
			fk.ID = name
			fk.Name = name
			byName[name] = fk
		}

		seq, err := row.RequiredInt(db.LabelKeySeq)
		if err != nil {
			return fmt.Errorf("failed to read foreign keys of %s: %w", r.fullName(t), err)
		}
		refTable, _ := row.String(db.LabelPKTableName)
		refColumn, _ := row.String(db.LabelPKColumnName)
		refSchema, ok := row.String(db.LabelPKTableSchem)
		if !ok {
			refSchema, _ = row.String(db.LabelPKTableCat)
		}

		fkc := fk.AddForeignKeyColumn()
		fkc.ID = column
		fkc.Name = column
		fkc.OrdinalPosition = seq
		fkc.ForeignTableName = refTable
		fkc.ForeignColumnName = refColumn
		fkc.ForeignSchemaName = refSchema
		fkc.ForeignDbmsName = r.dbms.ID
	}
	return nil
}

func orderType(code string) schema.OrderType {
	switch strings.ToUpper(code) {
	case "A":
		return schema.OrderAsc
	case "D":
		return schema.OrderDesc
	}
	return schema.OrderNone
}

func yes(row db.Row, label string) bool {
	v, _ := row.String(label)
	return strings.EqualFold(strings.TrimSpace(v), "YES")
}
