// Package discovery crawls the metadata of a live database into the
// configuration tree.
//
// A run is staged. The type mapping is bootstrapped while schemas and
// catalogs are enumerated; once both enumerations have finished, one task
// per kept schema lists its tables, and each table fans out into four
// subtasks (columns, indexes, primary keys, foreign keys) that wait on the
// type mapping. The run fails as a whole if any task fails; sibling tasks
// already scheduled still run to completion.
package discovery

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/tordrt/dbmeta/internal/db"
	"github.com/tordrt/dbmeta/internal/dbms"
	"github.com/tordrt/dbmeta/internal/progress"
	"github.com/tordrt/dbmeta/internal/schema"
	"github.com/tordrt/dbmeta/internal/sqltypes"
	"github.com/tordrt/dbmeta/internal/task"
	"github.com/tordrt/dbmeta/internal/typemap"
)

// DefaultWorkers bounds the metadata queries in flight at once.
const DefaultWorkers = 8

// Coordinator runs discoveries.
type Coordinator struct {
	registry *dbms.Registry
	lease    db.Lease
	logger   *zap.Logger
	workers  int64
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger receiving diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithWorkers bounds the number of concurrently leased connections used for
// table listing and per-table queries.
func WithWorkers(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.workers = int64(n)
		}
	}
}

// New returns a coordinator resolving vendors through registry and leasing
// connections from lease.
func New(registry *dbms.Registry, lease db.Lease, opts ...Option) *Coordinator {
	c := &Coordinator{
		registry: registry,
		lease:    lease,
		logger:   zap.NewNop(),
		workers:  DefaultWorkers,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// run is the state of one discovery.
type run struct {
	*Coordinator
	dbms    *schema.Dbms
	typ     *dbms.Type
	sink    progress.Sink
	sem     *semaphore.Weighted
	typeMap *task.Future[*typemap.Mapping]
	tracker *tracker
}

// Discover populates the dbms dbmsID of a copy of project and returns the
// copy. project itself is never modified; the caller swaps the result in.
//
// Cancelling ctx stops new per-table work from being scheduled and fails the
// run; queries already in flight finish first.
func (c *Coordinator) Discover(ctx context.Context, project *schema.Project, dbmsID string, sink progress.Sink, filter Filter) (*schema.Project, error) {
	if sink == nil {
		sink = progress.Nop()
	}
	sink = progress.Monotonic(sink)

	out := project.Copy()
	d, ok := out.FindDbms(dbmsID)
	if !ok {
		return nil, &Error{Dbms: dbmsID, Err: fmt.Errorf("dbms %s not found in project %s", dbmsID, project.ID)}
	}
	typ, err := c.registry.Lookup(d.TypeName)
	if err != nil {
		return nil, &Error{Dbms: dbmsID, Err: err}
	}
	// A rerun replaces whatever an earlier discovery produced.
	d.Schemas = nil

	// Work already started is allowed to finish after ctx is cancelled.
	work := context.WithoutCancel(ctx)

	r := &run{
		Coordinator: c,
		dbms:        d,
		typ:         typ,
		sink:        sink,
		sem:         semaphore.NewWeighted(c.workers),
	}

	sink.SetCurrentAction("Reading data types")
	sink.SetProgress(0)
	r.typeMap = task.Go(work, "type map", r.bootstrapTypeMap)
	defer r.typeMap.Join()
	stop := context.AfterFunc(ctx, r.typeMap.Cancel)
	defer stop()

	names := newNameSet(typ.Naming, filter)
	var enum errgroup.Group
	enum.Go(func() error { return r.enumerateSchemas(work, names) })
	enum.Go(func() error { return r.enumerateCatalogs(work, names) })
	if err := enum.Wait(); err != nil {
		r.typeMap.Cancel()
		return nil, r.fail(err)
	}

	kept := names.kept()
	if len(kept) == 0 {
		r.typeMap.Cancel()
		return nil, &Error{Dbms: d.ID, Discarded: names.discardedNames(), Err: ErrNoSchemas}
	}
	if discarded := names.discardedNames(); len(discarded) > 0 {
		c.logger.Debug("discarded schemas", zap.String("dbms", d.ID), zap.Strings("schemas", discarded))
	}

	schemas := make([]*schema.Schema, 0, len(kept))
	for _, name := range kept {
		s, err := d.AddSchema(name)
		if err != nil {
			r.typeMap.Cancel()
			return nil, r.fail(err)
		}
		schemas = append(schemas, s)
	}
	r.tracker = newTracker(kept)

	var fanOut errgroup.Group
	for _, s := range schemas {
		if err := ctx.Err(); err != nil {
			fanOut.Go(func() error { return err })
			break
		}
		fanOut.Go(func() error { return r.discoverSchema(ctx, work, s) })
	}
	if err := fanOut.Wait(); err != nil {
		return nil, r.fail(err)
	}

	if _, err := r.typeMap.Wait(work); err != nil {
		return nil, r.fail(fmt.Errorf("failed to build type map: %w", err))
	}
	if err := ctx.Err(); err != nil {
		return nil, r.fail(err)
	}

	sink.SetCurrentAction("Discovery complete")
	sink.SetProgress(progress.Done)
	return out, nil
}

func (r *run) fail(err error) error {
	var de *Error
	if errors.As(err, &de) {
		return de
	}
	return &Error{Dbms: r.dbms.ID, Err: err}
}

// bootstrapTypeMap builds the discovered type mapping from the vendor's
// static data types, or from the connection's type info when it has none.
func (r *run) bootstrapTypeMap(ctx context.Context) (*typemap.Mapping, error) {
	entries := r.typ.DataTypes
	if len(entries) == 0 {
		err := db.WithConn(ctx, r.lease, r.dbms, func(conn db.Conn) error {
			rows, err := conn.MetaData().TypeInfo(ctx)
			if err != nil {
				return fmt.Errorf("failed to read type info: %w", err)
			}
			for _, row := range rows {
				name, ok := row.String(db.LabelTypeName)
				if !ok {
					continue
				}
				code, err := row.Int(db.LabelDataType)
				if err != nil {
					return fmt.Errorf("failed to read type info: %w", err)
				}
				entries = append(entries, typemap.Entry{Name: name, Code: sqltypes.Code(code)})
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	m, skipped := typemap.BuildMapping(r.typ.Catalog, entries)
	r.logger.Debug("type map built", zap.String("dbms", r.dbms.ID), zap.Int("types", m.Len()))
	if len(skipped) > 0 {
		r.logger.Debug("type info entries without a mapping", zap.String("dbms", r.dbms.ID), zap.Strings("types", skipped))
	}
	return m, nil
}

func (r *run) enumerateSchemas(ctx context.Context, names *nameSet) error {
	r.sink.SetCurrentAction("Reading schemas")
	return db.WithConn(ctx, r.lease, r.dbms, func(conn db.Conn) error {
		rows, err := conn.MetaData().Schemas(ctx)
		if err != nil {
			return fmt.Errorf("failed to read schemas: %w", err)
		}
		for _, row := range rows {
			name, ok := schemaName(row, r.typ.SchemaColumn())
			if !ok {
				r.logger.Debug("schema row without a name", zap.String("dbms", r.dbms.ID))
				continue
			}
			names.add(name, false)
		}
		return nil
	})
}

func (r *run) enumerateCatalogs(ctx context.Context, names *nameSet) error {
	r.sink.SetCurrentAction("Reading catalogs")
	return db.WithConn(ctx, r.lease, r.dbms, func(conn db.Conn) error {
		rows, err := conn.MetaData().Catalogs(ctx)
		if err != nil {
			return fmt.Errorf("failed to read catalogs: %w", err)
		}
		for _, row := range rows {
			name, ok := row.String(db.LabelTableCat)
			if !ok || name == "" {
				continue
			}
			names.add(name, true)
		}
		return nil
	})
}

// discoverSchema lists the tables of s and runs the per-table subtasks.
// Scheduling stops once ctx is cancelled; queries run on work.
func (r *run) discoverSchema(ctx, work context.Context, s *schema.Schema) error {
	if err := r.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	tables, err := r.listTables(work, s)
	r.sem.Release(1)
	if err != nil {
		return err
	}
	r.sink.SetProgress(r.tracker.tables(s.Name, len(tables)))

	var g errgroup.Group
	for _, t := range tables {
		if err := ctx.Err(); err != nil {
			g.Go(func() error { return err })
			break
		}
		g.Go(func() error {
			if err := r.discoverTable(ctx, work, t); err != nil {
				return err
			}
			r.sink.SetProgress(r.tracker.tableDone(s.Name))
			return nil
		})
	}
	return g.Wait()
}

func (r *run) listTables(ctx context.Context, s *schema.Schema) ([]*schema.Table, error) {
	r.sink.SetCurrentAction(fmt.Sprintf("Reading tables of %s", s.Name))

	var tables []*schema.Table
	err := db.WithConn(ctx, r.lease, r.dbms, func(conn db.Conn) error {
		rows, err := conn.MetaData().Tables(ctx,
			r.typ.CatalogName(dbms.CallTables, s),
			r.typ.SchemaName(dbms.CallTables, s),
			"",
			[]string{db.TableTypeTable, db.TableTypeView},
		)
		if err != nil {
			return fmt.Errorf("failed to read tables of %s: %w", s.Name, err)
		}
		for _, row := range rows {
			name, ok := row.String(db.LabelTableName)
			if !ok {
				continue
			}
			t, err := s.AddTable(name)
			if err != nil {
				return err
			}
			kind, _ := row.String(db.LabelTableType)
			t.View = kind == db.TableTypeView
			tables = append(tables, t)
		}
		return nil
	})
	return tables, err
}
