package dbms

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/tordrt/dbmeta/internal/db"
	"github.com/tordrt/dbmeta/internal/schema"
)

// Pool leases connections by dbms identity. The first lease for a dbms opens
// its source through the vendor's driver factory; later leases reuse it.
type Pool struct {
	registry *Registry
	maxConns int
	logger   *zap.Logger
	resolve  func(schema.Connection) (schema.Connection, error)

	mu      sync.Mutex
	sources map[string]db.Source
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithMaxConns bounds the connections each source keeps open.
func WithMaxConns(n int) PoolOption {
	return func(p *Pool) { p.maxConns = n }
}

// WithLogger sets the pool's logger.
func WithLogger(l *zap.Logger) PoolOption {
	return func(p *Pool) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithConnectionResolver sets a hook that rewrites connection parameters,
// e.g. to resolve secret references, right before a source is opened.
func WithConnectionResolver(fn func(schema.Connection) (schema.Connection, error)) PoolOption {
	return func(p *Pool) { p.resolve = fn }
}

// NewPool returns a pool resolving vendors through registry.
func NewPool(registry *Registry, opts ...PoolOption) *Pool {
	p := &Pool{
		registry: registry,
		logger:   zap.NewNop(),
		sources:  make(map[string]db.Source),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Acquire leases a connection to d.
func (p *Pool) Acquire(ctx context.Context, d *schema.Dbms) (db.Conn, error) {
	src, err := p.source(ctx, d)
	if err != nil {
		return nil, err
	}
	return src.Conn(ctx)
}

// Release returns a leased connection.
func (p *Pool) Release(c db.Conn) error {
	return c.Close()
}

// Put registers an already open source for a dbms id. It fails if the id
// already has one.
func (p *Pool) Put(dbmsID string, src db.Source) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.sources[dbmsID]; ok {
		return fmt.Errorf("source for dbms %s already open", dbmsID)
	}
	p.sources[dbmsID] = src
	return nil
}

func (p *Pool) source(ctx context.Context, d *schema.Dbms) (db.Source, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if src, ok := p.sources[d.ID]; ok {
		return src, nil
	}

	t, err := p.registry.Lookup(d.TypeName)
	if err != nil {
		return nil, err
	}
	if t.Open == nil {
		return nil, fmt.Errorf("dbms type %s has no driver", t.Name)
	}

	conn := d.Connection
	if p.resolve != nil {
		if conn, err = p.resolve(conn); err != nil {
			return nil, fmt.Errorf("failed to resolve connection for %s: %w", d.ID, err)
		}
	}

	src, err := t.Open(ctx, conn, p.maxConns)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s source for %s: %w", t.Name, d.ID, err)
	}
	p.logger.Debug("opened connection source", zap.String("dbms", d.ID), zap.String("type", t.Name))
	p.sources[d.ID] = src
	return src, nil
}

// Close closes every open source.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	for id, src := range p.sources {
		if err := src.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close source for %s: %w", id, err))
		}
		delete(p.sources, id)
	}
	return errors.Join(errs...)
}
