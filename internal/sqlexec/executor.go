// Package sqlexec runs batches of mutating statements in one transaction,
// retrying the whole batch on transient failures.
package sqlexec

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/tordrt/dbmeta/internal/db"
	"github.com/tordrt/dbmeta/internal/schema"
)

// DefaultRetryBudget is the number of attempts made before giving up on
// transient failures.
const DefaultRetryBudget = 5

// Statement is one mutating statement of a batch.
type Statement struct {
	SQL  string
	Args []any
	// Insert captures the statement's generated keys.
	Insert bool
	// OnKeys receives the generated keys of an insert once the batch has
	// committed. It never runs for a batch that failed.
	OnKeys func(keys []any)
}

// Executor runs statement batches against leased connections.
type Executor struct {
	lease  db.Lease
	logger *zap.Logger
	budget int
	delay  time.Duration
}

// Option configures an Executor.
type Option func(*Executor)

// WithLogger sets the logger receiving retry diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(x *Executor) {
		if l != nil {
			x.logger = l
		}
	}
}

// WithRetryBudget sets the number of attempts.
func WithRetryBudget(n int) Option {
	return func(x *Executor) {
		if n > 0 {
			x.budget = n
		}
	}
}

// WithRetryDelay sets the initial delay between attempts; it grows
// exponentially. Zero retries immediately.
func WithRetryDelay(d time.Duration) Option {
	return func(x *Executor) { x.delay = d }
}

// New returns an executor leasing connections from lease.
func New(lease db.Lease, opts ...Option) *Executor {
	x := &Executor{
		lease:  lease,
		logger: zap.NewNop(),
		budget: DefaultRetryBudget,
		delay:  50 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Transient reports whether err carries one of the SQL states worth retrying.
func Transient(err error) bool {
	switch db.SQLState(err) {
	case db.StateConnectionFailure, db.StateSerializationFailure:
		return true
	}
	return false
}

func (x *Executor) backOff(ctx context.Context) backoff.BackOff {
	var b backoff.BackOff = &backoff.ZeroBackOff{}
	if x.delay > 0 {
		eb := backoff.NewExponentialBackOff()
		eb.InitialInterval = x.delay
		eb.MaxElapsedTime = 0
		b = eb
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(x.budget-1)), ctx)
}

// Execute runs stmts in one transaction on a connection to d. A transient
// failure rolls back and retries the batch on a fresh connection until the
// retry budget is spent; any other failure aborts at once. Generated keys
// are handed to the statements' OnKeys callbacks after the commit.
func (x *Executor) Execute(ctx context.Context, d *schema.Dbms, stmts []Statement) error {
	var (
		attempts int
		failed   = -1
		keys     [][]any
	)

	op := func() error {
		attempts++
		k, i, err := x.attempt(ctx, d, stmts)
		if err == nil {
			keys = k
			return nil
		}
		failed = i

		var rb *RollbackError
		if errors.As(err, &rb) || !Transient(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		x.logger.Warn("transient failure, retrying transaction",
			zap.String("dbms", d.ID),
			zap.Int("attempt", attempts),
			zap.String("sql_state", db.SQLState(err)),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	}

	if err := backoff.RetryNotify(op, x.backOff(ctx), notify); err != nil {
		var rb *RollbackError
		return &Error{
			Statements: statementTexts(stmts),
			Failed:     failed,
			Attempts:   attempts,
			Exhausted:  !errors.As(err, &rb) && Transient(err) && attempts >= x.budget,
			Err:        err,
		}
	}

	for i, st := range stmts {
		if st.Insert && st.OnKeys != nil {
			st.OnKeys(keys[i])
		}
	}
	return nil
}

// attempt runs the batch once on its own leased connection, which is
// released on every path. It returns the keys per statement, or the index of
// the failing statement and the error.
func (x *Executor) attempt(ctx context.Context, d *schema.Dbms, stmts []Statement) (keys [][]any, failed int, err error) {
	conn, err := x.lease.Acquire(ctx, d)
	if err != nil {
		return nil, -1, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer func() {
		if rerr := x.lease.Release(conn); rerr != nil {
			x.logger.Warn("failed to release connection", zap.String("dbms", d.ID), zap.Error(rerr))
		}
	}()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return nil, -1, fmt.Errorf("failed to begin transaction: %w", err)
	}

	keys = make([][]any, len(stmts))
	for i, st := range stmts {
		res, err := tx.Exec(ctx, st.SQL, st.Args, st.Insert)
		if err != nil {
			if rerr := tx.Rollback(ctx); rerr != nil {
				return nil, i, &RollbackError{Err: rerr, Cause: err}
			}
			return nil, i, err
		}
		keys[i] = res.GeneratedKeys
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, -1, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return keys, -1, nil
}

func statementTexts(stmts []Statement) []string {
	out := make([]string, len(stmts))
	for i, st := range stmts {
		out[i] = st.SQL
	}
	return out
}
