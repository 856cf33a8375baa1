package sqlexec

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/tordrt/dbmeta/internal/db/dbtest"
	"github.com/tordrt/dbmeta/internal/schema"
)

var target = &schema.Dbms{ID: "main", TypeName: "fake"}

func serializationFailure() error {
	return &dbtest.StateError{State: "40001", Msg: "could not serialize access"}
}

func connectionFailure() error {
	return &dbtest.StateError{State: "08S01", Msg: "communications link failure"}
}

// batch returns an insert followed by an update; keys collects what the
// insert's callback receives along with the commit count seen at that time.
func batch(fx *dbtest.Fixture, keys *[][]any, commitsSeen *[]int) []Statement {
	return []Statement{
		{
			SQL:    "INSERT INTO users (name) VALUES ($1) RETURNING id",
			Args:   []any{"ada"},
			Insert: true,
			OnKeys: func(k []any) {
				*keys = append(*keys, k)
				*commitsSeen = append(*commitsSeen, fx.Commits())
			},
		},
		{SQL: "UPDATE counters SET n = n + 1", Args: nil},
	}
}

func TestExecuteCommits(t *testing.T) {
	fx := &dbtest.Fixture{NextKey: 41}
	x := New(fx.Lease(), WithRetryDelay(0))

	var keys [][]any
	var commits []int
	require.NoError(t, x.Execute(context.Background(), target, batch(fx, &keys, &commits)))

	assert.Equal(t, [][]any{{int64(42)}}, keys)
	assert.Equal(t, []int{1}, commits)
	assert.Equal(t, 1, fx.Begins())
	assert.Equal(t, []string{
		"INSERT INTO users (name) VALUES ($1) RETURNING id",
		"UPDATE counters SET n = n + 1",
	}, fx.Committed())
	assert.Zero(t, fx.Open())
}

func TestExecuteRetriesTransientFailures(t *testing.T) {
	fx := &dbtest.Fixture{ExecErrors: []error{serializationFailure(), serializationFailure()}}
	core, logs := observer.New(zapcore.WarnLevel)
	x := New(fx.Lease(), WithRetryDelay(0), WithLogger(zap.New(core)))

	var keys [][]any
	var commits []int
	require.NoError(t, x.Execute(context.Background(), target, batch(fx, &keys, &commits)))

	assert.Equal(t, 3, fx.Begins())
	assert.Equal(t, 2, fx.Rollbacks())
	assert.Equal(t, 1, fx.Commits())
	require.Len(t, keys, 1, "key callback fires exactly once")
	assert.Equal(t, []int{1}, commits, "key callback fires only after the commit")
	assert.Equal(t, int64(3), fx.Acquired(), "one connection per attempt")
	assert.Zero(t, fx.Open())

	retries := logs.FilterMessage("transient failure, retrying transaction").All()
	require.Len(t, retries, 2)
	assert.Equal(t, "40001", retries[0].ContextMap()["sql_state"])
}

func TestExecuteRetryExhausted(t *testing.T) {
	failures := make([]error, 20)
	for i := range failures {
		failures[i] = connectionFailure()
	}
	fx := &dbtest.Fixture{ExecErrors: failures}
	x := New(fx.Lease(), WithRetryDelay(0))

	var keys [][]any
	var commits []int
	err := x.Execute(context.Background(), target, batch(fx, &keys, &commits))
	require.Error(t, err)

	assert.ErrorIs(t, err, ErrRetryExhausted)
	var xe *Error
	require.ErrorAs(t, err, &xe)
	assert.Equal(t, DefaultRetryBudget, xe.Attempts)
	assert.Equal(t, 0, xe.Failed)
	assert.Contains(t, err.Error(), "INSERT INTO users")
	assert.Equal(t, 5, fx.Begins())
	assert.Zero(t, fx.Commits())
	assert.Empty(t, keys)
	assert.Zero(t, fx.Open())
}

func TestExecuteNonTransientAborts(t *testing.T) {
	dup := &dbtest.StateError{State: "23505", Msg: "duplicate key"}
	fx := &dbtest.Fixture{ExecErrors: []error{nil, dup}}
	x := New(fx.Lease(), WithRetryDelay(0))

	var keys [][]any
	var commits []int
	err := x.Execute(context.Background(), target, batch(fx, &keys, &commits))

	var xe *Error
	require.ErrorAs(t, err, &xe)
	assert.ErrorIs(t, err, dup)
	assert.NotErrorIs(t, err, ErrRetryExhausted)
	assert.Equal(t, 1, xe.Attempts)
	assert.Equal(t, 1, xe.Failed)
	assert.Equal(t, 1, fx.Begins())
	assert.Equal(t, 1, fx.Rollbacks())
	assert.Empty(t, keys)
	assert.Zero(t, fx.Open())
}

func TestExecuteRollbackFailureTakesPrecedence(t *testing.T) {
	rollbackErr := errors.New("connection lost during rollback")
	fx := &dbtest.Fixture{
		ExecErrors:  []error{serializationFailure()},
		RollbackErr: rollbackErr,
	}
	x := New(fx.Lease(), WithRetryDelay(0))

	var keys [][]any
	var commits []int
	err := x.Execute(context.Background(), target, batch(fx, &keys, &commits))

	var rb *RollbackError
	require.ErrorAs(t, err, &rb)
	assert.ErrorIs(t, err, rollbackErr)
	assert.Equal(t, "40001", rb.Cause.(*dbtest.StateError).State)
	assert.Equal(t, 1, fx.Begins(), "a failed rollback is not retried")
	assert.NotErrorIs(t, err, ErrRetryExhausted)
	assert.Zero(t, fx.Open())
}

func TestExecuteCustomBudget(t *testing.T) {
	fx := &dbtest.Fixture{ExecErrors: []error{connectionFailure(), connectionFailure(), connectionFailure()}}
	x := New(fx.Lease(), WithRetryDelay(0), WithRetryBudget(2))

	err := x.Execute(context.Background(), target, []Statement{{SQL: "DELETE FROM sessions"}})
	assert.ErrorIs(t, err, ErrRetryExhausted)
	assert.Equal(t, 2, fx.Begins())
}

func TestTransient(t *testing.T) {
	assert.True(t, Transient(serializationFailure()))
	assert.True(t, Transient(connectionFailure()))
	assert.False(t, Transient(&dbtest.StateError{State: "42P01"}))
	assert.False(t, Transient(errors.New("plain")))
}
