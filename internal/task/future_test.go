package task

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFutureWait(t *testing.T) {
	f := Go(context.Background(), "answer", func(context.Context) (int, error) {
		return 42, nil
	})

	v, err := f.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, "answer", f.Name())
	assert.False(t, f.Cancelled())
}

func TestFutureError(t *testing.T) {
	boom := errors.New("boom")
	f := Go(context.Background(), "failing", func(context.Context) (string, error) {
		return "", boom
	})

	_, err := f.Wait(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestFutureCancel(t *testing.T) {
	started := make(chan struct{})
	f := Go(context.Background(), "slow", func(ctx context.Context) (int, error) {
		close(started)
		<-ctx.Done()
		return 0, ctx.Err()
	})
	<-started

	f.Cancel()

	_, err := f.Wait(context.Background())
	assert.ErrorIs(t, err, ErrCancelled)
	assert.True(t, f.Cancelled())
}

func TestFutureCancelAfterCompletion(t *testing.T) {
	f := Go(context.Background(), "ready", func(context.Context) (int, error) { return 7, nil })
	f.Join()
	f.Cancel()

	v, err := f.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.False(t, f.Cancelled())
}

func TestFutureWaitContext(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	f := Go(context.Background(), "blocked", func(context.Context) (int, error) {
		<-block
		return 1, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := f.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFutureJoinWaitsForFunction(t *testing.T) {
	release := make(chan struct{})
	returned := make(chan struct{})
	f := Go(context.Background(), "lingering", func(context.Context) (int, error) {
		<-release
		close(returned)
		return 1, nil
	})

	f.Cancel()
	_, err := f.Wait(context.Background())
	assert.ErrorIs(t, err, ErrCancelled)

	close(release)
	f.Join()
	select {
	case <-returned:
	default:
		t.Fatal("Join returned before the function did")
	}
}
