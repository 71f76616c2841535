package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoWorker answers every command with ok, like a worker that always succeeds
func echoWorker(ctx context.Context, ch *Channel, ok bool) {
	for {
		cmd, err := ch.Receive(ctx)
		if err != nil {
			return
		}
		ch.Complete(cmd, ok)
	}
}

func TestChannelCall(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := NewChannel(nil)
	go echoWorker(ctx, ch, true)

	ok, err := ch.Call(ctx, Command{Op: OpRead, Index: 0})
	require.NoError(t, err)
	assert.True(t, ok)

	stats := ch.Stats()
	assert.Equal(t, uint64(1), stats.Submitted)
	assert.Equal(t, uint64(1), stats.Completed)
}

func TestChannelSecondSubmitBlocksUntilAwait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := NewChannel(nil)
	go echoWorker(ctx, ch, true)

	first, err := ch.Submit(ctx, Command{Op: OpRead})
	require.NoError(t, err)

	// Completion for the first command has not been consumed, so a second
	// submit must wait for the in-flight token
	blocked, stop := context.WithTimeout(ctx, 20*time.Millisecond)
	defer stop()
	_, err = ch.Submit(blocked, Command{Op: OpRead, Index: 1})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	ok, err := ch.Await(ctx, first)
	require.NoError(t, err)
	assert.True(t, ok)

	// Token is back
	ok, err = ch.Call(ctx, Command{Op: OpRead, Index: 1})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestChannelAwaitIgnoresStaleCompletion(t *testing.T) {
	ctx := context.Background()
	ch := NewChannel(nil)

	t1, err := ch.Submit(ctx, Command{Op: OpRead})
	require.NoError(t, err)
	cmd1, err := ch.Receive(ctx)
	require.NoError(t, err)

	// A leftover answer to an older command is sitting in the mailbox
	ch.Complete(Command{seq: cmd1.Seq() - 1}, true)
	ch.Complete(cmd1, false)

	ok, err := ch.Await(ctx, t1)
	require.NoError(t, err)
	assert.False(t, ok, "must reflect the answer to the command that was issued")

	stats := ch.Stats()
	assert.Equal(t, uint64(1), stats.Dropped, "stale value was overwritten in the single slot")
}

func TestChannelAwaitSkipsOlderSequence(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	ch := NewChannel(nil)

	tk, err := ch.Submit(ctx, Command{Op: OpWrite})
	require.NoError(t, err)
	cmd, err := ch.Receive(ctx)
	require.NoError(t, err)

	go func() {
		ch.Complete(Command{seq: cmd.Seq() - 1}, true)
		time.Sleep(5 * time.Millisecond)
		ch.Complete(cmd, false)
	}()

	ok, err := ch.Await(ctx, tk)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestChannelFIFO(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := NewChannel(nil)
	seen := make(chan int, 3)
	go func() {
		for {
			cmd, err := ch.Receive(ctx)
			if err != nil {
				return
			}
			seen <- cmd.Index
			ch.Complete(cmd, true)
		}
	}()

	for i := 0; i < 3; i++ {
		_, err := ch.Call(ctx, Command{Op: OpRead, Index: i})
		require.NoError(t, err)
	}
	assert.Equal(t, 0, <-seen)
	assert.Equal(t, 1, <-seen)
	assert.Equal(t, 2, <-seen)
}

func TestChannelSubmitCancelledReturnsToken(t *testing.T) {
	ch := NewChannel(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ch.Submit(ctx, Command{Op: OpRead})
	require.Error(t, err)

	// The token must be free again
	_, err = ch.Submit(context.Background(), Command{Op: OpRead})
	require.NoError(t, err)
}
