package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMailboxPostWait(t *testing.T) {
	mb := NewMailbox[bool]()

	assert.False(t, mb.Post(true))

	v, err := mb.Wait(context.Background())
	require.NoError(t, err)
	assert.True(t, v)
	assert.Equal(t, uint64(1), mb.Posted())
	assert.Zero(t, mb.Dropped())
}

func TestMailboxOverwrite(t *testing.T) {
	mb := NewMailbox[int]()

	mb.Post(1)
	assert.True(t, mb.Post(2), "second post should overwrite the unconsumed first")

	v, err := mb.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	assert.Equal(t, uint64(1), mb.Dropped())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	_, err = mb.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded, "slot must be empty after consuming")
}

func TestMailboxWaitBlocksUntilPost(t *testing.T) {
	mb := NewMailbox[string]()

	go func() {
		time.Sleep(5 * time.Millisecond)
		mb.Post("done")
	}()

	v, err := mb.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "done", v)
}

func TestMailboxWaitCancelled(t *testing.T) {
	mb := NewMailbox[int]()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := mb.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
