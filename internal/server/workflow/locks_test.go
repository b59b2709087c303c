package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserLocks_ExclusivePerUser(t *testing.T) {
	l := newUserLocks()

	release, err := l.Acquire(context.Background(), "a")
	require.NoError(t, err)

	// another user is not blocked
	other, err := l.Acquire(context.Background(), "b")
	require.NoError(t, err)
	other()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Acquire(ctx, "a")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	release()
	release()
	assert.Zero(t, l.size())

	again, err := l.Acquire(context.Background(), "a")
	require.NoError(t, err)
	again()
}
