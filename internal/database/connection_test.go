package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetryer(max int) Backoff {
	return Backoff{
		MaxRetries: max,
		Base:       time.Millisecond,
		Max:        5 * time.Millisecond,
		Multiplier: 2,
	}
}

func TestRetry(t *testing.T) {
	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		err := fastRetryer(3).Retry(context.Background(), func() error {
			calls++
			if calls < 3 {
				return errors.New("connection refused")
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		calls := 0
		sentinel := errors.New("still down")
		err := fastRetryer(2).Retry(context.Background(), func() error {
			calls++
			return sentinel
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, sentinel)
		assert.Equal(t, 3, calls)
	})

	t.Run("stops when the context is done", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := fastRetryer(5).Retry(ctx, func() error { return nil })
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestDelayIsCapped(t *testing.T) {
	b := Backoff{Base: time.Second, Max: 3 * time.Second, Multiplier: 2}
	assert.Equal(t, time.Second, b.delay(0))
	assert.Equal(t, 2*time.Second, b.delay(1))
	assert.Equal(t, 3*time.Second, b.delay(5))

	b.Jitter = true
	d := b.delay(0)
	assert.GreaterOrEqual(t, d, time.Second)
	assert.LessOrEqual(t, d, 1250*time.Millisecond)
}

func TestIsConnectionError(t *testing.T) {
	assert.False(t, isConnectionError(nil))
	assert.True(t, isConnectionError(fmt.Errorf("query: %w", context.DeadlineExceeded)))
	assert.True(t, isConnectionError(errors.New("write: broken pipe")))
	assert.True(t, isConnectionError(errors.New("read: connection reset by peer")))
	assert.False(t, isConnectionError(errors.New("There was a problem with the database: field 'email' is not unique")))
}

func TestRedactDBURL(t *testing.T) {
	assert.Equal(t, "ws://root:xxxxx@localhost:8000/rpc", redactDBURL("ws://root:secret@localhost:8000/rpc"))
	assert.Equal(t, "invalid-url", redactDBURL("://nope"))
}

func TestWithConnectionRequiresConnect(t *testing.T) {
	c := NewConnection(nil, WithBackoff(fastRetryer(1)), WithHealthInterval(time.Minute))
	err := c.WithConnection(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.ErrorIs(t, c.Ping(context.Background()), ErrNotConnected)
	assert.False(t, c.IsHealthy())
	assert.NoError(t, c.Close(context.Background()))
	assert.NoError(t, c.Close(context.Background()), "close is idempotent")
}

func TestQueryHelpers(t *testing.T) {
	assert.True(t, hasLimit("SELECT * FROM account LIMIT 5"))
	assert.True(t, hasLimit("select *\nfrom account\nlimit 1"))
	assert.False(t, hasLimit("SELECT * FROM account WHERE email = $email"))
	assert.True(t, isSelect("  select * from account"))
	assert.False(t, isSelect("UPDATE account SET first_name = 'x'"))

	assert.Equal(t, "SELECT * FROM account", summary("SELECT *\n\tFROM account"))
	long := summary("SELECT * FROM account WHERE email = $email AND confirmed_at != NONE ORDER BY created_at")
	assert.Len(t, long, 60)
	assert.True(t, strings.HasSuffix(long, "..."))
}
