package cache

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCaches(t *testing.T) {
	calls := 0
	c := NewWithTTL[int](time.Minute, func(key string) (int, error) {
		calls++

		return 42, nil
	})

	v, err := c.Load("k")
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	_, _ = c.Load("k")
	_, _ = c.Load("k")

	assert.Equal(t, 1, calls)
}

func TestLoadExpiry(t *testing.T) {
	calls := 0
	c := NewWithTTL[int](time.Millisecond, func(key string) (int, error) {
		calls++

		return calls, nil
	})

	v, _ := c.Load("k")
	assert.Equal(t, 1, v)

	time.Sleep(time.Millisecond * 5)

	v, _ = c.Load("k")
	assert.Equal(t, 2, v)
}

func TestLoaderErrorServesStale(t *testing.T) {
	fail := false
	c := NewWithTTL[string](time.Millisecond, func(key string) (string, error) {
		if fail {
			return "", errors.New("remote down")
		}

		return "fresh", nil
	})

	v, err := c.Load("k")
	require.NoError(t, err)
	assert.Equal(t, "fresh", v)

	fail = true
	time.Sleep(time.Millisecond * 5)

	v, err = c.Load("k")

	require.NoError(t, err)
	assert.Equal(t, "fresh", v)
}

func TestLoaderErrorNoValue(t *testing.T) {
	c := NewWithTTL[string](time.Minute, func(key string) (string, error) {
		return "", errors.New("remote down")
	})

	_, err := c.Load("k")

	assert.Error(t, err)
}

func TestInvalidate(t *testing.T) {
	calls := 0
	c := NewWithTTL[int](time.Minute, func(key string) (int, error) {
		calls++

		return calls, nil
	})

	_, _ = c.Load("k")
	c.Invalidate("k")
	v, _ := c.Load("k")

	assert.Equal(t, 2, v)
}
