package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// This test requires a running memcached instance
// If memcached is not available, the test will be skipped
func TestMemcacheService(t *testing.T) {
	mc := NewMemcacheService("localhost:11211")
	if err := mc.Ping(); err != nil {
		t.Skip("Memcached is not available, skipping test")
	}

	err := mc.Set("contactmerge_test_key", []byte("test_value"), 1*time.Second)
	assert.NoError(t, err)

	value, err := mc.Get("contactmerge_test_key")
	assert.NoError(t, err)
	assert.Equal(t, "test_value", string(value))

	err = mc.Delete("contactmerge_test_key")
	assert.NoError(t, err)

	_, err = mc.Get("contactmerge_test_key")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache()
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return clock }

	require.NoError(t, c.Set("k", []byte("v"), time.Minute))
	require.NoError(t, c.Set("forever", []byte("v"), 0))

	v, err := c.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(v))

	clock = clock.Add(time.Minute)
	_, err = c.Get("k")
	assert.ErrorIs(t, err, ErrMiss)

	_, err = c.Get("forever")
	assert.NoError(t, err)

	require.NoError(t, c.Delete("forever"))
	_, err = c.Get("forever")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestRemember(t *testing.T) {
	c := NewMemoryCache()
	calls := 0
	load := func() ([]byte, error) {
		calls++
		return []byte("loaded"), nil
	}

	for i := 0; i < 3; i++ {
		v, err := Remember(c, "key", time.Hour, load)
		require.NoError(t, err)
		assert.Equal(t, "loaded", string(v))
	}
	assert.Equal(t, 1, calls)

	v, err := Remember(nil, "key", time.Hour, load)
	require.NoError(t, err)
	assert.Equal(t, "loaded", string(v))
	assert.Equal(t, 2, calls)
}

func TestBlock(t *testing.T) {
	c := NewMemoryCache()
	assert.False(t, IsBlocked(c, "yt_blocked"))
	require.NoError(t, Block(c, "yt_blocked", 5*time.Minute))
	assert.True(t, IsBlocked(c, "yt_blocked"))
	assert.False(t, IsBlocked(nil, "yt_blocked"))
	assert.NoError(t, Block(nil, "yt_blocked", time.Minute))
}
