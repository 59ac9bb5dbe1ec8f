package cache

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashKey(t *testing.T) {
	tests := []struct {
		name  string
		parts []string
	}{
		{
			name:  "single part",
			parts: []string{"test"},
		},
		{
			name:  "multiple parts",
			parts: []string{"test", "key", "with", "many", "parts"},
		},
		{
			name:  "empty parts",
			parts: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hashed1 := HashKey(tt.parts...)
			hashed2 := HashKey(tt.parts...)

			// Hash should be consistent
			assert.Equal(t, hashed1, hashed2)

			// Hash should be 32 characters (MD5 hex)
			assert.Len(t, hashed1, 32)
		})
	}
}

func TestCache_NamespaceKey(t *testing.T) {
	cache := &Cache{}

	tests := []struct {
		name     string
		key      string
		expected string
	}{
		{
			name:     "simple key",
			key:      "test",
			expected: "connecthub:test",
		},
		{
			name:     "key with colon",
			key:      "test:key",
			expected: "connecthub:test:key",
		},
		{
			name:     "empty key",
			key:      "",
			expected: "connecthub:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, cache.namespaceKey(tt.key))
		})
	}
}

func TestCache_SetGetDelete(t *testing.T) {
	srv := miniredis.RunT(t)
	cache := NewWithClient(redis.NewClient(&redis.Options{Addr: srv.Addr()}))
	defer cache.Close()

	require.NoError(t, cache.Set("greeting", "hello", time.Minute))

	val, err := cache.Get("greeting")
	require.NoError(t, err)
	assert.Equal(t, "hello", val)

	exists, err := cache.Exists("greeting")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, cache.Delete("greeting"))

	_, err = cache.Get("greeting")
	assert.ErrorIs(t, err, redis.Nil)
}

func TestCache_DisabledIsSafe(t *testing.T) {
	var cache *Cache

	_, err := cache.Get("key")
	assert.ErrorIs(t, err, ErrCacheDisabled)

	err = cache.Set("key", "value", time.Minute)
	assert.ErrorIs(t, err, ErrCacheDisabled)

	assert.NoError(t, cache.Close())
}
