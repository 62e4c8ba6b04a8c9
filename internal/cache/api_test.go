package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		params   map[string]any
		expected string
	}{
		{
			name:     "no params is just the endpoint",
			endpoint: "getUsers",
			expected: "getUsers",
		},
		{
			name:     "nil and empty params are equivalent",
			endpoint: "getUsers",
			params:   map[string]any{},
			expected: "getUsers",
		},
		{
			name:     "single param",
			endpoint: "getUser",
			params:   map[string]any{"id": 42},
			expected: "getUser?id=42",
		},
		{
			name:     "params serialized in sorted key order",
			endpoint: "listMRs",
			params:   map[string]any{"state": "opened", "page": 2, "per_page": 25},
			expected: "listMRs?page=2&per_page=25&state=opened",
		},
		{
			name:     "mixed value types",
			endpoint: "search",
			params:   map[string]any{"q": "gopher", "active": true},
			expected: "search?active=true&q=gopher",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Key(tt.endpoint, tt.params))
		})
	}
}

func TestKey_DeterministicAcrossMapOrder(t *testing.T) {
	// Map iteration order is random; the key must not be.
	params := map[string]any{"a": 1, "b": 2, "c": 3, "d": 4, "e": 5}
	first := Key("ep", params)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, Key("ep", params))
	}
}

func TestAPI_SetAndGetWithHeaders(t *testing.T) {
	c := NewAPI[[]int](time.Minute)
	headers := map[string]string{"x-total": "120", "x-page": "1"}

	c.Set("listMRs?page=1", []int{1, 2, 3}, headers)

	resp, ok := c.Get("listMRs?page=1")
	require.True(t, ok)
	assert.Equal(t, []int{1, 2, 3}, resp.Data)
	assert.Equal(t, "120", resp.Headers["x-total"])
	assert.False(t, resp.CreatedAt.IsZero(), "entry carries its storage time")
}

func TestAPI_GetStampsCreatedAt(t *testing.T) {
	stored := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: stored}
	c := NewAPI[string](time.Hour, WithClock[Response[string]](clock.Now))

	c.Set("k", "v", nil)
	clock.Advance(30 * time.Minute)

	resp, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, stored, resp.CreatedAt, "creation time is when the entry was stored, not read")
}

func TestAPI_GetMiss(t *testing.T) {
	c := NewAPI[string](time.Minute)

	_, ok := c.Get("absent")
	assert.False(t, ok)
}

func TestAPI_RemoveAndClear(t *testing.T) {
	c := NewAPI[string](time.Minute)
	c.Set("a", "1", nil)
	c.Set("b", "2", nil)

	c.Remove("a")
	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Clear()
	assert.Equal(t, 0, c.Stats().Size)
}

func TestAPI_SetTTLExpires(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	c := NewAPI[string](time.Hour, WithClock[Response[string]](clock.Now))

	c.SetTTL("k", "v", nil, time.Second)

	clock.Advance(2 * time.Second)
	_, ok := c.Get("k")
	assert.False(t, ok)
}
