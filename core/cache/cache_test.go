package cache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// smallCeiling keeps split thresholds tiny so tests exercise fragmenting.
const smallCeiling = DescriptorMargin + 100

func TestCache_StringRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := New(NewMemoryBackend(DefaultMaxValueSize))

	require.NoError(t, c.PutString(ctx, "k", "hello", 0))

	v, found, err := c.GetString(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "hello", v)
}

func TestCache_MissingKey(t *testing.T) {
	c := New(NewMemoryBackend(DefaultMaxValueSize))

	v, found, err := c.GetString(context.Background(), "nope")
	assert.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, v)
}

func TestCache_SplitAndReassemble(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"JustOverThreshold", strings.Repeat("a", 101)},
		{"ExactMultiple", strings.Repeat("b", 300)},
		{"ManyFragments", strings.Repeat("0123456789", 257)},
		{"Multibyte", strings.Repeat("héllo wörld ", 40)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			backend := NewMemoryBackend(smallCeiling)
			c := New(backend)

			require.NoError(t, c.PutString(ctx, "big", tt.value, 0))
			assert.Greater(t, backend.Len(), 2, "value should be split into fragments")

			got, found, err := c.GetString(ctx, "big")
			require.NoError(t, err)
			require.True(t, found)
			assert.Equal(t, tt.value, got)

			require.NoError(t, c.Remove(ctx, "big"))
			assert.Equal(t, 0, backend.Len(), "remove must leave no fragments behind")

			_, found, err = c.GetString(ctx, "big")
			assert.NoError(t, err)
			assert.False(t, found)
		})
	}
}

func TestCache_FragmentKeys(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend(smallCeiling)
	c := New(backend)

	require.NoError(t, c.PutString(ctx, "doc", strings.Repeat("x", 250), 0))

	for _, k := range []string{"$$$doc0", "$$$doc1", "$$$doc2"} {
		_, found, err := backend.Get(ctx, k)
		require.NoError(t, err)
		assert.True(t, found, "expected fragment %s", k)
	}
	_, found, _ := backend.Get(ctx, "$$$doc3")
	assert.False(t, found)
}

func TestCache_OverwriteDropsStaleFragments(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend(smallCeiling)
	c := New(backend)

	require.NoError(t, c.PutString(ctx, "k", strings.Repeat("x", 500), 0))
	require.NoError(t, c.PutString(ctx, "k", "short", 0))

	assert.Equal(t, 1, backend.Len())
	v, _, err := c.GetString(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "short", v)
}

func TestCache_MissingFragmentIsMiss(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend(smallCeiling)
	c := New(backend)

	require.NoError(t, c.PutString(ctx, "k", strings.Repeat("x", 250), 0))
	require.NoError(t, backend.Remove(ctx, "$$$k1"))

	_, found, err := c.GetString(ctx, "k")
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestCache_AliasedFragmentIsMiss(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend(DescriptorMargin + 10)
	c := New(backend)

	// "a" spans $$$a0..$$$a11; "a1" then rewrites $$$a10 and $$$a11.
	require.NoError(t, c.PutString(ctx, "a", strings.Repeat("x", 115), 0))
	require.NoError(t, c.PutString(ctx, "a1", strings.Repeat("y", 15), 0))

	_, found, err := c.GetString(ctx, "a")
	assert.NoError(t, err)
	assert.False(t, found, "a value with foreign fragments must not be returned")

	v, found, err := c.GetString(ctx, "a1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, strings.Repeat("y", 15), v)
}

func TestCache_RejectsFragmentPrefix(t *testing.T) {
	c := New(NewMemoryBackend(DefaultMaxValueSize))

	err := c.PutString(context.Background(), "$$$doc0", "v", 0)
	assert.ErrorIs(t, err, ErrReservedKey)
}

func TestCache_TypeMismatch(t *testing.T) {
	ctx := context.Background()
	c := New(NewMemoryBackend(DefaultMaxValueSize))

	require.NoError(t, c.PutNumber(ctx, "n", 42, 0))

	_, _, err := c.GetString(ctx, "n")
	assert.True(t, errors.Is(err, ErrTypeMismatch))

	_, _, err = c.GetBoolean(ctx, "n")
	assert.True(t, errors.Is(err, ErrTypeMismatch))

	err = c.Put(ctx, "s", 12, TypeString, 0)
	assert.True(t, errors.Is(err, ErrTypeMismatch))

	err = c.PutObject(ctx, "o", "not an object", 0)
	assert.True(t, errors.Is(err, ErrTypeMismatch))
}

func TestCache_TypedValues(t *testing.T) {
	ctx := context.Background()
	c := New(NewMemoryBackend(DefaultMaxValueSize))

	require.NoError(t, c.PutNumber(ctx, "n", 3.25, 0))
	n, found, err := c.GetNumber(ctx, "n")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 3.25, n)

	require.NoError(t, c.PutBoolean(ctx, "b", true, 0))
	b, found, err := c.GetBoolean(ctx, "b")
	require.NoError(t, err)
	assert.True(t, found)
	assert.True(t, b)

	type doc struct {
		ID   string `json:"id"`
		Tags []string
	}
	require.NoError(t, c.PutObject(ctx, "o", doc{ID: "x", Tags: []string{"a"}}, 0))
	var out doc
	found, err = c.GetObject(ctx, "o", &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, doc{ID: "x", Tags: []string{"a"}}, out)
}

func TestCache_DynamicPutGet(t *testing.T) {
	ctx := context.Background()
	c := New(NewMemoryBackend(DefaultMaxValueSize))

	require.NoError(t, c.Put(ctx, "n", 7, TypeNumber, 0))
	v, found, err := c.Get(ctx, "n", TypeNumber)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, float64(7), v)

	require.NoError(t, c.Put(ctx, "m", map[string]any{"a": "b"}, TypeObject, 0))
	v, _, err = c.Get(ctx, "m", TypeObject)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": "b"}, v)
}

func TestCache_TTLExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	backend := NewMemoryBackend(DefaultMaxValueSize)
	backend.now = func() time.Time { return now }
	c := New(backend, WithClock(func() time.Time { return now }))

	require.NoError(t, c.PutString(ctx, "k", "v", time.Minute))

	updated, found, err := c.LastUpdated(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, now.UnixMilli(), updated.UnixMilli())

	now = now.Add(2 * time.Minute)
	_, found, err = c.GetString(ctx, "k")
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestCache_GetOrLoad(t *testing.T) {
	ctx := context.Background()
	c := New(NewMemoryBackend(smallCeiling))

	var calls atomic.Int32
	load := func(ctx context.Context) (any, error) {
		calls.Add(1)
		time.Sleep(10 * time.Millisecond)
		return []string{strings.Repeat("a", 150), strings.Repeat("b", 150)}, nil
	}

	var wg sync.WaitGroup
	results := make([][]string, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, c.GetOrLoad(ctx, "listing", time.Minute, &results[i], load))
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.Len(t, r, 2)
	}
	assert.LessOrEqual(t, calls.Load(), int32(5))

	// Subsequent reads are served from the cache.
	before := calls.Load()
	var again []string
	require.NoError(t, c.GetOrLoad(ctx, "listing", time.Minute, &again, load))
	assert.Equal(t, before, calls.Load())
	assert.Equal(t, results[0], again)
}

func TestCache_GetOrLoadError(t *testing.T) {
	c := New(NewMemoryBackend(DefaultMaxValueSize))

	var out []string
	err := c.GetOrLoad(context.Background(), "k", 0, &out, func(ctx context.Context) (any, error) {
		return nil, errors.New("remote down")
	})
	assert.EqualError(t, err, "remote down")
}

func TestMemoryBackend_RejectsOversizedValue(t *testing.T) {
	b := NewMemoryBackend(10)
	err := b.Put(context.Background(), "k", strings.Repeat("x", 11), 0)
	assert.True(t, errors.Is(err, ErrValueTooLarge))
}

func TestNewBackend(t *testing.T) {
	b, err := NewBackend(Config{Backend: BackendMemory})
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxValueSize, b.MaxValueSize())

	_, err = NewBackend(Config{Backend: "memcached"})
	assert.Error(t, err)
}
