package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey_Deterministic(t *testing.T) {
	a := Key("abc123", "ocr=true;tables=true;mintext=64;threshold=5.0000")
	b := Key("abc123", "ocr=true;tables=true;mintext=64;threshold=5.0000")

	assert.Equal(t, a, b)
	assert.Contains(t, a, "doc:")
}

func TestKey_SensitiveToContentAndConfig(t *testing.T) {
	base := Key("abc123", "ocr=true;tables=true;mintext=64;threshold=5.0000")

	assert.NotEqual(t, base, Key("abc124", "ocr=true;tables=true;mintext=64;threshold=5.0000"))
	assert.NotEqual(t, base, Key("abc123", "ocr=false;tables=true;mintext=64;threshold=5.0000"))
}

func TestMemoryClient_SetGet(t *testing.T) {
	c := NewMemoryClient(10)
	ctx := context.Background()

	err := c.Set(ctx, "k1", []byte("v1"), 0)
	require.NoError(t, err)

	got, err := c.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), got)
}

func TestMemoryClient_Miss(t *testing.T) {
	c := NewMemoryClient(10)

	_, err := c.Get(context.Background(), "absent")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryClient_TTLExpiry(t *testing.T) {
	c := NewMemoryClient(10)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k1", []byte("v1"), 10*time.Millisecond))

	_, err := c.Get(ctx, "k1")
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	_, err = c.Get(ctx, "k1")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryClient_ZeroTTLNeverExpires(t *testing.T) {
	c := NewMemoryClient(10)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k1", []byte("v1"), 0))

	time.Sleep(10 * time.Millisecond)

	_, err := c.Get(ctx, "k1")
	assert.NoError(t, err)
}

func TestMemoryClient_EvictsOldestAtCapacity(t *testing.T) {
	c := NewMemoryClient(2)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "first", []byte("1"), 0))
	time.Sleep(2 * time.Millisecond)
	require.NoError(t, c.Set(ctx, "second", []byte("2"), 0))
	time.Sleep(2 * time.Millisecond)
	require.NoError(t, c.Set(ctx, "third", []byte("3"), 0))

	assert.Equal(t, 2, c.Len())

	_, err := c.Get(ctx, "first")
	assert.ErrorIs(t, err, ErrCacheMiss)

	_, err = c.Get(ctx, "second")
	assert.NoError(t, err)
	_, err = c.Get(ctx, "third")
	assert.NoError(t, err)
}

func TestMemoryClient_OverwriteDoesNotEvict(t *testing.T) {
	c := NewMemoryClient(2)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, c.Set(ctx, "b", []byte("2"), 0))
	require.NoError(t, c.Set(ctx, "a", []byte("updated"), 0))

	assert.Equal(t, 2, c.Len())

	got, err := c.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("updated"), got)
}

func TestMemoryClient_ValueIsolation(t *testing.T) {
	c := NewMemoryClient(10)
	ctx := context.Background()

	written := []byte("original")
	require.NoError(t, c.Set(ctx, "k1", written, 0))
	written[0] = 'X'

	got, err := c.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), got)

	got[0] = 'Y'

	again, err := c.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), again)
}

func TestMemoryClient_Delete(t *testing.T) {
	c := NewMemoryClient(10)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k1", []byte("v1"), 0))
	require.NoError(t, c.Delete(ctx, "k1"))

	_, err := c.Get(ctx, "k1")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryClient_Clear(t *testing.T) {
	c := NewMemoryClient(10)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k1", []byte("v1"), 0))
	require.NoError(t, c.Set(ctx, "k2", []byte("v2"), 0))

	c.Clear()

	assert.Equal(t, 0, c.Len())
}

func TestNoopClient_AlwaysMisses(t *testing.T) {
	c := NewNoopClient()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k1", []byte("v1"), time.Minute))

	_, err := c.Get(ctx, "k1")
	assert.ErrorIs(t, err, ErrCacheMiss)

	assert.NoError(t, c.Delete(ctx, "k1"))
	assert.NoError(t, c.Close())
}
