package snapshot

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nordrein/webshop/internal/cart"
)

// setupTestRedis creates a miniredis server and returns a RedisStore
// backed by it.
func setupTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { client.Close() })

	return NewRedisStore(client), mr
}

func testSnapshot() *cart.Snapshot {
	return &cart.Snapshot{
		Version: cart.SnapshotVersion,
		Items: []cart.LineItem{
			{ID: "p1", Name: "Soap", Slug: "soap", Price: 12.50, Quantity: 2},
			{ID: "p2", Name: "Sponge", Slug: "sponge", Price: 3.25, Quantity: 1},
		},
		IsOpen: true,
	}
}

func TestLoad_Success(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()

	snap := testSnapshot()
	raw, err := json.Marshal(snap)
	require.NoError(t, err)
	require.NoError(t, mr.Set(snapshotKey("sess1"), string(raw)))

	got, err := store.Load(ctx, "sess1")
	require.NoError(t, err)
	assert.Equal(t, snap.Version, got.Version)
	assert.Equal(t, snap.Items, got.Items)
	assert.True(t, got.IsOpen)
}

func TestLoad_MissingKeyReturnsNotFound(t *testing.T) {
	store, _ := setupTestRedis(t)

	_, err := store.Load(context.Background(), "unknown")
	assert.ErrorIs(t, err, cart.ErrSnapshotNotFound)
}

func TestLoad_CorruptPayloadReturnsError(t *testing.T) {
	store, mr := setupTestRedis(t)

	require.NoError(t, mr.Set(snapshotKey("sess1"), "{not json"))

	_, err := store.Load(context.Background(), "sess1")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, cart.ErrSnapshotNotFound)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	store, _ := setupTestRedis(t)
	ctx := context.Background()

	snap := testSnapshot()
	require.NoError(t, store.Save(ctx, "sess1", snap))

	got, err := store.Load(ctx, "sess1")
	require.NoError(t, err)
	assert.Equal(t, snap, got)
}

func TestSave_SetsExpiry(t *testing.T) {
	store, mr := setupTestRedis(t)

	require.NoError(t, store.Save(context.Background(), "sess1", testSnapshot()))

	ttl := mr.TTL(snapshotKey("sess1"))
	assert.Greater(t, ttl.Hours(), float64(0))
}

func TestDelete_RemovesKey(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "sess1", testSnapshot()))
	require.NoError(t, store.Delete(ctx, "sess1"))

	assert.False(t, mr.Exists(snapshotKey("sess1")))
	_, err := store.Load(ctx, "sess1")
	assert.ErrorIs(t, err, cart.ErrSnapshotNotFound)
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	snap := testSnapshot()
	require.NoError(t, store.Save(ctx, "sess1", snap))
	assert.Equal(t, 1, store.Len())

	got, err := store.Load(ctx, "sess1")
	require.NoError(t, err)
	assert.Equal(t, snap, got)

	require.NoError(t, store.Delete(ctx, "sess1"))
	_, err = store.Load(ctx, "sess1")
	assert.ErrorIs(t, err, cart.ErrSnapshotNotFound)
}
