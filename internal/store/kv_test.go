package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisKV(t *testing.T) (*miniredis.Miniredis, *RedisKV) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, NewRedisKV(client)
}

func TestRedisKV_SetGetDel(t *testing.T) {
	mr, kv := setupRedisKV(t)
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "token", "abc", 0))
	val, err := kv.Get(ctx, "token")
	require.NoError(t, err)
	assert.Equal(t, "abc", val)
	assert.True(t, mr.Exists("token"))

	require.NoError(t, kv.Del(ctx, "token", "user_type"))
	_, err = kv.Get(ctx, "token")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestRedisKV_TTLExpires(t *testing.T) {
	mr, kv := setupRedisKV(t)
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "family_token", "xyz", time.Minute))
	mr.FastForward(2 * time.Minute)

	_, err := kv.Get(ctx, "family_token")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestRedisKV_DelNoKeys(t *testing.T) {
	_, kv := setupRedisKV(t)
	assert.NoError(t, kv.Del(context.Background()))
}

func TestPrefixed_NamespacesKeys(t *testing.T) {
	mr, kv := setupRedisKV(t)
	ctx := context.Background()
	p := NewPrefixed(kv, "siacom:session:")

	require.NoError(t, p.Set(ctx, "patient_id", "42", 0))
	got, err := mr.Get("siacom:session:patient_id")
	require.NoError(t, err)
	assert.Equal(t, "42", got)

	val, err := p.Get(ctx, "patient_id")
	require.NoError(t, err)
	assert.Equal(t, "42", val)

	require.NoError(t, p.Del(ctx, "patient_id"))
	assert.False(t, mr.Exists("siacom:session:patient_id"))
}

func TestMemoryKV_TTL(t *testing.T) {
	kv := NewMemoryKV()
	now := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	kv.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "token", "abc", time.Second))
	require.NoError(t, kv.Set(ctx, "user_type", "admin", 0))

	now = now.Add(2 * time.Second)
	_, err := kv.Get(ctx, "token")
	assert.ErrorIs(t, err, ErrMiss)

	val, err := kv.Get(ctx, "user_type")
	require.NoError(t, err)
	assert.Equal(t, "admin", val)

	require.NoError(t, kv.Del(ctx, "user_type"))
	_, err = kv.Get(ctx, "user_type")
	assert.ErrorIs(t, err, ErrMiss)
}
