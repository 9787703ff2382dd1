package kvstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newRedisStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})
	return &RedisStore{Rdb: rdb, Prefix: "test:", TTL: ttl}, mr
}

func newGormStore(t *testing.T) *GormStore {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Blob{}))
	return &GormStore{DB: db}
}

func exerciseStore(t *testing.T, s Store) {
	ctx := context.Background()

	_, ok, err := s.Load(ctx, "draft_project:a")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Save(ctx, "draft_project:a", []byte(`{"projectName":"One"}`)))
	blob, ok, err := s.Load(ctx, "draft_project:a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"projectName":"One"}`, string(blob))

	// last write wins
	require.NoError(t, s.Save(ctx, "draft_project:a", []byte(`{"projectName":"Two"}`)))
	blob, _, err = s.Load(ctx, "draft_project:a")
	require.NoError(t, err)
	assert.JSONEq(t, `{"projectName":"Two"}`, string(blob))

	require.NoError(t, s.Remove(ctx, "draft_project:a"))
	_, ok, err = s.Load(ctx, "draft_project:a")
	require.NoError(t, err)
	assert.False(t, ok)

	// removing a missing key is not an error
	require.NoError(t, s.Remove(ctx, "draft_project:missing"))

	_, _, err = s.Load(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidKey)
	assert.ErrorIs(t, s.Save(ctx, "", []byte(`{}`)), ErrInvalidKey)
}

func TestRedisStore(t *testing.T) {
	s, mr := newRedisStore(t, 0)
	exerciseStore(t, s)

	require.NoError(t, s.Save(context.Background(), "k", []byte(`1`)))
	assert.True(t, mr.Exists("test:k"))
}

func TestRedisStore_TTL(t *testing.T) {
	s, mr := newRedisStore(t, time.Minute)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, "k", []byte(`1`)))
	mr.FastForward(2 * time.Minute)
	_, ok, err := s.Load(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGormStore(t *testing.T) {
	exerciseStore(t, newGormStore(t))
}
