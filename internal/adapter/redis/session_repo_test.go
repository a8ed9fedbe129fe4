package redis

import (
	"context"
	"testing"
	"time"

	"travelbuddy/internal/domain"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestSessionRepo_CreateAndGet(t *testing.T) {
	mr, client := setupTestRedis(t)
	repo := NewSessionRepo(client)
	ctx := context.Background()

	expires := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	err := repo.Create(ctx, domain.Session{Token: "abc", UserID: 7, Persistent: true, ExpiresAt: expires})
	require.NoError(t, err)

	assert.True(t, mr.Exists("session:abc"))
	ttl := mr.TTL("session:abc")
	assert.Greater(t, ttl, 59*time.Minute)
	assert.LessOrEqual(t, ttl, time.Hour)

	s, err := repo.GetByToken(ctx, "abc")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, int64(7), s.UserID)
	assert.True(t, s.Persistent)
	assert.True(t, expires.Equal(s.ExpiresAt))
	assert.False(t, s.CreatedAt.IsZero())
}

func TestSessionRepo_Missing(t *testing.T) {
	_, client := setupTestRedis(t)
	repo := NewSessionRepo(client)

	s, err := repo.GetByToken(context.Background(), "nope")
	assert.NoError(t, err)
	assert.Nil(t, s)
}

func TestSessionRepo_ExpiresWithTTL(t *testing.T) {
	mr, client := setupTestRedis(t)
	repo := NewSessionRepo(client)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, domain.Session{Token: "short", UserID: 1, ExpiresAt: time.Now().Add(time.Minute)}))
	mr.FastForward(2 * time.Minute)

	s, err := repo.GetByToken(ctx, "short")
	assert.NoError(t, err)
	assert.Nil(t, s)
}

func TestSessionRepo_AlreadyExpiredIsNotStored(t *testing.T) {
	mr, client := setupTestRedis(t)
	repo := NewSessionRepo(client)

	require.NoError(t, repo.Create(context.Background(), domain.Session{Token: "old", ExpiresAt: time.Now().Add(-time.Second)}))
	assert.False(t, mr.Exists("session:old"))
}

func TestSessionRepo_Delete(t *testing.T) {
	mr, client := setupTestRedis(t)
	repo := NewSessionRepo(client)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, domain.Session{Token: "gone", UserID: 1, ExpiresAt: time.Now().Add(time.Hour)}))
	require.NoError(t, repo.Delete(ctx, "gone"))
	assert.False(t, mr.Exists("session:gone"))

	// deleting twice is fine
	assert.NoError(t, repo.Delete(ctx, "gone"))
	assert.NoError(t, repo.DeleteExpired(ctx))
}

func TestNewClient(t *testing.T) {
	mr, _ := setupTestRedis(t)

	client, err := NewClient(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	_ = client.Close()

	_, err = NewClient(context.Background(), "not a url")
	assert.Error(t, err)
}
