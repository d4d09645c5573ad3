package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type fakeRedis struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{
		data: map[string]string{},
		ttls: map[string]time.Duration{},
	}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()

	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	if expiration != redis.KeepTTL {
		f.ttls[key] = expiration
	}
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()

	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			delete(f.ttls, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (f *fakeRedis) ttlOf(key string) time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ttls[key]
}

func TestStoreRoundTrip(t *testing.T) {
	t.Parallel()

	rdb := newFakeRedis()
	s := NewStore(rdb, 12*time.Hour)

	id, err := s.Create(context.Background(), &Session{
		LoggedIn: true,
		UserID:   "u1",
		IP:       "10.0.0.1",
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)
	require.Equal(t, 12*time.Hour, rdb.ttlOf(keyPrefix+id))

	sess, err := s.Get(context.Background(), id)
	require.NoError(t, err)
	require.True(t, sess.LoggedIn)
	require.Equal(t, "u1", sess.UserID)
	require.Equal(t, "10.0.0.1", sess.IP)
}

func TestStoreIDsAreUnique(t *testing.T) {
	t.Parallel()

	s := NewStore(newFakeRedis(), time.Hour)

	a, err := s.Create(context.Background(), &Session{UserID: "u1"})
	require.NoError(t, err)
	b, err := s.Create(context.Background(), &Session{UserID: "u1"})
	require.NoError(t, err)

	require.NotEqual(t, a, b)
}

func TestStoreGetUnknownID(t *testing.T) {
	t.Parallel()

	s := NewStore(newFakeRedis(), time.Hour)

	_, err := s.Get(context.Background(), "nope")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStoreClearLogin(t *testing.T) {
	t.Parallel()

	rdb := newFakeRedis()
	s := NewStore(rdb, 12*time.Hour)

	id, err := s.Create(context.Background(), &Session{
		LoggedIn: true,
		UserID:   "u1",
		IP:       "10.0.0.1",
	})
	require.NoError(t, err)

	require.NoError(t, s.ClearLogin(context.Background(), id))

	sess, err := s.Get(context.Background(), id)
	require.NoError(t, err)
	require.False(t, sess.LoggedIn)
	require.Equal(t, "u1", sess.UserID)

	// The expiry from creation survives the rewrite
	require.Equal(t, 12*time.Hour, rdb.ttlOf(keyPrefix+id))

	require.ErrorIs(t, s.ClearLogin(context.Background(), "nope"), ErrNotFound)
}

func TestStoreDestroy(t *testing.T) {
	t.Parallel()

	s := NewStore(newFakeRedis(), time.Hour)

	id, err := s.Create(context.Background(), &Session{LoggedIn: true, UserID: "u1"})
	require.NoError(t, err)

	require.NoError(t, s.Destroy(context.Background(), id))

	_, err = s.Get(context.Background(), id)
	require.ErrorIs(t, err, ErrNotFound)
}
