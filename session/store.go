// Package session implements the server-side session records backed by
// Redis. Sessions are referenced by an opaque id stored in a cookie and
// expire a fixed time after creation
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"mirage/image-api/util"

	"github.com/redis/go-redis/v9"
)

// CookieName is the name of the cookie that carries the session id
const CookieName = "mirage_session"

const keyPrefix = "session:"

// ErrNotFound is returned when no session exists under an id, either
// because it never did or because it expired
var ErrNotFound = errors.New("session not found")

// Session is the server-side state bound to one login. IP is captured
// at login time and every later request must come from the same address
type Session struct {
	LoggedIn  bool      `json:"logged_in"`
	UserID    string    `json:"user_id"`
	IP        string    `json:"ip"`
	CreatedAt time.Time `json:"created_at"`
}

// commander is the slice of the redis client the store needs. Tests
// substitute an in-memory implementation
type commander interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type Store struct {
	rdb    commander
	maxAge time.Duration
}

func NewStore(rdb commander, maxAge time.Duration) *Store {
	return &Store{
		rdb:    rdb,
		maxAge: maxAge,
	}
}

// MaxAge returns the fixed session lifetime, which is also the cookie
// max age
func (s *Store) MaxAge() time.Duration {
	return s.maxAge
}

// Create stores sess under a fresh opaque id and returns the id. The
// record expires maxAge after creation regardless of activity
func (s *Store) Create(ctx context.Context, sess *Session) (string, error) {
	id, err := util.GenerateToken(32)
	if err != nil {
		return "", fmt.Errorf("failed to generate session id, %w", err)
	}

	raw, err := json.Marshal(sess)
	if err != nil {
		return "", fmt.Errorf("failed to encode session, %w", err)
	}

	if err := s.rdb.Set(ctx, keyPrefix+id, raw, s.maxAge).Err(); err != nil {
		return "", fmt.Errorf("failed to store session, %w", err)
	}

	return id, nil
}

func (s *Store) Get(ctx context.Context, id string) (*Session, error) {
	raw, err := s.rdb.Get(ctx, keyPrefix+id).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("failed to read session, %w", err)
	}

	var sess Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return nil, fmt.Errorf("failed to decode session, %w", err)
	}

	return &sess, nil
}

// ClearLogin flips the login flag off but keeps the record (and its
// original expiry) around. Used when a session is devalidated for the
// current request without logging the browser out of the cookie
func (s *Store) ClearLogin(ctx context.Context, id string) error {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	sess.LoggedIn = false

	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session, %w", err)
	}

	// KeepTTL preserves the fixed expiry from creation
	if err := s.rdb.Set(ctx, keyPrefix+id, raw, redis.KeepTTL).Err(); err != nil {
		return fmt.Errorf("failed to update session, %w", err)
	}

	return nil
}

// Destroy removes the session entirely
func (s *Store) Destroy(ctx context.Context, id string) error {
	if err := s.rdb.Del(ctx, keyPrefix+id).Err(); err != nil {
		return fmt.Errorf("failed to delete session, %w", err)
	}

	return nil
}
