package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"mirage/image-api/model"
	"mirage/image-api/session"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fakeRedis is an in-memory stand-in for the redis client behind the
// session store
type fakeRedis struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}}
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

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
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
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

type mismatchCall struct {
	userID    string
	sessionIP string
	currentIP string
	userAgent string
}

// recordingNotifier captures mismatch notifications. The guard fires
// them on a detached goroutine, so assertions read from the channel
type recordingNotifier struct {
	calls chan mismatchCall
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{calls: make(chan mismatchCall, 4)}
}

func (n *recordingNotifier) NotifySessionIPMismatch(_ context.Context, user *model.User, sessionIP, currentIP, userAgent string) error {
	n.calls <- mismatchCall{userID: user.ID, sessionIP: sessionIP, currentIP: currentIP, userAgent: userAgent}
	return nil
}

func (n *recordingNotifier) expectOne(t *testing.T) mismatchCall {
	t.Helper()

	select {
	case call := <-n.calls:
		select {
		case extra := <-n.calls:
			t.Fatalf("unexpected second notification for user %s", extra.userID)
		case <-time.After(100 * time.Millisecond):
		}
		return call
	case <-time.After(2 * time.Second):
		t.Fatal("expected a mismatch notification")
		return mismatchCall{}
	}
}

func (n *recordingNotifier) expectNone(t *testing.T) {
	t.Helper()

	select {
	case call := <-n.calls:
		t.Fatalf("unexpected notification for user %s", call.userID)
	case <-time.After(100 * time.Millisecond):
	}
}

// captured is what the probe handler saw in the request context after
// the guard ran
type captured struct {
	loggedIn    bool
	user        *model.User
	sessionID   string
	banner      string
	bannerClass string
}

type guardHarness struct {
	db       *gorm.DB
	sessions *session.Store
	rdb      *fakeRedis
	notifier *recordingNotifier
	router   *gin.Engine
	last     *captured
}

func newGuardHarness(t *testing.T, rels ...model.Relation) *guardHarness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.User{}, &model.Image{}))

	h := &guardHarness{
		db:       db,
		rdb:      newFakeRedis(),
		notifier: newRecordingNotifier(),
		last:     &captured{},
	}
	h.sessions = session.NewStore(h.rdb, 12*time.Hour)

	deps := &GuardDeps{DB: db, Sessions: h.sessions, Notifier: h.notifier}

	h.router = gin.New()
	h.router.GET("/", NewSessionGuard(deps, rels...), func(c *gin.Context) {
		*h.last = captured{
			loggedIn:    c.GetBool(CtxLoggedIn),
			sessionID:   c.GetString(CtxSessionID),
			banner:      c.GetString(CtxBanner),
			bannerClass: c.GetString(CtxBannerClass),
		}
		if u, ok := c.Get(CtxUser); ok {
			h.last.user = u.(*model.User)
		}
		c.Status(http.StatusOK)
	})

	return h
}

func (h *guardHarness) login(t *testing.T, user *model.User, ip string) string {
	t.Helper()

	require.NoError(t, h.db.Create(user).Error)

	id, err := h.sessions.Create(context.Background(), &session.Session{
		LoggedIn:  true,
		UserID:    user.ID,
		IP:        ip,
		CreatedAt: time.Now(),
	})
	require.NoError(t, err)

	return id
}

func (h *guardHarness) request(t *testing.T, sessionID, ip string) *captured {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = ip + ":51234"
	req.Header.Set("User-Agent", "test-agent")
	if sessionID != "" {
		req.AddCookie(&http.Cookie{Name: session.CookieName, Value: sessionID})
	}

	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	return h.last
}

func TestGuardWithoutSession(t *testing.T) {
	h := newGuardHarness(t)

	got := h.request(t, "", "10.0.0.1")

	require.False(t, got.loggedIn)
	require.Nil(t, got.user)
	require.Empty(t, got.banner)
}

func TestGuardUnknownSessionID(t *testing.T) {
	h := newGuardHarness(t)

	got := h.request(t, "does-not-exist", "10.0.0.1")

	require.False(t, got.loggedIn)
}

func TestGuardHappyPath(t *testing.T) {
	h := newGuardHarness(t)

	id := h.login(t, &model.User{ID: "u1", Username: "alice", Email: "a@example.com", PasswordHash: "x"}, "10.0.0.1")
	got := h.request(t, id, "10.0.0.1")

	require.True(t, got.loggedIn)
	require.NotNil(t, got.user)
	require.Equal(t, "u1", got.user.ID)
	require.Equal(t, id, got.sessionID)
	require.Empty(t, got.banner)
	h.notifier.expectNone(t)
}

func TestGuardDeletedAccountDegrades(t *testing.T) {
	h := newGuardHarness(t)

	id, err := h.sessions.Create(context.Background(), &session.Session{
		LoggedIn: true,
		UserID:   "gone",
		IP:       "10.0.0.1",
	})
	require.NoError(t, err)

	got := h.request(t, id, "10.0.0.1")

	require.False(t, got.loggedIn)
	require.Nil(t, got.user)
}

func TestGuardPreloadsRequestedRelations(t *testing.T) {
	h := newGuardHarness(t, model.RelationImages)

	id := h.login(t, &model.User{ID: "u1", Username: "alice", Email: "a@example.com", PasswordHash: "x"}, "10.0.0.1")
	require.NoError(t, h.db.Create(&model.Image{ShortID: "abc", UserID: "u1", S3Key: "abc_x.png", OriginalName: "x.png"}).Error)

	got := h.request(t, id, "10.0.0.1")

	require.True(t, got.loggedIn)
	require.Len(t, got.user.Images, 1)
}

func TestGuardSuspendedUser(t *testing.T) {
	t.Run("regular user is logged out", func(t *testing.T) {
		h := newGuardHarness(t)

		id := h.login(t, &model.User{
			ID: "u1", Username: "alice", Email: "a@example.com", PasswordHash: "x",
			Suspended: true, SuspensionReason: "abuse",
		}, "10.0.0.1")

		got := h.request(t, id, "10.0.0.1")

		require.False(t, got.loggedIn)
		require.Contains(t, got.banner, "abuse")
		require.Contains(t, got.banner, "logged out")
		require.Equal(t, BannerDanger, got.bannerClass)

		// The session is gone, not just devalidated
		_, err := h.sessions.Get(context.Background(), id)
		require.ErrorIs(t, err, session.ErrNotFound)
	})

	t.Run("admin keeps the session with a warning", func(t *testing.T) {
		h := newGuardHarness(t)

		id := h.login(t, &model.User{
			ID: "u1", Username: "alice", Email: "a@example.com", PasswordHash: "x",
			Suspended: true, SuspensionReason: "abuse", Admin: true,
		}, "10.0.0.1")

		got := h.request(t, id, "10.0.0.1")

		require.True(t, got.loggedIn)
		require.Contains(t, got.banner, "abuse")
		require.Equal(t, BannerWarning, got.bannerClass)

		sess, err := h.sessions.Get(context.Background(), id)
		require.NoError(t, err)
		require.True(t, sess.LoggedIn)
	})
}

func TestGuardIPMismatch(t *testing.T) {
	h := newGuardHarness(t)

	id := h.login(t, &model.User{ID: "u1", Username: "alice", Email: "a@example.com", PasswordHash: "x"}, "10.0.0.1")

	got := h.request(t, id, "10.9.9.9")

	require.False(t, got.loggedIn)
	require.Nil(t, got.user)
	require.Contains(t, got.banner, "login again")
	require.Equal(t, BannerDanger, got.bannerClass)

	// Devalidated, not destroyed: the record survives with the login
	// flag cleared
	sess, err := h.sessions.Get(context.Background(), id)
	require.NoError(t, err)
	require.False(t, sess.LoggedIn)

	call := h.notifier.expectOne(t)
	require.Equal(t, "u1", call.userID)
	require.Equal(t, "10.0.0.1", call.sessionIP)
	require.Equal(t, "10.9.9.9", call.currentIP)
	require.Equal(t, "test-agent", call.userAgent)
}

func TestGuardSuspendedAdminIPMismatch(t *testing.T) {
	// Mismatch handling wins over the admin suspension warning, the
	// re-login instruction is the actionable banner
	h := newGuardHarness(t)

	id := h.login(t, &model.User{
		ID: "u1", Username: "alice", Email: "a@example.com", PasswordHash: "x",
		Suspended: true, SuspensionReason: "abuse", Admin: true,
	}, "10.0.0.1")

	got := h.request(t, id, "10.9.9.9")

	require.False(t, got.loggedIn)
	require.Contains(t, got.banner, "login again")
	require.Equal(t, BannerDanger, got.bannerClass)
	h.notifier.expectOne(t)
}

func TestGuardDevalidatedSessionStaysOut(t *testing.T) {
	h := newGuardHarness(t)

	id := h.login(t, &model.User{ID: "u1", Username: "alice", Email: "a@example.com", PasswordHash: "x"}, "10.0.0.1")

	h.request(t, id, "10.9.9.9")
	h.notifier.expectOne(t)

	// Even back on the original address the session stays devalidated
	got := h.request(t, id, "10.0.0.1")
	require.False(t, got.loggedIn)
	h.notifier.expectNone(t)
}
