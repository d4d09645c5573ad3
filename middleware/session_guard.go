package middleware

import (
	"context"
	"errors"
	"fmt"

	"mirage/image-api/discord"
	"mirage/image-api/model"
	"mirage/image-api/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Context keys the guard exposes to downstream handlers
const (
	CtxLoggedIn    = "loggedIn"
	CtxUser        = "user"
	CtxProfile     = "profile"
	CtxSessionID   = "sessionID"
	CtxBanner      = "banner"
	CtxBannerClass = "bannerClass"
)

// Banner classes rendered by the frontend
const (
	BannerWarning = "is-warning"
	BannerDanger  = "is-danger"
)

// MismatchNotifier is the one notification the guard fires. Satisfied
// by *discord.Bot, replaced by a recording stub in tests
type MismatchNotifier interface {
	NotifySessionIPMismatch(ctx context.Context, user *model.User, sessionIP, currentIP, userAgent string) error
}

// GuardDeps are the collaborators of the session guard
type GuardDeps struct {
	DB       *gorm.DB
	Sessions *session.Store
	Notifier MismatchNotifier
}

// NewSessionGuard resolves the authenticated identity from session
// state before route dispatch and enforces the suspension and
// IP-binding policy. rels lists the user collections the downstream
// handler wants preloaded; handlers declare them at route registration.
//
// The guard never aborts: authentication failures downgrade the request
// to unauthenticated and surface a banner, route gates decide whether
// that is fatal
func NewSessionGuard(d *GuardDeps, rels ...model.Relation) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(CtxLoggedIn, false)

		id, err := c.Cookie(session.CookieName)
		if err != nil {
			c.Next()
			return
		}

		sess, err := d.Sessions.Get(c.Request.Context(), id)
		if err != nil {
			if !errors.Is(err, session.ErrNotFound) {
				zap.L().Error("Failed to load session", zap.Error(err))
			}

			c.Next()
			return
		}

		if !sess.LoggedIn {
			c.Next()
			return
		}

		q := d.DB.WithContext(c.Request.Context())
		for _, rel := range rels {
			q = q.Preload(string(rel))
		}

		var user model.User
		if err := q.Where("id = ?", sess.UserID).First(&user).Error; err != nil {
			// A session pointing at a deleted account degrades to
			// unauthenticated, it's not a server fault
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				zap.L().Error("Failed to load session user", zap.String("userID", sess.UserID), zap.Error(err))
			}

			c.Next()
			return
		}

		loggedIn := true

		if user.Suspended {
			if user.Admin {
				setBanner(c, fmt.Sprintf("Your account was suspended for the following reason:\n%s, but you are an admin, which prevented you from being logged out.", user.SuspensionReason), BannerWarning)
			} else {
				if err := d.Sessions.Destroy(c.Request.Context(), id); err != nil {
					zap.L().Error("Failed to destroy session of suspended user", zap.Error(err))
				}

				setBanner(c, fmt.Sprintf("Your account was suspended for the following reason:\n%s. You have been logged out.", user.SuspensionReason), BannerDanger)
				loggedIn = false
			}
		}

		if loggedIn && sess.IP != c.ClientIP() {
			loggedIn = false

			if err := d.Sessions.ClearLogin(c.Request.Context(), id); err != nil {
				zap.L().Error("Failed to devalidate session after IP mismatch", zap.Error(err))
			}

			// Overwrites a suspension banner on purpose, the re-login
			// instruction is the actionable one
			setBanner(c, "Your IP has changed, please login again.", BannerDanger)

			u := user
			sessionIP := sess.IP
			currentIP := c.ClientIP()
			userAgent := c.Request.UserAgent()
			discord.Detach("session_ip_mismatch", func(ctx context.Context) error {
				return d.Notifier.NotifySessionIPMismatch(ctx, &u, sessionIP, currentIP, userAgent)
			})
		}

		if loggedIn {
			c.Set(CtxLoggedIn, true)
			c.Set(CtxUser, &user)
			c.Set(CtxProfile, user.Serialize())
			c.Set(CtxSessionID, id)
		}

		c.Next()
	}
}

func setBanner(c *gin.Context, message, class string) {
	c.Set(CtxBanner, message)
	c.Set(CtxBannerClass, class)
}
