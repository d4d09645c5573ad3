// Package api contains all endpoints available
package api

import (
	"context"
	"fmt"
	"time"

	"mirage/image-api/cache"
	"mirage/image-api/db"
	"mirage/image-api/discord"
	"mirage/image-api/middleware"
	"mirage/image-api/model"
	"mirage/image-api/security"
	"mirage/image-api/session"
	"mirage/image-api/storage"

	gincache "github.com/chenyahui/gin-cache"
	"github.com/chenyahui/gin-cache/persist"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"
)

const (
	gray  = "\x1b[90m"
	reset = "\x1b[0m"
)

var store = persist.NewMemoryStore(time.Minute)

type API struct {
	DB       *gorm.DB
	Router   *gin.Engine
	Argon    *security.ArgonHash
	Cache    *cache.Cache
	Sessions *session.Store
	Storage  *storage.Client
	Bot      *discord.Bot
}

func NewRouter() (*API, error) {
	a := &API{}

	database, err := db.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite database, %w", err)
	}
	a.DB = database

	makeLogger()

	rdb := redis.NewClient(&redis.Options{
		Addr:     viper.GetString("redis.addr"),
		Password: viper.GetString("redis.password"),
		DB:       viper.GetInt("redis.db"),
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis, %w", err)
	}

	a.Cache = cache.New(rdb, time.Hour)
	a.Sessions = session.NewStore(rdb, viper.GetDuration("session.max_age"))

	a.Storage, err = storage.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage client, %w", err)
	}

	a.Bot, err = discord.New(database)
	if err != nil {
		return nil, fmt.Errorf("failed to start discord bot, %w", err)
	}

	a.Argon = security.New()

	router := gin.New()
	a.Router = router

	router.Use(
		cors.New(cors.Config{
			AllowOrigins:     []string{fmt.Sprintf("https://%s", viper.GetString("host.domain"))},
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		gin.Recovery(),
		sentrygin.New(sentrygin.Options{
			// Repanic so gin.Recovery still turns the fault into a 500
			// after Sentry captured it
			Repanic: true,
		}),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == "HEAD"
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				if u, ok := c.Get(middleware.CtxUser); ok {
					fields = append(fields, zap.String("userID", u.(*model.User).ID))
				}

				return fields
			},
		}),
	)

	router.HandleMethodNotAllowed = true
	router.MaxMultipartMemory = 5 << 20

	gd := &middleware.GuardDeps{
		DB:       database,
		Sessions: a.Sessions,
		Notifier: a.Bot,
	}
	guard := func(rels ...model.Relation) gin.HandlerFunc {
		return middleware.NewSessionGuard(gd, rels...)
	}

	requireAuth := middleware.RequireAuth()
	maxUploadSize := viper.GetInt64("upload.max_size")

	// GET /			-> Instance stats for the landing page
	router.GET("/", guard(), a.Index)

	// GET /discord		-> Redirects to the community Discord invite
	router.GET("/discord", a.DiscordRedirect)

	// GET /contact		-> Contact details
	router.GET("/contact", cacheFor(60), a.Contact)

	// GET /error		-> Deliberate fault used to verify monitoring
	router.GET("/error", a.Error)

	auth := router.Group("/auth", middleware.BodySizeLimiter(1<<20))
	{
		// POST /auth/register	-> Creates a new account
		auth.POST("/register", a.AuthRegister)

		// POST /auth/login		-> Opens a session bound to the client IP
		auth.POST("/login", a.AuthLogin)

		// POST /auth/logout	-> Destroys the current session
		auth.POST("/logout", guard(), requireAuth, a.AuthLogout)
	}

	account := router.Group("/account")
	{
		// GET /account		-> The signed-in user's profile
		account.GET("", guard(), requireAuth, a.AccountFetch)

		// GET /account/images	-> Profile plus owned images
		account.GET("/images", guard(model.RelationImages), requireAuth, a.AccountFetch)

		// GET /account/pastes	-> Profile plus owned pastes
		account.GET("/pastes", guard(model.RelationPastes), requireAuth, a.AccountFetch)

		// GET /account/urls	-> Profile plus owned shortened URLs
		account.GET("/urls", guard(model.RelationURLs), requireAuth, a.AccountFetch)

		// GET /account/invites	-> Profile plus created invites
		account.GET("/invites", guard(model.RelationInvites), requireAuth, a.AccountFetch)

		// DELETE /account/images	-> Deletes every owned image
		account.DELETE("/images", guard(), requireAuth, a.AccountNukeImages)

		// DELETE /account/pastes	-> Deletes every owned paste
		account.DELETE("/pastes", guard(), requireAuth, a.AccountNukePastes)

		// DELETE /account/urls	-> Deletes every owned shortened URL
		account.DELETE("/urls", guard(), requireAuth, a.AccountNukeURLs)
	}

	// POST /images		-> Uploads a new image
	router.POST("/images", guard(), requireAuth, middleware.BodySizeLimiter(maxUploadSize), a.ImageUpload)

	// GET /i/:shortID		-> Serves an uploaded image
	router.GET("/i/:shortID", a.ImageServe)

	// POST /pastes		-> Creates a new paste
	router.POST("/pastes", guard(), requireAuth, middleware.BodySizeLimiter(1<<20), a.PasteCreate)

	// POST /urls		-> Creates a new shortened URL
	router.POST("/urls", guard(), requireAuth, middleware.BodySizeLimiter(1<<20), a.URLCreate)

	// GET /u/:shortID		-> Follows a shortened URL
	router.GET("/u/:shortID", a.URLRedirect)

	// POST /report/:shortID	-> Submits an abuse report for an image
	router.POST("/report/:shortID", middleware.BodySizeLimiter(1<<20), a.ReportSubmit)

	moderator := router.Group("/moderator")
	{
		// POST /moderator/images/:shortID/delete -> Removes an image with an audit trail
		moderator.POST("/images/:shortID/delete", guard(), middleware.RequireModerator(), a.ModeratorImageDelete)
	}

	// GET /analytics		-> Admin dashboard over all accounts and content
	router.GET("/analytics", guard(), middleware.RequireAdmin(), a.Analytics)

	oauth := router.Group("/oauth")
	{
		// GET /oauth/discord	-> Starts the Discord account link flow
		oauth.GET("/discord", guard(), requireAuth, a.OAuthDiscord)

		// GET /oauth/discord/callback -> Finishes the link flow
		oauth.GET("/discord/callback", guard(), requireAuth, a.OAuthDiscordCallback)
	}

	return a, nil
}

func makeLogger() {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncoderConfig.EncodeTime = func(t time.Time, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + t.Format("15:04:05.000") + reset)
	}
	cfg.EncoderConfig.EncodeCaller = func(ec zapcore.EntryCaller, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + ec.TrimmedPath() + reset)
	}

	if lvl, err := zapcore.ParseLevel(viper.GetString("app.log_level")); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	cfg.DisableStacktrace = true

	log, _ := cfg.Build()
	zap.ReplaceGlobals(log)
}

func cacheFor(sec int) gin.HandlerFunc {
	return gincache.CacheByRequestURI(store, time.Second*time.Duration(sec))
}
