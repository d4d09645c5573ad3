package api

import (
	"context"
	"net/http"
	"time"

	"mirage/image-api/discord"
	"mirage/image-api/model"
	"mirage/image-api/session"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type loginBody struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (a *API) AuthLogin(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	var data loginBody
	if err := c.ShouldBind(&data); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})

		zap.L().Error("Can't bind request body", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if data.Username == "" || data.Password == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Username and password fields can't be empty",
			"requestID": requestID,
		})
		return
	}

	var user model.User
	if err := a.DB.Where("username = ? OR email = ?", data.Username, data.Username).First(&user).Error; err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error":     "Invalid credentials",
			"requestID": requestID,
		})
		return
	}

	ok, err := a.Argon.VerifyPasswd(data.Password, user.PasswordHash)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to verify password", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error":     "Invalid credentials",
			"requestID": requestID,
		})
		return
	}

	clientIP := c.ClientIP()

	// The session is bound to the IP seen now, every later request has
	// to come from the same address
	id, err := a.Sessions.Create(c.Request.Context(), &session.Session{
		LoggedIn:  true,
		UserID:    user.ID,
		IP:        clientIP,
		CreatedAt: time.Now(),
	})
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to create session", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	maxAge := int(a.Sessions.MaxAge().Seconds())
	c.SetCookie(session.CookieName, id, maxAge, "/", "", viper.GetBool("host.ssl.enabled"), true)
	c.SetCookie("logged_in", "1", maxAge, "/", "", viper.GetBool("host.ssl.enabled"), false)

	u := user
	userAgent := c.Request.UserAgent()
	discord.Detach("login", func(ctx context.Context) error {
		return a.Bot.NotifyLogin(ctx, &u, clientIP, userAgent)
	})

	c.JSON(http.StatusOK, gin.H{
		"userID": user.ID,
	})
}
