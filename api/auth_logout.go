package api

import (
	"net/http"

	"mirage/image-api/middleware"
	"mirage/image-api/session"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func (a *API) AuthLogout(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	sessionID := c.GetString(middleware.CtxSessionID)

	if err := a.Sessions.Destroy(c.Request.Context(), sessionID); err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to destroy session", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.SetCookie(session.CookieName, "", -1, "/", "", viper.GetBool("host.ssl.enabled"), true)
	c.SetCookie("logged_in", "", -1, "/", "", viper.GetBool("host.ssl.enabled"), false)

	c.Status(http.StatusOK)
}
