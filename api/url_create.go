package api

import (
	"net/http"
	"net/url"
	"time"

	"mirage/image-api/middleware"
	"mirage/image-api/model"

	"github.com/gin-gonic/gin"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type urlBody struct {
	Destination string `json:"destination"`
}

func (a *API) URLCreate(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	user := c.MustGet(middleware.CtxUser).(*model.User)

	var data urlBody
	if err := c.ShouldBind(&data); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})
		return
	}

	parsed, err := url.Parse(data.Destination)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Destination must be a valid http(s) URL",
			"requestID": requestID,
		})
		return
	}

	shortID, err := gonanoid.Generate(charset, 8)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to generate short ID", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	short := model.ShortenedURL{
		UserID:      user.ID,
		ShortID:     shortID,
		Destination: data.Destination,
		CreatedAt:   time.Now().UnixMilli(),
	}

	if err := a.DB.Create(&short).Error; err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to create shortened URL", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	a.Cache.Invalidate(c.Request.Context(), cacheKeyURLs)

	c.JSON(http.StatusOK, gin.H{
		"shortID": shortID,
	})
}

func (a *API) URLRedirect(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	var short model.ShortenedURL
	if err := a.DB.Where("short_id = ?", c.Param("shortID")).First(&short).Error; err != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
			"error":     "Unknown short URL",
			"requestID": requestID,
		})
		return
	}

	// Click counting is best-effort, don't hold the redirect for it
	if err := a.DB.Model(&model.ShortenedURL{}).
		Where("id = ?", short.ID).
		Update("clicks", gorm.Expr("clicks + 1")).
		Error; err != nil {
		zap.L().Warn("Failed to count click", zap.Error(err), zap.String("requestID", requestID))
	}

	c.Redirect(http.StatusFound, short.Destination)
}
