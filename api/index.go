package api

import (
	"context"
	"net/http"

	"mirage/image-api/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Cache keys for the landing page counters
const (
	cacheKeyUsers  = "index.users"
	cacheKeyImages = "index.images"
	cacheKeyURLs   = "index.urls"
)

func (a *API) Index(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	ctx := c.Request.Context()

	users, err := a.Cache.FetchInt64(ctx, cacheKeyUsers, a.countOf(model.User{}))
	if err != nil {
		a.indexError(c, requestID, err)
		return
	}

	images, err := a.Cache.FetchInt64(ctx, cacheKeyImages, a.countOf(model.Image{}))
	if err != nil {
		a.indexError(c, requestID, err)
		return
	}

	urls, err := a.Cache.FetchInt64(ctx, cacheKeyURLs, a.countOf(model.ShortenedURL{}))
	if err != nil {
		a.indexError(c, requestID, err)
		return
	}

	locals := viewLocals(c)
	locals["users"] = users
	locals["images"] = images
	locals["urls"] = urls

	c.JSON(http.StatusOK, locals)
}

func (a *API) countOf(m any) func(ctx context.Context) (int64, error) {
	return func(ctx context.Context) (int64, error) {
		var n int64
		if err := a.DB.WithContext(ctx).Model(m).Count(&n).Error; err != nil {
			return 0, err
		}

		return n, nil
	}
}

func (a *API) indexError(c *gin.Context, requestID string, err error) {
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
		"error":     "Internal server error",
		"requestID": requestID,
	})

	zap.L().Error("Failed to load index counters", zap.Error(err), zap.String("requestID", requestID))
}
