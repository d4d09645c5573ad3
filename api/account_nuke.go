package api

import (
	"context"
	"net/http"

	"mirage/image-api/discord"
	"mirage/image-api/middleware"
	"mirage/image-api/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (a *API) AccountNukeImages(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	user := c.MustGet(middleware.CtxUser).(*model.User)

	var keys []string
	err := a.DB.Model(model.Image{}).
		Where("user_id = ?", user.ID).
		Pluck("s3_key", &keys).
		Error
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to collect image keys", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	// Rows win over objects: an orphaned S3 object is cheap, a DB row
	// pointing at nothing serves 404s
	if err := a.Storage.DeleteAll(c.Request.Context(), keys); err != nil {
		zap.L().Error("Failed to delete image objects", zap.Error(err), zap.String("requestID", requestID))
	}

	a.nukeRows(c, user, model.Image{}, discord.BulkImages)
}

func (a *API) AccountNukePastes(c *gin.Context) {
	user := c.MustGet(middleware.CtxUser).(*model.User)
	a.nukeRows(c, user, model.Paste{}, discord.BulkPastes)
}

func (a *API) AccountNukeURLs(c *gin.Context) {
	user := c.MustGet(middleware.CtxUser).(*model.User)
	a.nukeRows(c, user, model.ShortenedURL{}, discord.BulkURLs)
}

func (a *API) nukeRows(c *gin.Context, user *model.User, m any, kind discord.BulkKind) {
	requestID := c.MustGet("requestID").(string)

	r := a.DB.Where("user_id = ?", user.ID).Delete(m)
	if r.Error != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to delete owned rows", zap.Error(r.Error), zap.String("requestID", requestID))
		return
	}

	count := int(r.RowsAffected)

	a.Cache.Invalidate(c.Request.Context(), cacheKeyImages, cacheKeyURLs)

	u := *user
	discord.Detach("bulk_deletion", func(ctx context.Context) error {
		sent, err := a.Bot.NotifyBulkDeletionComplete(ctx, &u, kind, count)
		if !sent {
			zap.L().Debug("Bulk deletion notification skipped, no linked Discord", zap.String("userID", u.ID))
		}

		return err
	})

	c.JSON(http.StatusOK, gin.H{
		"deleted": count,
	})
}
