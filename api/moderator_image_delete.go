package api

import (
	"context"
	"net/http"

	"mirage/image-api/discord"
	"mirage/image-api/middleware"
	"mirage/image-api/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type moderatorDeleteBody struct {
	Reason string `json:"reason"`
}

func (a *API) ModeratorImageDelete(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	moderator := c.MustGet(middleware.CtxUser).(*model.User)

	var data moderatorDeleteBody
	if err := c.ShouldBind(&data); err != nil || data.Reason == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "A deletion reason is required",
			"requestID": requestID,
		})
		return
	}

	var img model.Image
	err := a.DB.Preload("Uploader").Where("short_id = ? AND deleted = false", c.Param("shortID")).First(&img).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
				"error":     "Image not found",
				"requestID": requestID,
			})
			return
		}

		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to look up image", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	err = a.DB.Model(&model.Image{}).
		Where("id = ?", img.ID).
		Updates(map[string]any{
			"deleted":         true,
			"deletion_reason": data.Reason,
		}).
		Error
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to mark image deleted", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	img.Deleted = true
	img.DeletionReason = data.Reason

	if err := a.Storage.Delete(c.Request.Context(), img.S3Key); err != nil {
		zap.L().Error("Failed to delete image object", zap.Error(err), zap.String("requestID", requestID))
	}

	a.Cache.Invalidate(c.Request.Context(), cacheKeyImages)

	// Part of the moderation audit trail, waited on. A failed send is
	// logged but never rolls back the deletion
	ctx, cancel := context.WithTimeout(c.Request.Context(), discord.SendTimeout)
	defer cancel()

	if err := a.Bot.NotifyModeratorDeletedContent(ctx, &img, moderator, c.ClientIP()); err != nil {
		zap.L().Warn("Failed to send moderator deletion notification", zap.Error(err), zap.String("requestID", requestID))
	}

	c.Status(http.StatusOK)
}
