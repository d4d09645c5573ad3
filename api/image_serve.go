package api

import (
	"net/http"

	"mirage/image-api/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func (a *API) ImageServe(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	shortID := c.Param("shortID")

	var img model.Image
	err := a.DB.Where("short_id = ? AND deleted = false", shortID).First(&img).Error
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

	body, size, err := a.Storage.Get(c.Request.Context(), img.S3Key)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to fetch image from storage", zap.Error(err), zap.String("requestID", requestID))
		return
	}
	defer body.Close()

	c.Header("Cache-Control", "max-age=3600")
	c.DataFromReader(http.StatusOK, size, img.ContentType, body, nil)
}
