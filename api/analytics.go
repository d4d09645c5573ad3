package api

import (
	"net/http"

	"mirage/image-api/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Analytics renders the admin dashboard data: every account and every
// image, serialized to their public views
func (a *API) Analytics(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	var users []model.User
	if err := a.DB.Find(&users).Error; err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to load users", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	var images []model.Image
	if err := a.DB.Preload("Uploader").Find(&images).Error; err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to load images", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	profiles := make([]model.Profile, len(users))
	for i := range users {
		profiles[i] = users[i].Serialize()
	}

	locals := viewLocals(c)
	locals["users"] = profiles
	locals["images"] = images

	c.JSON(http.StatusOK, locals)
}
