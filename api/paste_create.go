package api

import (
	"net/http"
	"time"

	"mirage/image-api/middleware"
	"mirage/image-api/model"

	"github.com/gin-gonic/gin"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
)

type pasteBody struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (a *API) PasteCreate(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	user := c.MustGet(middleware.CtxUser).(*model.User)

	var data pasteBody
	if err := c.ShouldBind(&data); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})
		return
	}

	if data.Content == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Content field can't be empty",
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

	paste := model.Paste{
		UserID:    user.ID,
		ShortID:   shortID,
		Title:     data.Title,
		Content:   data.Content,
		CreatedAt: time.Now().UnixMilli(),
	}

	if err := a.DB.Create(&paste).Error; err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to create paste", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"shortID": shortID,
	})
}
