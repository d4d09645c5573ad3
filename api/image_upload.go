package api

import (
	"net/http"
	"strings"
	"time"

	"mirage/image-api/middleware"
	"mirage/image-api/model"

	"github.com/gin-gonic/gin"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
)

func (a *API) ImageUpload(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	user := c.MustGet(middleware.CtxUser).(*model.User)

	header, err := c.FormFile("file")
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "No file provided",
			"requestID": requestID,
		})
		return
	}

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Only image uploads are accepted",
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

	file, err := header.Open()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to open uploaded file", zap.Error(err), zap.String("requestID", requestID))
		return
	}
	defer file.Close()

	// Different users may upload files with the same name, the object
	// lives under a unique key
	s3Key := shortID + "_" + header.Filename

	if err := a.Storage.Put(c.Request.Context(), s3Key, contentType, file); err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to upload file to storage", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	img := model.Image{
		UserID:       user.ID,
		ShortID:      shortID,
		S3Key:        s3Key,
		OriginalName: header.Filename,
		ContentType:  contentType,
		Size:         header.Size,
		CreatedAt:    time.Now().UnixMilli(),
	}

	if err := a.DB.Create(&img).Error; err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to create image record", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	a.Cache.Invalidate(c.Request.Context(), cacheKeyImages)

	c.JSON(http.StatusOK, gin.H{
		"shortID": shortID,
	})
}
