package api

import (
	"context"
	"net/http"
	"time"

	"mirage/image-api/discord"
	"mirage/image-api/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type reportBody struct {
	Reason string `json:"reason"`
}

func (a *API) ReportSubmit(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	var data reportBody
	if err := c.ShouldBind(&data); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})
		return
	}

	if data.Reason == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Reason field can't be empty",
			"requestID": requestID,
		})
		return
	}

	var img model.Image
	err := a.DB.Where("short_id = ? AND deleted = false", c.Param("shortID")).First(&img).Error
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

		zap.L().Error("Failed to look up reported image", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	report := model.Report{
		ImageID:    img.ID,
		ReporterIP: c.ClientIP(),
		Reason:     data.Reason,
		CreatedAt:  time.Now().UnixMilli(),
	}

	if err := a.DB.Create(&report).Error; err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to create report", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	report.Image = &img
	discord.Detach("report_submitted", func(ctx context.Context) error {
		return a.Bot.NotifyReportSubmitted(ctx, &report)
	})

	c.JSON(http.StatusOK, gin.H{
		"reportID": report.ID,
	})
}
