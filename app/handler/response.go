package handler

import (
	"errors"
	"net/http"
	"time"

	"transcribe-cafe/app/service"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

// statusCache 状态轮询接口的短 TTL 缓存，所有写路径按视频 ID 失效
var statusCache = cache.New(3*time.Second, time.Minute)

// invalidateStatus 按视频 ID 清除状态缓存
func invalidateStatus(videoID string) {
	statusCache.Delete(videoID)
}

// respondError 把核心错误分类映射为 HTTP 状态码和英文提示
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrVideoNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Video not found"})
	case errors.Is(err, service.ErrJobNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
	case errors.Is(err, service.ErrJobNotClaimable):
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found or already claimed"})
	case errors.Is(err, service.ErrInsightsJobPending):
		c.JSON(http.StatusConflict, gin.H{"error": "Insights generation already in progress"})
	case errors.Is(err, service.ErrVideoNotCompleted):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Video must be completed first"})
	case errors.Is(err, service.ErrNoTranscript):
		c.JSON(http.StatusBadRequest, gin.H{"error": "No transcript available"})
	case errors.Is(err, service.ErrNoInsights):
		c.JSON(http.StatusBadRequest, gin.H{"error": "No existing insights found. Use /insights endpoint for initial generation"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
