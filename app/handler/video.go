package handler

import (
	"net/http"
	"time"

	"transcribe-cafe/app/database"
	"transcribe-cafe/app/logger"
	"transcribe-cafe/app/model"
	"transcribe-cafe/app/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// VideoHandler 视频相关接口处理器
type VideoHandler struct {
	jobs   *service.JobService
	logger *logger.Logger
}

// NewVideoHandler 创建视频处理器
func NewVideoHandler(jobs *service.JobService, log *logger.Logger) *VideoHandler {
	return &VideoHandler{
		jobs:   jobs,
		logger: log,
	}
}

// CreateVideoRequest 提交视频请求
type CreateVideoRequest struct {
	URL string `json:"url" binding:"required"`
}

// RatingRequest 评分请求
type RatingRequest struct {
	Rating int `json:"rating"`
}

// GetVideos 获取全部视频，按创建时间倒序
func (h *VideoHandler) GetVideos(c *gin.Context) {
	var videos []model.Video
	if err := database.DB.Order("created_at DESC").Find(&videos).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list videos"})
		return
	}
	c.JSON(http.StatusOK, videos)
}

// GetVideo 获取单个视频
func (h *VideoHandler) GetVideo(c *gin.Context) {
	var video model.Video
	if err := database.DB.First(&video, "id = ?", c.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Video not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get video"})
		}
		return
	}
	c.JSON(http.StatusOK, video)
}

// CreateVideo 提交视频链接，创建 pending 视频并入队初始转录任务
func (h *VideoHandler) CreateVideo(c *gin.Context) {
	var req CreateVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	video, err := h.jobs.CreateVideo(req.URL)
	if err != nil {
		h.logger.Errorf("创建视频失败: %v", err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, video)
}

// SetRating 设置视频评分（1-5 星），与任务协议完全正交
func (h *VideoHandler) SetRating(c *gin.Context) {
	var req RatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Rating < 1 || req.Rating > 5 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Rating must be between 1 and 5"})
		return
	}

	var video model.Video
	if err := database.DB.First(&video, "id = ?", c.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Video not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get video"})
		}
		return
	}

	if err := database.DB.Model(&video).Updates(map[string]interface{}{
		"rating":     req.Rating,
		"updated_at": time.Now().UTC(),
	}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to set rating"})
		return
	}

	invalidateStatus(video.ID)
	c.JSON(http.StatusOK, gin.H{"success": true, "rating": req.Rating})
}

// GetStatus 状态轮询接口，前端高频调用，走短 TTL 缓存
func (h *VideoHandler) GetStatus(c *gin.Context) {
	videoID := c.Param("id")

	if cached, ok := statusCache.Get(videoID); ok {
		c.JSON(http.StatusOK, cached)
		return
	}

	var video model.Video
	if err := database.DB.First(&video, "id = ?", videoID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Video not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get video"})
		}
		return
	}

	resp := gin.H{
		"status":           video.Status,
		"processing_stage": video.ProcessingStage,
		"title":            video.Title,
		"duration":         video.Duration,
		"channel":          video.Channel,
		"view_count":       video.ViewCount,
		"upload_date":      video.UploadDate,
		"transcript":       video.Transcript,
		"insights":         video.Insights,
		"error":            video.Error,
	}
	statusCache.SetDefault(videoID, resp)

	c.JSON(http.StatusOK, resp)
}

// GenerateInsights 触发摘要生成。视频已有摘要时同一入口即为重新生成
func (h *VideoHandler) GenerateInsights(c *gin.Context) {
	job, video, err := h.jobs.TriggerInsights(c.Param("id"), false)
	if err != nil {
		respondError(c, err)
		return
	}

	message := "Insights generation started"
	if video.HasInsights() {
		message = "Insights regeneration started"
	}
	c.JSON(http.StatusOK, gin.H{
		"message":  message,
		"video_id": video.ID,
		"job_id":   job.ID,
	})
}

// RegenerateInsights 重新生成摘要，要求已有摘要结果
func (h *VideoHandler) RegenerateInsights(c *gin.Context) {
	job, video, err := h.jobs.TriggerInsights(c.Param("id"), true)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Insights regeneration started",
		"video_id": video.ID,
		"job_id":   job.ID,
	})
}
