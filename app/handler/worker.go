package handler

import (
	"net/http"
	"strconv"

	"transcribe-cafe/app/logger"
	"transcribe-cafe/app/service"

	"github.com/gin-gonic/gin"
)

// WorkerHandler worker 拉取协议接口处理器
type WorkerHandler struct {
	jobs   *service.JobService
	logger *logger.Logger
}

// NewWorkerHandler 创建 worker 处理器
func NewWorkerHandler(jobs *service.JobService, log *logger.Logger) *WorkerHandler {
	return &WorkerHandler{
		jobs:   jobs,
		logger: log,
	}
}

// ClaimRequest 认领请求
type ClaimRequest struct {
	WorkerID string `json:"worker_id" binding:"required"`
}

// StageRequest 处理阶段上报请求
type StageRequest struct {
	ProcessingStage string `json:"processing_stage" binding:"required"`
}

// GetPendingJobs 列出等待中的任务，按创建时间先进先出。
// 只读接口，不产生认领副作用，worker 仍需显式认领并可能输掉竞争。
func (h *WorkerHandler) GetPendingJobs(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit <= 0 {
		limit = 10
	}

	jobs, err := h.jobs.PendingJobs(limit)
	if err != nil {
		h.logger.Errorf("获取等待任务失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list pending jobs"})
		return
	}
	c.JSON(http.StatusOK, jobs)
}

// ClaimJob 认领任务。只有 status 恰为 pending 的任务能被认领成功
func (h *WorkerHandler) ClaimJob(c *gin.Context) {
	var req ClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.jobs.Claim(c.Param("id"), req.WorkerID)
	if err != nil {
		respondError(c, err)
		return
	}

	invalidateStatus(result.VideoID)
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"job_id":    result.JobID,
		"video_url": result.VideoURL,
	})
}

// SubmitResult 提交终态结果（completed / failed）
func (h *WorkerHandler) SubmitResult(c *gin.Context) {
	var input service.ResultInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	video, err := h.jobs.SubmitResult(c.Param("id"), input)
	if err != nil {
		respondError(c, err)
		return
	}

	invalidateStatus(video.ID)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Job " + c.Param("id") + " updated successfully",
	})
}

// UpdateProgress 自由格式进度上报，整体覆盖任务的 progress 字段
func (h *WorkerHandler) UpdateProgress(c *gin.Context) {
	var progress map[string]interface{}
	if err := c.ShouldBindJSON(&progress); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	// JSON null 能通过绑定但不是合法的进度对象
	if progress == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Progress must be a JSON object"})
		return
	}

	if err := h.jobs.UpdateProgress(c.Param("id"), progress); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// UpdateStage 上报处理阶段，同时写视频的 processing_stage
func (h *WorkerHandler) UpdateStage(c *gin.Context) {
	var req StageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	video, err := h.jobs.UpdateStage(c.Param("id"), req.ProcessingStage)
	if err != nil {
		respondError(c, err)
		return
	}

	invalidateStatus(video.ID)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stage":   req.ProcessingStage,
	})
}
