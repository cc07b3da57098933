package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"transcribe-cafe/app/config"
	"transcribe-cafe/app/database"
	"transcribe-cafe/app/logger"
	"transcribe-cafe/app/middleware"
	"transcribe-cafe/app/model"
	"transcribe-cafe/app/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// setupTest 组装一套带真实 sqlite 的路由，apiKey 非空时 worker 端点要求鉴权
func setupTest(t *testing.T, apiKey string) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := filepath.Join(t.TempDir(), "test.db") + "?_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Video{}, &model.Job{}))
	database.DB = db

	cfg := &config.Config{
		Worker: config.WorkerConfig{APIKey: apiKey, StaleAfter: 30},
	}
	log := logger.New(config.LogConfig{Level: "error", Format: "text", Output: "stdout"})
	jobs := service.NewJobService(db, log, nil)
	videoHandler := NewVideoHandler(jobs, log)
	workerHandler := NewWorkerHandler(jobs, log)

	r := gin.New()
	api := r.Group("/api")

	videos := api.Group("/videos")
	{
		videos.GET("", videoHandler.GetVideos)
		videos.POST("", videoHandler.CreateVideo)
		videos.GET("/:id", videoHandler.GetVideo)
		videos.POST("/:id/rating", videoHandler.SetRating)
		videos.GET("/:id/status", videoHandler.GetStatus)
		videos.POST("/:id/insights", videoHandler.GenerateInsights)
		videos.POST("/:id/insights/regenerate", videoHandler.RegenerateInsights)
	}

	worker := api.Group("/worker")
	worker.Use(middleware.WorkerAuth(cfg))
	{
		worker.GET("/jobs", workerHandler.GetPendingJobs)
		worker.POST("/jobs/:id/claim", workerHandler.ClaimJob)
		worker.POST("/jobs/:id/result", workerHandler.SubmitResult)
		worker.POST("/jobs/:id/progress", workerHandler.UpdateProgress)
		worker.POST("/jobs/:id/stage", workerHandler.UpdateStage)
	}

	return r, db
}

// doJSON 发送 JSON 请求并解析响应体
func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}, headers map[string]string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	parsed := map[string]interface{}{}
	if len(w.Body.Bytes()) > 0 && w.Body.Bytes()[0] == '{' {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &parsed))
	}
	return w, parsed
}

// pendingJob 取视频下唯一的 pending 任务
func pendingJob(t *testing.T, db *gorm.DB, videoID string) *model.Job {
	t.Helper()
	var job model.Job
	require.NoError(t, db.Where("video_id = ? AND status = ?", videoID, model.JobStatusPending).First(&job).Error)
	return &job
}
