package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"transcribe-cafe/app/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestCreateVideo_StartsPendingWithInitialJob(t *testing.T) {
	r, db := setupTest(t, "")

	w, body := doJSON(t, r, http.MethodPost, "/api/videos", map[string]string{"url": "https://x/y"}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.VideoStatusPending, body["status"])
	assert.Equal(t, "https://x/y", body["url"])
	assert.Nil(t, body["transcript"])

	videoID := body["id"].(string)
	job := pendingJob(t, db, videoID)
	assert.Equal(t, model.JobStatusPending, job.Status)

	// 紧接着轮询状态
	w, status := doJSON(t, r, http.MethodGet, "/api/videos/"+videoID+"/status", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.VideoStatusPending, status["status"])
	assert.Nil(t, status["transcript"])
	assert.Nil(t, status["error"])
}

func TestCreateVideo_RequiresURL(t *testing.T) {
	r, _ := setupTest(t, "")

	w, _ := doJSON(t, r, http.MethodPost, "/api/videos", map[string]string{}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetVideo_NotFound(t *testing.T) {
	r, _ := setupTest(t, "")

	w, body := doJSON(t, r, http.MethodGet, "/api/videos/nope", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Video not found", body["error"])
}

func TestGetVideos_NewestFirst(t *testing.T) {
	r, _ := setupTest(t, "")

	_, first := doJSON(t, r, http.MethodPost, "/api/videos", map[string]string{"url": "https://x/1"}, nil)
	_, second := doJSON(t, r, http.MethodPost, "/api/videos", map[string]string{"url": "https://x/2"}, nil)

	w, _ := doJSON(t, r, http.MethodGet, "/api/videos", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var videos []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &videos))
	require.Len(t, videos, 2)
	// 倒序：后创建的排前面
	assert.Equal(t, second["id"], videos[0]["id"])
	assert.Equal(t, first["id"], videos[1]["id"])
}

func TestSetRating_Validation(t *testing.T) {
	r, db := setupTest(t, "")

	_, created := doJSON(t, r, http.MethodPost, "/api/videos", map[string]string{"url": "https://x/y"}, nil)
	videoID := created["id"].(string)

	// 超出范围
	w, body := doJSON(t, r, http.MethodPost, "/api/videos/"+videoID+"/rating",
		map[string]int{"rating": 0}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Rating must be between 1 and 5", body["error"])

	w, _ = doJSON(t, r, http.MethodPost, "/api/videos/"+videoID+"/rating",
		map[string]int{"rating": 6}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 视频不存在
	w, _ = doJSON(t, r, http.MethodPost, "/api/videos/nope/rating",
		map[string]int{"rating": 3}, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// 正常评分
	w, body = doJSON(t, r, http.MethodPost, "/api/videos/"+videoID+"/rating",
		map[string]int{"rating": 4}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(4), body["rating"])

	var gotVideo model.Video
	require.NoError(t, db.First(&gotVideo, "id = ?", videoID).Error)
	require.NotNil(t, gotVideo.Rating)
	assert.Equal(t, 4, *gotVideo.Rating)
}

func TestInsights_WirePreconditions(t *testing.T) {
	r, db := setupTest(t, "")

	// pending 视频不能触发摘要
	_, created := doJSON(t, r, http.MethodPost, "/api/videos", map[string]string{"url": "https://x/y"}, nil)
	w, body := doJSON(t, r, http.MethodPost, "/api/videos/"+created["id"].(string)+"/insights", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Video must be completed first", body["error"])

	// 已完成且有转录文本
	transcript := "a transcript"
	video := &model.Video{URL: "https://x/z", Status: model.VideoStatusCompleted, Transcript: &transcript}
	require.NoError(t, db.Create(video).Error)

	w, body = doJSON(t, r, http.MethodPost, "/api/videos/"+video.ID+"/insights", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Insights generation started", body["message"])
	assert.NotEmpty(t, body["job_id"])

	// 已有等待中的任务，再触发返回冲突
	w, body = doJSON(t, r, http.MethodPost, "/api/videos/"+video.ID+"/insights", nil, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Insights generation already in progress", body["error"])

	// 没有既有摘要时不允许走 regenerate 入口
	other := &model.Video{URL: "https://x/w", Status: model.VideoStatusCompleted, Transcript: &transcript}
	require.NoError(t, db.Create(other).Error)
	w, _ = doJSON(t, r, http.MethodPost, "/api/videos/"+other.ID+"/insights/regenerate", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInsights_InitialEndpointReportsRegeneration(t *testing.T) {
	r, db := setupTest(t, "")

	transcript := "a transcript"
	video := &model.Video{
		URL:        "https://x/y",
		Status:     model.VideoStatusCompleted,
		Transcript: &transcript,
		Insights:   datatypes.JSON(`{"summary":"old"}`),
	}
	require.NoError(t, db.Create(video).Error)

	w, body := doJSON(t, r, http.MethodPost, "/api/videos/"+video.ID+"/insights", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Insights regeneration started", body["message"])
}

func TestStatus_ReflectsJobLifecycle(t *testing.T) {
	r, db := setupTest(t, "")

	_, created := doJSON(t, r, http.MethodPost, "/api/videos", map[string]string{"url": "https://x/y"}, nil)
	videoID := created["id"].(string)

	// 轮询一次让缓存生效，后续写路径必须把它打掉
	_, status := doJSON(t, r, http.MethodGet, "/api/videos/"+videoID+"/status", nil, nil)
	assert.Equal(t, model.VideoStatusPending, status["status"])

	job := pendingJob(t, db, videoID)
	doJSON(t, r, http.MethodPost, "/api/worker/jobs/"+job.ID+"/claim",
		map[string]string{"worker_id": "w1"}, nil)

	_, status = doJSON(t, r, http.MethodGet, "/api/videos/"+videoID+"/status", nil, nil)
	assert.Equal(t, model.VideoStatusProcessing, status["status"])

	doJSON(t, r, http.MethodPost, "/api/worker/jobs/"+job.ID+"/result",
		map[string]interface{}{
			"status":     "completed",
			"transcript": "done text",
			"insights":   map[string]interface{}{"summary": "tl;dr"},
		}, nil)

	_, status = doJSON(t, r, http.MethodGet, "/api/videos/"+videoID+"/status", nil, nil)
	assert.Equal(t, model.VideoStatusCompleted, status["status"])
	assert.Equal(t, "done text", status["transcript"])

	insights, ok := status["insights"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "tl;dr", insights["summary"])
}
