package service

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"transcribe-cafe/app/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifyService_Enabled(t *testing.T) {
	var nilService *NotifyService
	assert.False(t, nilService.Enabled())
	assert.False(t, NewNotifyService(testLogger(), "", 5).Enabled())
	assert.True(t, NewNotifyService(testLogger(), "http://example.com/hook", 5).Enabled())
}

func TestNotifyService_VideoFinished(t *testing.T) {
	received := make(chan notifyPayload, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload notifyPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		received <- payload
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	notify := NewNotifyService(testLogger(), srv.URL, 5)

	errMsg := "net timeout"
	video := &model.Video{ID: "v1", Status: model.VideoStatusFailed, Error: &errMsg}
	job := &model.Job{ID: "j1", VideoID: "v1", Status: model.JobStatusFailed}

	notify.VideoFinished(video, job)

	payload := <-received
	assert.Equal(t, "video.failed", payload.Event)
	assert.Equal(t, "v1", payload.VideoID)
	assert.Equal(t, "j1", payload.JobID)
	require.NotNil(t, payload.Error)
	assert.Equal(t, "net timeout", *payload.Error)
}
