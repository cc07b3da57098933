package service

import (
	"time"

	"transcribe-cafe/app/logger"
	"transcribe-cafe/app/model"

	"resty.dev/v3"
)

// NotifyService 结果回调通知服务：任务进入终态后向配置的 webhook 地址推送事件。
// 未配置地址时整体关闭。
type NotifyService struct {
	logger *logger.Logger
	client *resty.Client
	url    string
}

// notifyPayload webhook 推送的事件体
type notifyPayload struct {
	Event   string  `json:"event"` // video.completed 或 video.failed
	VideoID string  `json:"video_id"`
	JobID   string  `json:"job_id"`
	Status  string  `json:"status"`
	Error   *string `json:"error,omitempty"`
}

// NewNotifyService 创建通知服务
func NewNotifyService(log *logger.Logger, url string, timeoutSec int) *NotifyService {
	if timeoutSec <= 0 {
		timeoutSec = 10
	}
	client := resty.New().
		SetTimeout(time.Duration(timeoutSec) * time.Second).
		SetRetryCount(2)

	return &NotifyService{
		logger: log,
		client: client,
		url:    url,
	}
}

// Enabled 是否启用了通知
func (s *NotifyService) Enabled() bool {
	return s != nil && s.url != ""
}

// VideoFinished 推送终态事件，失败只记日志不重试提交路径
func (s *NotifyService) VideoFinished(video *model.Video, job *model.Job) {
	event := "video.completed"
	if video.Status == model.VideoStatusFailed {
		event = "video.failed"
	}

	payload := notifyPayload{
		Event:   event,
		VideoID: video.ID,
		JobID:   job.ID,
		Status:  video.Status,
		Error:   video.Error,
	}

	resp, err := s.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(s.url)
	if err != nil {
		s.logger.Errorf("webhook 通知发送失败: video=%s err=%v", video.ID, err)
		return
	}
	if resp.IsError() {
		s.logger.Warnf("webhook 通知返回异常状态: video=%s status=%d", video.ID, resp.StatusCode())
		return
	}
	s.logger.Debugf("webhook 通知已发送: video=%s event=%s", video.ID, event)
}
