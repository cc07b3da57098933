package service

import "errors"

// 任务队列核心的错误分类，handler 层据此映射 HTTP 状态码
var (
	// ErrVideoNotFound 视频不存在
	ErrVideoNotFound = errors.New("video not found")
	// ErrJobNotFound 任务不存在
	ErrJobNotFound = errors.New("job not found")
	// ErrJobNotClaimable 任务不存在或已被其他 worker 认领，对调用方不作区分
	ErrJobNotClaimable = errors.New("job not found or already claimed")
	// ErrInsightsJobPending 已有等待中的摘要任务
	ErrInsightsJobPending = errors.New("insights generation already in progress")
	// ErrVideoNotCompleted 视频尚未完成转录
	ErrVideoNotCompleted = errors.New("video must be completed first")
	// ErrNoTranscript 没有可用的转录文本
	ErrNoTranscript = errors.New("no transcript available")
	// ErrNoInsights 没有已生成的摘要，不能走重新生成入口
	ErrNoInsights = errors.New("no existing insights found")
)
