package service

import (
	"encoding/json"
	"errors"
	"time"

	"transcribe-cafe/app/logger"
	"transcribe-cafe/app/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// JobService 任务队列核心：任务创建、认领、进度上报与结果落库，
// 并保持 Video.status 与 Job 生命周期同步
type JobService struct {
	db     *gorm.DB
	logger *logger.Logger
	notify *NotifyService
}

// NewJobService 创建任务队列服务
func NewJobService(db *gorm.DB, log *logger.Logger, notify *NotifyService) *JobService {
	return &JobService{
		db:     db,
		logger: log,
		notify: notify,
	}
}

// ResultInput worker 提交的终态结果
type ResultInput struct {
	Status     string                 `json:"status"` // completed 或 failed，不做枚举校验，按原样落库
	Transcript *string                `json:"transcript"`
	Insights   map[string]interface{} `json:"insights"`
	Error      *string                `json:"error"`
	Metadata   map[string]interface{} `json:"metadata"`
}

// ClaimResult 认领成功后的返回信息
type ClaimResult struct {
	JobID    string
	VideoID  string
	VideoURL *string // 所属视频缺失时为 nil
}

// CreateVideo 创建视频记录（pending）并入队初始转录任务
func (s *JobService) CreateVideo(url string) (*model.Video, error) {
	video := &model.Video{
		URL:       url,
		Status:    model.VideoStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.db.Create(video).Error; err != nil {
		return nil, err
	}

	job, err := s.createJob(video.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Infof("视频已创建并入队: video=%s job=%s", video.ID, job.ID)
	return video, nil
}

// createJob 为视频创建一个 pending 任务
func (s *JobService) createJob(videoID string) (*model.Job, error) {
	job := &model.Job{
		VideoID:   videoID,
		Status:    model.JobStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.db.Create(job).Error; err != nil {
		return nil, err
	}
	return job, nil
}

// PendingJobs 按创建时间升序返回等待中的任务（先进先出，仅供参考，不产生认领副作用）
func (s *JobService) PendingJobs(limit int) ([]model.Job, error) {
	if limit <= 0 {
		limit = 10
	}
	var jobs []model.Job
	err := s.db.Where("status = ?", model.JobStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&jobs).Error
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

// Claim 认领任务。唯一的并发保护点：对 status = pending 做条件更新，
// 两个 worker 竞争同一任务时只有一个能改到行，输掉的一方拿到 ErrJobNotClaimable。
func (s *JobService) Claim(jobID, workerID string) (*ClaimResult, error) {
	result := &ClaimResult{JobID: jobID}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()

		res := tx.Model(&model.Job{}).
			Where("id = ? AND status = ?", jobID, model.JobStatusPending).
			Updates(map[string]interface{}{
				"status":     model.JobStatusProcessing,
				"worker_id":  workerID,
				"started_at": now,
				"updated_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// 不区分"任务不存在"和"已被认领"，对 worker 都意味着无事可做
			return ErrJobNotClaimable
		}

		var job model.Job
		if err := tx.First(&job, "id = ?", jobID).Error; err != nil {
			return err
		}
		result.VideoID = job.VideoID

		// 同步视频状态；视频缺失不算认领失败，只是返回的 URL 为空
		var video model.Video
		if err := tx.First(&video, "id = ?", job.VideoID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if err := tx.Model(&video).Updates(map[string]interface{}{
			"status":     model.VideoStatusProcessing,
			"updated_at": now,
		}).Error; err != nil {
			return err
		}
		result.VideoURL = &video.URL
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infof("任务已认领: job=%s worker=%s", jobID, workerID)
	return result, nil
}

// SubmitResult 提交终态结果，任务与视频状态一并落库。
// 重复提交不做幂等保护，后写覆盖先写（与既有行为保持一致）。
func (s *JobService) SubmitResult(jobID string, input ResultInput) (*model.Video, error) {
	var job model.Job
	if err := s.db.First(&job, "id = ?", jobID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}

	var video model.Video
	if err := s.db.First(&video, "id = ?", job.VideoID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVideoNotFound
		}
		return nil, err
	}

	now := time.Now().UTC()

	err := s.db.Transaction(func(tx *gorm.DB) error {
		job.Status = input.Status
		job.CompletedAt = &now
		job.UpdatedAt = now
		if input.Status == model.JobStatusFailed {
			job.ErrorMsg = input.Error
		}
		if err := tx.Save(&job).Error; err != nil {
			return err
		}

		// 视频状态镜像任务终态
		video.Status = input.Status
		video.UpdatedAt = now

		switch input.Status {
		case model.JobStatusCompleted:
			video.Transcript = input.Transcript
			video.Insights = toJSON(input.Insights)
			if input.Metadata != nil {
				video.ApplyMetadata(input.Metadata)
			}
		case model.JobStatusFailed:
			video.Error = input.Error
		}

		return tx.Save(&video).Error
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infof("任务结果已提交: job=%s status=%s", jobID, input.Status)

	// 通知为尽力而为，不阻塞提交路径
	if s.notify.Enabled() {
		go s.notify.VideoFinished(&video, &job)
	}
	return &video, nil
}

// UpdateProgress 整体覆盖任务的进度快照（替换而非合并）
func (s *JobService) UpdateProgress(jobID string, progress map[string]interface{}) error {
	var job model.Job
	if err := s.db.First(&job, "id = ?", jobID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrJobNotFound
		}
		return err
	}

	return s.db.Model(&job).Updates(map[string]interface{}{
		"progress":   toJSON(progress),
		"updated_at": time.Now().UTC(),
	}).Error
}

// UpdateStage 更新视频处理阶段，同时把任务进度覆盖为单键的 stage 快照。
// 与 UpdateProgress 互不协调，worker 只应选用其中一种上报方式。
func (s *JobService) UpdateStage(jobID, stage string) (*model.Video, error) {
	var job model.Job
	if err := s.db.First(&job, "id = ?", jobID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}

	var video model.Video
	if err := s.db.First(&video, "id = ?", job.VideoID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVideoNotFound
		}
		return nil, err
	}

	now := time.Now().UTC()
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&video).Updates(map[string]interface{}{
			"processing_stage": stage,
			"updated_at":       now,
		}).Error; err != nil {
			return err
		}
		return tx.Model(&job).Updates(map[string]interface{}{
			"progress":   toJSON(map[string]interface{}{"stage": stage}),
			"updated_at": now,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &video, nil
}

// TriggerInsights 为已完成的视频创建摘要（重新）生成任务。
// regenerate 入口额外要求已有摘要。重复任务检查是先查后插，存在竞争窗口，
// 与既有行为保持一致，不在此处收紧。
func (s *JobService) TriggerInsights(videoID string, regenerate bool) (*model.Job, *model.Video, error) {
	var video model.Video
	if err := s.db.First(&video, "id = ?", videoID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrVideoNotFound
		}
		return nil, nil, err
	}

	if video.Status != model.VideoStatusCompleted {
		return nil, nil, ErrVideoNotCompleted
	}
	if !video.HasTranscript() {
		return nil, nil, ErrNoTranscript
	}
	if regenerate && !video.HasInsights() {
		return nil, nil, ErrNoInsights
	}

	// 同一视频同时只允许一个等待中的摘要任务
	var existing model.Job
	err := s.db.Where("video_id = ? AND status = ?", video.ID, model.JobStatusPending).
		First(&existing).Error
	if err == nil {
		return nil, nil, ErrInsightsJobPending
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, err
	}

	// 触发时不回退视频状态，等 worker 认领后才变为 processing
	job, err := s.createJob(video.ID)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Infof("摘要任务已入队: video=%s job=%s regenerate=%v", video.ID, job.ID, regenerate)
	return job, &video, nil
}

// toJSON 把任意结构序列化为 JSON 列值，nil 输入返回空值
func toJSON(value map[string]interface{}) datatypes.JSON {
	if value == nil {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}
