package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// JobStatus 任务状态常量，与视频状态保持同一套取值
const (
	JobStatusPending    = "pending"    // 等待认领
	JobStatusProcessing = "processing" // worker 处理中
	JobStatusCompleted  = "completed"  // 已完成
	JobStatusFailed     = "failed"     // 失败
)

// Job 一次 worker 处理任务（初次转录或摘要重新生成）
type Job struct {
	ID          string         `gorm:"size:36;primaryKey" json:"id"`
	VideoID     string         `gorm:"size:36;not null;index;comment:所属视频ID" json:"video_id"`
	Status      string         `gorm:"size:20;not null;default:pending;index;comment:状态(pending,processing,completed,failed)" json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	StartedAt   *time.Time     `gorm:"comment:认领时间" json:"started_at"`
	CompletedAt *time.Time     `gorm:"comment:终态时间" json:"completed_at"`
	WorkerID    *string        `gorm:"size:255;comment:处理该任务的worker标识" json:"worker_id"`
	ErrorMsg    *string        `gorm:"column:error_message;size:1000" json:"error_message"`
	Progress    datatypes.JSON `gorm:"comment:worker上报的进度快照" json:"progress"`

	// 关联关系
	Video *Video `gorm:"foreignKey:VideoID" json:"video,omitempty"`
}

// TableName 指定表名
func (Job) TableName() string {
	return "jobs"
}

// BeforeCreate 创建前生成 UUID 主键
func (j *Job) BeforeCreate(tx *gorm.DB) error {
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	return nil
}

// IsTerminal 判断任务是否已进入终态
func (j *Job) IsTerminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}
