package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// VideoStatus 视频状态常量
const (
	VideoStatusPending    = "pending"    // 等待处理
	VideoStatusProcessing = "processing" // 处理中
	VideoStatusCompleted  = "completed"  // 已完成
	VideoStatusFailed     = "failed"     // 失败
)

// ProcessingStage 处理阶段常量（worker 上报，允许自由扩展）
const (
	StageDownloading        = "downloading"
	StageTranscribing       = "transcribing"
	StageGeneratingInsights = "generating_insights"
)

// Video 视频转录请求及其结果模型
type Video struct {
	ID              string    `gorm:"size:36;primaryKey" json:"id"`
	Title           *string   `gorm:"size:500" json:"title"`
	URL             string    `gorm:"size:2048;not null;comment:视频链接" json:"url"`
	Duration        *int      `json:"duration"`
	Status          string    `gorm:"size:20;not null;default:pending;index;comment:状态(pending,processing,completed,failed)" json:"status"`
	ProcessingStage *string   `gorm:"size:100;comment:当前处理阶段" json:"processing_stage"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	// 处理结果
	Transcript *string        `gorm:"type:text" json:"transcript"`
	Insights   datatypes.JSON `json:"insights"`
	Error      *string        `gorm:"type:text" json:"error"`

	// 评分（1-5 星）
	Rating *int `json:"rating"`

	// 基础元数据（由 worker 在任务完成时写入）
	Uploader         *string        `gorm:"size:255" json:"uploader"`
	Channel          *string        `gorm:"size:255" json:"channel"`
	ChannelID        *string        `gorm:"size:255" json:"channel_id"`
	UploaderID       *string        `gorm:"size:255" json:"uploader_id"`
	ViewCount        *int           `json:"view_count"`
	LikeCount        *int           `json:"like_count"`
	CommentCount     *int           `json:"comment_count"`
	SubscriberCount  *int           `json:"subscriber_count"`
	UploadDate       *string        `gorm:"size:50" json:"upload_date"`
	Timestamp        *int           `json:"timestamp"`
	ReleaseTimestamp *int           `json:"release_timestamp"`
	Description      *string        `gorm:"type:text" json:"description"`
	Tags             datatypes.JSON `json:"tags"`
	Categories       datatypes.JSON `json:"categories"`
	VideoID          *string        `gorm:"size:255" json:"video_id"`
	WebpageURL       *string        `gorm:"size:2048" json:"webpage_url"`
	OriginalURL      *string        `gorm:"size:2048" json:"original_url"`
	Extractor        *string        `gorm:"size:100" json:"extractor"`
	ExtractorKey     *string        `gorm:"size:100" json:"extractor_key"`

	// 技术元数据
	Resolution        *string        `gorm:"size:50" json:"resolution"`
	Width             *int           `json:"width"`
	Height            *int           `json:"height"`
	FPS               *int           `json:"fps"`
	VCodec            *string        `gorm:"size:100" json:"vcodec"`
	ACodec            *string        `gorm:"size:100" json:"acodec"`
	Filesize          *int           `json:"filesize"`
	FilesizeApprox    *int           `json:"filesize_approx"`
	Language          *string        `gorm:"size:10" json:"language"`
	Subtitles         datatypes.JSON `json:"subtitles"`
	AutomaticCaptions datatypes.JSON `json:"automatic_captions"`
	AgeLimit          *int           `json:"age_limit"`
	Availability      *string        `gorm:"size:50" json:"availability"`
	LiveStatus        *string        `gorm:"size:50" json:"live_status"`
	WasLive           *bool          `json:"was_live"`
	PlayableInEmbed   *bool          `json:"playable_in_embed"`

	// 附加元数据
	Thumbnail            *string        `gorm:"size:2048" json:"thumbnail"`
	Thumbnails           datatypes.JSON `json:"thumbnails"`
	Playlist             *string        `gorm:"size:255" json:"playlist"`
	PlaylistID           *string        `gorm:"size:255" json:"playlist_id"`
	PlaylistTitle        *string        `gorm:"size:500" json:"playlist_title"`
	PlaylistIndex        *int           `json:"playlist_index"`
	PlaylistCount        *int           `json:"playlist_count"`
	AverageRating        *float64       `json:"average_rating"`
	ABR                  *float64       `json:"abr"`
	VBR                  *float64       `json:"vbr"`
	TBR                  *float64       `json:"tbr"`
	ChannelFollowerCount *int           `json:"channel_follower_count"`
	Chapters             datatypes.JSON `json:"chapters"`
}

// TableName 指定表名
func (Video) TableName() string {
	return "videos"
}

// BeforeCreate 创建前生成 UUID 主键
func (v *Video) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return nil
}

// HasTranscript 判断是否已有转录文本
func (v *Video) HasTranscript() bool {
	return v.Transcript != nil && *v.Transcript != ""
}

// HasInsights 判断是否已有摘要结果
func (v *Video) HasInsights() bool {
	return len(v.Insights) > 0 && string(v.Insights) != "null"
}
