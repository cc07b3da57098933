package model

import (
	"encoding/json"

	"gorm.io/datatypes"
)

// ApplyMetadata 把 worker 上报的元数据写入对应字段。
// 只接受允许列表内的键，未知键静默忽略，worker 可以多发字段而不会出错；
// 类型不符的值同样跳过，不覆盖已有数据。
func (v *Video) ApplyMetadata(meta map[string]interface{}) {
	for key, value := range meta {
		switch key {
		case "title":
			setStr(&v.Title, value)
		case "duration":
			setInt(&v.Duration, value)
		case "uploader":
			setStr(&v.Uploader, value)
		case "channel":
			setStr(&v.Channel, value)
		case "channel_id":
			setStr(&v.ChannelID, value)
		case "uploader_id":
			setStr(&v.UploaderID, value)
		case "view_count":
			setInt(&v.ViewCount, value)
		case "like_count":
			setInt(&v.LikeCount, value)
		case "comment_count":
			setInt(&v.CommentCount, value)
		case "subscriber_count":
			setInt(&v.SubscriberCount, value)
		case "upload_date":
			setStr(&v.UploadDate, value)
		case "timestamp":
			setInt(&v.Timestamp, value)
		case "release_timestamp":
			setInt(&v.ReleaseTimestamp, value)
		case "description":
			setStr(&v.Description, value)
		case "tags":
			setJSON(&v.Tags, value)
		case "categories":
			setJSON(&v.Categories, value)
		case "video_id":
			setStr(&v.VideoID, value)
		case "webpage_url":
			setStr(&v.WebpageURL, value)
		case "original_url":
			setStr(&v.OriginalURL, value)
		case "extractor":
			setStr(&v.Extractor, value)
		case "extractor_key":
			setStr(&v.ExtractorKey, value)
		case "resolution":
			setStr(&v.Resolution, value)
		case "width":
			setInt(&v.Width, value)
		case "height":
			setInt(&v.Height, value)
		case "fps":
			setInt(&v.FPS, value)
		case "vcodec":
			setStr(&v.VCodec, value)
		case "acodec":
			setStr(&v.ACodec, value)
		case "filesize":
			setInt(&v.Filesize, value)
		case "filesize_approx":
			setInt(&v.FilesizeApprox, value)
		case "language":
			setStr(&v.Language, value)
		case "subtitles":
			setJSON(&v.Subtitles, value)
		case "automatic_captions":
			setJSON(&v.AutomaticCaptions, value)
		case "age_limit":
			setInt(&v.AgeLimit, value)
		case "availability":
			setStr(&v.Availability, value)
		case "live_status":
			setStr(&v.LiveStatus, value)
		case "was_live":
			setBool(&v.WasLive, value)
		case "playable_in_embed":
			setBool(&v.PlayableInEmbed, value)
		case "thumbnail":
			setStr(&v.Thumbnail, value)
		case "thumbnails":
			setJSON(&v.Thumbnails, value)
		case "playlist":
			setStr(&v.Playlist, value)
		case "playlist_id":
			setStr(&v.PlaylistID, value)
		case "playlist_title":
			setStr(&v.PlaylistTitle, value)
		case "playlist_index":
			setInt(&v.PlaylistIndex, value)
		case "playlist_count":
			setInt(&v.PlaylistCount, value)
		case "average_rating":
			setFloat(&v.AverageRating, value)
		case "abr":
			setFloat(&v.ABR, value)
		case "vbr":
			setFloat(&v.VBR, value)
		case "tbr":
			setFloat(&v.TBR, value)
		case "channel_follower_count":
			setInt(&v.ChannelFollowerCount, value)
		case "chapters":
			setJSON(&v.Chapters, value)
		}
	}
}

// 以下写入函数只在转换成功时赋值，类型不符保留原值

func setStr(dst **string, value interface{}) {
	if p := strPtr(value); p != nil {
		*dst = p
	}
}

func setInt(dst **int, value interface{}) {
	if p := intPtr(value); p != nil {
		*dst = p
	}
}

func setFloat(dst **float64, value interface{}) {
	if p := floatPtr(value); p != nil {
		*dst = p
	}
}

func setBool(dst **bool, value interface{}) {
	if p := boolPtr(value); p != nil {
		*dst = p
	}
}

func setJSON(dst *datatypes.JSON, value interface{}) {
	if raw := jsonVal(value); raw != nil {
		*dst = raw
	}
}

// 以下转换函数兼容 JSON 反序列化后的基础类型，无法转换时返回 nil

func strPtr(value interface{}) *string {
	if s, ok := value.(string); ok {
		return &s
	}
	return nil
}

func intPtr(value interface{}) *int {
	switch n := value.(type) {
	case float64:
		i := int(n)
		return &i
	case int:
		return &n
	case int64:
		i := int(n)
		return &i
	case json.Number:
		if i64, err := n.Int64(); err == nil {
			i := int(i64)
			return &i
		}
	}
	return nil
}

func floatPtr(value interface{}) *float64 {
	switch n := value.(type) {
	case float64:
		return &n
	case int:
		f := float64(n)
		return &f
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return &f
		}
	}
	return nil
}

func boolPtr(value interface{}) *bool {
	if b, ok := value.(bool); ok {
		return &b
	}
	return nil
}

func jsonVal(value interface{}) datatypes.JSON {
	if value == nil {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}
