package schema

import "time"

// Playlist YouTube 播放列表
type Playlist struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	PlaylistID   string    `gorm:"size:255;uniqueIndex;not null" json:"playlist_id"` // YouTube 侧的列表 ID
	Title        string    `gorm:"size:255;not null" json:"title"`
	Description  string    `gorm:"type:text" json:"description"`
	ThumbnailURL string    `gorm:"size:500" json:"thumbnail_url"`
	AddedAt      time.Time `gorm:"autoCreateTime" json:"added_at"`
}

// TableName 指定表名
func (Playlist) TableName() string {
	return "playlists"
}

// PlaylistMaterial 播放列表附带的讲义资料。
// 物理文件由文件存储层用不透明名称保存，数据库只记录引用与展示用的原始文件名。
type PlaylistMaterial struct {
	ID               int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	PlaylistID       int64     `gorm:"index;not null" json:"playlist_id"` // playlists.id
	StoredFilename   string    `gorm:"size:255;not null" json:"-"`
	OriginalFilename string    `gorm:"size:255;not null" json:"original_filename"`
	DisplayName      string    `gorm:"size:255;not null" json:"display_name"`
	FileSize         int64     `gorm:"default:0" json:"file_size"`
	UploadedAt       time.Time `gorm:"autoCreateTime" json:"uploaded_at"`
}

// TableName 指定表名
func (PlaylistMaterial) TableName() string {
	return "playlist_materials"
}

// VideoView 单个视频的观看进度。
// WatchedSeconds 只增不减（取历次上报的最大值）；XPGained 仅在首次完成时计算一次。
type VideoView struct {
	ID             int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	PlaylistID     int64     `gorm:"index:idx_playlist_video,unique;not null" json:"playlist_id"` // playlists.id
	VideoIndex     int       `gorm:"index:idx_playlist_video,unique;not null" json:"video_index"`
	WatchedSeconds int       `gorm:"default:0" json:"watched_seconds"`
	Completed      bool      `gorm:"default:false" json:"completed"`
	XPGained       int       `gorm:"default:0" json:"xp_gained"`
	FirstViewedAt  time.Time `gorm:"autoCreateTime" json:"first_viewed_at"`
	LastViewedAt   time.Time `gorm:"autoUpdateTime" json:"last_viewed_at"`
}

// TableName 指定表名
func (VideoView) TableName() string {
	return "video_views"
}
