package repository

import (
	"context"
	"fmt"

	"github.com/yuqie6/ArtMirror/internal/schema"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PlaylistRepository 播放列表仓储
type PlaylistRepository struct {
	db *gorm.DB
}

// NewPlaylistRepository 创建播放列表仓储
func NewPlaylistRepository(db *gorm.DB) *PlaylistRepository {
	return &PlaylistRepository{db: db}
}

// Create 创建播放列表（playlist_id 唯一）
func (r *PlaylistRepository) Create(ctx context.Context, playlist *schema.Playlist) error {
	if playlist == nil {
		return fmt.Errorf("playlist 不能为空")
	}
	if playlist.PlaylistID == "" {
		return fmt.Errorf("playlist_id 不能为空")
	}
	if err := r.db.WithContext(ctx).Create(playlist).Error; err != nil {
		return fmt.Errorf("创建播放列表失败: %w", err)
	}
	return nil
}

// GetByID 按内部 ID 查询，不存在时返回 nil
func (r *PlaylistRepository) GetByID(ctx context.Context, id int64) (*schema.Playlist, error) {
	var playlist schema.Playlist
	err := r.db.WithContext(ctx).First(&playlist, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("查询播放列表失败: %w", err)
	}
	return &playlist, nil
}

// GetByPlaylistID 按 YouTube 列表 ID 查询，不存在时返回 nil
func (r *PlaylistRepository) GetByPlaylistID(ctx context.Context, playlistID string) (*schema.Playlist, error) {
	var playlist schema.Playlist
	err := r.db.WithContext(ctx).Where("playlist_id = ?", playlistID).First(&playlist).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("查询播放列表失败: %w", err)
	}
	return &playlist, nil
}

// List 查询全部播放列表
func (r *PlaylistRepository) List(ctx context.Context) ([]schema.Playlist, error) {
	var playlists []schema.Playlist
	if err := r.db.WithContext(ctx).Order("added_at DESC").Find(&playlists).Error; err != nil {
		return nil, fmt.Errorf("查询播放列表失败: %w", err)
	}
	return playlists, nil
}

// UpdateMetadata 更新标题/描述/缩略图（允许部分更新）
func (r *PlaylistRepository) UpdateMetadata(ctx context.Context, id int64, title, description, thumbnailURL string) error {
	updates := map[string]interface{}{}
	if title != "" {
		updates["title"] = title
	}
	if description != "" {
		updates["description"] = description
	}
	if thumbnailURL != "" {
		updates["thumbnail_url"] = thumbnailURL
	}
	if len(updates) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Model(&schema.Playlist{}).Where("id = ?", id).Updates(updates).Error
	if err != nil {
		return fmt.Errorf("更新播放列表失败: %w", err)
	}
	return nil
}

// Delete 删除播放列表及其观看进度、讲义资料
func (r *PlaylistRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("playlist_id = ?", id).Delete(&schema.VideoView{}).Error; err != nil {
			return fmt.Errorf("删除观看进度失败: %w", err)
		}
		if err := tx.Where("playlist_id = ?", id).Delete(&schema.PlaylistMaterial{}).Error; err != nil {
			return fmt.Errorf("删除讲义资料失败: %w", err)
		}
		if err := tx.Delete(&schema.Playlist{}, id).Error; err != nil {
			return fmt.Errorf("删除播放列表失败: %w", err)
		}
		return nil
	})
}

// ResetProgress 清空某个播放列表的观看进度
func (r *PlaylistRepository) ResetProgress(ctx context.Context, id int64) error {
	err := r.db.WithContext(ctx).Where("playlist_id = ?", id).Delete(&schema.VideoView{}).Error
	if err != nil {
		return fmt.Errorf("重置观看进度失败: %w", err)
	}
	return nil
}

// VideoViewRepository 视频观看进度仓储
type VideoViewRepository struct {
	db *gorm.DB
}

// NewVideoViewRepository 创建观看进度仓储
func NewVideoViewRepository(db *gorm.DB) *VideoViewRepository {
	return &VideoViewRepository{db: db}
}

// GetByVideo 按（播放列表, 视频序号）查询，不存在时返回 nil
func (r *VideoViewRepository) GetByVideo(ctx context.Context, playlistID int64, videoIndex int) (*schema.VideoView, error) {
	var view schema.VideoView
	err := r.db.WithContext(ctx).
		Where("playlist_id = ? AND video_index = ?", playlistID, videoIndex).
		First(&view).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("查询观看进度失败: %w", err)
	}
	return &view, nil
}

// Upsert 插入或更新观看进度
func (r *VideoViewRepository) Upsert(ctx context.Context, view *schema.VideoView) error {
	if view == nil {
		return fmt.Errorf("view 不能为空")
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "playlist_id"}, {Name: "video_index"}},
		UpdateAll: true,
	}).Create(view).Error
}

// SaveTx 在指定事务中保存观看进度
func (r *VideoViewRepository) SaveTx(tx *gorm.DB, view *schema.VideoView) error {
	if err := tx.Save(view).Error; err != nil {
		return fmt.Errorf("保存观看进度失败: %w", err)
	}
	return nil
}

// Transaction 在事务中执行操作（完成标记与记录追加必须同事务）
func (r *VideoViewRepository) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

// ListByPlaylist 查询某个播放列表的全部观看进度
func (r *VideoViewRepository) ListByPlaylist(ctx context.Context, playlistID int64) ([]schema.VideoView, error) {
	var views []schema.VideoView
	err := r.db.WithContext(ctx).
		Where("playlist_id = ?", playlistID).
		Order("video_index ASC").
		Find(&views).Error
	if err != nil {
		return nil, fmt.Errorf("查询观看进度失败: %w", err)
	}
	return views, nil
}
