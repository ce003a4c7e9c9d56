package repository

import (
	"context"
	"fmt"

	"github.com/yuqie6/ArtMirror/internal/schema"
	"gorm.io/gorm"
)

// MaterialRepository 讲义资料仓储
type MaterialRepository struct {
	db *gorm.DB
}

// NewMaterialRepository 创建讲义资料仓储
func NewMaterialRepository(db *gorm.DB) *MaterialRepository {
	return &MaterialRepository{db: db}
}

// Create 登记一份讲义资料
func (r *MaterialRepository) Create(ctx context.Context, material *schema.PlaylistMaterial) error {
	if material == nil {
		return fmt.Errorf("material 不能为空")
	}
	if material.PlaylistID == 0 {
		return fmt.Errorf("playlist_id 不能为空")
	}
	if err := r.db.WithContext(ctx).Create(material).Error; err != nil {
		return fmt.Errorf("登记讲义资料失败: %w", err)
	}
	return nil
}

// GetByID 按 ID 查询，不存在时返回 nil
func (r *MaterialRepository) GetByID(ctx context.Context, id int64) (*schema.PlaylistMaterial, error) {
	var material schema.PlaylistMaterial
	err := r.db.WithContext(ctx).First(&material, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("查询讲义资料失败: %w", err)
	}
	return &material, nil
}

// ListByPlaylist 查询某个播放列表的讲义资料（按上传时间倒序）
func (r *MaterialRepository) ListByPlaylist(ctx context.Context, playlistID int64) ([]schema.PlaylistMaterial, error) {
	var materials []schema.PlaylistMaterial
	err := r.db.WithContext(ctx).
		Where("playlist_id = ?", playlistID).
		Order("uploaded_at DESC").
		Find(&materials).Error
	if err != nil {
		return nil, fmt.Errorf("查询讲义资料失败: %w", err)
	}
	return materials, nil
}

// Delete 删除讲义资料
func (r *MaterialRepository) Delete(ctx context.Context, id int64) error {
	if err := r.db.WithContext(ctx).Delete(&schema.PlaylistMaterial{}, id).Error; err != nil {
		return fmt.Errorf("删除讲义资料失败: %w", err)
	}
	return nil
}
