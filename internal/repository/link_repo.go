package repository

import (
	"context"
	"fmt"

	"github.com/yuqie6/ArtMirror/internal/schema"
	"gorm.io/gorm"
)

// LinkRepository 资源链接仓储
type LinkRepository struct {
	db *gorm.DB
}

// NewLinkRepository 创建链接仓储
func NewLinkRepository(db *gorm.DB) *LinkRepository {
	return &LinkRepository{db: db}
}

// Create 创建链接
func (r *LinkRepository) Create(ctx context.Context, link *schema.ResourceLink) error {
	if link == nil {
		return fmt.Errorf("link 不能为空")
	}
	if err := r.db.WithContext(ctx).Create(link).Error; err != nil {
		return fmt.Errorf("创建链接失败: %w", err)
	}
	return nil
}

// GetByID 按 ID 查询链接，不存在时返回 nil
func (r *LinkRepository) GetByID(ctx context.Context, id int64) (*schema.ResourceLink, error) {
	var link schema.ResourceLink
	err := r.db.WithContext(ctx).First(&link, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("查询链接失败: %w", err)
	}
	return &link, nil
}

// List 查询全部链接（按添加时间倒序）
func (r *LinkRepository) List(ctx context.Context) ([]schema.ResourceLink, error) {
	var links []schema.ResourceLink
	if err := r.db.WithContext(ctx).Order("added_at DESC").Find(&links).Error; err != nil {
		return nil, fmt.Errorf("查询链接失败: %w", err)
	}
	return links, nil
}

// Update 更新链接字段（允许部分更新）
func (r *LinkRepository) Update(ctx context.Context, id int64, name, url, description string) error {
	updates := map[string]interface{}{}
	if name != "" {
		updates["name"] = name
	}
	if url != "" {
		updates["url"] = url
	}
	if description != "" {
		updates["description"] = description
	}
	if len(updates) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Model(&schema.ResourceLink{}).Where("id = ?", id).Updates(updates).Error
	if err != nil {
		return fmt.Errorf("更新链接失败: %w", err)
	}
	return nil
}

// Delete 删除链接
func (r *LinkRepository) Delete(ctx context.Context, id int64) error {
	if err := r.db.WithContext(ctx).Delete(&schema.ResourceLink{}, id).Error; err != nil {
		return fmt.Errorf("删除链接失败: %w", err)
	}
	return nil
}

// DeleteAllTx 在指定事务中清空链接（数据重置用）
func (r *LinkRepository) DeleteAllTx(tx *gorm.DB) error {
	if err := tx.Where("1 = 1").Delete(&schema.ResourceLink{}).Error; err != nil {
		return fmt.Errorf("清空链接失败: %w", err)
	}
	return nil
}
