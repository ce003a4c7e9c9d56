package repository

import (
	"context"
	"fmt"

	"github.com/yuqie6/ArtMirror/internal/schema"
	"gorm.io/gorm"
)

const userStatusID = 1

// StatusRepository 用户状态仓储（单行表）
type StatusRepository struct {
	db *gorm.DB
}

// NewStatusRepository 创建状态仓储
func NewStatusRepository(db *gorm.DB) *StatusRepository {
	return &StatusRepository{db: db}
}

// Get 获取用户状态，不存在时初始化默认行
func (r *StatusRepository) Get(ctx context.Context) (*schema.UserStatus, error) {
	var status schema.UserStatus
	err := r.db.WithContext(ctx).First(&status, userStatusID).Error
	if err == nil {
		return &status, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("查询用户状态失败: %w", err)
	}

	status = schema.UserStatus{ID: userStatusID, Username: schema.DefaultUsername, TotalXP: 0}
	if err := r.db.WithContext(ctx).Create(&status).Error; err != nil {
		return nil, fmt.Errorf("初始化用户状态失败: %w", err)
	}
	return &status, nil
}

// AddXPTx 在指定事务中增减累计 XP。
// delta 为负时结果不会低于 0（删除记录时的回退下限）。
func (r *StatusRepository) AddXPTx(tx *gorm.DB, delta int) error {
	err := tx.Model(&schema.UserStatus{}).
		Where("id = ?", userStatusID).
		Update("total_xp", gorm.Expr("MAX(0, total_xp + ?)", delta)).Error
	if err != nil {
		return fmt.Errorf("更新累计 XP 失败: %w", err)
	}
	return nil
}

// UpdateUsername 更新用户名
func (r *StatusRepository) UpdateUsername(ctx context.Context, username string) error {
	if username == "" {
		return fmt.Errorf("用户名不能为空")
	}
	err := r.db.WithContext(ctx).Model(&schema.UserStatus{}).
		Where("id = ?", userStatusID).
		Update("username", username).Error
	if err != nil {
		return fmt.Errorf("更新用户名失败: %w", err)
	}
	return nil
}

// ResetTx 在指定事务中将状态恢复为初始值
func (r *StatusRepository) ResetTx(tx *gorm.DB) error {
	err := tx.Model(&schema.UserStatus{}).
		Where("id = ?", userStatusID).
		Updates(map[string]interface{}{
			"username": schema.DefaultUsername,
			"total_xp": 0,
		}).Error
	if err != nil {
		return fmt.Errorf("重置用户状态失败: %w", err)
	}
	return nil
}
