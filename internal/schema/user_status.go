package schema

import "time"

// DefaultUsername 初始用户名（沿用原始数据的占位值）
const DefaultUsername = "新規ユーザー"

// UserStatus 用户全局状态（累计 XP）。表内仅维护单行（ID=1）。
// TotalXP 始终等于未删除记录的 xp_gained 之和，由服务层在同一事务内增减维护。
type UserStatus struct {
	ID        int       `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"size:80;not null" json:"username"`
	TotalXP   int       `gorm:"not null;default:0" json:"total_xp"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 指定表名
func (UserStatus) TableName() string {
	return "user_status"
}
