package schema

import "time"

// RecordCategory 学习记录的封闭类别枚举。
// 底层存储沿用原始数据的日文标签，便于旧库直接迁移。
type RecordCategory string

const (
	CategoryTimeStudy       RecordCategory = "時間学習" // 按时长计 XP 的学习
	CategoryAcquisition     RecordCategory = "科目習得" // 技法习得投稿（带评价等级）
	CategoryWorkPost        RecordCategory = "作品投稿" // 自由作品投稿
	CategoryVideoCompletion RecordCategory = "動画学習" // 视频看完后的奖励记录
)

// AllCategories 返回全部合法类别（顺序固定）。
func AllCategories() []RecordCategory {
	return []RecordCategory{
		CategoryTimeStudy,
		CategoryAcquisition,
		CategoryWorkPost,
		CategoryVideoCompletion,
	}
}

// IsValid 判断类别是否在封闭枚举内
func (c RecordCategory) IsValid() bool {
	switch c {
	case CategoryTimeStudy, CategoryAcquisition, CategoryWorkPost, CategoryVideoCompletion:
		return true
	}
	return false
}

func (c RecordCategory) String() string {
	return string(c)
}

// HasDuration 该类别的记录是否携带时长字段
func (c RecordCategory) HasDuration() bool {
	return c == CategoryTimeStudy || c == CategoryVideoCompletion
}

// Record 单条学习/创作记录
// 数据量级：千级/年。创建后不可变，删除时由服务层同步回退累计 XP。
type Record struct {
	ID              int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Category        RecordCategory `gorm:"size:50;index;not null" json:"category"`
	Subtype         string         `gorm:"size:100;not null" json:"subtype"` // 活动类型 / 技法类型 / 自由投稿作品
	Description     string         `gorm:"type:text" json:"description"`
	XPGained        int            `gorm:"not null" json:"xp_gained"`
	Date            string         `gorm:"size:10;index" json:"date"`  // YYYY-MM-DD（冗余字段，便于按天聚合）
	OccurredAt      int64          `gorm:"index" json:"occurred_at"`   // Unix 时间戳（毫秒）
	DurationMinutes int            `gorm:"default:0" json:"duration_minutes"`
	Evaluation      string         `gorm:"size:1" json:"evaluation"`   // A-E，仅科目習得有值
	ProofPath       string         `gorm:"size:255" json:"proof_path"` // 证明图片的相对路径（可空）
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 指定表名
func (Record) TableName() string {
	return "records"
}

// OccurredTime 返回记录发生时间（本地时区）
func (r *Record) OccurredTime() time.Time {
	return time.UnixMilli(r.OccurredAt)
}

// Year 返回记录的年度字符串，归档视图用
func (r *Record) Year() string {
	return r.OccurredTime().Format("2006")
}

// NewRecord 构造一条记录并填充冗余日期字段
func NewRecord(category RecordCategory, subtype string, xp int, occurredAt time.Time) *Record {
	return &Record{
		Category:   category,
		Subtype:    subtype,
		XPGained:   xp,
		OccurredAt: occurredAt.UnixMilli(),
		Date:       occurredAt.Format("2006-01-02"),
	}
}
