package repository

import (
	"context"
	"fmt"

	"github.com/yuqie6/ArtMirror/internal/schema"
	"gorm.io/gorm"
)

// 以本地时区从毫秒时间戳推导各时间字段的 SQLite 表达式。
// SQLite 的 %w 以周日为 0，展示层再转换为周一优先的索引。
const (
	weekdayExprSQL = "CAST(strftime('%w', occurred_at / 1000, 'unixepoch', 'localtime') AS INTEGER)"
	hourExprSQL    = "CAST(strftime('%H', occurred_at / 1000, 'unixepoch', 'localtime') AS INTEGER)"
)

// RecordRepository 学习记录仓储
type RecordRepository struct {
	db *gorm.DB
}

// NewRecordRepository 创建记录仓储
func NewRecordRepository(db *gorm.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

// Transaction 在事务中执行操作（记录写入与累计 XP 增减必须同事务）
func (r *RecordRepository) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

// CreateTx 在指定事务中创建记录
func (r *RecordRepository) CreateTx(tx *gorm.DB, record *schema.Record) error {
	if record == nil {
		return fmt.Errorf("record 不能为空")
	}
	if !record.Category.IsValid() {
		return fmt.Errorf("非法的记录类别: %s", record.Category)
	}
	if err := tx.Create(record).Error; err != nil {
		return fmt.Errorf("创建记录失败: %w", err)
	}
	return nil
}

// GetByID 按 ID 查询记录，不存在时返回 nil
func (r *RecordRepository) GetByID(ctx context.Context, id int64) (*schema.Record, error) {
	var record schema.Record
	err := r.db.WithContext(ctx).First(&record, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("查询记录失败: %w", err)
	}
	return &record, nil
}

// DeleteTx 在指定事务中删除记录
func (r *RecordRepository) DeleteTx(tx *gorm.DB, id int64) error {
	if err := tx.Delete(&schema.Record{}, id).Error; err != nil {
		return fmt.Errorf("删除记录失败: %w", err)
	}
	return nil
}

// ListQuery 记录列表过滤条件
type ListQuery struct {
	Category  schema.RecordCategory // 为空则不过滤
	Year      int                   // 0 则不过滤
	Limit     int                   // 0 则不限制
	ProofOnly bool                  // 仅返回带证明图片的记录（作品一览用）
}

// List 按条件查询记录，时间倒序
func (r *RecordRepository) List(ctx context.Context, q ListQuery) ([]schema.Record, error) {
	query := r.db.WithContext(ctx).Model(&schema.Record{}).Order("occurred_at DESC")
	if q.Category != "" {
		query = query.Where("category = ?", q.Category)
	}
	if q.Year > 0 {
		startMs, endMs := YearRange(q.Year)
		query = query.Where("occurred_at >= ? AND occurred_at <= ?", startMs, endMs)
	}
	if q.ProofOnly {
		query = query.Where("proof_path <> ''")
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	var records []schema.Record
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("查询记录失败: %w", err)
	}
	return records, nil
}

// GetByTimeRange 按毫秒时间区间查询记录（热力图 / 时间分析在服务层做分桶）
func (r *RecordRepository) GetByTimeRange(ctx context.Context, startMs, endMs int64) ([]schema.Record, error) {
	var records []schema.Record
	err := r.db.WithContext(ctx).
		Where("occurred_at >= ? AND occurred_at <= ?", startMs, endMs).
		Order("occurred_at ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("查询记录失败: %w", err)
	}
	return records, nil
}

// SumDurationByCategory 统计某类别的累计时长（分钟）
func (r *RecordRepository) SumDurationByCategory(ctx context.Context, category schema.RecordCategory) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&schema.Record{}).
		Where("category = ?", category).
		Select("COALESCE(SUM(duration_minutes), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("统计时长失败: %w", err)
	}
	return total, nil
}

// SubtypeXP 按子类型汇总的 XP
type SubtypeXP struct {
	Subtype string
	TotalXP int64
}

// SumXPBySubtype 按子类型汇总指定类别集合内的 XP
func (r *RecordRepository) SumXPBySubtype(ctx context.Context, categories []schema.RecordCategory) ([]SubtypeXP, error) {
	var results []SubtypeXP
	err := r.db.WithContext(ctx).
		Model(&schema.Record{}).
		Select("subtype, COALESCE(SUM(xp_gained), 0) AS total_xp").
		Where("category IN ?", categories).
		Group("subtype").
		Find(&results).Error
	if err != nil {
		return nil, fmt.Errorf("按子类型汇总 XP 失败: %w", err)
	}
	return results, nil
}

// EvaluationXP 按评价等级汇总的 XP
type EvaluationXP struct {
	Evaluation string
	TotalXP    int64
}

// SumXPByEvaluation 按评价等级汇总科目習得记录的 XP（无评价的记录不参与）
func (r *RecordRepository) SumXPByEvaluation(ctx context.Context) ([]EvaluationXP, error) {
	var results []EvaluationXP
	err := r.db.WithContext(ctx).
		Model(&schema.Record{}).
		Select("evaluation, COALESCE(SUM(xp_gained), 0) AS total_xp").
		Where("category = ?", schema.CategoryAcquisition).
		Where("evaluation <> ''").
		Group("evaluation").
		Find(&results).Error
	if err != nil {
		return nil, fmt.Errorf("按评价汇总 XP 失败: %w", err)
	}
	return results, nil
}

// BucketCount 整数分桶计数（weekday / hour 共用）
type BucketCount struct {
	Bucket int
	Count  int64
}

// CountByWeekday 按 SQLite 原生星期序号（周日=0）统计记录数
func (r *RecordRepository) CountByWeekday(ctx context.Context) ([]BucketCount, error) {
	var results []BucketCount
	err := r.db.WithContext(ctx).
		Model(&schema.Record{}).
		Select(weekdayExprSQL + " AS bucket, COUNT(id) AS count").
		Group("bucket").
		Find(&results).Error
	if err != nil {
		return nil, fmt.Errorf("按星期统计失败: %w", err)
	}
	return results, nil
}

// CountByHour 按小时（0-23，本地时区）统计记录数
func (r *RecordRepository) CountByHour(ctx context.Context) ([]BucketCount, error) {
	var results []BucketCount
	err := r.db.WithContext(ctx).
		Model(&schema.Record{}).
		Select(hourExprSQL + " AS bucket, COUNT(id) AS count").
		Group("bucket").
		Find(&results).Error
	if err != nil {
		return nil, fmt.Errorf("按小时统计失败: %w", err)
	}
	return results, nil
}

// ListYears 返回存在记录的年份（倒序），归档视图用
func (r *RecordRepository) ListYears(ctx context.Context) ([]string, error) {
	var years []string
	err := r.db.WithContext(ctx).
		Model(&schema.Record{}).
		Distinct("SUBSTR(date, 1, 4)").
		Order("SUBSTR(date, 1, 4) DESC").
		Pluck("SUBSTR(date, 1, 4)", &years).Error
	if err != nil {
		return nil, fmt.Errorf("查询记录年份失败: %w", err)
	}
	return years, nil
}

// Count 统计记录总数
func (r *RecordRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&schema.Record{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("统计记录失败: %w", err)
	}
	return count, nil
}

// DeleteAllTx 在指定事务中清空全部记录（数据重置用）
func (r *RecordRepository) DeleteAllTx(tx *gorm.DB) error {
	if err := tx.Where("1 = 1").Delete(&schema.Record{}).Error; err != nil {
		return fmt.Errorf("清空记录失败: %w", err)
	}
	return nil
}
