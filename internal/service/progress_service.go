package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/yuqie6/ArtMirror/internal/eventbus"
	"github.com/yuqie6/ArtMirror/internal/repository"
	"github.com/yuqie6/ArtMirror/internal/schema"
	"gorm.io/gorm"
)

// 自由投稿的固定子类型与计算用技法名（兜底基础 XP 路径）
const (
	freePostSubtype   = "自由投稿作品"
	freePostTechnique = "自由投稿"
)

// ProgressService 学习进度服务：记录写入、XP 增减与段位状态。
// 记录创建/删除与累计 XP 的增减在同一事务内完成，两者要么同时可见要么都不发生。
type ProgressService struct {
	records *repository.RecordRepository
	status  *repository.StatusRepository
	tables  *TablesHolder
	policy  XPPolicy
	hub     *eventbus.Hub
}

// NewProgressService 创建进度服务
func NewProgressService(
	records *repository.RecordRepository,
	status *repository.StatusRepository,
	tables *TablesHolder,
	policy XPPolicy,
	hub *eventbus.Hub,
) *ProgressService {
	return &ProgressService{
		records: records,
		status:  status,
		tables:  tables,
		policy:  policy,
		hub:     hub,
	}
}

// LogTimeInput 时间学习记录的输入
type LogTimeInput struct {
	ActivityType    string
	DurationMinutes int
	Description     string
	OccurredAt      time.Time // 零值时取当前时间
}

// LogTime 记录一次时间学习并增加累计 XP
func (s *ProgressService) LogTime(ctx context.Context, in LogTimeInput) (*schema.Record, error) {
	if in.DurationMinutes <= 0 {
		return nil, ErrInvalidDuration
	}

	xp := s.policy.CalcTimeXP(in.ActivityType, float64(in.DurationMinutes))
	if xp <= 0 {
		return nil, ErrUnknownActivity
	}

	record := schema.NewRecord(schema.CategoryTimeStudy, in.ActivityType, xp, occurredOrNow(in.OccurredAt))
	record.Description = in.Description
	record.DurationMinutes = in.DurationMinutes

	if err := s.commitRecord(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// LogAcquisitionInput 技法习得记录的输入
type LogAcquisitionInput struct {
	TechniqueType string
	Evaluation    string
	Description   string
	ProofPath     string
	OccurredAt    time.Time
}

// LogAcquisition 记录一次技法习得并增加累计 XP。
// 评价等级在这里做成员校验：计算层对未知评价的夹取兼容行为只保留给直接调用方。
func (s *ProgressService) LogAcquisition(ctx context.Context, in LogAcquisitionInput) (*schema.Record, error) {
	grade := strings.ToUpper(strings.TrimSpace(in.Evaluation))
	if _, ok := s.tables.Load().GradeMultiplier[grade]; !ok {
		return nil, ErrInvalidGrade
	}

	xp := s.policy.CalcAcquisitionXP(in.TechniqueType, grade)
	if xp <= 0 {
		return nil, ErrXPNotPositive
	}

	record := schema.NewRecord(schema.CategoryAcquisition, in.TechniqueType, xp, occurredOrNow(in.OccurredAt))
	record.Description = in.Description
	record.Evaluation = grade
	record.ProofPath = in.ProofPath

	if err := s.commitRecord(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// LogPostInput 自由投稿记录的输入
type LogPostInput struct {
	Description string
	ProofPath   string
	OccurredAt  time.Time
}

// LogPost 记录一次自由作品投稿（固定按 A 评价的兜底基础 XP 计算）
func (s *ProgressService) LogPost(ctx context.Context, in LogPostInput) (*schema.Record, error) {
	xp := s.policy.CalcAcquisitionXP(freePostTechnique, "A")
	if xp <= 0 {
		return nil, ErrXPNotPositive
	}

	record := schema.NewRecord(schema.CategoryWorkPost, freePostSubtype, xp, occurredOrNow(in.OccurredAt))
	record.Description = in.Description
	record.ProofPath = in.ProofPath

	if err := s.commitRecord(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// commitRecord 在同一事务内写入记录并增加累计 XP，随后发布事件
func (s *ProgressService) commitRecord(ctx context.Context, record *schema.Record) error {
	before, err := s.status.Get(ctx)
	if err != nil {
		return err
	}

	err = s.records.Transaction(ctx, func(tx *gorm.DB) error {
		if err := s.records.CreateTx(tx, record); err != nil {
			return err
		}
		return s.status.AddXPTx(tx, record.XPGained)
	})
	if err != nil {
		return fmt.Errorf("提交记录失败: %w", err)
	}

	totalAfter := before.TotalXP + record.XPGained
	slog.Info("学习记录已保存",
		"category", record.Category,
		"subtype", record.Subtype,
		"xp_gained", record.XPGained,
		"total_xp", totalAfter,
	)

	s.hub.Publish(eventbus.NewRecordLogged(record.ID, record.Category.String(), record.XPGained, totalAfter))
	s.publishRankUpIfAny(before.TotalXP, totalAfter)
	return nil
}

// DeleteRecord 删除记录并回退其 XP（累计值不会低于 0）
func (s *ProgressService) DeleteRecord(ctx context.Context, id int64) error {
	record, err := s.records.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if record == nil {
		return ErrRecordNotFound
	}

	before, err := s.status.Get(ctx)
	if err != nil {
		return err
	}

	err = s.records.Transaction(ctx, func(tx *gorm.DB) error {
		if err := s.records.DeleteTx(tx, id); err != nil {
			return err
		}
		return s.status.AddXPTx(tx, -record.XPGained)
	})
	if err != nil {
		return fmt.Errorf("删除记录失败: %w", err)
	}

	totalAfter := before.TotalXP - record.XPGained
	if totalAfter < 0 {
		totalAfter = 0
	}
	slog.Info("学习记录已删除", "record_id", id, "xp_reversed", record.XPGained, "total_xp", totalAfter)
	s.hub.Publish(eventbus.NewRecordDeleted(id, record.XPGained, totalAfter))
	return nil
}

// publishRankUpIfAny 段位变化时发布事件
func (s *ProgressService) publishRankUpIfAny(totalBefore, totalAfter int) {
	t := s.tables.Load()
	oldRank := t.RankSnapshot(totalBefore)
	newRank := t.RankSnapshot(totalAfter)
	if newRank.Rank > oldRank.Rank {
		slog.Info("段位提升", "old_rank", oldRank.Rank, "new_rank", newRank.Rank, "title", newRank.Title)
		s.hub.Publish(eventbus.NewRankUp(oldRank.Rank, newRank.Rank, newRank.Title))
	}
}

// StatusInfo 用户状态快照（段位信息 + 学习总时长）
type StatusInfo struct {
	RankInfo
	Username     string `json:"username"`
	TotalMinutes int64  `json:"total_time_minutes"`
	TotalHours   int64  `json:"total_time_hours"`
}

// Status 返回当前用户状态
func (s *ProgressService) Status(ctx context.Context) (*StatusInfo, error) {
	status, err := s.status.Get(ctx)
	if err != nil {
		return nil, err
	}

	totalMinutes, err := s.records.SumDurationByCategory(ctx, schema.CategoryTimeStudy)
	if err != nil {
		return nil, err
	}

	return &StatusInfo{
		RankInfo:     s.tables.Load().RankSnapshot(status.TotalXP),
		Username:     status.Username,
		TotalMinutes: totalMinutes,
		TotalHours:   totalMinutes / 60,
	}, nil
}

// GetRecord 查询单条记录
func (s *ProgressService) GetRecord(ctx context.Context, id int64) (*schema.Record, error) {
	record, err := s.records.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrRecordNotFound
	}
	return record, nil
}

// ListRecords 按条件查询记录
func (s *ProgressService) ListRecords(ctx context.Context, q repository.ListQuery) ([]schema.Record, error) {
	return s.records.List(ctx, q)
}

// ArchiveYears 返回存在记录的年份列表
func (s *ProgressService) ArchiveYears(ctx context.Context) ([]string, error) {
	return s.records.ListYears(ctx)
}

// UpdateUsername 更新用户名
func (s *ProgressService) UpdateUsername(ctx context.Context, username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return fmt.Errorf("用户名不能为空")
	}
	return s.status.UpdateUsername(ctx, username)
}

// Constants 返回当前生效的换算表快照（HTTP 层透出给前端）
func (s *ProgressService) Constants() *Tables {
	return s.tables.Load()
}

func occurredOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}
