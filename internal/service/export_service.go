package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/yuqie6/ArtMirror/internal/repository"
	"github.com/yuqie6/ArtMirror/internal/schema"
	"gorm.io/gorm"
)

// DataService 数据管理服务：导出与整体重置
type DataService struct {
	records *repository.RecordRepository
	status  *repository.StatusRepository
	books   *repository.BookRepository
	links   *repository.LinkRepository
}

// NewDataService 创建数据服务
func NewDataService(
	records *repository.RecordRepository,
	status *repository.StatusRepository,
	books *repository.BookRepository,
	links *repository.LinkRepository,
) *DataService {
	return &DataService{records: records, status: status, books: books, links: links}
}

// csvHeader 导出列保持与旧版一致
var csvHeader = []string{"ID", "種別", "サブタイプ", "説明", "取得XP", "日付", "時間(分)", "評価"}

// ExportCSV 将全部记录写出为 CSV（时间倒序）
func (s *DataService) ExportCSV(ctx context.Context, w io.Writer) error {
	records, err := s.records.List(ctx, repository.ListQuery{})
	if err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("写出 CSV 表头失败: %w", err)
	}

	for _, r := range records {
		duration := ""
		if r.DurationMinutes > 0 {
			duration = strconv.Itoa(r.DurationMinutes)
		}
		row := []string{
			strconv.FormatInt(r.ID, 10),
			r.Category.String(),
			r.Subtype,
			r.Description,
			strconv.Itoa(r.XPGained),
			r.OccurredTime().Format("2006-01-02 15:04:05"),
			duration,
			r.Evaluation,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("写出 CSV 行失败: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("写出 CSV 失败: %w", err)
	}
	return nil
}

// ExportBundle 全量 JSON 导出
type ExportBundle struct {
	ExportedAt string                `json:"exported_at"`
	User       ExportUser            `json:"user"`
	Records    []schema.Record       `json:"records"`
	Books      []schema.Book         `json:"books"`
	Links      []schema.ResourceLink `json:"links"`
}

// ExportUser 导出中的用户状态
type ExportUser struct {
	Username string `json:"username"`
	TotalXP  int    `json:"total_xp"`
}

// ExportJSON 组装全量导出数据
func (s *DataService) ExportJSON(ctx context.Context) (*ExportBundle, error) {
	status, err := s.status.Get(ctx)
	if err != nil {
		return nil, err
	}
	records, err := s.records.List(ctx, repository.ListQuery{})
	if err != nil {
		return nil, err
	}
	books, _, err := s.books.List(ctx, 1, 10000, "")
	if err != nil {
		return nil, err
	}
	links, err := s.links.List(ctx)
	if err != nil {
		return nil, err
	}

	// 空集合落 JSON 时输出 [] 而不是 null
	if records == nil {
		records = []schema.Record{}
	}
	if books == nil {
		books = []schema.Book{}
	}
	if links == nil {
		links = []schema.ResourceLink{}
	}

	return &ExportBundle{
		ExportedAt: time.Now().Format(time.RFC3339),
		User:       ExportUser{Username: status.Username, TotalXP: status.TotalXP},
		Records:    records,
		Books:      books,
		Links:      links,
	}, nil
}

// ResetAll 清空全部学习数据并恢复初始状态（单事务）
func (s *DataService) ResetAll(ctx context.Context) error {
	err := s.records.Transaction(ctx, func(tx *gorm.DB) error {
		if err := s.records.DeleteAllTx(tx); err != nil {
			return err
		}
		if err := s.books.DeleteAllTx(tx); err != nil {
			return err
		}
		if err := s.links.DeleteAllTx(tx); err != nil {
			return err
		}
		return s.status.ResetTx(tx)
	})
	if err != nil {
		return fmt.Errorf("重置数据失败: %w", err)
	}
	slog.Warn("全部学习数据已重置")
	return nil
}
