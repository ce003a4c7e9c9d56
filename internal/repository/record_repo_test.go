package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/yuqie6/ArtMirror/internal/repository"
	"github.com/yuqie6/ArtMirror/internal/schema"
	"github.com/yuqie6/ArtMirror/internal/testutil"
	"gorm.io/gorm"
)

func newRecordRepo(t *testing.T) *repository.RecordRepository {
	t.Helper()
	return repository.NewRecordRepository(testutil.OpenTestDB(t))
}

func mustCreate(t *testing.T, repo *repository.RecordRepository, r *schema.Record) {
	t.Helper()
	err := repo.Transaction(context.Background(), func(tx *gorm.DB) error {
		return repo.CreateTx(tx, r)
	})
	if err != nil {
		t.Fatalf("create record: %v", err)
	}
}

func TestRecordListFilters(t *testing.T) {
	repo := newRecordRepo(t)
	ctx := context.Background()

	t2023 := time.Date(2023, 6, 1, 12, 0, 0, 0, time.Local)
	t2024 := time.Date(2024, 6, 1, 12, 0, 0, 0, time.Local)

	study := schema.NewRecord(schema.CategoryTimeStudy, "基礎技法", 1200, t2023)
	mustCreate(t, repo, study)
	work := schema.NewRecord(schema.CategoryWorkPost, "自由投稿作品", 7500, t2024)
	work.ProofPath = "uploads/abc.png"
	mustCreate(t, repo, work)
	mustCreate(t, repo, schema.NewRecord(schema.CategoryAcquisition, "応用技法", 32000, t2024))

	all, err := repo.List(ctx, repository.ListQuery{})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("all=%d, want 3", len(all))
	}
	// 时间倒序
	if all[0].OccurredAt < all[1].OccurredAt {
		t.Fatal("list should be ordered newest first")
	}

	byCategory, err := repo.List(ctx, repository.ListQuery{Category: schema.CategoryTimeStudy})
	if err != nil {
		t.Fatalf("list by category: %v", err)
	}
	if len(byCategory) != 1 || byCategory[0].ID != study.ID {
		t.Fatalf("by category=%d records", len(byCategory))
	}

	byYear, err := repo.List(ctx, repository.ListQuery{Year: 2024})
	if err != nil {
		t.Fatalf("list by year: %v", err)
	}
	if len(byYear) != 2 {
		t.Fatalf("year 2024=%d records, want 2", len(byYear))
	}

	proofOnly, err := repo.List(ctx, repository.ListQuery{ProofOnly: true})
	if err != nil {
		t.Fatalf("list proof only: %v", err)
	}
	if len(proofOnly) != 1 || proofOnly[0].ID != work.ID {
		t.Fatalf("proof only=%d records", len(proofOnly))
	}

	limited, err := repo.List(ctx, repository.ListQuery{Limit: 2})
	if err != nil {
		t.Fatalf("list limited: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("limited=%d records, want 2", len(limited))
	}
}

func TestRecordGetByIDMissing(t *testing.T) {
	repo := newRecordRepo(t)
	got, err := repo.GetByID(context.Background(), 9999)
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	if got != nil {
		t.Fatalf("missing id should return nil, got %+v", got)
	}
}

func TestRecordSumDurationByCategory(t *testing.T) {
	repo := newRecordRepo(t)
	now := time.Now()

	r1 := schema.NewRecord(schema.CategoryTimeStudy, "基礎技法", 1200, now)
	r1.DurationMinutes = 30
	mustCreate(t, repo, r1)
	r2 := schema.NewRecord(schema.CategoryTimeStudy, "フリースケッチ", 400, now)
	r2.DurationMinutes = 20
	mustCreate(t, repo, r2)
	// 動画学習的时长不计入時間学習
	r3 := schema.NewRecord(schema.CategoryVideoCompletion, "講座", 100, now)
	r3.DurationMinutes = 60
	mustCreate(t, repo, r3)

	total, err := repo.SumDurationByCategory(context.Background(), schema.CategoryTimeStudy)
	if err != nil {
		t.Fatalf("sum duration: %v", err)
	}
	if total != 50 {
		t.Fatalf("total=%d, want 50", total)
	}
}

func TestRecordListYears(t *testing.T) {
	repo := newRecordRepo(t)
	ctx := context.Background()

	mustCreate(t, repo, schema.NewRecord(schema.CategoryTimeStudy, "基礎技法", 100, time.Date(2023, 2, 1, 12, 0, 0, 0, time.Local)))
	mustCreate(t, repo, schema.NewRecord(schema.CategoryTimeStudy, "基礎技法", 100, time.Date(2024, 2, 1, 12, 0, 0, 0, time.Local)))
	mustCreate(t, repo, schema.NewRecord(schema.CategoryTimeStudy, "基礎技法", 100, time.Date(2024, 8, 1, 12, 0, 0, 0, time.Local)))

	years, err := repo.ListYears(ctx)
	if err != nil {
		t.Fatalf("list years: %v", err)
	}
	if len(years) != 2 || years[0] != "2024" || years[1] != "2023" {
		t.Fatalf("years=%v, want [2024 2023]", years)
	}
}

func TestRecordDeleteAndCount(t *testing.T) {
	repo := newRecordRepo(t)
	ctx := context.Background()

	r := schema.NewRecord(schema.CategoryTimeStudy, "基礎技法", 100, time.Now())
	mustCreate(t, repo, r)

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("count=%d, want 1", count)
	}

	err = repo.Transaction(ctx, func(tx *gorm.DB) error {
		return repo.DeleteTx(tx, r.ID)
	})
	if err != nil {
		t.Fatalf("delete: %v", err)
	}

	count, err = repo.Count(ctx)
	if err != nil {
		t.Fatalf("count after delete: %v", err)
	}
	if count != 0 {
		t.Fatalf("count=%d, want 0", count)
	}
}

func TestRecordCreateRejectsInvalidCategory(t *testing.T) {
	repo := newRecordRepo(t)
	bad := &schema.Record{Category: schema.RecordCategory("謎のカテゴリ")}
	err := repo.Transaction(context.Background(), func(tx *gorm.DB) error {
		return repo.CreateTx(tx, bad)
	})
	if err == nil {
		t.Fatal("invalid category should be rejected")
	}
}
