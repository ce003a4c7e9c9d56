package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yuqie6/ArtMirror/internal/eventbus"
	"github.com/yuqie6/ArtMirror/internal/repository"
	"github.com/yuqie6/ArtMirror/internal/schema"
	"github.com/yuqie6/ArtMirror/internal/testutil"
)

func newTestProgressService(t *testing.T) (*ProgressService, *repository.StatusRepository) {
	t.Helper()
	db := testutil.OpenTestDB(t)
	records := repository.NewRecordRepository(db)
	status := repository.NewStatusRepository(db)
	holder := NewTablesHolder(DefaultTables())
	svc := NewProgressService(records, status, holder, NewStandardXPPolicy(holder), eventbus.NewHub())
	return svc, status
}

func TestLogTimeAddsXP(t *testing.T) {
	svc, status := newTestProgressService(t)
	ctx := context.Background()

	record, err := svc.LogTime(ctx, LogTimeInput{ActivityType: "基礎技法", DurationMinutes: 30})
	if err != nil {
		t.Fatalf("LogTime error: %v", err)
	}
	if record.XPGained != 1200 {
		t.Fatalf("xp=%d, want 1200", record.XPGained)
	}
	if record.Category != schema.CategoryTimeStudy {
		t.Fatalf("category=%s", record.Category)
	}
	if record.ID == 0 {
		t.Fatal("record id not assigned")
	}

	st, err := status.Get(ctx)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if st.TotalXP != 1200 {
		t.Fatalf("total xp=%d, want 1200", st.TotalXP)
	}
}

func TestLogTimeRejectsBadInput(t *testing.T) {
	svc, _ := newTestProgressService(t)
	ctx := context.Background()

	if _, err := svc.LogTime(ctx, LogTimeInput{ActivityType: "基礎技法", DurationMinutes: 0}); !errors.Is(err, ErrInvalidDuration) {
		t.Fatalf("err=%v, want ErrInvalidDuration", err)
	}
	if _, err := svc.LogTime(ctx, LogTimeInput{ActivityType: "基礎技法", DurationMinutes: -5}); !errors.Is(err, ErrInvalidDuration) {
		t.Fatalf("err=%v, want ErrInvalidDuration", err)
	}
	if _, err := svc.LogTime(ctx, LogTimeInput{ActivityType: "未知の活動", DurationMinutes: 30}); !errors.Is(err, ErrUnknownActivity) {
		t.Fatalf("err=%v, want ErrUnknownActivity", err)
	}
}

func TestLogAcquisition(t *testing.T) {
	svc, status := newTestProgressService(t)
	ctx := context.Background()

	record, err := svc.LogAcquisition(ctx, LogAcquisitionInput{TechniqueType: "応用技法", Evaluation: "b"})
	if err != nil {
		t.Fatalf("LogAcquisition error: %v", err)
	}
	if record.XPGained != 32000 {
		t.Fatalf("xp=%d, want 32000", record.XPGained)
	}
	if record.Evaluation != "B" {
		t.Fatalf("evaluation=%q, want normalized B", record.Evaluation)
	}

	st, _ := status.Get(ctx)
	if st.TotalXP != 32000 {
		t.Fatalf("total xp=%d, want 32000", st.TotalXP)
	}
}

func TestLogAcquisitionRejectsUnknownGrade(t *testing.T) {
	svc, status := newTestProgressService(t)
	ctx := context.Background()

	if _, err := svc.LogAcquisition(ctx, LogAcquisitionInput{TechniqueType: "基礎技法", Evaluation: "Z"}); !errors.Is(err, ErrInvalidGrade) {
		t.Fatalf("err=%v, want ErrInvalidGrade", err)
	}

	// 被拒绝的投稿不应留下任何痕迹
	st, _ := status.Get(ctx)
	if st.TotalXP != 0 {
		t.Fatalf("total xp=%d, want 0 after rejection", st.TotalXP)
	}
}

func TestLogPostFixedXP(t *testing.T) {
	svc, _ := newTestProgressService(t)

	record, err := svc.LogPost(context.Background(), LogPostInput{Description: "練習作"})
	if err != nil {
		t.Fatalf("LogPost error: %v", err)
	}
	if record.XPGained != 7500 {
		t.Fatalf("xp=%d, want 7500 (1500 x A)", record.XPGained)
	}
	if record.Category != schema.CategoryWorkPost || record.Subtype != "自由投稿作品" {
		t.Fatalf("category=%s subtype=%s", record.Category, record.Subtype)
	}
}

func TestDeleteRecordRefundsXP(t *testing.T) {
	svc, status := newTestProgressService(t)
	ctx := context.Background()

	record, err := svc.LogTime(ctx, LogTimeInput{ActivityType: "フリースケッチ", DurationMinutes: 60})
	if err != nil {
		t.Fatalf("LogTime error: %v", err)
	}

	if err := svc.DeleteRecord(ctx, record.ID); err != nil {
		t.Fatalf("DeleteRecord error: %v", err)
	}

	st, _ := status.Get(ctx)
	if st.TotalXP != 0 {
		t.Fatalf("total xp=%d, want 0 after delete", st.TotalXP)
	}
	if _, err := svc.GetRecord(ctx, record.ID); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("err=%v, want ErrRecordNotFound", err)
	}
}

func TestDeleteRecordMissing(t *testing.T) {
	svc, _ := newTestProgressService(t)
	if err := svc.DeleteRecord(context.Background(), 9999); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("err=%v, want ErrRecordNotFound", err)
	}
}

func TestDeleteThenRelogRoundTrip(t *testing.T) {
	svc, status := newTestProgressService(t)
	ctx := context.Background()

	first, _ := svc.LogTime(ctx, LogTimeInput{ActivityType: "基礎技法", DurationMinutes: 30})
	if err := svc.DeleteRecord(ctx, first.ID); err != nil {
		t.Fatalf("DeleteRecord error: %v", err)
	}
	second, err := svc.LogTime(ctx, LogTimeInput{ActivityType: "基礎技法", DurationMinutes: 30})
	if err != nil {
		t.Fatalf("re-log error: %v", err)
	}
	if second.XPGained != first.XPGained {
		t.Fatalf("re-logged xp=%d, want %d", second.XPGained, first.XPGained)
	}

	st, _ := status.Get(ctx)
	if st.TotalXP != 1200 {
		t.Fatalf("total xp=%d, want 1200 after round trip", st.TotalXP)
	}
}

func TestStatusAggregatesTimeOnly(t *testing.T) {
	svc, _ := newTestProgressService(t)
	ctx := context.Background()

	if _, err := svc.LogTime(ctx, LogTimeInput{ActivityType: "基礎技法", DurationMinutes: 90}); err != nil {
		t.Fatalf("LogTime error: %v", err)
	}
	// 技法习得不计入学习时长
	if _, err := svc.LogAcquisition(ctx, LogAcquisitionInput{TechniqueType: "単体技法", Evaluation: "C"}); err != nil {
		t.Fatalf("LogAcquisition error: %v", err)
	}

	info, err := svc.Status(ctx)
	if err != nil {
		t.Fatalf("Status error: %v", err)
	}
	if info.TotalMinutes != 90 {
		t.Fatalf("total minutes=%d, want 90", info.TotalMinutes)
	}
	if info.TotalHours != 1 {
		t.Fatalf("total hours=%d, want 1", info.TotalHours)
	}
	if info.TotalXP != 3600+9000 {
		t.Fatalf("total xp=%d, want %d", info.TotalXP, 3600+9000)
	}
	if info.Username != schema.DefaultUsername {
		t.Fatalf("username=%q", info.Username)
	}
}

func TestArchiveYears(t *testing.T) {
	svc, _ := newTestProgressService(t)
	ctx := context.Background()

	dates := []time.Time{
		time.Date(2023, 3, 1, 12, 0, 0, 0, time.Local),
		time.Date(2024, 7, 15, 12, 0, 0, 0, time.Local),
		time.Date(2024, 8, 1, 12, 0, 0, 0, time.Local),
	}
	for _, d := range dates {
		if _, err := svc.LogTime(ctx, LogTimeInput{ActivityType: "基礎技法", DurationMinutes: 10, OccurredAt: d}); err != nil {
			t.Fatalf("LogTime error: %v", err)
		}
	}

	years, err := svc.ArchiveYears(ctx)
	if err != nil {
		t.Fatalf("ArchiveYears error: %v", err)
	}
	if len(years) != 2 {
		t.Fatalf("years=%v, want 2 distinct years", years)
	}
}

func TestUpdateUsername(t *testing.T) {
	svc, status := newTestProgressService(t)
	ctx := context.Background()

	if err := svc.UpdateUsername(ctx, "  "); err == nil {
		t.Fatal("blank username should fail")
	}
	if err := svc.UpdateUsername(ctx, "絵師A"); err != nil {
		t.Fatalf("UpdateUsername error: %v", err)
	}
	st, _ := status.Get(ctx)
	if st.Username != "絵師A" {
		t.Fatalf("username=%q", st.Username)
	}
}
