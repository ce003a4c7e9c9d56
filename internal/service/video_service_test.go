package service

import (
	"context"
	"errors"
	"testing"

	"github.com/yuqie6/ArtMirror/internal/eventbus"
	"github.com/yuqie6/ArtMirror/internal/repository"
	"github.com/yuqie6/ArtMirror/internal/schema"
	"github.com/yuqie6/ArtMirror/internal/testutil"
)

func newTestVideoService(t *testing.T) (*VideoService, *repository.StatusRepository, *repository.RecordRepository, *repository.VideoViewRepository) {
	t.Helper()
	db := testutil.OpenTestDB(t)
	playlists := repository.NewPlaylistRepository(db)
	views := repository.NewVideoViewRepository(db)
	records := repository.NewRecordRepository(db)
	status := repository.NewStatusRepository(db)
	holder := NewTablesHolder(DefaultTables())
	svc := NewVideoService(playlists, views, records, status, NewStandardXPPolicy(holder), eventbus.NewHub())

	if err := playlists.Create(context.Background(), &schema.Playlist{
		PlaylistID: "PLtest123",
		Title:      "パース基礎講座",
	}); err != nil {
		t.Fatalf("create playlist: %v", err)
	}
	return svc, status, records, views
}

func TestRecordViewKeepsMaxSeconds(t *testing.T) {
	svc, _, _, views := newTestVideoService(t)
	ctx := context.Background()

	if err := svc.RecordView(ctx, "PLtest123", 0, 120); err != nil {
		t.Fatalf("RecordView error: %v", err)
	}
	// 回退的进度上报不应覆盖已有的最大值
	if err := svc.RecordView(ctx, "PLtest123", 0, 60); err != nil {
		t.Fatalf("RecordView error: %v", err)
	}

	view, err := views.GetByVideo(ctx, 1, 0)
	if err != nil {
		t.Fatalf("GetByVideo error: %v", err)
	}
	if view == nil || view.WatchedSeconds != 120 {
		t.Fatalf("view=%+v, want watched 120", view)
	}

	if err := svc.RecordView(ctx, "PLtest123", 0, 300); err != nil {
		t.Fatalf("RecordView error: %v", err)
	}
	view, _ = views.GetByVideo(ctx, 1, 0)
	if view.WatchedSeconds != 300 {
		t.Fatalf("watched=%d, want 300", view.WatchedSeconds)
	}
}

func TestRecordViewUnknownPlaylist(t *testing.T) {
	svc, _, _, _ := newTestVideoService(t)
	if err := svc.RecordView(context.Background(), "PLmissing", 0, 60); !errors.Is(err, ErrPlaylistNotFound) {
		t.Fatalf("err=%v, want ErrPlaylistNotFound", err)
	}
}

func TestMarkCompleteAwardsXPOnce(t *testing.T) {
	svc, status, records, _ := newTestVideoService(t)
	ctx := context.Background()

	if err := svc.RecordView(ctx, "PLtest123", 2, 3600); err != nil {
		t.Fatalf("RecordView error: %v", err)
	}

	xp, err := svc.MarkComplete(ctx, "PLtest123", 2)
	if err != nil {
		t.Fatalf("MarkComplete error: %v", err)
	}
	if xp != 100 {
		t.Fatalf("xp=%d, want 100 for 3600s", xp)
	}

	st, _ := status.Get(ctx)
	if st.TotalXP != 100 {
		t.Fatalf("total xp=%d, want 100", st.TotalXP)
	}

	// 完成时同步生成一条動画学習记录
	list, err := records.List(ctx, repository.ListQuery{Category: schema.CategoryVideoCompletion})
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("records=%d, want 1", len(list))
	}
	if list[0].Subtype != "パース基礎講座" || list[0].XPGained != 100 {
		t.Fatalf("record=%+v", list[0])
	}
	if list[0].DurationMinutes != 60 {
		t.Fatalf("duration=%d, want 60", list[0].DurationMinutes)
	}

	// 幂等：重复标记返回相同 XP，不重复奖励
	again, err := svc.MarkComplete(ctx, "PLtest123", 2)
	if err != nil {
		t.Fatalf("second MarkComplete error: %v", err)
	}
	if again != 100 {
		t.Fatalf("second xp=%d, want 100", again)
	}
	st, _ = status.Get(ctx)
	if st.TotalXP != 100 {
		t.Fatalf("total xp after repeat=%d, want 100", st.TotalXP)
	}
	list, _ = records.List(ctx, repository.ListQuery{Category: schema.CategoryVideoCompletion})
	if len(list) != 1 {
		t.Fatalf("records after repeat=%d, want 1", len(list))
	}
}

func TestMarkCompleteUnwatchedVideoGetsFloor(t *testing.T) {
	svc, _, _, _ := newTestVideoService(t)

	// 未上报任何进度直接标记完成：按下限 10 XP 结算
	xp, err := svc.MarkComplete(context.Background(), "PLtest123", 5)
	if err != nil {
		t.Fatalf("MarkComplete error: %v", err)
	}
	if xp != 10 {
		t.Fatalf("xp=%d, want floor 10", xp)
	}
}

func TestResetProgress(t *testing.T) {
	svc, _, _, views := newTestVideoService(t)
	ctx := context.Background()

	if _, err := svc.MarkComplete(ctx, "PLtest123", 0); err != nil {
		t.Fatalf("MarkComplete error: %v", err)
	}

	if err := svc.ResetProgress(ctx, 1); err != nil {
		t.Fatalf("ResetProgress error: %v", err)
	}

	list, err := views.ListByPlaylist(ctx, 1)
	if err != nil {
		t.Fatalf("ListByPlaylist error: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("views=%d, want 0 after reset", len(list))
	}

	if err := svc.ResetProgress(ctx, 999); !errors.Is(err, ErrPlaylistNotFound) {
		t.Fatalf("err=%v, want ErrPlaylistNotFound", err)
	}
}
