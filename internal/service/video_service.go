package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/yuqie6/ArtMirror/internal/eventbus"
	"github.com/yuqie6/ArtMirror/internal/repository"
	"github.com/yuqie6/ArtMirror/internal/schema"
	"gorm.io/gorm"
)

// VideoService 视频观看进度服务。
// 观看秒数取历次上报的最大值；完成标记只奖励一次 XP，
// 奖励时在同一事务内追加一条動画学習记录并增加累计 XP。
type VideoService struct {
	playlists *repository.PlaylistRepository
	views     *repository.VideoViewRepository
	records   *repository.RecordRepository
	status    *repository.StatusRepository
	policy    XPPolicy
	hub       *eventbus.Hub
}

// NewVideoService 创建视频服务
func NewVideoService(
	playlists *repository.PlaylistRepository,
	views *repository.VideoViewRepository,
	records *repository.RecordRepository,
	status *repository.StatusRepository,
	policy XPPolicy,
	hub *eventbus.Hub,
) *VideoService {
	return &VideoService{
		playlists: playlists,
		views:     views,
		records:   records,
		status:    status,
		policy:    policy,
		hub:       hub,
	}
}

// RecordView 上报观看进度（只增不减）
func (s *VideoService) RecordView(ctx context.Context, playlistID string, videoIndex, watchedSeconds int) error {
	if videoIndex < 0 {
		return fmt.Errorf("视频序号不能为负数")
	}

	playlist, err := s.playlists.GetByPlaylistID(ctx, playlistID)
	if err != nil {
		return err
	}
	if playlist == nil {
		return ErrPlaylistNotFound
	}

	view, err := s.views.GetByVideo(ctx, playlist.ID, videoIndex)
	if err != nil {
		return err
	}
	if view == nil {
		view = &schema.VideoView{
			PlaylistID: playlist.ID,
			VideoIndex: videoIndex,
		}
	}
	if watchedSeconds > view.WatchedSeconds {
		view.WatchedSeconds = watchedSeconds
	}
	view.LastViewedAt = time.Now()

	return s.views.Upsert(ctx, view)
}

// MarkComplete 标记视频完成并结算 XP。
// 幂等：已完成的视频直接返回当初结算的 XP，不重复奖励。
func (s *VideoService) MarkComplete(ctx context.Context, playlistID string, videoIndex int) (int, error) {
	playlist, err := s.playlists.GetByPlaylistID(ctx, playlistID)
	if err != nil {
		return 0, err
	}
	if playlist == nil {
		return 0, ErrPlaylistNotFound
	}

	view, err := s.views.GetByVideo(ctx, playlist.ID, videoIndex)
	if err != nil {
		return 0, err
	}
	if view == nil {
		view = &schema.VideoView{
			PlaylistID: playlist.ID,
			VideoIndex: videoIndex,
		}
	}
	if view.Completed {
		return view.XPGained, nil
	}

	before, err := s.status.Get(ctx)
	if err != nil {
		return 0, err
	}

	xp := s.policy.CalcVideoXP(view.WatchedSeconds)
	now := time.Now()

	view.Completed = true
	view.XPGained = xp
	view.LastViewedAt = now

	record := schema.NewRecord(schema.CategoryVideoCompletion, playlist.Title, xp, now)
	record.DurationMinutes = view.WatchedSeconds / 60
	record.Description = fmt.Sprintf("動画 #%d を完了", videoIndex+1)

	err = s.views.Transaction(ctx, func(tx *gorm.DB) error {
		if err := s.views.SaveTx(tx, view); err != nil {
			return err
		}
		if err := s.records.CreateTx(tx, record); err != nil {
			return err
		}
		return s.status.AddXPTx(tx, xp)
	})
	if err != nil {
		return 0, fmt.Errorf("结算视频 XP 失败: %w", err)
	}

	totalAfter := before.TotalXP + xp
	slog.Info("视频完成", "playlist", playlist.Title, "video_index", videoIndex, "xp_gained", xp)
	s.hub.Publish(eventbus.NewRecordLogged(record.ID, record.Category.String(), xp, totalAfter))
	return xp, nil
}

// ResetProgress 清空播放列表的观看进度（不回退已结算的记录 XP）
func (s *VideoService) ResetProgress(ctx context.Context, id int64) error {
	playlist, err := s.playlists.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if playlist == nil {
		return ErrPlaylistNotFound
	}
	return s.playlists.ResetProgress(ctx, id)
}
