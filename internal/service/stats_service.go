package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/yuqie6/ArtMirror/internal/repository"
	"github.com/yuqie6/ArtMirror/internal/schema"
)

// 无子类型/无评价记录在统计输出中的兜底标签
const (
	uncategorizedLabel = "未分類"
)

// StatsService 统计服务：记录集合上的只读聚合视图。
// 所有方法对空数据返回零值填充的定形结构，而不是空集合——前端按固定形状渲染。
type StatsService struct {
	records *repository.RecordRepository
	views   *repository.VideoViewRepository
	lists   *repository.PlaylistRepository
}

// NewStatsService 创建统计服务
func NewStatsService(
	records *repository.RecordRepository,
	views *repository.VideoViewRepository,
	lists *repository.PlaylistRepository,
) *StatsService {
	return &StatsService{records: records, views: views, lists: lists}
}

// LabeledSeries 标签-数值成对的序列（饼图/柱状图用）
type LabeledSeries struct {
	Labels []string `json:"labels"`
	Data   []int64  `json:"data"`
}

// XPBySubtype 按子类型汇总技法习得与自由投稿的 XP。
// 子类型为空的记录归入“未分類”桶，不会被丢弃。
func (s *StatsService) XPBySubtype(ctx context.Context) (*LabeledSeries, error) {
	rows, err := s.records.SumXPBySubtype(ctx, []schema.RecordCategory{
		schema.CategoryAcquisition,
		schema.CategoryWorkPost,
	})
	if err != nil {
		return nil, err
	}

	out := &LabeledSeries{Labels: []string{}, Data: []int64{}}
	for _, row := range rows {
		label := row.Subtype
		if label == "" {
			label = uncategorizedLabel
		}
		out.Labels = append(out.Labels, label)
		out.Data = append(out.Data, row.TotalXP)
	}
	return out, nil
}

// XPByEvaluation 按评价等级汇总科目習得记录的 XP（无评价的记录不参与统计）
func (s *StatsService) XPByEvaluation(ctx context.Context) (*LabeledSeries, error) {
	rows, err := s.records.SumXPByEvaluation(ctx)
	if err != nil {
		return nil, err
	}

	out := &LabeledSeries{Labels: []string{}, Data: []int64{}}
	for _, row := range rows {
		out.Labels = append(out.Labels, row.Evaluation)
		out.Data = append(out.Data, row.TotalXP)
	}
	return out, nil
}

// PatternSeries 固定长度的分桶计数
type PatternSeries struct {
	Labels []string `json:"labels"`
	Data   []int64  `json:"data"`
}

// LearningPatterns 学习模式统计
type LearningPatterns struct {
	ByDay  PatternSeries `json:"by_day"`  // 7 桶，周一优先
	ByHour PatternSeries `json:"by_hour"` // 24 桶，0-23 时
}

// Patterns 按星期与小时统计记录次数（计次，不计 XP）。
// 仓储返回 SQLite 原生的周日=0 序号，这里转换为周一优先的展示顺序。
func (s *StatsService) Patterns(ctx context.Context) (*LearningPatterns, error) {
	dayRows, err := s.records.CountByWeekday(ctx)
	if err != nil {
		return nil, err
	}
	hourRows, err := s.records.CountByHour(ctx)
	if err != nil {
		return nil, err
	}

	out := &LearningPatterns{
		ByDay:  PatternSeries{Labels: WeekdayLabels, Data: make([]int64, 7)},
		ByHour: PatternSeries{Labels: HourLabels(), Data: make([]int64, 24)},
	}

	for _, row := range dayRows {
		idx := SundayFirstToMondayFirst(row.Bucket)
		if idx < 0 {
			slog.Warn("丢弃非法星期桶", "bucket", row.Bucket)
			continue
		}
		out.ByDay.Data[idx] = row.Count
	}
	for _, row := range hourRows {
		if row.Bucket < 0 || row.Bucket > 23 {
			slog.Warn("丢弃非法小时桶", "bucket", row.Bucket)
			continue
		}
		out.ByHour.Data[row.Bucket] = row.Count
	}
	return out, nil
}

// HeatmapDay 热力图中的一天
type HeatmapDay struct {
	Date    string `json:"date"` // YYYY-MM-DD
	XP      int64  `json:"xp"`
	Minutes int64  `json:"times"` // 当日累计分钟（字段名沿用前端契约）
	Week    int    `json:"week"`  // ISO 周序号
	Day     int    `json:"day"`   // 周一=0 … 周日=6
}

// HeatmapReport 年度活动热力图（GitHub 风格）
type HeatmapReport struct {
	Data       []HeatmapDay `json:"data"`
	StartDate  string       `json:"start_date"`
	EndDate    string       `json:"end_date"`
	TotalXP    int64        `json:"total_xp"`
	DaysActive int          `json:"days_active"`
}

// Heatmap 返回指定年份每一天的 XP 与时长合计。
// 输出严格覆盖全年每一天（闰年 366 天），无记录的日期填零而不是缺省。
func (s *StatsService) Heatmap(ctx context.Context, year int) (*HeatmapReport, error) {
	startMs, endMs := repository.YearRange(year)
	records, err := s.records.GetByTimeRange(ctx, startMs, endMs)
	if err != nil {
		return nil, err
	}

	type dayAgg struct {
		xp      int64
		minutes int64
	}
	byDate := make(map[string]dayAgg)
	for _, r := range records {
		key := r.OccurredTime().Format("2006-01-02")
		agg := byDate[key]
		agg.xp += int64(r.XPGained)
		agg.minutes += int64(r.DurationMinutes)
		byDate[key] = agg
	}

	report := &HeatmapReport{Data: []HeatmapDay{}}
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.Local)
	end := time.Date(year, time.December, 31, 0, 0, 0, 0, time.Local)
	report.StartDate = start.Format("2006-01-02")
	report.EndDate = end.Format("2006-01-02")

	for cur := start; !cur.After(end); cur = cur.AddDate(0, 0, 1) {
		key := cur.Format("2006-01-02")
		agg := byDate[key]
		_, isoWeek := cur.ISOWeek()
		report.Data = append(report.Data, HeatmapDay{
			Date:    key,
			XP:      agg.xp,
			Minutes: agg.minutes,
			Week:    isoWeek,
			Day:     MondayIndex(cur.Weekday()),
		})
		report.TotalXP += agg.xp
		if agg.xp > 0 {
			report.DaysActive++
		}
	}
	return report, nil
}

// TimePeriod 时间分析的窗口类型
type TimePeriod string

const (
	PeriodDaily   TimePeriod = "daily"
	PeriodWeekly  TimePeriod = "weekly"
	PeriodMonthly TimePeriod = "monthly"
)

// TimeSeriesReport 时间分析结果（定形数组）
type TimeSeriesReport struct {
	Labels  []string `json:"labels"`
	Minutes []int64  `json:"minutes"`
	XP      []int64  `json:"xp"`
}

// TimeAnalysis 按窗口聚合时长与 XP。
//   - daily: 追溯 7 天 + 今天，共 8 个标签（沿用旧版口径，前端依赖该形状）
//   - weekly: 4 个周桶（周序号对 4 取模，沿用旧版口径）
//   - monthly: 12 个自然月桶
//
// 窗口外的记录完全排除，没有溢出桶。
func (s *StatsService) TimeAnalysis(ctx context.Context, period TimePeriod, now time.Time) (*TimeSeriesReport, error) {
	switch period {
	case PeriodDaily:
		return s.dailyAnalysis(ctx, now)
	case PeriodWeekly:
		return s.weeklyAnalysis(ctx, now)
	case PeriodMonthly:
		return s.monthlyAnalysis(ctx, now)
	default:
		return nil, fmt.Errorf("无效的分析窗口: %s", period)
	}
}

func (s *StatsService) dailyAnalysis(ctx context.Context, now time.Time) (*TimeSeriesReport, error) {
	start := now.AddDate(0, 0, -7)
	records, err := s.records.GetByTimeRange(ctx, start.UnixMilli(), now.UnixMilli())
	if err != nil {
		return nil, err
	}

	const buckets = 8
	report := newTimeSeriesReport(buckets)
	loc := now.Location()
	startDay := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc)
	for i := 0; i < buckets; i++ {
		report.Labels[i] = startDay.AddDate(0, 0, i).Format("01/02")
	}

	for _, r := range records {
		idx := CalendarDaysBetween(startDay, r.OccurredTime().In(loc))
		if idx < 0 || idx >= buckets {
			continue
		}
		report.Minutes[idx] += int64(r.DurationMinutes)
		report.XP[idx] += int64(r.XPGained)
	}
	return report, nil
}

func (s *StatsService) weeklyAnalysis(ctx context.Context, now time.Time) (*TimeSeriesReport, error) {
	start := now.AddDate(0, 0, -28)
	records, err := s.records.GetByTimeRange(ctx, start.UnixMilli(), now.UnixMilli())
	if err != nil {
		return nil, err
	}

	const buckets = 4
	report := newTimeSeriesReport(buckets)
	for i := 0; i < buckets; i++ {
		report.Labels[i] = fmt.Sprintf("第%d週", i+1)
	}

	for _, r := range records {
		_, isoWeek := r.OccurredTime().ISOWeek()
		idx := isoWeek % buckets
		report.Minutes[idx] += int64(r.DurationMinutes)
		report.XP[idx] += int64(r.XPGained)
	}
	return report, nil
}

func (s *StatsService) monthlyAnalysis(ctx context.Context, now time.Time) (*TimeSeriesReport, error) {
	start := now.AddDate(0, 0, -180)
	records, err := s.records.GetByTimeRange(ctx, start.UnixMilli(), now.UnixMilli())
	if err != nil {
		return nil, err
	}

	const buckets = 12
	report := newTimeSeriesReport(buckets)
	for i := 0; i < buckets; i++ {
		report.Labels[i] = fmt.Sprintf("%d月", i+1)
	}

	for _, r := range records {
		idx := int(r.OccurredTime().Month()) - 1
		report.Minutes[idx] += int64(r.DurationMinutes)
		report.XP[idx] += int64(r.XPGained)
	}
	return report, nil
}

func newTimeSeriesReport(buckets int) *TimeSeriesReport {
	return &TimeSeriesReport{
		Labels:  make([]string, buckets),
		Minutes: make([]int64, buckets),
		XP:      make([]int64, buckets),
	}
}

// PlaylistProgress 单个播放列表的学习进度统计
type PlaylistProgress struct {
	ID                 int64  `json:"id"`
	Title              string `json:"title"`
	TotalXP            int    `json:"total_xp"`
	CompletedCount     int    `json:"completed_count"`
	TotalWatchSeconds  int    `json:"total_watch_time_seconds"`
	WatchTimeFormatted string `json:"total_watch_time_formatted"`
}

// PlaylistStats 返回各播放列表的观看进度汇总
func (s *StatsService) PlaylistStats(ctx context.Context) ([]PlaylistProgress, error) {
	playlists, err := s.lists.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]PlaylistProgress, 0, len(playlists))
	for _, p := range playlists {
		views, err := s.views.ListByPlaylist(ctx, p.ID)
		if err != nil {
			return nil, err
		}

		progress := PlaylistProgress{ID: p.ID, Title: p.Title}
		for _, v := range views {
			progress.TotalXP += v.XPGained
			progress.TotalWatchSeconds += v.WatchedSeconds
			if v.Completed {
				progress.CompletedCount++
			}
		}
		progress.WatchTimeFormatted = fmt.Sprintf("%d時間%d分",
			progress.TotalWatchSeconds/3600, (progress.TotalWatchSeconds%3600)/60)
		out = append(out, progress)
	}
	return out, nil
}
