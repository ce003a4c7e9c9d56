package service

import (
	"strconv"
	"time"
)

// 学习模式统计的分桶口径：星期桶以周一为 0（展示顺序），
// 而 SQLite strftime('%w') 与 time.Weekday 都以周日为 0，必须显式转换。

// WeekdayLabels 周一优先的星期标签
var WeekdayLabels = []string{"月", "火", "水", "木", "金", "土", "日"}

// SundayFirstToMondayFirst 将周日=0 的星期序号转换为周一=0 的序号。
// 入参超出 [0,6] 时返回 -1，调用方应丢弃该桶。
func SundayFirstToMondayFirst(sundayFirst int) int {
	if sundayFirst < 0 || sundayFirst > 6 {
		return -1
	}
	return (sundayFirst + 6) % 7
}

// MondayIndex 返回 time.Weekday 在周一优先顺序下的索引（周一=0 … 周日=6）
func MondayIndex(w time.Weekday) int {
	return SundayFirstToMondayFirst(int(w))
}

// CalendarDaysBetween 返回两个时刻之间的自然日差。
// 直接用 Sub 除以 24 小时在夏令时切换的 23/25 小时天上会偏移一天，
// 因此先把两端的日历日期规格化到 UTC 再求差。
func CalendarDaysBetween(from, to time.Time) int {
	f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(t.Sub(f) / (24 * time.Hour))
}

// HourLabels 返回 0-23 时的展示标签
func HourLabels() []string {
	labels := make([]string, 24)
	for h := 0; h < 24; h++ {
		labels[h] = strconv.Itoa(h) + "時"
	}
	return labels
}
