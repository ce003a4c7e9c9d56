package service

import (
	"testing"
	"time"
)

func TestSundayFirstToMondayFirst(t *testing.T) {
	cases := []struct {
		in, want int
	}{
		{0, 6}, // 周日排到最后
		{1, 0}, // 周一排到最前
		{2, 1},
		{3, 2},
		{4, 3},
		{5, 4},
		{6, 5},
		{-1, -1},
		{7, -1},
	}

	for _, tc := range cases {
		got := SundayFirstToMondayFirst(tc.in)
		if got != tc.want {
			t.Errorf("SundayFirstToMondayFirst(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestMondayIndex(t *testing.T) {
	if got := MondayIndex(time.Monday); got != 0 {
		t.Fatalf("MondayIndex(Monday) = %d, want 0", got)
	}
	if got := MondayIndex(time.Sunday); got != 6 {
		t.Fatalf("MondayIndex(Sunday) = %d, want 6", got)
	}
}

func TestHourLabels(t *testing.T) {
	labels := HourLabels()
	if len(labels) != 24 {
		t.Fatalf("len=%d, want 24", len(labels))
	}
	if labels[0] != "0時" || labels[23] != "23時" {
		t.Fatalf("labels[0]=%q labels[23]=%q", labels[0], labels[23])
	}
}

func TestCalendarDaysBetween(t *testing.T) {
	loc := time.Local
	from := time.Date(2024, 5, 13, 0, 0, 0, 0, loc)
	if got := CalendarDaysBetween(from, time.Date(2024, 5, 20, 23, 59, 0, 0, loc)); got != 7 {
		t.Fatalf("same zone = %d, want 7", got)
	}
	if got := CalendarDaysBetween(from, from.Add(time.Hour)); got != 0 {
		t.Fatalf("same day = %d, want 0", got)
	}
	if got := CalendarDaysBetween(from, time.Date(2024, 5, 12, 9, 0, 0, 0, loc)); got != -1 {
		t.Fatalf("previous day = %d, want -1", got)
	}

	// 夏令时切换：2024-03-10 美东从 -05 跳到 -04，该周只有 167 小时，
	// 但自然日差仍然是 7 天。
	est := time.FixedZone("EST", -5*3600)
	edt := time.FixedZone("EDT", -4*3600)
	if got := CalendarDaysBetween(
		time.Date(2024, 3, 5, 0, 0, 0, 0, est),
		time.Date(2024, 3, 12, 0, 0, 0, 0, edt),
	); got != 7 {
		t.Fatalf("across DST = %d, want 7", got)
	}
}

func TestWeekdayLabelsMatchBuckets(t *testing.T) {
	if len(WeekdayLabels) != 7 {
		t.Fatalf("len=%d, want 7", len(WeekdayLabels))
	}
	if WeekdayLabels[0] != "月" || WeekdayLabels[6] != "日" {
		t.Fatalf("labels=%v, want monday-first", WeekdayLabels)
	}
}
