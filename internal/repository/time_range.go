package repository

import "time"

// YearRange 返回指定年份的本地时间毫秒区间 [start, end]（闭区间）。
func YearRange(year int) (startMs int64, endMs int64) {
	loc := time.Local
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
	end := time.Date(year+1, time.January, 1, 0, 0, 0, 0, loc)
	return start.UnixMilli(), end.UnixMilli() - 1
}
