package service

import "testing"

func TestRankSnapshotAtZero(t *testing.T) {
	info := DefaultTables().RankSnapshot(0)

	if info.Rank != 1 {
		t.Fatalf("rank=%d, want 1", info.Rank)
	}
	if info.Title != "Sketcher（スケッチャー）" {
		t.Fatalf("title=%q", info.Title)
	}
	if info.NextXPGoal != 10000 || info.XPToNext != 10000 {
		t.Fatalf("next goal=%d, to next=%d, want 10000/10000", info.NextXPGoal, info.XPToNext)
	}
	if info.RankStartXP != 0 {
		t.Fatalf("rank start=%d, want 0", info.RankStartXP)
	}
}

func TestRankSnapshotClosedLowerBound(t *testing.T) {
	tbl := DefaultTables()

	// 阈值是闭下界：正好达到阈值即晋级
	info := tbl.RankSnapshot(10000)
	if info.Rank != 2 {
		t.Fatalf("rank at exactly 10000 = %d, want 2", info.Rank)
	}
	if info.RankStartXP != 10000 {
		t.Fatalf("rank start=%d, want 10000", info.RankStartXP)
	}

	info = tbl.RankSnapshot(9999)
	if info.Rank != 1 {
		t.Fatalf("rank at 9999 = %d, want 1", info.Rank)
	}
}

func TestRankSnapshotSparseThresholds(t *testing.T) {
	// 阈值表在 10 之后跳到 15：两档之间的 XP 停留在已达到的最高段位
	info := DefaultTables().RankSnapshot(600000)
	if info.Rank != 10 {
		t.Fatalf("rank=%d, want 10", info.Rank)
	}
	if info.NextXPGoal != 1200000 {
		t.Fatalf("next goal=%d, want 1200000", info.NextXPGoal)
	}
	if info.XPToNext != 600000 {
		t.Fatalf("to next=%d, want 600000", info.XPToNext)
	}
}

func TestRankSnapshotTerminal(t *testing.T) {
	tbl := DefaultTables()

	// 达到终端阈值：直接落在 51（50/51 同阈值时取更高段位）
	info := tbl.RankSnapshot(13920000)
	if info.Rank != 51 {
		t.Fatalf("rank=%d, want 51", info.Rank)
	}
	if info.XPToNext != 0 {
		t.Fatalf("to next=%d, want 0 at terminal", info.XPToNext)
	}
	if info.Title != "Eternal Art Master（永遠のアートマスター）" {
		t.Fatalf("title=%q", info.Title)
	}

	// 超过终端阈值后保持终端状态
	info = tbl.RankSnapshot(99999999)
	if info.Rank != 51 || info.XPToNext != 0 {
		t.Fatalf("rank=%d to next=%d, want 51/0", info.Rank, info.XPToNext)
	}
	if info.NextXPGoal != 13920000 {
		t.Fatalf("next goal=%d, want 13920000 (terminal)", info.NextXPGoal)
	}
}

func TestRankSnapshotMonotonic(t *testing.T) {
	tbl := DefaultTables()
	prev := 0
	for xp := 0; xp <= 15000000; xp += 7777 {
		info := tbl.RankSnapshot(xp)
		if info.Rank < prev {
			t.Fatalf("rank decreased at xp=%d: %d -> %d", xp, prev, info.Rank)
		}
		if info.Title == "" {
			t.Fatalf("empty title at xp=%d rank=%d", xp, info.Rank)
		}
		prev = info.Rank
	}
}
