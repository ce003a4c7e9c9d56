package service

// RankInfo 累计 XP 对应的段位快照
type RankInfo struct {
	Rank        int    `json:"rank"`
	Title       string `json:"title"`
	TotalXP     int    `json:"total_xp"`
	XPToNext    int    `json:"xp_to_next_rank"`
	NextXPGoal  int    `json:"next_xp_goal"`
	RankStartXP int    `json:"xp_start_of_current_rank"`
}

// RankSnapshot 由累计 XP 计算当前段位、称号与下一目标。
// 当前段位取阈值 ≤ totalXP 的最高段位（闭下界）；
// 达到最高档后 XPToNext 恒为 0，NextXPGoal 停在最大阈值（终端状态）。
func (t *Tables) RankSnapshot(totalXP int) RankInfo {
	info := RankInfo{
		Rank:    1,
		TotalXP: totalXP,
	}

	sorted := t.sortedThresholds()
	reachedTop := true
	for _, th := range sorted {
		if totalXP >= th.MinXP {
			info.Rank = th.Rank
			info.RankStartXP = th.MinXP
		} else {
			info.NextXPGoal = th.MinXP
			info.XPToNext = th.MinXP - totalXP
			reachedTop = false
			break
		}
	}
	if reachedTop {
		top := sorted[len(sorted)-1]
		info.Rank = top.Rank
		info.NextXPGoal = top.MinXP
		info.XPToNext = 0
	}

	for _, tr := range t.Titles {
		if tr.MinRank <= info.Rank && info.Rank <= tr.MaxRank {
			info.Title = tr.Title
			break
		}
	}

	return info
}
