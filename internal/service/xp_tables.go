package service

import (
	"fmt"
	"sort"
	"sync/atomic"
)

// XP 换算表。各表作为公开契约暴露给 HTTP 层（前端用它渲染表单选项），
// 速率/基础 XP 可被配置覆盖，覆盖后重新校验。

// RankThreshold 段位的累计 XP 下限（闭区间下界）
type RankThreshold struct {
	Rank  int `json:"rank"`
	MinXP int `json:"min_xp"`
}

// TitleRange 连续段位区间对应的称号
type TitleRange struct {
	MinRank int    `json:"min_rank"`
	MaxRank int    `json:"max_rank"`
	Title   string `json:"title"`
}

// Tables 全部 XP 换算表的一份不可变快照。
// 热更新通过 TablesHolder 整体替换指针实现，Tables 本身创建后不再修改。
type Tables struct {
	// RatesPerMinute 时间学习的每分钟 XP 速率（按活动类型）
	RatesPerMinute map[string]int
	// AcquisitionBase 技法习得的基础 XP（按技法类型）
	AcquisitionBase map[string]int
	// PostBase 自由投稿的基础 XP（技法不在表内时的兜底值）
	PostBase int
	// GradeMultiplier 评价等级到倍率的映射
	GradeMultiplier map[string]int
	// RankThresholds 段位阈值表（按段位升序）
	RankThresholds []RankThreshold
	// Titles 段位区间到称号的映射（区间互不相交且连续覆盖）
	Titles []TitleRange
}

// DefaultTables 返回内置换算表（与原始数据兼容的固定值）
func DefaultTables() *Tables {
	return &Tables{
		RatesPerMinute: map[string]int{
			"フリースケッチ": 20,
			"応用技法":    50,
			"基礎技法":    40,
			"単体技法":    30,
		},
		AcquisitionBase: map[string]int{
			"応用技法": 8000,
			"基礎技法": 5000,
			"単体技法": 3000,
		},
		PostBase: 1500,
		GradeMultiplier: map[string]int{
			"A": 5, "B": 4, "C": 3, "D": 2, "E": 1,
		},
		RankThresholds: []RankThreshold{
			{1, 0}, {2, 10_000}, {3, 25_000}, {4, 45_000}, {5, 70_000},
			{6, 110_000}, {7, 170_000}, {8, 250_000}, {9, 350_000}, {10, 480_000},
			{15, 1_200_000}, {20, 1_800_000}, {25, 2_300_000}, {30, 2_650_000},
			{35, 4_500_000}, {40, 7_500_000}, {45, 11_000_000}, {50, 13_920_000},
			// 50/51 同阈值：51 为终端段位，不再有下一目标
			{51, 13_920_000},
		},
		Titles: []TitleRange{
			{1, 5, "Sketcher（スケッチャー）"},
			{6, 10, "Line Artist（ラインアーティスト）"},
			{11, 15, "Colorist（カラリスト）"},
			{16, 20, "Illustrator（イラストレーター）"},
			{21, 25, "Creative Designer（クリエイティブデザイナー）"},
			{26, 29, "Master Illustrator（マスターイラストレーター）"},
			{30, 30, "The Grand Creator（ザ・グランド・クリエータ）"},
			{31, 35, "Diamond Art Virtuoso（アート・ヴィルトゥオーソ）"},
			{36, 40, "Visual Alchemist（ビジュアル・アルケミスト）"},
			{41, 45, "Legendary Creator（伝説のクリエイター）"},
			{46, 51, "Eternal Art Master（永遠のアートマスター）"},
		},
	}
}

// TableOverrides 配置层可覆盖的部分（段位/称号表不开放覆盖）
type TableOverrides struct {
	RatesPerMinute  map[string]int
	AcquisitionBase map[string]int
	PostBase        int
}

// NewTables 基于内置表叠加配置覆盖，并完成完整性校验。
// 校验失败时返回错误，调用方应保留上一份合法表。
func NewTables(overrides TableOverrides) (*Tables, error) {
	t := DefaultTables()
	for k, v := range overrides.RatesPerMinute {
		t.RatesPerMinute[k] = v
	}
	for k, v := range overrides.AcquisitionBase {
		t.AcquisitionBase[k] = v
	}
	if overrides.PostBase > 0 {
		t.PostBase = overrides.PostBase
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate 启动时的完整性校验（fail fast），查询路径上不再防御。
//   - 段位阈值随段位单调上升；仅允许最后一档与前一档持平（终端段位）
//   - 称号区间连续且恰好覆盖整个段位域
//   - 速率、基础 XP、倍率均为正数
func (t *Tables) Validate() error {
	if len(t.RankThresholds) == 0 {
		return fmt.Errorf("段位阈值表为空")
	}

	sorted := make([]RankThreshold, len(t.RankThresholds))
	copy(sorted, t.RankThresholds)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Rank < sorted[j].Rank })

	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		if cur.Rank == prev.Rank {
			return fmt.Errorf("段位 %d 重复定义", cur.Rank)
		}
		if cur.MinXP < prev.MinXP {
			return fmt.Errorf("段位 %d 的阈值 %d 低于段位 %d 的阈值 %d", cur.Rank, cur.MinXP, prev.Rank, prev.MinXP)
		}
		if cur.MinXP == prev.MinXP && i != len(sorted)-1 {
			return fmt.Errorf("段位 %d 与段位 %d 阈值相同（仅终端段位允许持平）", cur.Rank, prev.Rank)
		}
	}

	minRank := sorted[0].Rank
	maxRank := sorted[len(sorted)-1].Rank

	titles := make([]TitleRange, len(t.Titles))
	copy(titles, t.Titles)
	sort.Slice(titles, func(i, j int) bool { return titles[i].MinRank < titles[j].MinRank })

	if len(titles) == 0 {
		return fmt.Errorf("称号表为空")
	}
	if titles[0].MinRank != minRank {
		return fmt.Errorf("称号区间未覆盖最低段位 %d", minRank)
	}
	for i, tr := range titles {
		if tr.MinRank > tr.MaxRank {
			return fmt.Errorf("称号区间 [%d,%d] 起止颠倒", tr.MinRank, tr.MaxRank)
		}
		if i > 0 && tr.MinRank != titles[i-1].MaxRank+1 {
			return fmt.Errorf("称号区间在段位 %d 附近存在空洞或重叠", tr.MinRank)
		}
	}
	if titles[len(titles)-1].MaxRank != maxRank {
		return fmt.Errorf("称号区间未覆盖最高段位 %d", maxRank)
	}

	for k, v := range t.RatesPerMinute {
		if v <= 0 {
			return fmt.Errorf("活动类型 %q 的速率必须为正数", k)
		}
	}
	for k, v := range t.AcquisitionBase {
		if v <= 0 {
			return fmt.Errorf("技法类型 %q 的基础 XP 必须为正数", k)
		}
	}
	if t.PostBase <= 0 {
		return fmt.Errorf("自由投稿基础 XP 必须为正数")
	}
	for k, v := range t.GradeMultiplier {
		if v <= 0 {
			return fmt.Errorf("评价 %q 的倍率必须为正数", k)
		}
	}
	return nil
}

// sortedThresholds 返回按段位升序的阈值表副本
func (t *Tables) sortedThresholds() []RankThreshold {
	sorted := make([]RankThreshold, len(t.RankThresholds))
	copy(sorted, t.RankThresholds)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Rank < sorted[j].Rank })
	return sorted
}

// TablesHolder 持有当前生效的换算表，支持配置热更新时整体替换。
type TablesHolder struct {
	ptr atomic.Pointer[Tables]
}

// NewTablesHolder 创建持有器
func NewTablesHolder(t *Tables) *TablesHolder {
	h := &TablesHolder{}
	h.ptr.Store(t)
	return h
}

// Load 返回当前生效的表
func (h *TablesHolder) Load() *Tables {
	return h.ptr.Load()
}

// Store 替换生效的表（调用方负责先 Validate）
func (h *TablesHolder) Store(t *Tables) {
	h.ptr.Store(t)
}
