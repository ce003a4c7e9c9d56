package service

import "strings"

// XPPolicy 经验计算策略（可替换）。
// 所有方法均为纯函数：非法的类别输入以 0 作为哨兵返回，不抛错，
// 由调用方把 0 翻译成面向用户的校验错误。
type XPPolicy interface {
	CalcTimeXP(activityType string, durationMinutes float64) int
	CalcAcquisitionXP(techniqueType, evaluation string) int
	CalcVideoXP(watchedSeconds int) int
}

// 视频 XP：36 秒 1 XP（1 小时 ≈ 100 XP），带上下限
const (
	videoXPDivisorSeconds = 36
	videoXPFloor          = 10
	videoXPCeiling        = 500
)

// StandardXPPolicy 默认策略：固定换算表驱动
type StandardXPPolicy struct {
	tables *TablesHolder
}

// NewStandardXPPolicy 创建默认策略
func NewStandardXPPolicy(tables *TablesHolder) *StandardXPPolicy {
	return &StandardXPPolicy{tables: tables}
}

// CalcTimeXP 时间学习 XP：floor(分钟) × 速率。
// 活动类型不在速率表内时返回 0；时长的正负校验是调用方的责任。
func (p *StandardXPPolicy) CalcTimeXP(activityType string, durationMinutes float64) int {
	rate, ok := p.tables.Load().RatesPerMinute[activityType]
	if !ok {
		return 0
	}
	return int(durationMinutes) * rate
}

// CalcAcquisitionXP 技法习得 XP：基础 XP × 评价倍率。
// 技法不在基础表内时按自由投稿的兜底基础值计算。
// 评价大写归一后查倍率表，未知评价经 [1,5] 夹取后等同于 E 评价——
// 这是对旧版数据的兼容行为，等级合法性校验放在调用方。
func (p *StandardXPPolicy) CalcAcquisitionXP(techniqueType, evaluation string) int {
	t := p.tables.Load()

	baseXP, ok := t.AcquisitionBase[techniqueType]
	if !ok {
		baseXP = t.PostBase
	}
	if baseXP <= 0 {
		return 0
	}

	score := t.GradeMultiplier[strings.ToUpper(evaluation)]
	score = clampInt(score, 1, 5)
	return baseXP * score
}

// CalcVideoXP 视频完成 XP：clamp(观看秒数/36, 10, 500)
func (p *StandardXPPolicy) CalcVideoXP(watchedSeconds int) int {
	return clampInt(watchedSeconds/videoXPDivisorSeconds, videoXPFloor, videoXPCeiling)
}

// clampInt 将数值限制在指定范围内
func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
