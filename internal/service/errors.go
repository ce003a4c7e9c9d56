package service

import "errors"

// 服务层哨兵错误：HTTP 层据此映射成 400/404。
var (
	ErrInvalidDuration  = errors.New("时间必须为正数")
	ErrUnknownActivity  = errors.New("无效的活动类型")
	ErrInvalidGrade     = errors.New("无效的评价等级")
	ErrRecordNotFound   = errors.New("记录不存在")
	ErrPlaylistNotFound = errors.New("播放列表不存在")
	ErrBookNotFound     = errors.New("书籍不存在")
	ErrMaterialNotFound = errors.New("讲义资料不存在")
	ErrLinkNotFound     = errors.New("链接不存在")
	ErrXPNotPositive    = errors.New("计算得到的 XP 不为正数")
)
