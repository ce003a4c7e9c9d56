package client

import (
	"sync"
	"time"
)

// TTLCache 带过期时间的单值缓存。
// 外部 API 的抓取结果统一经由显式注入的缓存对象持有，
// 不使用进程级全局变量。
type TTLCache[T any] struct {
	mu        sync.Mutex
	value     T
	expiresAt time.Time
	ttl       time.Duration
}

// NewTTLCache 创建缓存
func NewTTLCache[T any](ttl time.Duration) *TTLCache[T] {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &TTLCache[T]{ttl: ttl}
}

// Get 返回缓存值；过期或从未写入时 ok 为 false
func (c *TTLCache[T]) Get() (value T, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.expiresAt.IsZero() || time.Now().After(c.expiresAt) {
		var zero T
		return zero, false
	}
	return c.value, true
}

// Set 写入缓存并刷新过期时间
func (c *TTLCache[T]) Set(value T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = value
	c.expiresAt = time.Now().Add(c.ttl)
}

// Invalidate 立即失效
func (c *TTLCache[T]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expiresAt = time.Time{}
}
