package eventbus

import (
	"context"
	"sync"
	"time"
)

// 事件类型：HTTP 层的 SSE 端点原样转发给前端
const (
	TypeRecordLogged  = "record_logged"
	TypeRecordDeleted = "record_deleted"
	TypeRankUp        = "rank_up"
)

type Event struct {
	Type      string         `json:"type"`
	Timestamp int64          `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

// NewRecordLogged 记录创建事件
func NewRecordLogged(recordID int64, category string, xpGained, totalXP int) Event {
	return Event{
		Type: TypeRecordLogged,
		Data: map[string]any{
			"record_id": recordID,
			"category":  category,
			"xp_gained": xpGained,
			"total_xp":  totalXP,
		},
	}
}

// NewRecordDeleted 记录删除（XP 回退）事件
func NewRecordDeleted(recordID int64, xpReversed, totalXP int) Event {
	return Event{
		Type: TypeRecordDeleted,
		Data: map[string]any{
			"record_id":   recordID,
			"xp_reversed": xpReversed,
			"total_xp":    totalXP,
		},
	}
}

// NewRankUp 段位提升事件
func NewRankUp(oldRank, newRank int, title string) Event {
	return Event{
		Type: TypeRankUp,
		Data: map[string]any{
			"old_rank": oldRank,
			"new_rank": newRank,
			"title":    title,
		},
	}
}

type Hub struct {
	mu   sync.RWMutex
	subs map[chan Event]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[chan Event]struct{})}
}

func (h *Hub) Publish(evt Event) {
	if h == nil {
		return
	}
	if evt.Timestamp == 0 {
		evt.Timestamp = time.Now().UnixMilli()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subs {
		select {
		case ch <- evt:
		default:
			// 慢消费者直接丢弃，避免阻塞写入链路
		}
	}
}

func (h *Hub) Subscribe(ctx context.Context, buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.subs, ch)
		h.mu.Unlock()
		close(ch)
	}()

	return ch
}
