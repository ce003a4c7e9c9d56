package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newPixivTestServer(t *testing.T, anniversaryStatus int, anniversaryBody string, trends []string) (*httptest.Server, *int) {
	t.Helper()
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		switch {
		case strings.HasPrefix(r.URL.Path, "/ajax/idea/anniversary/"):
			w.WriteHeader(anniversaryStatus)
			_, _ = w.Write([]byte(anniversaryBody))
		case r.URL.Path == "/ajax/trending-tags/illust":
			var items []string
			for _, tag := range trends {
				items = append(items, `{"tag":"`+tag+`"}`)
			}
			_, _ = w.Write([]byte(`{"body":{"trends":[` + strings.Join(items, ",") + `]}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &requests
}

func newTestPixivClient(srv *httptest.Server) *PixivClient {
	c := NewPixivClient(NewTTLCache[[]Topic](time.Minute))
	c.baseURL = srv.URL
	return c
}

func TestTopicsAnniversaryFirst(t *testing.T) {
	srv, requests := newPixivTestServer(t, http.StatusOK,
		`{"error":false,"body":{"idea_anniversary_tag":"猫の日","idea_anniversary_description":"猫を描こう。由来はいろいろ。"}}`,
		[]string{"風景"})
	c := newTestPixivClient(srv)

	topics := c.Topics(context.Background())
	if len(topics) != 2 {
		t.Fatalf("topics=%d, want 2", len(topics))
	}
	// 記念日お題在趋势标签之前，说明只保留第一句
	if topics[0].Title != "今日のモチーフ: #猫の日 (猫を描こう...)" {
		t.Fatalf("theme title=%q", topics[0].Title)
	}
	if topics[0].URL != srv.URL+"/tags/猫の日/artworks" {
		t.Fatalf("theme url=%q", topics[0].URL)
	}
	if topics[1].Title != "注目のタグ: #風景" {
		t.Fatalf("trend title=%q", topics[1].Title)
	}

	// 再次调用命中缓存，不再发请求
	seen := *requests
	_ = c.Topics(context.Background())
	if *requests != seen {
		t.Fatalf("requests=%d, cache should serve second call", *requests)
	}
}

func TestTopicsAnniversaryFallback(t *testing.T) {
	srv, _ := newPixivTestServer(t, http.StatusNotFound, `{"error":true}`, []string{"風景"})
	c := newTestPixivClient(srv)

	topics := c.Topics(context.Background())
	if len(topics) != 2 {
		t.Fatalf("topics=%d, want 2", len(topics))
	}
	if topics[0].Title != "今日のモチーフ: (お題が見つかりません)" {
		t.Fatalf("fallback title=%q", topics[0].Title)
	}
	if topics[1].Title != "注目のタグ: #風景" {
		t.Fatalf("trend title=%q", topics[1].Title)
	}
}

func TestTopicsFiltersAdultTags(t *testing.T) {
	srv, _ := newPixivTestServer(t, http.StatusOK,
		`{"error":false,"body":{"idea_anniversary_tag":"海の日"}}`,
		[]string{"R-18イラスト", "夕焼け"})
	c := newTestPixivClient(srv)

	topics := c.Topics(context.Background())
	if len(topics) != 2 {
		t.Fatalf("topics=%v", topics)
	}
	if topics[0].Title != "今日のモチーフ: #海の日" {
		t.Fatalf("theme title=%q, description absent should omit parenthetical", topics[0].Title)
	}
	if topics[1].Title != "注目のタグ: #夕焼け" {
		t.Fatalf("trend title=%q, adult tag should be filtered", topics[1].Title)
	}
}
