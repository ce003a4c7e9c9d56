package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const pixivWebHost = "https://www.pixiv.net"

// 全年龄向过滤用的关键词（命中即跳过该标签）
var pixivFilteredKeywords = []string{
	"r-18", "r18", "18禁", "nsfw", "巨乳", "セクシー", "えっち", "水着", "下着",
}

// Topic 创作灵感条目
type Topic struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// PixivClient Pixiv 创作灵感客户端。
// 记念日お題 API 为主灵感源，趋势标签作补充；
// 抓取结果经注入的 TTL 缓存持有，上游不可用时返回缓存或占位条目。
type PixivClient struct {
	client  *http.Client
	cache   *TTLCache[[]Topic]
	baseURL string
}

// NewPixivClient 创建客户端
func NewPixivClient(cache *TTLCache[[]Topic]) *PixivClient {
	return &PixivClient{
		client:  &http.Client{Timeout: 10 * time.Second},
		cache:   cache,
		baseURL: pixivWebHost,
	}
}

type pixivTrendTagsResponse struct {
	Body struct {
		Trends []struct {
			Tag string `json:"tag"`
		} `json:"trends"`
	} `json:"body"`
}

// Topics 返回当前的创作灵感条目：当日の記念日お題在前，趋势标签随后。
// 命中缓存时不发请求；抓取失败时对应位置放占位条目而不是报错，
// 灵感内容是纯展示性的，不应拖垮页面。
func (c *PixivClient) Topics(ctx context.Context) []Topic {
	if cached, ok := c.cache.Get(); ok {
		return cached
	}

	topics := make([]Topic, 0, 4)

	theme, err := c.fetchAnniversaryTheme(ctx, time.Now())
	if err != nil {
		slog.Warn("获取 Pixiv 记念日お題失败", "error", err)
		topics = append(topics, Topic{
			Title: "今日のモチーフ: (お題が見つかりません)",
			URL:   c.baseURL + "/tags",
		})
	} else {
		topics = append(topics, *theme)
	}

	trending, err := c.fetchTrendingTags(ctx)
	if err != nil {
		slog.Warn("获取 Pixiv 趋势标签失败", "error", err)
		trending = []Topic{{
			Title: "注目のタグ: (取得エラー)",
			URL:   c.baseURL + "/tags",
		}}
	}
	topics = append(topics, trending...)

	c.cache.Set(topics)
	return topics
}

type pixivAnniversaryResponse struct {
	Error bool `json:"error"`
	Body  struct {
		IdeaAnniversaryTag         string `json:"idea_anniversary_tag"`
		IdeaAnniversaryDescription string `json:"idea_anniversary_description"`
	} `json:"body"`
}

// fetchAnniversaryTheme 抓取指定日期的記念日お題标签
func (c *PixivClient) fetchAnniversaryTheme(ctx context.Context, date time.Time) (*Topic, error) {
	endpoint := c.baseURL + "/ajax/idea/anniversary/" + date.Format("2006-01-02")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("构造请求失败: %w", err)
	}
	req.Header.Set("Accept-Language", "ja-JP")
	req.Header.Set("Referer", c.baseURL+"/")
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("上游返回状态码 %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("读取响应失败: %w", err)
	}

	var parsed pixivAnniversaryResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("解析响应失败: %w", err)
	}
	if parsed.Error {
		return nil, fmt.Errorf("上游返回错误标记")
	}
	tag := parsed.Body.IdeaAnniversaryTag
	if tag == "" {
		return nil, fmt.Errorf("お題标签为空")
	}

	title := "今日のモチーフ: #" + tag
	if desc := parsed.Body.IdeaAnniversaryDescription; desc != "" {
		// 说明只取第一句，完整文案留给標籤頁
		if i := strings.Index(desc, "。"); i >= 0 {
			desc = desc[:i]
		}
		title += " (" + desc + "...)"
	}
	return &Topic{
		Title: title,
		URL:   c.baseURL + "/tags/" + tag + "/artworks",
	}, nil
}

func (c *PixivClient) fetchTrendingTags(ctx context.Context) ([]Topic, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/ajax/trending-tags/illust", nil)
	if err != nil {
		return nil, fmt.Errorf("构造请求失败: %w", err)
	}
	req.Header.Set("Accept-Language", "ja-JP")
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("上游返回状态码 %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("读取响应失败: %w", err)
	}

	var parsed pixivTrendTagsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("解析响应失败: %w", err)
	}
	if len(parsed.Body.Trends) == 0 {
		return nil, fmt.Errorf("趋势标签为空")
	}

	topics := make([]Topic, 0, 2)
	for _, trend := range parsed.Body.Trends {
		if len(topics) >= 10 {
			break
		}
		if isFilteredTag(trend.Tag) {
			continue
		}
		topics = append(topics, Topic{
			Title: "注目のタグ: #" + trend.Tag,
			URL:   c.baseURL + "/tags/" + trend.Tag + "/artworks",
		})
	}
	if len(topics) == 0 {
		topics = append(topics, Topic{
			Title: "注目のタグ: (全年齢作品なし)",
			URL:   c.baseURL + "/tags",
		})
	}
	return topics, nil
}

func isFilteredTag(tag string) bool {
	lower := strings.ToLower(tag)
	for _, keyword := range pixivFilteredKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}
