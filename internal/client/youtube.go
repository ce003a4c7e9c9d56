package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"
)

const youtubeOEmbedURL = "https://www.youtube.com/oembed"

var playlistIDPattern = regexp.MustCompile(`[?&]list=([a-zA-Z0-9_-]+)`)
var bareIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ExtractPlaylistID 从 URL 或裸 ID 中提取播放列表 ID，无法识别时返回空串
func ExtractPlaylistID(urlOrID string) string {
	if urlOrID == "" {
		return ""
	}
	if m := playlistIDPattern.FindStringSubmatch(urlOrID); m != nil {
		return m[1]
	}
	if bareIDPattern.MatchString(urlOrID) {
		return urlOrID
	}
	return ""
}

// PlaylistInfo 播放列表元数据
type PlaylistInfo struct {
	PlaylistID   string `json:"playlist_id"`
	Title        string `json:"title"`
	Author       string `json:"author"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// YouTubeClient YouTube 播放列表元数据客户端（OEmbed，无需 API Key）
type YouTubeClient struct {
	client *http.Client
	cache  *TTLCache[map[string]PlaylistInfo]
}

// NewYouTubeClient 创建客户端
func NewYouTubeClient(cache *TTLCache[map[string]PlaylistInfo]) *YouTubeClient {
	return &YouTubeClient{
		client: &http.Client{Timeout: 5 * time.Second},
		cache:  cache,
	}
}

type oembedResponse struct {
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// PlaylistInfo 获取播放列表元数据。
// 同一列表的结果在 TTL 内复用；抓取失败时返回错误，由调用方决定用占位标题兜底。
func (c *YouTubeClient) PlaylistInfo(ctx context.Context, playlistID string) (*PlaylistInfo, error) {
	if playlistID == "" {
		return nil, fmt.Errorf("playlist_id 不能为空")
	}

	if cached, ok := c.cache.Get(); ok {
		if info, hit := cached[playlistID]; hit {
			return &info, nil
		}
	}

	url := fmt.Sprintf("%s?url=https://www.youtube.com/playlist?list=%s&format=json", youtubeOEmbedURL, playlistID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("构造请求失败: %w", err)
	}

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

	var parsed oembedResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("解析响应失败: %w", err)
	}

	info := PlaylistInfo{
		PlaylistID:   playlistID,
		Title:        parsed.Title,
		Author:       parsed.AuthorName,
		ThumbnailURL: parsed.ThumbnailURL,
	}
	if info.Title == "" {
		info.Title = fmt.Sprintf("Playlist (%s...)", truncateID(playlistID, 8))
	}

	cached, ok := c.cache.Get()
	if !ok || cached == nil {
		cached = make(map[string]PlaylistInfo)
	}
	cached[playlistID] = info
	c.cache.Set(cached)

	return &info, nil
}

func truncateID(id string, n int) string {
	if len(id) <= n {
		return id
	}
	return id[:n]
}
