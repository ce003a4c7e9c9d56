package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yuqie6/ArtMirror/internal/client"
	"github.com/yuqie6/ArtMirror/internal/repository"
	"github.com/yuqie6/ArtMirror/internal/schema"
	"github.com/yuqie6/ArtMirror/internal/service"
)

// ========== DTOs（与前端契约保持稳定） ==========

type ConstantsDTO struct {
	RatesPerMinute  map[string]int          `json:"rates_per_minute"`
	AcquisitionBase map[string]int          `json:"acquisition_base"`
	PostBaseXP      int                     `json:"post_base_xp"`
	GradeMultiplier map[string]int          `json:"grade_multiplier"`
	RankThresholds  []service.RankThreshold `json:"rank_thresholds"`
	Titles          []service.TitleRange    `json:"titles"`
}

type LogTimeRequestDTO struct {
	ActivityType    string `json:"activity_type"`
	DurationMinutes int    `json:"duration_minutes"`
	Description     string `json:"description"`
	Date            string `json:"date"` // YYYY-MM-DD，可选，为空取当前时间
}

type RecordResultDTO struct {
	Record  *schema.Record `json:"record"`
	Message string         `json:"message"`
}

type IDRequestDTO struct {
	ID int64 `json:"id"`
}

type UsernameRequestDTO struct {
	Username string `json:"username"`
}

type CreateBookRequestDTO struct {
	Title          string `json:"title"`
	Author         string `json:"author"`
	Description    string `json:"description"`
	CoverImagePath string `json:"cover_image_path"`
	PDFFilePath    string `json:"pdf_file_path"`
}

type UpdateBookRequestDTO struct {
	ID             int64  `json:"id"`
	Title          string `json:"title"`
	Author         string `json:"author"`
	Description    string `json:"description"`
	CoverImagePath string `json:"cover_image_path"`
	PDFFilePath    string `json:"pdf_file_path"`
}

type CreateLinkRequestDTO struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

type UpdateLinkRequestDTO struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

type CreatePlaylistRequestDTO struct {
	URLOrID     string `json:"url_or_id"`
	Description string `json:"description"`
}

type UpdatePlaylistRequestDTO struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type MaterialDTO struct {
	ID               int64     `json:"id"`
	DisplayName      string    `json:"display_name"`
	OriginalFilename string    `json:"original_filename"`
	FileSize         int64     `json:"file_size"`
	UploadedAt       time.Time `json:"uploaded_at"`
	DownloadURL      string    `json:"download_url"`
}

type MaterialUploadResultDTO struct {
	UploadedCount int `json:"uploaded_count"`
	FailedCount   int `json:"failed_count"`
}

type VideoViewRequestDTO struct {
	PlaylistID     string `json:"playlist_id"`
	VideoIndex     int    `json:"video_index"`
	WatchedSeconds int    `json:"watched_seconds"`
}

type VideoCompleteRequestDTO struct {
	PlaylistID string `json:"playlist_id"`
	VideoIndex int    `json:"video_index"`
}

type VideoCompleteResultDTO struct {
	XPGained int `json:"xp_gained"`
}

// ========== routes ==========

func (a *apiServer) registerJSONRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/user/status", a.wrapGET(a.getUserStatus))
	mux.HandleFunc("/api/user/username", a.wrapPOST(a.updateUsername))
	mux.HandleFunc("/api/user/reset", a.wrapPOST(a.resetAll))
	mux.HandleFunc("/api/constants", a.wrapGET(a.getConstants))

	mux.HandleFunc("/api/records", a.wrapGET(a.listRecords))
	mux.HandleFunc("/api/records/detail", a.wrapGET(a.getRecordDetail))
	mux.HandleFunc("/api/records/delete", a.wrapPOST(a.deleteRecord))
	mux.HandleFunc("/api/works", a.wrapGET(a.listWorks))
	mux.HandleFunc("/api/archive/years", a.wrapGET(a.listArchiveYears))

	mux.HandleFunc("/api/log/time", a.wrapPOST(a.logTime))
	mux.HandleFunc("/api/log/acquisition", a.wrapPOST(a.logAcquisition))
	mux.HandleFunc("/api/log/post", a.wrapPOST(a.logPost))

	mux.HandleFunc("/api/statistics/xp_by_technique", a.wrapGET(a.getXPByTechnique))
	mux.HandleFunc("/api/statistics/xp_by_evaluation", a.wrapGET(a.getXPByEvaluation))
	mux.HandleFunc("/api/statistics/learning_patterns", a.wrapGET(a.getLearningPatterns))
	mux.HandleFunc("/api/statistics/activity_heatmap", a.wrapGET(a.getActivityHeatmap))
	mux.HandleFunc("/api/statistics/time_analysis", a.wrapGET(a.getTimeAnalysis))
	mux.HandleFunc("/api/statistics/youtube_progress", a.wrapGET(a.getYouTubeProgress))

	mux.HandleFunc("/api/books", a.wrapAny(a.books))
	mux.HandleFunc("/api/books/detail", a.wrapGET(a.getBookDetail))
	mux.HandleFunc("/api/books/update", a.wrapPOST(a.updateBook))
	mux.HandleFunc("/api/books/delete", a.wrapPOST(a.deleteBook))

	mux.HandleFunc("/api/links", a.wrapAny(a.links))
	mux.HandleFunc("/api/links/update", a.wrapPOST(a.updateLink))
	mux.HandleFunc("/api/links/delete", a.wrapPOST(a.deleteLink))

	mux.HandleFunc("/api/playlists", a.wrapAny(a.playlists))
	mux.HandleFunc("/api/playlists/update", a.wrapPOST(a.updatePlaylist))
	mux.HandleFunc("/api/playlists/delete", a.wrapPOST(a.deletePlaylist))
	mux.HandleFunc("/api/playlists/reset", a.wrapPOST(a.resetPlaylist))
	mux.HandleFunc("/api/playlists/refresh", a.wrapPOST(a.refreshPlaylist))
	mux.HandleFunc("/api/playlists/materials", a.wrapAny(a.playlistMaterials))

	mux.HandleFunc("/api/materials/delete", a.wrapPOST(a.deleteMaterial))
	mux.HandleFunc("/api/materials/download", a.wrapGET(a.downloadMaterial))

	mux.HandleFunc("/api/videos/view", a.wrapPOST(a.recordVideoView))
	mux.HandleFunc("/api/videos/complete", a.wrapPOST(a.completeVideo))

	mux.HandleFunc("/api/pixiv/topics", a.wrapGET(a.getPixivTopics))

	mux.HandleFunc("/api/export/csv", a.wrapGET(a.exportCSV))
	mux.HandleFunc("/api/export/json", a.wrapGET(a.exportJSON))
}

func (a *apiServer) wrapGET(fn func(http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		fn(w, r)
	}
}

func (a *apiServer) wrapPOST(fn func(http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		fn(w, r)
	}
}

func (a *apiServer) wrapAny(fn func(http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) { fn(w, r) }
}

// ========== user / constants ==========

func (a *apiServer) getUserStatus(w http.ResponseWriter, r *http.Request) {
	status, err := a.core.Services.Progress.Status(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (a *apiServer) updateUsername(w http.ResponseWriter, r *http.Request) {
	var req UsernameRequestDTO
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.core.Services.Progress.UpdateUsername(r.Context(), req.Username); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (a *apiServer) resetAll(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()
	if err := a.core.Services.Data.ResetAll(ctx); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (a *apiServer) getConstants(w http.ResponseWriter, r *http.Request) {
	t := a.core.Services.Progress.Constants()
	writeJSON(w, http.StatusOK, &ConstantsDTO{
		RatesPerMinute:  t.RatesPerMinute,
		AcquisitionBase: t.AcquisitionBase,
		PostBaseXP:      t.PostBase,
		GradeMultiplier: t.GradeMultiplier,
		RankThresholds:  t.RankThresholds,
		Titles:          t.Titles,
	})
}

// ========== records ==========

func (a *apiServer) listRecords(w http.ResponseWriter, r *http.Request) {
	q := repository.ListQuery{
		Category: schema.RecordCategory(strings.TrimSpace(r.URL.Query().Get("category"))),
		Year:     queryInt(r, "year", 0),
		Limit:    queryInt(r, "limit", 0),
	}
	if q.Category != "" && !q.Category.IsValid() {
		writeError(w, http.StatusBadRequest, "无效的记录类别")
		return
	}
	records, err := a.core.Services.Progress.ListRecords(r.Context(), q)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (a *apiServer) getRecordDetail(w http.ResponseWriter, r *http.Request) {
	id, err := parseInt64Param(r.URL.Query().Get("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "id 无效")
		return
	}
	record, err := a.core.Services.Progress.GetRecord(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (a *apiServer) deleteRecord(w http.ResponseWriter, r *http.Request) {
	var req IDRequestDTO
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.core.Services.Progress.DeleteRecord(r.Context(), req.ID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// listWorks 作品一览：仅返回带证明图片的记录
func (a *apiServer) listWorks(w http.ResponseWriter, r *http.Request) {
	records, err := a.core.Services.Progress.ListRecords(r.Context(), repository.ListQuery{
		Year:      queryInt(r, "year", 0),
		ProofOnly: true,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (a *apiServer) listArchiveYears(w http.ResponseWriter, r *http.Request) {
	years, err := a.core.Services.Progress.ArchiveYears(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, years)
}

// ========== log ==========

func (a *apiServer) logTime(w http.ResponseWriter, r *http.Request) {
	var req LogTimeRequestDTO
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	occurredAt, err := parseOptionalDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	record, err := a.core.Services.Progress.LogTime(r.Context(), service.LogTimeInput{
		ActivityType:    req.ActivityType,
		DurationMinutes: req.DurationMinutes,
		Description:     req.Description,
		OccurredAt:      occurredAt,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, &RecordResultDTO{Record: record, Message: "記録しました"})
}

// logAcquisition 技法习得投稿。multipart 表单，proof 字段为可选的证明图片。
func (a *apiServer) logAcquisition(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(16 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "解析表单失败: "+err.Error())
		return
	}
	occurredAt, err := parseOptionalDate(r.FormValue("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	proofPath, err := a.saveProofFromForm(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	record, err := a.core.Services.Progress.LogAcquisition(r.Context(), service.LogAcquisitionInput{
		TechniqueType: r.FormValue("technique_type"),
		Evaluation:    r.FormValue("evaluation"),
		Description:   r.FormValue("description"),
		ProofPath:     proofPath,
		OccurredAt:    occurredAt,
	})
	if err != nil {
		a.discardProof(proofPath)
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, &RecordResultDTO{Record: record, Message: "記録しました"})
}

// logPost 自由作品投稿。multipart 表单，proof 字段为可选的证明图片。
func (a *apiServer) logPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(16 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "解析表单失败: "+err.Error())
		return
	}
	occurredAt, err := parseOptionalDate(r.FormValue("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	proofPath, err := a.saveProofFromForm(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	record, err := a.core.Services.Progress.LogPost(r.Context(), service.LogPostInput{
		Description: r.FormValue("description"),
		ProofPath:   proofPath,
		OccurredAt:  occurredAt,
	})
	if err != nil {
		a.discardProof(proofPath)
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, &RecordResultDTO{Record: record, Message: "記録しました"})
}

// saveProofFromForm 保存表单中的证明图片，未上传时返回空串
func (a *apiServer) saveProofFromForm(r *http.Request) (string, error) {
	file, header, err := r.FormFile("proof")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", nil
		}
		return "", fmt.Errorf("读取上传文件失败: %w", err)
	}
	defer func(f multipart.File) { _ = f.Close() }(file)

	if !a.core.Proofs.Allowed(header.Filename) {
		return "", fmt.Errorf("不支持的图片格式: %s", header.Filename)
	}
	return a.core.Proofs.Save(header.Filename, file)
}

// discardProof 记录写入失败时清理已保存的图片
func (a *apiServer) discardProof(name string) {
	if name == "" {
		return
	}
	_ = a.core.Proofs.Remove(name)
}

func parseOptionalDate(value string) (time.Time, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation("2006-01-02", v, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("日期格式错误，请使用 YYYY-MM-DD")
	}
	// 补记的日期统一落在当天正午，避免时区边界落入前后一天
	return t.Add(12 * time.Hour), nil
}

// ========== statistics ==========

func (a *apiServer) getXPByTechnique(w http.ResponseWriter, r *http.Request) {
	out, err := a.core.Services.Stats.XPBySubtype(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *apiServer) getXPByEvaluation(w http.ResponseWriter, r *http.Request) {
	out, err := a.core.Services.Stats.XPByEvaluation(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *apiServer) getLearningPatterns(w http.ResponseWriter, r *http.Request) {
	out, err := a.core.Services.Stats.Patterns(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *apiServer) getActivityHeatmap(w http.ResponseWriter, r *http.Request) {
	year := queryInt(r, "year", time.Now().Year())
	out, err := a.core.Services.Stats.Heatmap(r.Context(), year)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *apiServer) getTimeAnalysis(w http.ResponseWriter, r *http.Request) {
	period := service.TimePeriod(strings.TrimSpace(r.URL.Query().Get("period")))
	if period == "" {
		period = service.PeriodDaily
	}
	out, err := a.core.Services.Stats.TimeAnalysis(r.Context(), period, time.Now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *apiServer) getYouTubeProgress(w http.ResponseWriter, r *http.Request) {
	out, err := a.core.Services.Stats.PlaylistStats(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// ========== books ==========

func (a *apiServer) books(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		page, err := a.core.Services.Resource.ListBooks(r.Context(),
			queryInt(r, "page", 1), queryInt(r, "page_size", 20),
			strings.TrimSpace(r.URL.Query().Get("search")))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, page)
	case http.MethodPost:
		var req CreateBookRequestDTO
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		book := &schema.Book{
			Title:          req.Title,
			Author:         req.Author,
			Description:    req.Description,
			CoverImagePath: req.CoverImagePath,
			PDFFilePath:    req.PDFFilePath,
		}
		if err := a.core.Services.Resource.CreateBook(r.Context(), book); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, book)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (a *apiServer) getBookDetail(w http.ResponseWriter, r *http.Request) {
	id, err := parseInt64Param(r.URL.Query().Get("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "id 无效")
		return
	}
	book, err := a.core.Services.Resource.GetBook(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, book)
}

func (a *apiServer) updateBook(w http.ResponseWriter, r *http.Request) {
	var req UpdateBookRequestDTO
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.core.Services.Resource.UpdateBook(r.Context(),
		req.ID, req.Title, req.Author, req.Description, req.CoverImagePath, req.PDFFilePath); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (a *apiServer) deleteBook(w http.ResponseWriter, r *http.Request) {
	var req IDRequestDTO
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.core.Services.Resource.DeleteBook(r.Context(), req.ID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// ========== links ==========

func (a *apiServer) links(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		links, err := a.core.Services.Resource.ListLinks(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, links)
	case http.MethodPost:
		var req CreateLinkRequestDTO
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		link := &schema.ResourceLink{Name: req.Name, URL: req.URL, Description: req.Description}
		if err := a.core.Services.Resource.CreateLink(r.Context(), link); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, link)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (a *apiServer) updateLink(w http.ResponseWriter, r *http.Request) {
	var req UpdateLinkRequestDTO
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.core.Services.Resource.UpdateLink(r.Context(), req.ID, req.Name, req.URL, req.Description); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (a *apiServer) deleteLink(w http.ResponseWriter, r *http.Request) {
	var req IDRequestDTO
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.core.Services.Resource.DeleteLink(r.Context(), req.ID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// ========== playlists / videos ==========

func (a *apiServer) playlists(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		playlists, err := a.core.Services.Resource.ListPlaylists(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, playlists)
	case http.MethodPost:
		a.createPlaylist(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// createPlaylist 登记播放列表。元数据从 YouTube 抓取，失败时用列表 ID 兜底。
func (a *apiServer) createPlaylist(w http.ResponseWriter, r *http.Request) {
	var req CreatePlaylistRequestDTO
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	playlistID := client.ExtractPlaylistID(req.URLOrID)
	if playlistID == "" {
		writeError(w, http.StatusBadRequest, "无法识别播放列表 ID")
		return
	}

	playlist := &schema.Playlist{
		PlaylistID:  playlistID,
		Description: req.Description,
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()
	if info, err := a.core.Clients.YouTube.PlaylistInfo(ctx, playlistID); err == nil {
		playlist.Title = info.Title
		playlist.ThumbnailURL = info.ThumbnailURL
	}

	if err := a.core.Services.Resource.CreatePlaylist(r.Context(), playlist); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, playlist)
}

// updatePlaylist 更新播放列表的标题与描述（空字段保持不变）
func (a *apiServer) updatePlaylist(w http.ResponseWriter, r *http.Request) {
	var req UpdatePlaylistRequestDTO
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.core.Services.Resource.UpdatePlaylistMetadata(
		r.Context(), req.ID, req.Title, req.Description, ""); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (a *apiServer) deletePlaylist(w http.ResponseWriter, r *http.Request) {
	var req IDRequestDTO
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.core.Services.Resource.DeletePlaylist(r.Context(), req.ID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (a *apiServer) resetPlaylist(w http.ResponseWriter, r *http.Request) {
	var req IDRequestDTO
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.core.Services.Video.ResetProgress(r.Context(), req.ID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// refreshPlaylist 重新抓取播放列表元数据
func (a *apiServer) refreshPlaylist(w http.ResponseWriter, r *http.Request) {
	var req IDRequestDTO
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	playlists, err := a.core.Services.Resource.ListPlaylists(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	var target *schema.Playlist
	for i := range playlists {
		if playlists[i].ID == req.ID {
			target = &playlists[i]
			break
		}
	}
	if target == nil {
		writeError(w, http.StatusNotFound, "播放列表不存在")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()
	info, err := a.core.Clients.YouTube.PlaylistInfo(ctx, target.PlaylistID)
	if err != nil {
		writeError(w, http.StatusBadGateway, "抓取元数据失败: "+err.Error())
		return
	}

	if err := a.core.Services.Resource.UpdatePlaylistMetadata(
		r.Context(), req.ID, info.Title, target.Description, info.ThumbnailURL); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "title": info.Title})
}

// playlistMaterials 讲义资料一览与上传。
// GET ?playlist_id=N 返回资料列表；POST 为 multipart 表单，materials 字段可带多个文件。
func (a *apiServer) playlistMaterials(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listPlaylistMaterials(w, r)
	case http.MethodPost:
		a.uploadPlaylistMaterials(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (a *apiServer) listPlaylistMaterials(w http.ResponseWriter, r *http.Request) {
	playlistID, err := parseInt64Param(r.URL.Query().Get("playlist_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "playlist_id 无效")
		return
	}
	materials, err := a.core.Services.Resource.ListMaterials(r.Context(), playlistID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	out := make([]MaterialDTO, 0, len(materials))
	for _, m := range materials {
		out = append(out, MaterialDTO{
			ID:               m.ID,
			DisplayName:      m.DisplayName,
			OriginalFilename: m.OriginalFilename,
			FileSize:         m.FileSize,
			UploadedAt:       m.UploadedAt,
			DownloadURL:      fmt.Sprintf("/api/materials/download?id=%d", m.ID),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *apiServer) uploadPlaylistMaterials(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(64 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "解析表单失败: "+err.Error())
		return
	}
	playlistID, err := parseInt64Param(r.FormValue("playlist_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "playlist_id 无效")
		return
	}

	files := r.MultipartForm.File["materials"]
	if len(files) == 0 {
		files = r.MultipartForm.File["material"]
	}
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "未选择文件")
		return
	}

	result := MaterialUploadResultDTO{}
	for _, header := range files {
		if header.Filename == "" {
			continue
		}
		f, err := header.Open()
		if err != nil {
			result.FailedCount++
			continue
		}
		_, err = a.core.Services.Resource.AddMaterial(r.Context(), playlistID, header.Filename, f)
		_ = f.Close()
		if err != nil {
			if errors.Is(err, service.ErrPlaylistNotFound) {
				writeServiceError(w, err)
				return
			}
			result.FailedCount++
			continue
		}
		result.UploadedCount++
	}
	writeJSON(w, http.StatusOK, &result)
}

func (a *apiServer) deleteMaterial(w http.ResponseWriter, r *http.Request) {
	var req IDRequestDTO
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.core.Services.Resource.DeleteMaterial(r.Context(), req.ID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// downloadMaterial 以附件形式下发讲义资料，文件名恢复为上传时的原始名称
func (a *apiServer) downloadMaterial(w http.ResponseWriter, r *http.Request) {
	id, err := parseInt64Param(r.URL.Query().Get("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "id 无效")
		return
	}
	material, err := a.core.Services.Resource.GetMaterial(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename*=UTF-8''%s`, url.PathEscape(material.OriginalFilename)))
	http.ServeFile(w, r, a.core.Services.Resource.MaterialPath(material))
}

func (a *apiServer) recordVideoView(w http.ResponseWriter, r *http.Request) {
	var req VideoViewRequestDTO
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.core.Services.Video.RecordView(r.Context(), req.PlaylistID, req.VideoIndex, req.WatchedSeconds); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (a *apiServer) completeVideo(w http.ResponseWriter, r *http.Request) {
	var req VideoCompleteRequestDTO
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	xp, err := a.core.Services.Video.MarkComplete(r.Context(), req.PlaylistID, req.VideoIndex)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, &VideoCompleteResultDTO{XPGained: xp})
}

// ========== pixiv ==========

func (a *apiServer) getPixivTopics(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()
	writeJSON(w, http.StatusOK, a.core.Clients.Pixiv.Topics(ctx))
}

// ========== export ==========

func (a *apiServer) exportCSV(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="artmirror_%s.csv"`, time.Now().Format("20060102")))
	if err := a.core.Services.Data.ExportCSV(r.Context(), w); err != nil {
		// 响应头已发出，只能记日志
		slog.Error("CSV 导出失败", "error", err)
	}
}

func (a *apiServer) exportJSON(w http.ResponseWriter, r *http.Request) {
	bundle, err := a.core.Services.Data.ExportJSON(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bundle)
}
