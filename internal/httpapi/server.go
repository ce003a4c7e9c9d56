package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/yuqie6/ArtMirror/internal/bootstrap"
	"github.com/yuqie6/ArtMirror/internal/eventbus"
)

// LocalServer 仅绑定 127.0.0.1 的本地 HTTP 服务
type LocalServer struct {
	core    *bootstrap.Core
	hub     *eventbus.Hub
	ln      net.Listener
	srv     *http.Server
	baseURL string
}

type Options struct {
	ListenAddr string // e.g. "127.0.0.1:5000"
}

func Start(ctx context.Context, core *bootstrap.Core, opts Options) (*LocalServer, error) {
	if core == nil {
		return nil, fmt.Errorf("core 不能为空")
	}
	if strings.TrimSpace(opts.ListenAddr) == "" {
		opts.ListenAddr = "127.0.0.1:0"
	}

	ln, err := net.Listen("tcp", opts.ListenAddr)
	if err != nil {
		return nil, err
	}

	_, portStr, err := net.SplitHostPort(ln.Addr().String())
	if err != nil {
		_ = ln.Close()
		return nil, err
	}
	baseURL := "http://127.0.0.1:" + portStr

	api := newAPI(core)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", api.handleHealth)
	mux.HandleFunc("/api/events", api.handleSSE)
	api.registerJSONRoutes(mux)

	// 证明图片静态目录
	mux.Handle("/uploads/", http.StripPrefix("/uploads/",
		http.FileServer(http.Dir(core.Proofs.Dir()))))

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ls := &LocalServer{
		core:    core,
		hub:     core.Hub,
		ln:      ln,
		srv:     srv,
		baseURL: baseURL,
	}

	go func() {
		<-ctx.Done()
		_ = ls.Shutdown(context.Background())
	}()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server 异常退出", "error", err)
		}
	}()

	slog.Info("本地 HTTP 已启动", "base_url", baseURL)
	return ls, nil
}

func (s *LocalServer) BaseURL() string {
	if s == nil {
		return ""
	}
	return s.baseURL
}

func (s *LocalServer) Shutdown(ctx context.Context) error {
	if s == nil || s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

type apiServer struct {
	core      *bootstrap.Core
	hub       *eventbus.Hub
	startTime time.Time
}

func newAPI(core *bootstrap.Core) *apiServer {
	return &apiServer{
		core:      core,
		hub:       core.Hub,
		startTime: time.Now(),
	}
}

func (a *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":         true,
		"name":       a.core.Cfg.App.Name,
		"version":    a.core.Cfg.App.Version,
		"started_at": a.startTime.Format(time.RFC3339),
	})
}

func (a *apiServer) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "stream not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ctx := r.Context()
	sub := a.hub.Subscribe(ctx, 32)

	// initial event
	_, _ = io.WriteString(w, "event: ready\n")
	_, _ = io.WriteString(w, "data: {}\n\n")
	flusher.Flush()

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = io.WriteString(w, "event: ping\n")
			_, _ = io.WriteString(w, "data: {}\n\n")
			flusher.Flush()
		case evt, ok := <-sub:
			if !ok {
				return
			}
			b, _ := json.Marshal(evt)
			_, _ = io.WriteString(w, "event: "+sanitizeSSEName(evt.Type)+"\n")
			_, _ = io.WriteString(w, "data: ")
			_, _ = w.Write(b)
			_, _ = io.WriteString(w, "\n\n")
			flusher.Flush()
		}
	}
}

func sanitizeSSEName(name string) string {
	n := strings.TrimSpace(name)
	if n == "" {
		return "message"
	}
	n = strings.ReplaceAll(n, "\n", "")
	n = strings.ReplaceAll(n, "\r", "")
	return n
}
