package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher 监控配置文件变化并在写入后重新加载。
// 重载结果通过回调交给调用方，解析失败时保持旧配置不变。
type Watcher struct {
	watcher     *fsnotify.Watcher
	configPath  string
	onReload    func(*Config)
	stopChan    chan struct{}
	stopOnce    sync.Once
	mu          sync.Mutex
	running     bool
	lastReload  time.Time
	debounceDur time.Duration
}

// NewWatcher 创建配置监控器
func NewWatcher(configPath string, onReload func(*Config)) (*Watcher, error) {
	if configPath == "" {
		return nil, fmt.Errorf("configPath 不能为空")
	}
	if onReload == nil {
		return nil, fmt.Errorf("onReload 不能为空")
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("创建文件监控器失败: %w", err)
	}

	return &Watcher{
		watcher:     fw,
		configPath:  configPath,
		onReload:    onReload,
		stopChan:    make(chan struct{}),
		debounceDur: time.Second,
	}, nil
}

// Start 启动监控
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	// 监控目录而非文件本身，编辑器的原子替换会使文件级 watch 失效
	if err := w.watcher.Add(filepath.Dir(w.configPath)); err != nil {
		return fmt.Errorf("添加监控目录失败: %w", err)
	}

	slog.Info("配置监控器启动", "path", w.configPath)
	go w.watchLoop(ctx)
	return nil
}

// Stop 停止监控
func (w *Watcher) Stop() error {
	w.stopOnce.Do(func() {
		close(w.stopChan)
		_ = w.watcher.Close()
		slog.Info("配置监控器已停止")
	})
	return nil
}

// watchLoop 监控循环
func (w *Watcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFsEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("配置文件监控错误", "error", err)
		}
	}
}

// handleFsEvent 处理文件系统事件
func (w *Watcher) handleFsEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}
	if filepath.Clean(event.Name) != filepath.Clean(w.configPath) {
		return
	}

	// 防抖：编辑器保存通常触发多个事件
	w.mu.Lock()
	now := time.Now()
	if now.Sub(w.lastReload) < w.debounceDur {
		w.mu.Unlock()
		return
	}
	w.lastReload = now
	w.mu.Unlock()

	cfg, err := Load(w.configPath)
	if err != nil {
		slog.Warn("配置重载失败，保留旧配置", "error", err)
		return
	}

	slog.Info("配置文件已重载", "path", w.configPath)
	w.onReload(cfg)
}
