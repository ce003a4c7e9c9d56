package bootstrap

import (
	"log/slog"
	"time"

	"github.com/yuqie6/ArtMirror/internal/client"
	"github.com/yuqie6/ArtMirror/internal/eventbus"
	"github.com/yuqie6/ArtMirror/internal/pkg/config"
	"github.com/yuqie6/ArtMirror/internal/repository"
	"github.com/yuqie6/ArtMirror/internal/service"
)

// Core 持有跨命令共享的核心依赖
type Core struct {
	Cfg    *config.Config
	DB     *repository.Database
	Hub    *eventbus.Hub
	Tables *service.TablesHolder

	Repos struct {
		Record    *repository.RecordRepository
		Status    *repository.StatusRepository
		Book      *repository.BookRepository
		Link      *repository.LinkRepository
		Playlist  *repository.PlaylistRepository
		VideoView *repository.VideoViewRepository
		Material  *repository.MaterialRepository
	}

	Services struct {
		Progress *service.ProgressService
		Stats    *service.StatsService
		Video    *service.VideoService
		Resource *service.ResourceService
		Data     *service.DataService
	}

	Clients struct {
		Pixiv   *client.PixivClient
		YouTube *client.YouTubeClient
	}

	Proofs    *service.ProofStore
	Materials *service.MaterialStore

	watcher *config.Watcher
}

// NewCore 构建核心依赖
func NewCore(cfgPath string) (*Core, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	config.SetupLogger(cfg.App.LogLevel)

	db, err := repository.NewDatabase(cfg.Storage.DBPath)
	if err != nil {
		return nil, err
	}

	tables, err := tablesFromConfig(cfg)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	c := &Core{
		Cfg:    cfg,
		DB:     db,
		Hub:    eventbus.NewHub(),
		Tables: service.NewTablesHolder(tables),
	}

	// Repos
	c.Repos.Record = repository.NewRecordRepository(db.DB)
	c.Repos.Status = repository.NewStatusRepository(db.DB)
	c.Repos.Book = repository.NewBookRepository(db.DB)
	c.Repos.Link = repository.NewLinkRepository(db.DB)
	c.Repos.Playlist = repository.NewPlaylistRepository(db.DB)
	c.Repos.VideoView = repository.NewVideoViewRepository(db.DB)
	c.Repos.Material = repository.NewMaterialRepository(db.DB)

	// Clients
	c.Clients.Pixiv = client.NewPixivClient(
		client.NewTTLCache[[]client.Topic](time.Duration(cfg.External.PixivCacheTTLMin) * time.Minute))
	c.Clients.YouTube = client.NewYouTubeClient(
		client.NewTTLCache[map[string]client.PlaylistInfo](time.Duration(cfg.External.YouTubeCacheTTLMin) * time.Minute))

	// 文件存储（证明图片与讲义资料共用上传目录）
	c.Proofs, err = service.NewProofStore(cfg.Storage.UploadDir)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	c.Materials, err = service.NewMaterialStore(cfg.Storage.UploadDir)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	// Services
	policy := service.NewStandardXPPolicy(c.Tables)
	c.Services.Progress = service.NewProgressService(c.Repos.Record, c.Repos.Status, c.Tables, policy, c.Hub)
	c.Services.Stats = service.NewStatsService(c.Repos.Record, c.Repos.VideoView, c.Repos.Playlist)
	c.Services.Video = service.NewVideoService(c.Repos.Playlist, c.Repos.VideoView, c.Repos.Record, c.Repos.Status, policy, c.Hub)
	c.Services.Resource = service.NewResourceService(c.Repos.Book, c.Repos.Link, c.Repos.Playlist, c.Repos.Material, c.Materials)
	c.Services.Data = service.NewDataService(c.Repos.Record, c.Repos.Status, c.Repos.Book, c.Repos.Link)

	return c, nil
}

// tablesFromConfig 套用配置覆盖项构建换算表
func tablesFromConfig(cfg *config.Config) (*service.Tables, error) {
	return service.NewTables(service.TableOverrides{
		RatesPerMinute:  cfg.XP.RatesPerMinute,
		AcquisitionBase: cfg.XP.AcquisitionBase,
		PostBase:        cfg.XP.PostBaseXP,
	})
}

// WatchConfig 监控配置文件并热更新换算表。
// 新配置校验失败时保留当前表。
func (c *Core) WatchConfig(cfgPath string) error {
	w, err := config.NewWatcher(cfgPath, func(next *config.Config) {
		tables, err := tablesFromConfig(next)
		if err != nil {
			slog.Warn("换算表覆盖项校验失败，保留当前表", "error", err)
			return
		}
		c.Tables.Store(tables)
		slog.Info("换算表已热更新")
	})
	if err != nil {
		return err
	}
	c.watcher = w
	return nil
}

// ConfigWatcher 返回已创建的配置监控器（可能为 nil）
func (c *Core) ConfigWatcher() *config.Watcher {
	return c.watcher
}

// Close 关闭核心依赖资源
func (c *Core) Close() error {
	if c == nil {
		return nil
	}
	if c.watcher != nil {
		_ = c.watcher.Stop()
	}
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
