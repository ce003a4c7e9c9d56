package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Server   ServerConfig   `mapstructure:"server"`
	XP       XPConfig       `mapstructure:"xp"`
	External ExternalConfig `mapstructure:"external"`

	// SourcePath 实际加载的配置文件路径（含默认查找路径命中的情况）。
	// 未找到配置文件时为空，热更新监控据此决定是否启动。
	SourcePath string `mapstructure:"-"`
}

// AppConfig 应用配置
type AppConfig struct {
	Name     string `mapstructure:"name"`
	Version  string `mapstructure:"version"`
	LogLevel string `mapstructure:"log_level"`
}

// StorageConfig 存储配置
type StorageConfig struct {
	DBPath    string `mapstructure:"db_path"`
	UploadDir string `mapstructure:"upload_dir"`
}

// ServerConfig 本地 HTTP 服务配置
type ServerConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
}

// XPConfig 经验值规则覆盖项，未设置的条目沿用内置默认表
type XPConfig struct {
	RatesPerMinute  map[string]int `mapstructure:"rates_per_minute"`
	AcquisitionBase map[string]int `mapstructure:"acquisition_base"`
	PostBaseXP      int            `mapstructure:"post_base_xp"`
}

// ExternalConfig 外部站点抓取配置
type ExternalConfig struct {
	PixivCacheTTLMin   int `mapstructure:"pixiv_cache_ttl_min"`
	YouTubeCacheTTLMin int `mapstructure:"youtube_cache_ttl_min"`
}

// Load 加载配置文件
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// 设置默认值
	setDefaults(v)

	// 设置配置文件路径
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// 默认查找路径
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// 支持环境变量
	v.SetEnvPrefix("ARTMIRROR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			slog.Warn("配置文件未找到，使用默认配置")
		} else {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	} else {
		slog.Info("加载配置文件", "path", v.ConfigFileUsed())
	}

	// 解析配置
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	// 处理相对路径
	cfg.Storage.DBPath = resolvePath(cfg.Storage.DBPath)
	cfg.Storage.UploadDir = resolvePath(cfg.Storage.UploadDir)

	cfg.SourcePath = v.ConfigFileUsed()

	return &cfg, nil
}

// setDefaults 设置默认值
func setDefaults(v *viper.Viper) {
	// App
	v.SetDefault("app.name", "artmirror")
	v.SetDefault("app.version", "0.1.0")
	v.SetDefault("app.log_level", "info")

	// Storage
	v.SetDefault("storage.db_path", "./data/artmirror.db")
	v.SetDefault("storage.upload_dir", "./data/uploads")

	// Server
	v.SetDefault("server.listen_addr", "127.0.0.1:5000")

	// XP
	v.SetDefault("xp.post_base_xp", 0)

	// External
	v.SetDefault("external.pixiv_cache_ttl_min", 30)
	v.SetDefault("external.youtube_cache_ttl_min", 60)
}

// resolvePath 解析相对路径为绝对路径
func resolvePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}

	// 获取可执行文件目录
	exe, err := os.Executable()
	if err != nil {
		return path
	}

	exeDir := filepath.Dir(exe)
	return filepath.Join(exeDir, path)
}

// SetupLogger 根据配置设置日志级别
func SetupLogger(level string) {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}
