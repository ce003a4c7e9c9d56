package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/yuqie6/ArtMirror/internal/bootstrap"
	"github.com/yuqie6/ArtMirror/internal/httpapi"
	"github.com/yuqie6/ArtMirror/internal/pkg/buildinfo"
	"github.com/yuqie6/ArtMirror/internal/pkg/config"
	"github.com/yuqie6/ArtMirror/internal/service"
)

var (
	cfgFile string
	core    *bootstrap.Core
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "artmirror",
		Short:   "ArtMirror - 绘画学习进度追踪系统",
		Long:    `ArtMirror 是一个本地运行的学习管理系统，记录绘画练习、技法习得与作品投稿，按固定换算表累积 XP 并计算段位。`,
		Version: buildinfo.Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			var err error
			core, err = bootstrap.NewCore(cfgFile)
			if err != nil {
				slog.Error("初始化失败", "error", err)
				os.Exit(1)
			}
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if core != nil {
				_ = core.Close()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "配置文件路径")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// serveCmd 启动本地 HTTP 服务
func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "启动本地 HTTP 服务",
		Run: func(cmd *cobra.Command, args []string) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			listenAddr := addr
			if listenAddr == "" {
				listenAddr = core.Cfg.Server.ListenAddr
			}

			srv, err := httpapi.Start(ctx, core, httpapi.Options{ListenAddr: listenAddr})
			if err != nil {
				slog.Error("启动 HTTP 服务失败", "error", err)
				os.Exit(1)
			}

			// 配置热更新（换算表覆盖项）。
			// --config 未指定时退回默认查找路径实际命中的文件。
			watchPath := cfgFile
			if watchPath == "" {
				watchPath = core.Cfg.SourcePath
			}
			if watchPath != "" {
				if err := core.WatchConfig(watchPath); err != nil {
					slog.Warn("配置监控启动失败", "error", err)
				} else if w := core.ConfigWatcher(); w != nil {
					_ = w.Start(ctx)
				}
			}

			fmt.Printf("🎨 ArtMirror %s\n", buildinfo.Version)
			fmt.Printf("   %s\n", srv.BaseURL())
			fmt.Println("   Ctrl+C で終了")

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			<-sigCh

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			_ = srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "监听地址（默认取配置 server.listen_addr）")
	return cmd
}

// statusCmd 查看当前状态
func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "查看当前段位与累计 XP",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			info, err := core.Services.Progress.Status(ctx)
			if err != nil {
				fmt.Printf("❌ 查询失败: %v\n", err)
				os.Exit(1)
			}

			fmt.Printf("🎨 %s\n", info.Username)
			fmt.Println("═══════════════════════════════════════")
			fmt.Printf("  段位:     Rank %d 「%s」\n", info.Rank, info.Title)
			fmt.Printf("  累计 XP:  %d\n", info.TotalXP)
			if info.XPToNext > 0 {
				fmt.Printf("  次の段位まで: %d XP (目標 %d)\n", info.XPToNext, info.NextXPGoal)
			} else {
				fmt.Println("  🏆 最高段位に到達")
			}
			fmt.Printf("  学習時間: %d 時間 %d 分\n", info.TotalHours, info.TotalMinutes%60)
			fmt.Println("═══════════════════════════════════════")
		},
	}
}

// logCmd 记录学习活动
func logCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log",
		Short: "记录学习活动",
	}
	cmd.AddCommand(logTimeCmd())
	cmd.AddCommand(logWorkCmd())
	return cmd
}

func logTimeCmd() *cobra.Command {
	var activityType string
	var minutes int
	var desc string
	var date string

	cmd := &cobra.Command{
		Use:   "time",
		Short: "记录时间学习（按分钟计 XP）",
		Run: func(cmd *cobra.Command, args []string) {
			occurredAt, err := parseDateFlag(date)
			if err != nil {
				fmt.Printf("❌ %v\n", err)
				os.Exit(1)
			}

			record, err := core.Services.Progress.LogTime(context.Background(), service.LogTimeInput{
				ActivityType:    activityType,
				DurationMinutes: minutes,
				Description:     desc,
				OccurredAt:      occurredAt,
			})
			if err != nil {
				fmt.Printf("❌ 记录失败: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("✅ %s %d 分 → +%d XP\n", record.Subtype, minutes, record.XPGained)
		},
	}

	cmd.Flags().StringVarP(&activityType, "type", "t", "", "活动类型（如 フリースケッチ / 基礎技法）")
	cmd.Flags().IntVarP(&minutes, "minutes", "m", 0, "学习时长（分钟）")
	cmd.Flags().StringVarP(&desc, "desc", "d", "", "备注")
	cmd.Flags().StringVar(&date, "date", "", "补记日期 (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("minutes")
	return cmd
}

func logWorkCmd() *cobra.Command {
	var technique string
	var grade string
	var desc string
	var date string
	var free bool

	cmd := &cobra.Command{
		Use:   "work",
		Short: "记录技法习得或自由投稿",
		Run: func(cmd *cobra.Command, args []string) {
			occurredAt, err := parseDateFlag(date)
			if err != nil {
				fmt.Printf("❌ %v\n", err)
				os.Exit(1)
			}

			ctx := context.Background()
			if free {
				record, err := core.Services.Progress.LogPost(ctx, service.LogPostInput{
					Description: desc,
					OccurredAt:  occurredAt,
				})
				if err != nil {
					fmt.Printf("❌ 记录失败: %v\n", err)
					os.Exit(1)
				}
				fmt.Printf("✅ 自由投稿 → +%d XP\n", record.XPGained)
				return
			}

			record, err := core.Services.Progress.LogAcquisition(ctx, service.LogAcquisitionInput{
				TechniqueType: technique,
				Evaluation:    grade,
				Description:   desc,
				OccurredAt:    occurredAt,
			})
			if err != nil {
				fmt.Printf("❌ 记录失败: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("✅ %s 評価%s → +%d XP\n", record.Subtype, record.Evaluation, record.XPGained)
		},
	}

	cmd.Flags().StringVarP(&technique, "technique", "t", "", "技法类型（如 基礎技法 / 応用技法）")
	cmd.Flags().StringVarP(&grade, "grade", "g", "", "评价等级 A-E")
	cmd.Flags().StringVarP(&desc, "desc", "d", "", "备注")
	cmd.Flags().StringVar(&date, "date", "", "补记日期 (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&free, "free", false, "自由投稿（固定 XP，不需要评价）")
	return cmd
}

// statsCmd 查看统计
func statsCmd() *cobra.Command {
	var period string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "查看学习统计",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()

			report, err := core.Services.Stats.TimeAnalysis(ctx, service.TimePeriod(period), time.Now())
			if err != nil {
				fmt.Printf("❌ 统计失败: %v\n", err)
				os.Exit(1)
			}

			fmt.Printf("📊 時間分析 (%s)\n", period)
			fmt.Println("═══════════════════════════════════════")
			for i, label := range report.Labels {
				fmt.Printf("  %-8s %5d 分 / %6d XP\n", label, report.Minutes[i], report.XP[i])
			}

			bySubtype, err := core.Services.Stats.XPBySubtype(ctx)
			if err != nil {
				fmt.Printf("❌ 统计失败: %v\n", err)
				os.Exit(1)
			}
			if len(bySubtype.Labels) > 0 {
				fmt.Println("\n🎯 技法別 XP")
				for i, label := range bySubtype.Labels {
					fmt.Printf("  • %s: %d XP\n", label, bySubtype.Data[i])
				}
			}
			fmt.Println("═══════════════════════════════════════")
		},
	}

	cmd.Flags().StringVarP(&period, "period", "p", "daily", "分析窗口 daily|weekly|monthly")
	return cmd
}

// exportCmd 导出数据
func exportCmd() *cobra.Command {
	var format string
	var outPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "导出全部学习数据",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()

			if outPath == "" {
				outPath = fmt.Sprintf("artmirror_%s.%s", time.Now().Format("20060102"), format)
			}

			f, err := os.Create(outPath)
			if err != nil {
				fmt.Printf("❌ 创建文件失败: %v\n", err)
				os.Exit(1)
			}
			defer f.Close()

			switch format {
			case "csv":
				err = core.Services.Data.ExportCSV(ctx, f)
			case "json":
				var bundle *service.ExportBundle
				bundle, err = core.Services.Data.ExportJSON(ctx)
				if err == nil {
					enc := json.NewEncoder(f)
					enc.SetIndent("", "  ")
					err = enc.Encode(bundle)
				}
			default:
				fmt.Printf("❌ 不支持的格式: %s（可用 csv|json）\n", format)
				os.Exit(1)
			}

			if err != nil {
				fmt.Printf("❌ 导出失败: %v\n", err)
				os.Exit(1)
			}

			count, _ := core.Repos.Record.Count(ctx)
			fmt.Printf("✅ 已导出 %d 条记录: %s\n", count, outPath)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "csv", "导出格式 csv|json")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "输出文件路径")
	return cmd
}

// configCmd 配置管理
func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "配置管理",
	}
	cmd.AddCommand(configInitCmd())
	return cmd
}

// configInitCmd 将当前生效的配置写出为配置文件，方便手动调整换算表覆盖项
func configInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "生成配置文件",
		Run: func(cmd *cobra.Command, args []string) {
			path := cfgFile
			if path == "" {
				var err error
				path, err = config.DefaultConfigPath()
				if err != nil {
					fmt.Printf("❌ %v\n", err)
					os.Exit(1)
				}
			}

			if _, err := os.Stat(path); err == nil && !force {
				fmt.Printf("❌ 配置文件已存在: %s（--force 可覆盖）\n", path)
				os.Exit(1)
			}

			if err := config.WriteFile(path, core.Cfg); err != nil {
				fmt.Printf("❌ 写入失败: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("✅ 配置已写入: %s\n", path)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "覆盖已存在的配置文件")
	return cmd
}

func parseDateFlag(date string) (time.Time, error) {
	if date == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation("2006-01-02", date, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("日期格式错误，请使用 YYYY-MM-DD")
	}
	return t.Add(12 * time.Hour), nil
}
