package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/config"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/container"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/metrics"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the API server",
	Long: `Start the fault maintenance API server.
The server listens on the configured host and port and provides
REST API interfaces for fault reporting and maintenance tracking.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// 1. 加载配置
		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		// 2. 初始化容器
		ctr, err := container.NewContainer(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize container: %w", err)
		}
		defer ctr.Close()

		logger := ctr.Logger()

		// 3. 指定了配置文件时监听变更,热更新日志级别
		if configPath != "" {
			watcher := config.NewConfigWatcher(cfg, configPath)
			watcher.OnConfigChange(func(newCfg *config.Config) {
				level, err := logrus.ParseLevel(newCfg.Log.Level)
				if err != nil {
					logger.WithField("level", newCfg.Log.Level).Warn("无法识别的日志级别")
					return
				}
				logger.SetLevel(level)
				logger.WithField("level", newCfg.Log.Level).Info("日志级别已更新")
			})
			if err := watcher.Start(); err != nil {
				logger.WithError(err).Warn("配置监听启动失败")
			} else {
				defer watcher.Stop()
			}
		}

		// 4. 启动 WebSocket Hub
		go ctr.Hub().Run()

		// 5. 后台例行任务:清理过期会话、刷新状态指标
		stopJanitor := make(chan struct{})
		go func() {
			ticker := time.NewTicker(10 * time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					if n, err := ctr.Sessions().Cleanup(); err != nil {
						logger.WithError(err).Warn("过期会话清理失败")
					} else if n > 0 {
						logger.WithField("count", n).Debug("过期会话已清理")
					}
					if err := ctr.StatisticsService().RefreshStatusMetrics(); err != nil {
						logger.WithError(err).Warn("状态指标刷新失败")
					}
					if err := metrics.UpdateDatabaseConnections(ctr.DB()); err != nil {
						logger.WithError(err).Warn("数据库连接指标刷新失败")
					}
				case <-stopJanitor:
					return
				}
			}
		}()

		// 6. 启动服务器
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		srv := &http.Server{
			Addr:    addr,
			Handler: ctr.Router(),
		}

		go func() {
			logger.WithField("addr", addr).Info("服务器启动")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.WithError(err).Fatal("服务器启动失败")
			}
		}()

		// 等待中断信号
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		logger.Info("正在关闭服务器...")
		close(stopJanitor)

		// 优雅关闭
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}

		logger.Info("服务器已退出")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().String("config", "", "Config file path (default: search in current directory, ./config, or $HOME/.maintain-gin)")
}
