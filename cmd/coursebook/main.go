package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"course-planner/config"
	"course-planner/internal/catalog"
	"course-planner/internal/dto"
	"course-planner/internal/repository"
	"course-planner/internal/service"
	"course-planner/pkg/database"
	"course-planner/pkg/jwt"
	applogger "course-planner/pkg/logger"
	"course-planner/pkg/redis"
)

var (
	configPath string

	rootCmd = &cobra.Command{
		Use:          "coursebook",
		Short:        "课程目录批处理：刷新学期目录、签发运维令牌",
		SilenceUsage: true,
	}
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "配置文件路径（默认 ./config/config.yaml）")
	rootCmd.AddCommand(newRefreshCmd(), newTokenCmd())
}

// ── refresh ──

func newRefreshCmd() *cobra.Command {
	var year, semester int

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "读取目录源并同步时间表；不指定学期时刷新最近学期与下一学期",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if (year == 0) != (semester == 0) {
				return fmt.Errorf("--year 与 --semester 必须同时指定")
			}

			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}
			defer logger.Sync()

			svc, closeFn, err := newCoursebookService(cfg, logger)
			if err != nil {
				return err
			}
			defer closeFn()

			ctx := cmd.Context()
			var results []dto.RefreshResult
			if year != 0 {
				result, err := svc.Refresh(ctx, catalog.Term{Year: year, Semester: semester})
				if err != nil {
					logger.Error("刷新失败", zap.Error(err))
					return err
				}
				results = append(results, *result)
			} else {
				results, err = svc.RefreshRecent(ctx, time.Now())
				if err != nil {
					logger.Error("刷新失败", zap.Error(err))
					return err
				}
			}

			for _, r := range results {
				fmt.Fprintf(cmd.OutOrStdout(), "%d-%d\t%s\t课程 %d\t新增 %d\t删除 %d\t变更 %d\t受影响时间表 %d\n",
					r.Year, r.Semester, r.Status, r.Lectures, r.Created, r.Removed, r.Changed, r.AffectedTables)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "学年")
	cmd.Flags().IntVar(&semester, "semester", 0, "学期 1=春 2=夏 3=秋 4=冬")
	return cmd
}

// ── token ──

func newTokenCmd() *cobra.Command {
	var userID, role string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "签发 Access Token（用于调用管理员接口）",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if role != jwt.RoleUser && role != jwt.RoleAdmin {
				return fmt.Errorf("未知角色: %s", role)
			}
			token, err := jwt.NewManager(&cfg.Auth).GenerateAccessToken(userID, role)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "admin", "令牌中的 user_id")
	cmd.Flags().StringVar(&role, "role", jwt.RoleAdmin, "角色 user | admin")
	return cmd
}

// ── 初始化 ──

func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("初始化日志失败: %w", err)
	}
	return cfg, logger, nil
}

// newCoursebookService 连接数据库（含迁移）与可选的 Redis
func newCoursebookService(cfg *config.Config, logger *zap.Logger) (service.CoursebookService, func(), error) {
	db, err := database.NewDB(&cfg.Database, logger, false)
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, err
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		return nil, nil, err
	}

	var (
		rdb   *redis.Client
		cache service.Cache
	)
	if cfg.Redis.Addr != "" {
		if rdb, err = redis.NewClient(&cfg.Redis, logger); err != nil {
			logger.Warn("Redis 不可用，跳过标签缓存失效", zap.Error(err))
			rdb = nil
		} else {
			cache = rdb
		}
	}

	svc := service.NewService(cfg, repository.NewRepository(db), catalog.FileSource{Dir: cfg.Catalog.SourceDir}, cache, logger)
	closeFn := func() {
		_ = sqlDB.Close()
		if rdb != nil {
			_ = rdb.Close()
		}
	}
	return svc.Coursebook, closeFn, nil
}
