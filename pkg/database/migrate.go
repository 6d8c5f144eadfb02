package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MigrationsTable 迁移版本记录表，与其他服务共库时互不干扰
const MigrationsTable = "planner_schema_migrations"

// migrationNames 返回内嵌迁移的名称（去掉 .up.sql / .down.sql 后缀），按版本排序。
// 每个迁移必须同时提供 up 与 down 文件。
func migrationNames() ([]string, error) {
	files, err := fs.Glob(migrationsFS, "migrations/*.sql")
	if err != nil {
		return nil, err
	}
	ups := make(map[string]bool)
	downs := make(map[string]bool)
	for _, f := range files {
		base := strings.TrimPrefix(f, "migrations/")
		switch {
		case strings.HasSuffix(base, ".up.sql"):
			ups[strings.TrimSuffix(base, ".up.sql")] = true
		case strings.HasSuffix(base, ".down.sql"):
			downs[strings.TrimSuffix(base, ".down.sql")] = true
		default:
			return nil, fmt.Errorf("无法识别的迁移文件: %s", base)
		}
	}

	names := make([]string, 0, len(ups))
	for name := range ups {
		if !downs[name] {
			return nil, fmt.Errorf("迁移 %s 缺少 down 文件", name)
		}
		names = append(names, name)
	}
	for name := range downs {
		if !ups[name] {
			return nil, fmt.Errorf("迁移 %s 缺少 up 文件", name)
		}
	}
	if len(names) == 0 {
		return nil, errors.New("未找到迁移文件")
	}
	slices.Sort(names)
	return names, nil
}

// RunMigrations 执行目录、时间表与通知相关的建表迁移
func RunMigrations(db *sql.DB, logger *zap.Logger) error {
	names, err := migrationNames()
	if err != nil {
		return fmt.Errorf("校验迁移文件失败: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("加载迁移文件失败: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{MigrationsTable: MigrationsTable})
	if err != nil {
		return fmt.Errorf("创建迁移驱动失败: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("初始化迁移实例失败: %w", err)
	}

	from, _, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("读取迁移版本失败: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("执行迁移失败: %w", err)
	}

	to, dirty, _ := m.Version()
	fields := []zap.Field{
		zap.String("table", MigrationsTable),
		zap.Int("available", len(names)),
		zap.String("latest", names[len(names)-1]),
		zap.Uint("from_version", from),
		zap.Uint("version", to),
	}
	switch {
	case dirty:
		logger.Warn("数据库迁移处于 dirty 状态", fields...)
	case from == to:
		logger.Info("数据库结构已是最新", fields...)
	default:
		logger.Info("数据库迁移完成", fields...)
	}
	return nil
}
