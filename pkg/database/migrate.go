package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrDirtySchema 上次迁移中途失败，需人工修复后执行 migrate force
var ErrDirtySchema = errors.New("数据库迁移处于 dirty 状态")

// migrator *migrate.Migrate 中启动流程用到的部分
type migrator interface {
	Up() error
	Version() (version uint, dirty bool, err error)
}

// RunMigrations 应用内嵌的全部未执行迁移；schema 为 dirty 时拒绝启动
func RunMigrations(db *sql.DB, logger *zap.Logger) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("加载迁移文件失败: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("创建迁移驱动失败: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("初始化迁移实例失败: %w", err)
	}

	return applyMigrations(m, logger)
}

func applyMigrations(m migrator, logger *zap.Logger) error {
	if _, err := currentVersion(m); err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		var dirty migrate.ErrDirty
		if errors.As(err, &dirty) {
			return fmt.Errorf("%w: version=%d", ErrDirtySchema, dirty.Version)
		}
		return fmt.Errorf("执行迁移失败: %w", err)
	}

	version, err := currentVersion(m)
	if err != nil {
		return err
	}
	logger.Info("数据库迁移完成", zap.Uint("version", version))
	return nil
}

// currentVersion 空库返回 0
func currentVersion(m migrator) (uint, error) {
	version, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		return 0, nil
	case err != nil:
		return 0, fmt.Errorf("读取迁移版本失败: %w", err)
	case dirty:
		return version, fmt.Errorf("%w: version=%d", ErrDirtySchema, version)
	}
	return version, nil
}
