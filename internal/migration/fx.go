package migration

import (
	"strings"

	"github.com/smallbiznis/utilibill/internal/config"
	"github.com/smallbiznis/utilibill/internal/seed"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, log *zap.Logger) error {
		if strings.EqualFold(strings.TrimSpace(cfg.DBType), "postgres") {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else if err := AutoMigrate(conn); err != nil {
			return err
		}
		log.Info("schema ready", zap.String("db_type", cfg.DBType))

		if err := seed.EnsureUtilityTypes(conn); err != nil {
			return err
		}
		if cfg.Bootstrap.EnsureDefaultAdmin {
			return seed.EnsureDefaultAdmin(conn, cfg.Bootstrap.AdminUsername, cfg.Bootstrap.AdminPassword)
		}
		return nil
	}),
)
