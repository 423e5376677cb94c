package database

import (
	"context"

	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/yukikm/subly/config"
	"github.com/yukikm/subly/internal/domain"
	"github.com/yukikm/subly/internal/repository/memory"
	pgrepo "github.com/yukikm/subly/internal/repository/postgres"
)

// Module provides the transactional store selected by DATABASE_DRIVER
var Module = fx.Module("database",
	fx.Provide(NewStore),
)

// NewStore opens the configured backend and registers its shutdown hook
func NewStore(lc fx.Lifecycle, cfg *config.DatabaseConfig, log zerolog.Logger) (domain.Store, error) {
	if cfg.Driver == "memory" {
		log.Warn().Msg("using in-memory store, state is lost on restart")
		return memory.NewStore(), nil
	}

	db, err := NewPostgresDB(cfg)
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(db, cfg); err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("closing database connection...")
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})

	log.Info().
		Str("host", cfg.Host).
		Str("port", cfg.Port).
		Str("database", cfg.DBName).
		Msg("database connected and migrations completed")

	return pgrepo.NewStore(db), nil
}
