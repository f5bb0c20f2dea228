package database

import (
	"fmt"

	"github.com/econutri/tracker/internal/infrastructure/config"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"
)

// openPostgres opens the primary and registers read replicas. Listing and
// ingredient search queries are routed to replicas by dbresolver; writes
// always go to the primary.
func openPostgres(cfg config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN(cfg.Host)), gormConfig(cfg, log))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if len(cfg.ReadReplicas) == 0 {
		return db, nil
	}

	replicas := make([]gorm.Dialector, len(cfg.ReadReplicas))
	for i, replica := range cfg.ReadReplicas {
		replicas[i] = postgres.Open(cfg.DSN(replica))
	}

	err = db.Use(dbresolver.Register(dbresolver.Config{
		Replicas: replicas,
		Policy:   dbresolver.RandomPolicy{},
	}).
		SetMaxOpenConns(cfg.MaxOpenConns).
		SetMaxIdleConns(cfg.MaxIdleConns).
		SetConnMaxLifetime(cfg.ConnMaxLifetime).
		SetConnMaxIdleTime(cfg.ConnMaxIdleTime))
	if err != nil {
		return nil, fmt.Errorf("failed to register read replicas: %w", err)
	}

	log.Info("Read replicas configured", zap.Int("replica_count", len(replicas)))

	return db, nil
}
