// Package database opens the relational store behind the recipe catalog.
// SQLite is used for local development and tests, PostgreSQL (with optional
// read replicas) in deployed environments.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/econutri/tracker/internal/infrastructure/config"
	"github.com/econutri/tracker/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// connectMessage is shown to users when the store cannot be reached.
// Connection details only go to the logs.
const connectMessage = "No se pudo conectar con la base de datos."

const pingTimeout = 10 * time.Second

// Open connects to the configured database and verifies the connection
func Open(cfg config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	log = log.Named("database")

	var (
		db  *gorm.DB
		err error
	)
	switch cfg.Driver {
	case "sqlite":
		db, err = openSQLite(cfg, log)
	case "postgres":
		db, err = openPostgres(cfg, log)
	default:
		err = fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	if err != nil {
		log.Error("Failed to connect to database",
			zap.String("driver", cfg.Driver),
			zap.Error(err),
		)
		return nil, errors.NewServiceUnavailableError(connectMessage, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.NewServiceUnavailableError(connectMessage, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		log.Error("Failed to ping database",
			zap.String("driver", cfg.Driver),
			zap.Error(err),
		)
		_ = sqlDB.Close()
		return nil, errors.NewServiceUnavailableError(connectMessage, err)
	}

	log.Info("Database connection established",
		zap.String("driver", cfg.Driver),
		zap.Int("read_replicas", len(cfg.ReadReplicas)),
	)

	return db, nil
}

// Close releases the underlying connection pool
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// gormConfig builds the shared gorm options
func gormConfig(cfg config.DatabaseConfig, log *zap.Logger) *gorm.Config {
	return &gorm.Config{
		Logger:                 newGORMLogger(cfg, log),
		SkipDefaultTransaction: true,
	}
}

// newGORMLogger routes gorm's query log through zap
func newGORMLogger(cfg config.DatabaseConfig, log *zap.Logger) logger.Interface {
	logLevel := logger.Silent
	switch cfg.LogLevel {
	case "debug", "info":
		logLevel = logger.Info
	case "warn":
		logLevel = logger.Warn
	case "error":
		logLevel = logger.Error
	}

	return logger.New(
		&gormLogWriter{logger: log.Named("gorm")},
		logger.Config{
			SlowThreshold:             cfg.SlowQueryThreshold,
			LogLevel:                  logLevel,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}

// gormLogWriter adapts zap to gorm's logger.Writer
type gormLogWriter struct {
	logger *zap.Logger
}

// Printf implements logger.Writer
func (w *gormLogWriter) Printf(format string, args ...interface{}) {
	w.logger.Info(fmt.Sprintf(format, args...))
}
