// Package container provides dependency injection using Uber FX
package container

import (
	"context"
	"fmt"
	"time"

	recipeapp "github.com/econutri/tracker/internal/application/recipe"
	"github.com/econutri/tracker/internal/domain/recipe"
	"github.com/econutri/tracker/internal/infrastructure/config"
	"github.com/econutri/tracker/internal/infrastructure/http/middleware"
	"github.com/econutri/tracker/internal/infrastructure/http/webserver"
	"github.com/econutri/tracker/internal/infrastructure/monitoring"
	"github.com/econutri/tracker/internal/infrastructure/persistence/database"
	gormRepo "github.com/econutri/tracker/internal/infrastructure/persistence/gorm"
	"github.com/econutri/tracker/internal/infrastructure/persistence/migrations"
	"github.com/econutri/tracker/internal/infrastructure/persistence/seed"
	"github.com/econutri/tracker/internal/infrastructure/session"
	"github.com/econutri/tracker/internal/ports/inbound"
	"github.com/econutri/tracker/internal/ports/outbound"
	"github.com/econutri/tracker/pkg/healthcheck"
	"github.com/econutri/tracker/pkg/logger"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// demoSeedWorkers bounds concurrent inserts of the startup demo seed
const demoSeedWorkers = 4

// Module provides all dependency injection modules
var Module = fx.Options(
	// Infrastructure modules
	LoggerModule,
	DatabaseModule,
	MonitoringModule,

	// Repository modules
	RepositoryModule,

	// Service modules
	ServiceModule,
	SessionModule,

	// HTTP modules
	HTTPModule,

	// Lifecycle hooks
	LifecycleModule,
)

// ConfigModule loads configuration from path (empty for the default search
// paths)
func ConfigModule(path string) fx.Option {
	return fx.Provide(func() (*config.Config, error) {
		return config.Load(path)
	})
}

// LoggerModule provides logging
var LoggerModule = fx.Provide(
	func(cfg *config.Config) (*zap.Logger, error) {
		return logger.New(logger.Config{
			Level:       cfg.App.LogLevel,
			Format:      cfg.App.LogFormat,
			Development: cfg.App.Debug,
		})
	},
)

// DatabaseModule provides the database connection pool
var DatabaseModule = fx.Provide(
	func(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
		db, err := database.Open(cfg.Database, log)
		if err != nil {
			return nil, err
		}

		lc.Append(fx.Hook{
			OnStop: func(context.Context) error {
				log.Info("Closing database connection")
				return database.Close(db)
			},
		})

		return db, nil
	},
)

// MonitoringModule provides metrics and tracing
var MonitoringModule = fx.Provide(
	monitoring.NewMetricsCollector,

	// Recipe events feed the business counters
	func(m *monitoring.MetricsCollector) outbound.EventPublisher {
		return m
	},

	func(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*monitoring.TracingProvider, error) {
		tp, err := monitoring.NewTracingProvider(cfg, log)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{OnStop: tp.Shutdown})
		return tp, nil
	},
)

// RepositoryModule provides repository implementations
var RepositoryModule = fx.Provide(
	fx.Annotate(
		gormRepo.NewRecipeRepository,
		fx.As(new(outbound.RecipeRepository)),
	),
	fx.Annotate(
		gormRepo.NewIngredientRepository,
		fx.As(new(outbound.IngredientRepository)),
	),
)

// ServiceModule provides application services
var ServiceModule = fx.Provide(
	func() recipe.Scorer {
		return recipe.NewRandomScorer()
	},
	fx.Annotate(
		recipeapp.NewRecipeService,
		fx.As(new(inbound.RecipeService)),
	),
)

// SessionModule provides the visitor session store and manager
var SessionModule = fx.Provide(
	func(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (session.Store, error) {
		store, err := session.NewStore(cfg, log)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{
			OnStop: func(context.Context) error {
				return store.Close()
			},
		})
		return store, nil
	},
	func(store session.Store, cfg *config.Config, log *zap.Logger) *session.Manager {
		return session.NewManager(store, cfg.Session, log)
	},
)

// HTTPModule provides the web server and its collaborators
var HTTPModule = fx.Provide(
	func(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*webserver.Renderer, error) {
		var (
			r   *webserver.Renderer
			err error
		)
		if cfg.Server.TemplatesDir != "" {
			r, err = webserver.NewDirRenderer(cfg.Server.TemplatesDir, log)
		} else {
			r, err = webserver.NewRenderer(log)
		}
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{
			OnStop: func(context.Context) error {
				return r.Close()
			},
		})
		return r, nil
	},
	func(cfg *config.Config, log *zap.Logger) *healthcheck.HealthCheck {
		return healthcheck.New(cfg.App.Version, log)
	},
	NewWebServer,
)

// WebServerParams groups what the web server needs
type WebServerParams struct {
	fx.In

	Config   *config.Config
	Logger   *zap.Logger
	Service  inbound.RecipeService
	Sessions *session.Manager
	Renderer *webserver.Renderer
	Health   *healthcheck.HealthCheck
	Metrics  *monitoring.MetricsCollector
	Tracing  *monitoring.TracingProvider
}

// NewWebServer builds the web server, enabling optional features from config
func NewWebServer(p WebServerParams) (*webserver.WebServer, error) {
	opts := webserver.Options{Health: p.Health}

	if p.Config.Monitoring.EnableMetrics {
		opts.Metrics = p.Metrics
	}
	if p.Tracing.Enabled() {
		opts.Tracing = p.Tracing
	}
	if p.Config.RateLimit.Enabled {
		opts.Limiter = middleware.NewRateLimiter(p.Config.RateLimit, p.Logger)
	}

	return webserver.NewWebServer(p.Config, p.Logger, p.Service, p.Sessions, p.Renderer, opts)
}

// LifecycleModule provides lifecycle hooks
var LifecycleModule = fx.Invoke(
	RegisterHealthChecks,
	RegisterLifecycleHooks,
)

// RegisterHealthChecks wires dependency checks into the health endpoints
func RegisterHealthChecks(
	hc *healthcheck.HealthCheck,
	db *gorm.DB,
	store session.Store,
	metrics *monitoring.MetricsCollector,
	log *zap.Logger,
) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("access connection pool: %w", err)
	}

	hc.Register("database", healthcheck.NewDatabaseChecker(sqlDB))
	if rs, ok := store.(*session.RedisStore); ok {
		hc.Register("session_store", healthcheck.NewRedisChecker(rs.Client()))
	} else {
		hc.Register("session_store", healthcheck.PingChecker("session_store", store.Ping))
	}

	if err := metrics.RegisterDB(sqlDB, "catalog"); err != nil {
		log.Warn("Failed to register database pool metrics", zap.Error(err))
	}

	return nil
}

// RegisterLifecycleHooks prepares the schema and reference data, then runs
// the HTTP server
func RegisterLifecycleHooks(
	lc fx.Lifecycle,
	cfg *config.Config,
	log *zap.Logger,
	db *gorm.DB,
	recipes outbound.RecipeRepository,
	ingredients outbound.IngredientRepository,
	server *webserver.WebServer,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting Eco-Nutri",
				zap.String("version", cfg.App.Version),
				zap.String("environment", cfg.App.Environment),
			)

			if err := PrepareSchema(cfg, db, log); err != nil {
				return err
			}

			seeder := seed.NewSeeder(recipes, ingredients, time.Now().UnixNano(), log)
			if _, err := seeder.SeedCatalog(ctx); err != nil {
				return fmt.Errorf("seed ingredient catalog: %w", err)
			}

			if cfg.Database.SeedDemo {
				count, err := recipes.CountActive(ctx)
				if err != nil {
					return fmt.Errorf("count recipes: %w", err)
				}
				if count == 0 {
					if _, err := seeder.SeedRecipes(ctx, seed.DefaultRecipeCount, demoSeedWorkers); err != nil {
						log.Warn("Demo seed incomplete", zap.Error(err))
					}
				}
			}

			return server.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			return server.Shutdown(ctx)
		},
	})
}

// PrepareSchema brings the schema up to date. In-memory SQLite and
// auto_migrate use the model definitions; everything else runs the
// versioned migrations on a dedicated connection, which the migrator
// closes when done.
func PrepareSchema(cfg *config.Config, db *gorm.DB, log *zap.Logger) error {
	if cfg.Database.AutoMigrate || isMemorySQLite(cfg.Database) {
		log.Info("Migrating schema from models")
		return gormRepo.AutoMigrate(db)
	}

	m, err := NewMigrator(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Warn("Failed to close migrator", zap.Error(err))
		}
	}()

	return m.Up()
}

// NewMigrator opens a dedicated connection and wraps it in a migrator.
// Closing the migrator closes the connection.
func NewMigrator(cfg *config.Config, log *zap.Logger) (*migrations.Migrator, error) {
	db, err := database.Open(cfg.Database, log)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("access connection pool: %w", err)
	}

	m, err := migrations.New(sqlDB, cfg.Database.Driver, cfg.Database.Database, log)
	if err != nil {
		_ = database.Close(db)
		return nil, err
	}
	return m, nil
}

func isMemorySQLite(cfg config.DatabaseConfig) bool {
	return cfg.Driver == "sqlite" && (cfg.Path == ":memory:" || cfg.Path == "")
}
