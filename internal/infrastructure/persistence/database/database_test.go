package database

import (
	"path/filepath"
	"testing"

	"github.com/econutri/tracker/internal/infrastructure/config"
	"github.com/econutri/tracker/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func sqliteConfig(path string) config.DatabaseConfig {
	cfg := config.Default().Database
	cfg.Driver = "sqlite"
	cfg.Path = path
	cfg.LogLevel = "silent"
	return cfg
}

func TestOpen_SQLiteMemory(t *testing.T) {
	db, err := Open(sqliteConfig(":memory:"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	require.NoError(t, db.Exec("CREATE TABLE probe (id INTEGER)").Error)
	require.NoError(t, db.Exec("INSERT INTO probe VALUES (1)").Error)

	var count int64
	require.NoError(t, db.Raw("SELECT COUNT(*) FROM probe").Scan(&count).Error)
	assert.Equal(t, int64(1), count)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestOpen_SQLiteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "econutri.db")

	db, err := Open(sqliteConfig(path), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, db.Exec("CREATE TABLE probe (id INTEGER)").Error)
	require.NoError(t, Close(db))

	reopened, err := Open(sqliteConfig(path), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(reopened) })

	assert.True(t, reopened.Migrator().HasTable("probe"))
}

func TestOpen_FailureIsGenericForUsers(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	path := filepath.Join(t.TempDir(), "missing", "dir", "econutri.db")

	db, err := Open(sqliteConfig(path), zap.New(core))

	require.Error(t, err)
	assert.Nil(t, db)
	assert.True(t, errors.Is(err, errors.CodeServiceUnavailable))

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, connectMessage, appErr.Message)
	assert.NotContains(t, appErr.Message, path)
	assert.NotZero(t, logs.Len(), "connection details should be logged")
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	cfg := sqliteConfig(":memory:")
	cfg.Driver = "oracle"

	_, err := Open(cfg, zap.NewNop())

	assert.True(t, errors.Is(err, errors.CodeServiceUnavailable))
}
