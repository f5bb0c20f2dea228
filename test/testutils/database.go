// Package testutils provides common testing utilities and infrastructure setup
package testutils

import (
	"context"
	"testing"

	"github.com/econutri/tracker/internal/domain/recipe"
	"github.com/econutri/tracker/internal/infrastructure/config"
	"github.com/econutri/tracker/internal/infrastructure/persistence/database"
	gormrepo "github.com/econutri/tracker/internal/infrastructure/persistence/gorm"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TestDatabase wraps a migrated in-memory SQLite database and the
// repositories built on it
type TestDatabase struct {
	DB          *gorm.DB
	Recipes     *gormrepo.RecipeRepository
	Ingredients *gormrepo.IngredientRepository
	t           testing.TB
}

// SQLiteConfig returns a database configuration for a private in-memory store
func SQLiteConfig() config.DatabaseConfig {
	cfg := config.Default().Database
	cfg.Driver = "sqlite"
	cfg.Path = ":memory:"
	cfg.LogLevel = "silent"
	return cfg
}

// SetupTestDatabase opens a fresh in-memory SQLite database with the
// catalog schema. It is closed when the test ends.
func SetupTestDatabase(t testing.TB) *TestDatabase {
	t.Helper()

	db, err := database.Open(SQLiteConfig(), zap.NewNop())
	require.NoError(t, err, "Failed to open test database")

	require.NoError(t, gormrepo.AutoMigrate(db), "Failed to migrate test database")

	t.Cleanup(func() {
		_ = database.Close(db)
	})

	return &TestDatabase{
		DB:          db,
		Recipes:     gormrepo.NewRecipeRepository(db),
		Ingredients: gormrepo.NewIngredientRepository(db),
		t:           t,
	}
}

// InsertRecipes stores the given recipes in order, so later entries get
// higher IDs
func (td *TestDatabase) InsertRecipes(recipes ...*recipe.Recipe) {
	td.t.Helper()

	for _, r := range recipes {
		require.NoError(td.t, td.Recipes.Create(context.Background(), r))
	}
}

// InsertIngredients stores catalog entries
func (td *TestDatabase) InsertIngredients(ingredients ...recipe.Ingredient) {
	td.t.Helper()

	_, err := td.Ingredients.SaveCatalog(context.Background(), ingredients)
	require.NoError(td.t, err)
}

// CountRows returns the number of rows in table
func (td *TestDatabase) CountRows(table string) int64 {
	td.t.Helper()

	var count int64
	require.NoError(td.t, td.DB.Table(table).Count(&count).Error)
	return count
}

// IsActive reports the stored is_active flag of a recipe
func (td *TestDatabase) IsActive(id int64) bool {
	td.t.Helper()

	var model gormrepo.RecipeModel
	require.NoError(td.t, td.DB.First(&model, id).Error)
	return model.IsActive
}
