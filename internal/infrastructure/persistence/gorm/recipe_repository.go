// Package gorm provides GORM-based repository implementations
package gorm

import (
	"context"
	"fmt"

	"github.com/econutri/tracker/internal/domain/recipe"
	"gorm.io/gorm"
)

// RecipeRepository implements the recipe repository interface using GORM
type RecipeRepository struct {
	db *gorm.DB
}

// NewRecipeRepository creates a new recipe repository
func NewRecipeRepository(db *gorm.DB) *RecipeRepository {
	return &RecipeRepository{db: db}
}

// Create inserts a new recipe and hands the generated ID back to the entity
func (r *RecipeRepository) Create(ctx context.Context, entity *recipe.Recipe) error {
	model := RecipeToModel(entity)

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("insert recipe: %w", err)
	}

	entity.Persisted(model.ID)
	return nil
}

// ListActive returns a page of active recipes ordered by descending ID
func (r *RecipeRepository) ListActive(ctx context.Context, offset, limit int) ([]*recipe.Recipe, error) {
	var models []RecipeModel

	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("list active recipes: %w", err)
	}

	recipes := make([]*recipe.Recipe, 0, len(models))
	for i := range models {
		recipes = append(recipes, ModelToRecipe(&models[i]))
	}

	return recipes, nil
}

// CountActive counts active recipes
func (r *RecipeRepository) CountActive(ctx context.Context) (int64, error) {
	var total int64

	err := r.db.WithContext(ctx).
		Model(&RecipeModel{}).
		Where("is_active = ?", true).
		Count(&total).Error
	if err != nil {
		return 0, fmt.Errorf("count active recipes: %w", err)
	}

	return total, nil
}

// Deactivate flips is_active on an active recipe. Inactive and unknown IDs
// both report recipe.ErrRecipeNotFound.
func (r *RecipeRepository) Deactivate(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).
		Model(&RecipeModel{}).
		Where("id = ? AND is_active = ?", id, true).
		Update("is_active", false)
	if result.Error != nil {
		return fmt.Errorf("deactivate recipe %d: %w", id, result.Error)
	}

	if result.RowsAffected == 0 {
		return recipe.ErrRecipeNotFound
	}

	return nil
}
