package gorm

import (
	"context"
	"fmt"
	"strings"

	"github.com/econutri/tracker/internal/domain/recipe"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// likeEscaper escapes LIKE wildcards so user input matches literally
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// IngredientRepository implements the ingredient catalog using GORM
type IngredientRepository struct {
	db *gorm.DB
}

// NewIngredientRepository creates a new ingredient repository
func NewIngredientRepository(db *gorm.DB) *IngredientRepository {
	return &IngredientRepository{db: db}
}

// SearchByName finds ingredients whose name contains query, ignoring case
func (r *IngredientRepository) SearchByName(ctx context.Context, query string, limit int) ([]recipe.Ingredient, error) {
	var models []IngredientModel

	pattern := "%" + likeEscaper.Replace(strings.ToLower(query)) + "%"

	err := r.db.WithContext(ctx).
		Where(`LOWER(nombre) LIKE ? ESCAPE '\'`, pattern).
		Order("nombre ASC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("search ingredients: %w", err)
	}

	ingredients := make([]recipe.Ingredient, 0, len(models))
	for i := range models {
		ingredients = append(ingredients, ModelToIngredient(&models[i]))
	}

	return ingredients, nil
}

// ListAll returns the whole catalog
func (r *IngredientRepository) ListAll(ctx context.Context) ([]recipe.Ingredient, error) {
	var models []IngredientModel
	if err := r.db.WithContext(ctx).Order("nombre ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("list ingredients: %w", err)
	}

	ingredients := make([]recipe.Ingredient, 0, len(models))
	for i := range models {
		ingredients = append(ingredients, ModelToIngredient(&models[i]))
	}
	return ingredients, nil
}

// SaveCatalog inserts the given ingredients, skipping names already stored
func (r *IngredientRepository) SaveCatalog(ctx context.Context, ingredients []recipe.Ingredient) (int, error) {
	if len(ingredients) == 0 {
		return 0, nil
	}

	models := make([]*IngredientModel, 0, len(ingredients))
	for _, ing := range ingredients {
		if err := ing.Validate(); err != nil {
			return 0, fmt.Errorf("ingredient %q: %w", ing.Name, err)
		}
		model := IngredientToModel(ing)
		model.ID = 0
		models = append(models, model)
	}

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "nombre"}},
			DoNothing: true,
		}).
		Create(&models)
	if result.Error != nil {
		return 0, fmt.Errorf("save ingredient catalog: %w", result.Error)
	}

	return int(result.RowsAffected), nil
}
