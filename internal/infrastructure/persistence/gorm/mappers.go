// Package gorm provides mapping between domain entities and GORM models
package gorm

import (
	"github.com/econutri/tracker/internal/domain/recipe"
)

// RecipeToModel converts a domain recipe to a GORM model
func RecipeToModel(r *recipe.Recipe) *RecipeModel {
	return &RecipeModel{
		ID:              r.ID(),
		Title:           r.Title(),
		Description:     r.Description(),
		IngredientsData: r.IngredientsData(),
		Score:           r.Score().Int(),
		IsActive:        r.IsActive(),
		CreatedAt:       r.CreatedAt(),
	}
}

// ModelToRecipe converts a GORM model to a domain recipe
func ModelToRecipe(m *RecipeModel) *recipe.Recipe {
	return recipe.Rehydrate(
		m.ID,
		m.Title,
		m.Description,
		m.IngredientsData,
		recipe.SustainabilityScore(m.Score),
		m.IsActive,
		m.CreatedAt,
	)
}

// IngredientToModel converts a catalog ingredient to a GORM model
func IngredientToModel(i recipe.Ingredient) *IngredientModel {
	return &IngredientModel{
		ID:              i.ID,
		Name:            i.Name,
		CarbonFootprint: i.CarbonFootprint,
	}
}

// ModelToIngredient converts a GORM model to a catalog ingredient
func ModelToIngredient(m *IngredientModel) recipe.Ingredient {
	return recipe.Ingredient{
		ID:              m.ID,
		Name:            m.Name,
		CarbonFootprint: m.CarbonFootprint,
	}
}
