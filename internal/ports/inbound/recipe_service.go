// Package inbound defines the interfaces for inbound ports (primary/driving adapters)
// These are the interfaces that the application exposes to the outside world
package inbound

import (
	"context"
	"time"

	"github.com/econutri/tracker/internal/domain/recipe"
	"github.com/econutri/tracker/pkg/pagination"
)

// RecipeService defines the use cases of the recipe catalog
// This is the primary port that HTTP handlers and other driving adapters will use
type RecipeService interface {
	// Commands - operations that modify state
	CreateRecipe(ctx context.Context, cmd CreateRecipeCommand) (*RecipeDTO, error)
	DeleteRecipe(ctx context.Context, recipeID int64) error

	// Queries - operations that read state. Storage failures are logged and
	// degrade to empty results.
	ListRecipes(ctx context.Context, query ListRecipesQuery) *RecipeList
	SearchIngredients(ctx context.Context, query string) []IngredientDTO
}

// Command objects for operations

// CreateRecipeCommand contains data for creating a new recipe
type CreateRecipeCommand struct {
	Title           string
	Description     string
	IngredientsData string
}

// Query objects

// ListRecipesQuery selects a page of active recipes. Page is the raw,
// unvalidated page parameter.
type ListRecipesQuery struct {
	Page string
}

// DTOs

// RecipeDTO is the read model of a recipe
type RecipeDTO struct {
	ID              int64
	Title           string
	Description     string
	IngredientsData string
	Ingredients     []recipe.RecipeIngredient
	Score           int
	Grade           string
	CreatedAt       time.Time
}

// RecipeList is one page of the active recipe listing
type RecipeList struct {
	Recipes    []RecipeDTO
	Pagination pagination.Page
}

// IngredientDTO is a catalog match returned by ingredient search
type IngredientDTO struct {
	ID              int64   `json:"id"`
	Name            string  `json:"nombre"`
	CarbonFootprint float64 `json:"huella_carbono"`
}
