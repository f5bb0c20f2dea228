// Package outbound defines the interfaces for outbound ports (secondary/driven adapters)
// These are the interfaces that the application uses to interact with external systems
package outbound

import (
	"context"

	"github.com/econutri/tracker/internal/domain/recipe"
	"github.com/econutri/tracker/internal/domain/shared"
)

// RecipeRepository defines the interface for recipe persistence
type RecipeRepository interface {
	// Create stores a new recipe and records its assigned ID on the entity
	Create(ctx context.Context, recipe *recipe.Recipe) error

	// ListActive returns active recipes, newest (highest ID) first
	ListActive(ctx context.Context, offset, limit int) ([]*recipe.Recipe, error)

	// CountActive returns the number of active recipes
	CountActive(ctx context.Context) (int64, error)

	// Deactivate marks an active recipe inactive. It returns
	// recipe.ErrRecipeNotFound when no active recipe has the given ID.
	Deactivate(ctx context.Context, id int64) error
}

// IngredientRepository defines the interface for the ingredient catalog
type IngredientRepository interface {
	// SearchByName returns up to limit ingredients whose name contains
	// query, case-insensitively, ordered by name
	SearchByName(ctx context.Context, query string, limit int) ([]recipe.Ingredient, error)

	// SaveCatalog inserts ingredients that are not yet present by name and
	// returns how many were added
	SaveCatalog(ctx context.Context, ingredients []recipe.Ingredient) (int, error)

	// ListAll returns every stored ingredient with its ID, ordered by name
	ListAll(ctx context.Context) ([]recipe.Ingredient, error)
}

// EventPublisher receives domain events once the change that raised them
// has been committed
type EventPublisher interface {
	Publish(ctx context.Context, event shared.DomainEvent) error
}
