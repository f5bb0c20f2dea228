// Package testutils provides mock implementations for testing
package testutils

import (
	"context"
	"sync"

	"github.com/econutri/tracker/internal/domain/recipe"
	"github.com/econutri/tracker/internal/domain/shared"
	"github.com/econutri/tracker/internal/ports/inbound"
	"github.com/stretchr/testify/mock"
)

// MockRecipeRepository provides a mock implementation of RecipeRepository
type MockRecipeRepository struct {
	mock.Mock
	nextID int64
	mu     sync.Mutex
}

// NewMockRecipeRepository creates a new mock recipe repository
func NewMockRecipeRepository() *MockRecipeRepository {
	return &MockRecipeRepository{}
}

// Create stores a recipe, assigning sequential IDs on success
func (m *MockRecipeRepository) Create(ctx context.Context, r *recipe.Recipe) error {
	args := m.Called(ctx, r)

	if args.Error(0) == nil {
		m.mu.Lock()
		m.nextID++
		id := m.nextID
		m.mu.Unlock()
		r.Persisted(id)
	}

	return args.Error(0)
}

// ListActive lists active recipes
func (m *MockRecipeRepository) ListActive(ctx context.Context, offset, limit int) ([]*recipe.Recipe, error) {
	args := m.Called(ctx, offset, limit)

	if recipes, ok := args.Get(0).([]*recipe.Recipe); ok {
		return recipes, args.Error(1)
	}
	return nil, args.Error(1)
}

// CountActive counts active recipes
func (m *MockRecipeRepository) CountActive(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// Deactivate deactivates a recipe
func (m *MockRecipeRepository) Deactivate(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockIngredientRepository provides a mock implementation of IngredientRepository
type MockIngredientRepository struct {
	mock.Mock
}

// SearchByName searches the catalog
func (m *MockIngredientRepository) SearchByName(ctx context.Context, query string, limit int) ([]recipe.Ingredient, error) {
	args := m.Called(ctx, query, limit)

	if ingredients, ok := args.Get(0).([]recipe.Ingredient); ok {
		return ingredients, args.Error(1)
	}
	return nil, args.Error(1)
}

// SaveCatalog stores catalog entries
func (m *MockIngredientRepository) SaveCatalog(ctx context.Context, ingredients []recipe.Ingredient) (int, error) {
	args := m.Called(ctx, ingredients)
	return args.Int(0), args.Error(1)
}

// ListAll returns the stored catalog
func (m *MockIngredientRepository) ListAll(ctx context.Context) ([]recipe.Ingredient, error) {
	args := m.Called(ctx)

	if ingredients, ok := args.Get(0).([]recipe.Ingredient); ok {
		return ingredients, args.Error(1)
	}
	return nil, args.Error(1)
}

// MockEventPublisher records published domain events
type MockEventPublisher struct {
	mock.Mock
	events []shared.DomainEvent
	mu     sync.Mutex
}

// Publish records the event
func (m *MockEventPublisher) Publish(ctx context.Context, event shared.DomainEvent) error {
	args := m.Called(ctx, event)

	m.mu.Lock()
	m.events = append(m.events, event)
	m.mu.Unlock()

	return args.Error(0)
}

// Events returns every published event
func (m *MockEventPublisher) Events() []shared.DomainEvent {
	m.mu.Lock()
	defer m.mu.Unlock()

	events := make([]shared.DomainEvent, len(m.events))
	copy(events, m.events)
	return events
}

// EventNames returns the names of every published event, in order
func (m *MockEventPublisher) EventNames() []string {
	events := m.Events()
	names := make([]string, len(events))
	for i, event := range events {
		names[i] = event.EventName()
	}
	return names
}

// MockRecipeService provides a mock implementation of the inbound RecipeService
type MockRecipeService struct {
	mock.Mock
}

// CreateRecipe creates a recipe
func (m *MockRecipeService) CreateRecipe(ctx context.Context, cmd inbound.CreateRecipeCommand) (*inbound.RecipeDTO, error) {
	args := m.Called(ctx, cmd)

	if dto, ok := args.Get(0).(*inbound.RecipeDTO); ok {
		return dto, args.Error(1)
	}
	return nil, args.Error(1)
}

// DeleteRecipe deletes a recipe
func (m *MockRecipeService) DeleteRecipe(ctx context.Context, recipeID int64) error {
	args := m.Called(ctx, recipeID)
	return args.Error(0)
}

// ListRecipes lists recipes
func (m *MockRecipeService) ListRecipes(ctx context.Context, query inbound.ListRecipesQuery) *inbound.RecipeList {
	args := m.Called(ctx, query)
	return args.Get(0).(*inbound.RecipeList)
}

// SearchIngredients searches the ingredient catalog
func (m *MockRecipeService) SearchIngredients(ctx context.Context, query string) []inbound.IngredientDTO {
	args := m.Called(ctx, query)
	return args.Get(0).([]inbound.IngredientDTO)
}
