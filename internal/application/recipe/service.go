// Package recipe provides the application layer for the recipe catalog
// This implements the use cases defined in the inbound ports
package recipe

import (
	"context"
	stderrors "errors"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/econutri/tracker/internal/domain/recipe"
	"github.com/econutri/tracker/internal/ports/inbound"
	"github.com/econutri/tracker/internal/ports/outbound"
	"github.com/econutri/tracker/pkg/errors"
	"github.com/econutri/tracker/pkg/pagination"
	"go.uber.org/zap"
)

const (
	// PageSize is the number of recipes per listing page
	PageSize = 5

	// MinSearchLength is the shortest ingredient query that hits storage
	MinSearchLength = 3

	// MaxSearchResults caps ingredient search responses
	MaxSearchResults = 10
)

// RecipeService implements the recipe use cases
type RecipeService struct {
	recipeRepo     outbound.RecipeRepository
	ingredientRepo outbound.IngredientRepository
	scorer         recipe.Scorer
	events         outbound.EventPublisher
	logger         *zap.Logger
}

// NewRecipeService creates a new recipe service
func NewRecipeService(
	recipeRepo outbound.RecipeRepository,
	ingredientRepo outbound.IngredientRepository,
	scorer recipe.Scorer,
	events outbound.EventPublisher,
	logger *zap.Logger,
) *RecipeService {
	return &RecipeService{
		recipeRepo:     recipeRepo,
		ingredientRepo: ingredientRepo,
		scorer:         scorer,
		events:         events,
		logger:         logger.Named("recipe-service"),
	}
}

var _ inbound.RecipeService = (*RecipeService)(nil)

// ListRecipes returns one page of active recipes, newest first.
// A failed count is treated as an empty catalog and a failed page query as
// an empty page; both are logged.
func (s *RecipeService) ListRecipes(ctx context.Context, query inbound.ListRecipesQuery) *inbound.RecipeList {
	total, err := s.recipeRepo.CountActive(ctx)
	if err != nil {
		s.logger.Error("Failed to count active recipes", zap.Error(err))
		total = 0
	}

	page := pagination.New(query.Page, PageSize, total)
	list := &inbound.RecipeList{
		Recipes:    []inbound.RecipeDTO{},
		Pagination: page,
	}

	if page.IsEmpty() {
		return list
	}

	recipes, err := s.recipeRepo.ListActive(ctx, page.Offset(), page.Limit())
	if err != nil {
		s.logger.Error("Failed to list active recipes",
			zap.Int("page", page.Current),
			zap.Error(err),
		)
		return list
	}

	for _, r := range recipes {
		list.Recipes = append(list.Recipes, s.entityToDTO(r))
	}

	return list
}

// CreateRecipe validates, scores and stores a new recipe
func (s *RecipeService) CreateRecipe(ctx context.Context, cmd inbound.CreateRecipeCommand) (*inbound.RecipeDTO, error) {
	score := s.scorer.Score(cmd.IngredientsData)

	recipeEntity, err := recipe.NewRecipe(cmd.Title, cmd.Description, cmd.IngredientsData, score)
	if err != nil {
		if recipe.IsValidationError(err) {
			return nil, errors.NewValidationError(err.Error()).WithCause(err)
		}
		return nil, errors.Wrap(err, "failed to create recipe entity")
	}

	if err := s.recipeRepo.Create(ctx, recipeEntity); err != nil {
		return nil, errors.NewDatabaseError("create recipe", err)
	}

	s.publishEvents(ctx, recipeEntity)

	s.logger.Info("Recipe created",
		zap.Int64("recipe_id", recipeEntity.ID()),
		zap.Int("score", recipeEntity.Score().Int()),
	)

	dto := s.entityToDTO(recipeEntity)
	return &dto, nil
}

// DeleteRecipe deactivates a recipe so it is no longer listed
func (s *RecipeService) DeleteRecipe(ctx context.Context, recipeID int64) error {
	if recipeID <= 0 {
		return errors.NewBadRequestError("invalid recipe id")
	}

	if err := s.recipeRepo.Deactivate(ctx, recipeID); err != nil {
		if stderrors.Is(err, recipe.ErrRecipeNotFound) {
			return errors.NewRecipeNotFoundError(strconv.FormatInt(recipeID, 10)).WithCause(err)
		}
		return errors.NewDatabaseError("deactivate recipe", err)
	}

	event := recipe.RecipeDeactivatedEvent{RecipeID: recipeID, DeactivatedAt: time.Now().UTC()}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish event", zap.String("event", event.EventName()), zap.Error(err))
	}

	s.logger.Info("Recipe deactivated", zap.Int64("recipe_id", recipeID))

	return nil
}

// SearchIngredients looks up catalog ingredients by name. Queries shorter
// than MinSearchLength characters and storage failures yield no matches.
func (s *RecipeService) SearchIngredients(ctx context.Context, query string) []inbound.IngredientDTO {
	results := []inbound.IngredientDTO{}

	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < MinSearchLength {
		return results
	}

	ingredients, err := s.ingredientRepo.SearchByName(ctx, query, MaxSearchResults)
	if err != nil {
		s.logger.Error("Failed to search ingredients",
			zap.String("query", query),
			zap.Error(err),
		)
		return results
	}

	for _, ing := range ingredients {
		results = append(results, inbound.IngredientDTO{
			ID:              ing.ID,
			Name:            ing.Name,
			CarbonFootprint: ing.CarbonFootprint,
		})
	}

	return results
}

// publishEvents dispatches pending domain events. Failures are logged and
// never undo the committed change.
func (s *RecipeService) publishEvents(ctx context.Context, r *recipe.Recipe) {
	for _, event := range r.Events() {
		if err := s.events.Publish(ctx, event); err != nil {
			s.logger.Warn("Failed to publish event",
				zap.String("event", event.EventName()),
				zap.Error(err),
			)
		}
	}
}

// entityToDTO converts a domain entity to its read model
func (s *RecipeService) entityToDTO(r *recipe.Recipe) inbound.RecipeDTO {
	return inbound.RecipeDTO{
		ID:              r.ID(),
		Title:           r.Title(),
		Description:     r.Description(),
		IngredientsData: r.IngredientsData(),
		Ingredients:     r.Ingredients(),
		Score:           r.Score().Int(),
		Grade:           r.Score().Grade(),
		CreatedAt:       r.CreatedAt(),
	}
}
