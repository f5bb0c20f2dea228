// Package recipe contains the core domain logic of the sustainable recipe catalog.
package recipe

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/econutri/tracker/internal/domain/shared"
)

// Field limits of a recipe.
const (
	MinTitleLength       = 5
	MaxTitleLength       = 255
	MaxDescriptionLength = 2000
	MaxIngredientsBytes  = 64 * 1024

	// EmptyIngredients is stored when a recipe is saved without ingredients.
	EmptyIngredients = "[]"
)

// Recipe represents a catalog entry. Recipes are never physically deleted;
// deactivated recipes simply stop being listed.
type Recipe struct {
	id int64

	title       string
	description string
	// ingredientsData is the opaque ingredient payload produced by the
	// client-side picker. It is stored verbatim.
	ingredientsData string

	score     SustainabilityScore
	active    bool
	createdAt time.Time

	// Domain events to be dispatched
	events []shared.DomainEvent
}

// NewRecipe creates a new active Recipe with validation.
// Title and description are trimmed before being checked.
func NewRecipe(title, description, ingredientsData string, score SustainabilityScore) (*Recipe, error) {
	title = sanitize(title)
	description = sanitize(description)
	ingredientsData = strings.TrimSpace(ingredientsData)

	if err := validateTitle(title); err != nil {
		return nil, err
	}

	if err := validateDescription(description); err != nil {
		return nil, err
	}

	if ingredientsData == "" {
		ingredientsData = EmptyIngredients
	}
	if len(ingredientsData) > MaxIngredientsBytes {
		return nil, ErrIngredientsTooLarge
	}

	if !score.Valid() {
		return nil, ErrScoreOutOfRange
	}

	return &Recipe{
		title:           title,
		description:     description,
		ingredientsData: ingredientsData,
		score:           score,
		active:          true,
		createdAt:       time.Now().UTC(),
	}, nil
}

// Rehydrate rebuilds a persisted Recipe without re-running creation rules.
func Rehydrate(id int64, title, description, ingredientsData string, score SustainabilityScore, active bool, createdAt time.Time) *Recipe {
	return &Recipe{
		id:              id,
		title:           title,
		description:     description,
		ingredientsData: ingredientsData,
		score:           score,
		active:          active,
		createdAt:       createdAt,
	}
}

// ID returns the storage-assigned identifier, 0 before the first save.
func (r *Recipe) ID() int64 {
	return r.id
}

// Title returns the recipe title
func (r *Recipe) Title() string {
	return r.title
}

// Description returns the recipe description
func (r *Recipe) Description() string {
	return r.description
}

// IngredientsData returns the raw ingredient payload
func (r *Recipe) IngredientsData() string {
	return r.ingredientsData
}

// Ingredients decodes the ingredient payload for display.
func (r *Recipe) Ingredients() []RecipeIngredient {
	return ParseIngredients(r.ingredientsData)
}

// Score returns the sustainability score
func (r *Recipe) Score() SustainabilityScore {
	return r.score
}

// IsActive reports whether the recipe is listed
func (r *Recipe) IsActive() bool {
	return r.active
}

// CreatedAt returns the creation time
func (r *Recipe) CreatedAt() time.Time {
	return r.createdAt
}

// Persisted records the identifier assigned by storage and raises the
// creation event.
func (r *Recipe) Persisted(id int64) {
	r.id = id
	r.addEvent(RecipeCreatedEvent{
		RecipeID:  id,
		Title:     r.title,
		Score:     r.score,
		CreatedAt: r.createdAt,
	})
}

// Deactivate hides the recipe from listings.
func (r *Recipe) Deactivate() error {
	if !r.active {
		return ErrRecipeAlreadyInactive
	}

	r.active = false
	r.addEvent(RecipeDeactivatedEvent{
		RecipeID:      r.id,
		DeactivatedAt: time.Now().UTC(),
	})

	return nil
}

// addEvent adds a domain event to be dispatched
func (r *Recipe) addEvent(event shared.DomainEvent) {
	r.events = append(r.events, event)
}

// Events returns and clears pending domain events
func (r *Recipe) Events() []shared.DomainEvent {
	events := r.events
	r.events = []shared.DomainEvent{}
	return events
}

// sanitize trims the value and drops control characters other than
// newlines and tabs.
func sanitize(value string) string {
	value = strings.TrimSpace(value)
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			return -1
		}
		return r
	}, value)
}

// validateTitle validates recipe title
func validateTitle(title string) error {
	n := utf8.RuneCountInString(title)
	if n == 0 {
		return ErrTitleRequired
	}
	if n < MinTitleLength {
		return ErrTitleTooShort
	}
	if n > MaxTitleLength {
		return ErrTitleTooLong
	}
	return nil
}

// validateDescription validates recipe description
func validateDescription(description string) error {
	n := utf8.RuneCountInString(description)
	if n == 0 {
		return ErrDescriptionRequired
	}
	if n > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	return nil
}
