package recipe

import "time"

// Domain Events - Events that occur within the recipe domain

// RecipeCreatedEvent is raised once a new recipe has been stored
type RecipeCreatedEvent struct {
	RecipeID  int64
	Title     string
	Score     SustainabilityScore
	CreatedAt time.Time
}

func (e RecipeCreatedEvent) EventName() string {
	return "recipe.created"
}

func (e RecipeCreatedEvent) OccurredAt() time.Time {
	return e.CreatedAt
}

// RecipeDeactivatedEvent is raised when a recipe stops being listed
type RecipeDeactivatedEvent struct {
	RecipeID      int64
	DeactivatedAt time.Time
}

func (e RecipeDeactivatedEvent) EventName() string {
	return "recipe.deactivated"
}

func (e RecipeDeactivatedEvent) OccurredAt() time.Time {
	return e.DeactivatedAt
}
