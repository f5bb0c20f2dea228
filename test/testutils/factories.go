// Package testutils provides test data factories for consistent test data generation
package testutils

import (
	"encoding/json"
	"fmt"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/econutri/tracker/internal/domain/recipe"
)

// RecipeFactory provides methods to create test recipes
type RecipeFactory struct {
	faker *gofakeit.Faker
}

// NewRecipeFactory creates a new recipe factory with seeded faker
func NewRecipeFactory(seed int64) *RecipeFactory {
	return &RecipeFactory{
		faker: gofakeit.New(seed),
	}
}

// Recipe builds a valid, unsaved recipe
func (f *RecipeFactory) Recipe() *recipe.Recipe {
	return f.Builder().Build()
}

// Recipes builds n valid, unsaved recipes
func (f *RecipeFactory) Recipes(n int) []*recipe.Recipe {
	recipes := make([]*recipe.Recipe, n)
	for i := range recipes {
		recipes[i] = f.Recipe()
	}
	return recipes
}

// Builder starts a fluent recipe with random valid defaults
func (f *RecipeFactory) Builder() *RecipeBuilder {
	return &RecipeBuilder{
		title:       fmt.Sprintf("%s %s", f.faker.Dessert(), f.faker.Word()),
		description: f.faker.Paragraph(1, 3, 8, " "),
		ingredients: f.IngredientsPayload(3),
		score:       recipe.SustainabilityScore(f.faker.IntRange(6, 10)),
	}
}

// Ingredient builds a catalog ingredient with a unique-looking name
func (f *RecipeFactory) Ingredient() recipe.Ingredient {
	return recipe.Ingredient{
		Name:            fmt.Sprintf("%s %s", f.faker.Vegetable(), f.faker.LetterN(4)),
		CarbonFootprint: f.faker.Float64Range(0.1, 30),
	}
}

// IngredientsPayload builds a picker payload with n entries
func (f *RecipeFactory) IngredientsPayload(n int) string {
	items := make([]recipe.RecipeIngredient, n)
	for i := range items {
		items[i] = recipe.RecipeIngredient{
			ID:              int64(i + 1),
			Name:            f.faker.Vegetable(),
			CarbonFootprint: f.faker.Float64Range(0.1, 5),
			Grams:           float64(f.faker.IntRange(10, 500)),
		}
	}

	data, err := json.Marshal(items)
	if err != nil {
		panic(err)
	}
	return string(data)
}

// RecipeBuilder provides a fluent interface for building test recipes
type RecipeBuilder struct {
	title       string
	description string
	ingredients string
	score       recipe.SustainabilityScore
	inactive    bool
}

// WithTitle sets the recipe title
func (rb *RecipeBuilder) WithTitle(title string) *RecipeBuilder {
	rb.title = title
	return rb
}

// WithDescription sets the recipe description
func (rb *RecipeBuilder) WithDescription(description string) *RecipeBuilder {
	rb.description = description
	return rb
}

// WithIngredients sets the raw ingredient payload
func (rb *RecipeBuilder) WithIngredients(data string) *RecipeBuilder {
	rb.ingredients = data
	return rb
}

// WithScore sets the sustainability score
func (rb *RecipeBuilder) WithScore(score int) *RecipeBuilder {
	rb.score = recipe.SustainabilityScore(score)
	return rb
}

// Inactive builds the recipe already deactivated
func (rb *RecipeBuilder) Inactive() *RecipeBuilder {
	rb.inactive = true
	return rb
}

// Build creates the recipe, panicking on invalid input
func (rb *RecipeBuilder) Build() *recipe.Recipe {
	r, err := recipe.NewRecipe(rb.title, rb.description, rb.ingredients, rb.score)
	if err != nil {
		panic(fmt.Sprintf("invalid test recipe %q: %v", rb.title, err))
	}

	if rb.inactive {
		if err := r.Deactivate(); err != nil {
			panic(err)
		}
		r.Events()
	}

	return r
}
