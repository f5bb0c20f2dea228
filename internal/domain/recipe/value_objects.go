package recipe

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

// Value Objects - Immutable objects that describe aspects of the domain

// Score bounds. Stored scores always lie in [MinScore, MaxScore].
const (
	MinScore = 0
	MaxScore = 10
)

// SustainabilityScore rates a recipe's environmental impact on a 0-10 scale.
type SustainabilityScore int

// NewSustainabilityScore validates a raw score
func NewSustainabilityScore(value int) (SustainabilityScore, error) {
	score := SustainabilityScore(value)
	if !score.Valid() {
		return 0, ErrScoreOutOfRange
	}
	return score, nil
}

// Valid reports whether the score lies within bounds
func (s SustainabilityScore) Valid() bool {
	return s >= MinScore && s <= MaxScore
}

// Int returns the score as a plain int
func (s SustainabilityScore) Int() int {
	return int(s)
}

// Grade buckets the score for presentation: "high", "medium" or "low".
func (s SustainabilityScore) Grade() string {
	switch {
	case s >= 8:
		return "high"
	case s >= 5:
		return "medium"
	default:
		return "low"
	}
}

// Ingredient is an entry of the reference ingredient catalog
type Ingredient struct {
	ID   int64
	Name string
	// CarbonFootprint is expressed in kg CO2e per kg.
	CarbonFootprint float64
}

// Validate validates the ingredient
func (i Ingredient) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return errors.New("ingredient name is required")
	}
	if i.CarbonFootprint < 0 {
		return errors.New("ingredient carbon footprint cannot be negative")
	}
	return nil
}

// RecipeIngredient is one line of the ingredient payload attached to a
// recipe by the ingredient picker.
type RecipeIngredient struct {
	ID              int64   `json:"id"`
	Name            string  `json:"nombre"`
	CarbonFootprint float64 `json:"huella_carbono"`
	Grams           float64 `json:"cantidad_gramos"`
}

// Label renders the ingredient for display, e.g. "Lentejas (150 g)".
func (i RecipeIngredient) Label() string {
	if i.Grams <= 0 {
		return i.Name
	}
	return i.Name + " (" + strconv.FormatFloat(i.Grams, 'f', -1, 64) + " g)"
}

// ParseIngredients decodes an ingredient payload for display. Payloads that
// are not a JSON array are treated as free text with one ingredient per line.
func ParseIngredients(data string) []RecipeIngredient {
	data = strings.TrimSpace(data)
	if data == "" {
		return nil
	}

	var items []RecipeIngredient
	if strings.HasPrefix(data, "[") {
		if err := json.Unmarshal([]byte(data), &items); err == nil {
			return items
		}
		items = nil
	}

	for _, line := range strings.Split(data, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		items = append(items, RecipeIngredient{Name: line})
	}
	return items
}
