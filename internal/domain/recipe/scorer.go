package recipe

import "math/rand/v2"

// Scorer assigns a sustainability score to a new recipe from its
// ingredient payload.
type Scorer interface {
	Score(ingredientsData string) SustainabilityScore
}

// RandomScorer is the placeholder scoring strategy: a uniform score in
// [6, 9] regardless of the ingredients.
type RandomScorer struct{}

// NewRandomScorer creates the placeholder scorer
func NewRandomScorer() RandomScorer {
	return RandomScorer{}
}

// Score implements Scorer
func (RandomScorer) Score(string) SustainabilityScore {
	return SustainabilityScore(6 + rand.IntN(4))
}

// FixedScorer always returns the same score. Useful for deterministic tests
// and seeding.
type FixedScorer SustainabilityScore

// Score implements Scorer
func (f FixedScorer) Score(string) SustainabilityScore {
	return SustainabilityScore(f)
}
