package recipe

import "errors"

// Domain errors for recipe operations

var (
	// Entity validation errors
	ErrTitleRequired       = errors.New("recipe title is required")
	ErrTitleTooShort       = errors.New("recipe title must be at least 5 characters")
	ErrTitleTooLong        = errors.New("recipe title must not exceed 255 characters")
	ErrDescriptionRequired = errors.New("recipe description is required")
	ErrDescriptionTooLong  = errors.New("recipe description must not exceed 2000 characters")
	ErrIngredientsTooLarge = errors.New("recipe ingredient data exceeds 64KiB")
	ErrScoreOutOfRange     = errors.New("sustainability score must be between 0 and 10")

	// State transition errors
	ErrRecipeNotFound        = errors.New("recipe not found")
	ErrRecipeAlreadyInactive = errors.New("recipe is already inactive")
)

// IsValidationError reports whether err is one of the recipe field rules.
func IsValidationError(err error) bool {
	for _, target := range []error{
		ErrTitleRequired,
		ErrTitleTooShort,
		ErrTitleTooLong,
		ErrDescriptionRequired,
		ErrDescriptionTooLong,
		ErrIngredientsTooLarge,
		ErrScoreOutOfRange,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
