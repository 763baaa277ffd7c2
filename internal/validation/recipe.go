package validation

import (
	"fmt"
	"strings"

	"recetario/internal/models"
)

// ValidateRecipeContent checks the user-editable fields of a recipe.
func ValidateRecipeContent(rc *models.RecipeContent) error {
	if err := NotBlank("name", rc.Name); err != nil {
		return err
	}
	if err := MaxLength("name", rc.Name, MaxRecipeNameLength); err != nil {
		return err
	}
	if err := MaxLength("description", rc.Description, MaxDescriptionLength); err != nil {
		return err
	}
	if err := MaxLength("category", rc.Category, MaxCategoryLength); err != nil {
		return err
	}
	if err := MaxLength("country", rc.Country, MaxCountryLength); err != nil {
		return err
	}
	if rc.PrepTimeMinutes < 0 || rc.PrepTimeMinutes > MaxPrepTimeMinutes {
		return fmt.Errorf("prep time must be between 0 and %d minutes", MaxPrepTimeMinutes)
	}
	if rc.Servings < 0 || rc.Servings > MaxServings {
		return fmt.Errorf("servings must be between 0 and %d", MaxServings)
	}
	if err := validateList("ingredients", rc.Ingredients, MaxIngredientLength); err != nil {
		return err
	}
	return validateList("steps", rc.Steps, MaxStepLength)
}

// ValidateComment checks comment text.
func ValidateComment(text string) error {
	if err := NotBlank("comment", text); err != nil {
		return err
	}
	return MaxLength("comment", text, MaxCommentLength)
}

// ValidateRejectionReason requires a short, non-blank reason.
func ValidateRejectionReason(reason string) error {
	if err := NotBlank("rejection reason", reason); err != nil {
		return err
	}
	return MaxLength("rejection reason", reason, MaxReasonLength)
}

// CleanList trims entries and drops blank ones.
func CleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func validateList(field string, items []string, maxItemLen int) error {
	if len(items) > MaxListItems {
		return fmt.Errorf("%s must not have more than %d entries", field, MaxListItems)
	}
	for i, item := range items {
		if err := MaxLength(fmt.Sprintf("%s[%d]", field, i), item, maxItemLen); err != nil {
			return err
		}
	}
	return nil
}
