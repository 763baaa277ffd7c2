package seed

import (
	_ "embed"
	"fmt"

	"recetario/internal/models"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

type catalogFile struct {
	Recipes []catalogEntry `yaml:"recipes"`
}

type catalogEntry struct {
	Name            string   `yaml:"name"`
	Description     string   `yaml:"description"`
	ImageURL        string   `yaml:"image_url"`
	PrepTimeMinutes int      `yaml:"prep_time_minutes"`
	Difficulty      string   `yaml:"difficulty"`
	Servings        int      `yaml:"servings"`
	Category        string   `yaml:"category"`
	Country         string   `yaml:"country"`
	PriceTier       string   `yaml:"price_tier"`
	Ingredients     []string `yaml:"ingredients"`
	Steps           []string `yaml:"steps"`
}

// Catalog returns the curated recipes bundled with the binary.
func Catalog() ([]models.RecipeContent, error) {
	return parseCatalog(catalogYAML)
}

func parseCatalog(data []byte) ([]models.RecipeContent, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	out := make([]models.RecipeContent, 0, len(file.Recipes))
	for i, e := range file.Recipes {
		if e.Name == "" {
			return nil, fmt.Errorf("catalog entry %d has no name", i)
		}
		difficulty, ok := models.ParseDifficulty(e.Difficulty)
		if !ok {
			return nil, fmt.Errorf("catalog entry %q: unknown difficulty %q", e.Name, e.Difficulty)
		}
		price, ok := models.ParsePriceTier(e.PriceTier)
		if !ok {
			return nil, fmt.Errorf("catalog entry %q: unknown price tier %q", e.Name, e.PriceTier)
		}
		rc := models.RecipeContent{
			Name:            e.Name,
			Description:     e.Description,
			ImageURL:        e.ImageURL,
			PrepTimeMinutes: e.PrepTimeMinutes,
			Difficulty:      difficulty,
			Servings:        e.Servings,
			Category:        e.Category,
			Country:         e.Country,
			Ingredients:     e.Ingredients,
			Steps:           e.Steps,
			PriceTier:       price,
		}
		rc.ApplyDietaryFlags()
		rc.Normalize()
		out = append(out, rc)
	}
	return out, nil
}
