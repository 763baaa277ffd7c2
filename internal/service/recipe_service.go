package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"recetario/internal/cache"
	"recetario/internal/models"
	"recetario/internal/observability"
	"recetario/internal/repository"
	"recetario/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

const (
	// PopularCandidateLimit caps how many recipes the popularity scan considers.
	PopularCandidateLimit = 50
	// PopularTopN is the number of recipes returned by Popular.
	PopularTopN = 5
)

type RecipeService struct {
	recipeRepo repository.RecipeRepository
	userRepo   repository.UserRepository
	now        func() time.Time
}

type CreateRecipeInput struct {
	AdminID uint
	Content models.RecipeContent
	Approve bool
}

// UpdateRecipeInput carries a partial update; nil fields are left unchanged.
type UpdateRecipeInput struct {
	RecipeID        uint
	Name            *string
	Description     *string
	ImageURL        *string
	PrepTimeMinutes *int
	Difficulty      *string
	Servings        *int
	Category        *string
	Country         *string
	Ingredients     []string
	Steps           []string
	PriceTier       *string
}

type ModerateRecipeInput struct {
	RecipeID    uint
	ModeratorID uint
	Status      string
	Reason      string
}

func NewRecipeService(recipeRepo repository.RecipeRepository, userRepo repository.UserRepository) *RecipeService {
	return &RecipeService{
		recipeRepo: recipeRepo,
		userRepo:   userRepo,
		now:        time.Now,
	}
}

// List returns visible recipes, or every recipe when filter.IncludeHidden is set.
func (s *RecipeService) List(ctx context.Context, filter models.RecipeFilter) ([]models.Recipe, int64, error) {
	return s.recipeRepo.List(ctx, filter)
}

// Get returns a recipe. Inactive or unapproved recipes are reported missing unless includeHidden is set.
func (s *RecipeService) Get(ctx context.Context, id uint, includeHidden bool) (*models.Recipe, error) {
	recipe, err := s.recipeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !includeHidden && !recipe.Visible() {
		return nil, models.NewNotFoundError("Recipe", id)
	}
	return recipe, nil
}

func (s *RecipeService) Create(ctx context.Context, in CreateRecipeInput) (*models.Recipe, error) {
	content := in.Content
	normalizeContent(&content)
	if err := validation.ValidateRecipeContent(&content); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	content.ApplyDietaryFlags()

	recipe := &models.Recipe{
		RecipeContent: content,
		Active:        true,
		Status:        models.StatusPending,
	}
	if in.Approve {
		now := s.now().UTC()
		adminID := in.AdminID
		recipe.Status = models.StatusApproved
		recipe.ModeratorID = &adminID
		recipe.ModeratedAt = &now
	}

	if err := s.recipeRepo.Create(ctx, recipe); err != nil {
		return nil, err
	}
	observability.RecipesCreated.WithLabelValues("curated").Inc()
	return recipe, nil
}

// Update applies a partial update. Dietary flags are only derived at creation and stay as stored.
func (s *RecipeService) Update(ctx context.Context, in UpdateRecipeInput) (*models.Recipe, error) {
	recipe, err := s.recipeRepo.GetByID(ctx, in.RecipeID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		recipe.Name = *in.Name
	}
	if in.Description != nil {
		recipe.Description = *in.Description
	}
	if in.ImageURL != nil {
		recipe.ImageURL = *in.ImageURL
	}
	if in.PrepTimeMinutes != nil {
		recipe.PrepTimeMinutes = *in.PrepTimeMinutes
	}
	if in.Servings != nil {
		recipe.Servings = *in.Servings
	}
	if in.Category != nil {
		recipe.Category = *in.Category
	}
	if in.Country != nil {
		recipe.Country = *in.Country
	}
	if in.Ingredients != nil {
		recipe.Ingredients = in.Ingredients
	}
	if in.Steps != nil {
		recipe.Steps = in.Steps
	}
	if in.Difficulty != nil {
		d, ok := models.ParseDifficulty(*in.Difficulty)
		if !ok {
			return nil, models.NewValidationError("Invalid difficulty")
		}
		recipe.Difficulty = d
	}
	if in.PriceTier != nil {
		p, ok := models.ParsePriceTier(*in.PriceTier)
		if !ok {
			return nil, models.NewValidationError("Invalid price tier")
		}
		recipe.PriceTier = p
	}

	normalizeContent(&recipe.RecipeContent)
	if err := validation.ValidateRecipeContent(&recipe.RecipeContent); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	if err := s.recipeRepo.Update(ctx, recipe); err != nil {
		return nil, err
	}
	return recipe, nil
}

// SoftDelete hides the recipe by clearing its active flag.
func (s *RecipeService) SoftDelete(ctx context.Context, id uint) error {
	return s.recipeRepo.SetActive(ctx, id, false)
}

func (s *RecipeService) Restore(ctx context.Context, id uint) error {
	return s.recipeRepo.SetActive(ctx, id, true)
}

// Moderate sets the review status. Any status may follow any other.
func (s *RecipeService) Moderate(ctx context.Context, in ModerateRecipeInput) (*models.Recipe, error) {
	status, ok := models.ParseModerationStatus(in.Status)
	if !ok {
		return nil, models.NewValidationError("Status must be pending, approved or rejected")
	}

	reason := strings.TrimSpace(in.Reason)
	if status == models.StatusRejected {
		if err := validation.ValidateRejectionReason(reason); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
	} else {
		reason = ""
	}

	if err := s.recipeRepo.Moderate(ctx, in.RecipeID, status, in.ModeratorID, s.now().UTC(), reason); err != nil {
		return nil, err
	}
	observability.ModerationDecisions.WithLabelValues("curated", string(status)).Inc()
	return s.recipeRepo.GetByID(ctx, in.RecipeID)
}

// ListByStatus feeds the admin console.
func (s *RecipeService) ListByStatus(ctx context.Context, status string, limit, offset int) ([]models.Recipe, int64, error) {
	filter := models.RecipeFilter{IncludeHidden: true, Limit: limit, Offset: offset}
	if status != "" {
		parsed, ok := models.ParseModerationStatus(status)
		if !ok {
			return nil, 0, models.NewValidationError("Status must be pending, approved or rejected")
		}
		filter.Status = parsed
	}
	return s.recipeRepo.List(ctx, filter)
}

func (s *RecipeService) Categories(ctx context.Context) ([]string, error) {
	return s.recipeRepo.Categories(ctx)
}

// Popular ranks up to PopularCandidateLimit recent recipes by how many users favorited them
// and returns the top PopularTopN. Ties keep recency order. Results are cached.
func (s *RecipeService) Popular(ctx context.Context) ([]models.PopularRecipe, error) {
	var ranked []models.PopularRecipe
	err := cache.Aside(ctx, cache.PopularRecipesKey, &ranked, cache.PopularTTL, func() (err error) {
		ctx, end := observability.StartSpan(ctx, "recipes.popular",
			attribute.Int("candidate_limit", PopularCandidateLimit))
		defer func() { end(err) }()

		ranked, err = s.computePopular(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ranked, nil
}

func (s *RecipeService) computePopular(ctx context.Context) ([]models.PopularRecipe, error) {
	candidates, err := s.recipeRepo.ListRecent(ctx, PopularCandidateLimit)
	if err != nil {
		return nil, err
	}
	lists, err := s.userRepo.ListFavoriteLists(ctx)
	if err != nil {
		return nil, err
	}

	return RankByFavorites(candidates, lists, PopularTopN), nil
}

// RankByFavorites counts, for each recipe, the users whose favorites contain it,
// sorts by that count descending and keeps the first n.
func RankByFavorites(recipes []models.Recipe, favoriteLists [][]uint, n int) []models.PopularRecipe {
	counts := make(map[uint]int, len(recipes))
	for _, list := range favoriteLists {
		seen := make(map[uint]struct{}, len(list))
		for _, id := range list {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			counts[id]++
		}
	}

	ranked := make([]models.PopularRecipe, 0, len(recipes))
	for _, r := range recipes {
		ranked = append(ranked, models.PopularRecipe{Recipe: r, Favorites: counts[r.ID]})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Favorites > ranked[j].Favorites
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

func normalizeContent(rc *models.RecipeContent) {
	rc.Name = strings.TrimSpace(rc.Name)
	rc.Description = strings.TrimSpace(rc.Description)
	rc.Category = strings.TrimSpace(rc.Category)
	rc.Country = strings.TrimSpace(rc.Country)
	rc.Ingredients = validation.CleanList(rc.Ingredients)
	rc.Steps = validation.CleanList(rc.Steps)
	rc.Normalize()
}
