// Package seed provides helpers to create demo data for development databases
// and tests.
package seed

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"recetario/internal/models"
	"recetario/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password of every seeded account.
const DefaultPassword = "password123"

var communityCategories = []string{
	"vegetariana", "vegana", "carnes", "pescados", "postres", "arroces", "sopas",
}

var countries = []string{
	"España", "México", "Perú", "Argentina", "Colombia", "Chile", "Venezuela", "Uruguay",
}

// SeedOptions controls what the Factory generates.
type SeedOptions struct {
	// Seed makes generated content reproducible. Zero picks a time based seed.
	Seed int64
	// MaxDays spreads created_at values over the last MaxDays days.
	MaxDays int
	// SkipBcrypt stores the plain password. Only for throwaway databases.
	SkipBcrypt bool
	// DryRun assigns synthetic IDs and writes nothing.
	DryRun bool
}

// Factory builds domain entities and persists them through the repositories.
type Factory struct {
	db        *gorm.DB
	opts      SeedOptions
	faker     *gofakeit.Faker
	users     repository.UserRepository
	recipes   repository.RecipeRepository
	community repository.CommunityRecipeRepository
	comments  repository.CommentRepository
	now       time.Time
	// synthetic ID counter when running in DryRun mode
	nextID uint
	seq    int
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts SeedOptions) *Factory {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if opts.MaxDays <= 0 {
		opts.MaxDays = 90
	}
	f := &Factory{
		db:     db,
		opts:   opts,
		faker:  gofakeit.New(seed),
		now:    time.Now().UTC(),
		nextID: 1000,
	}
	if db != nil {
		f.users = repository.NewUserRepository(db)
		f.recipes = repository.NewRecipeRepository(db)
		f.community = repository.NewCommunityRecipeRepository(db)
		f.comments = repository.NewCommentRepository(db)
	}
	return f
}

func (f *Factory) syntheticID() uint {
	f.nextID++
	return f.nextID
}

func (f *Factory) pastTime() time.Time {
	days := f.faker.Number(0, f.opts.MaxDays)
	mins := f.faker.Number(0, 24*60)
	return f.now.Add(-time.Duration(days)*24*time.Hour - time.Duration(mins)*time.Minute)
}

func (f *Factory) passwordHash() (string, error) {
	if f.opts.SkipBcrypt {
		return DefaultPassword, nil
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CreateUser constructs and persists a sample user.
// Optional override functions may modify the generated user before saving.
func (f *Factory) CreateUser(ctx context.Context, overrides ...func(*models.User)) (*models.User, error) {
	f.seq++
	first := f.faker.FirstName()
	user := &models.User{
		Name:              first + " " + f.faker.LastName(),
		Email:             fmt.Sprintf("%s.%d@example.com", strings.ToLower(first), f.seq),
		Role:              models.RoleUser,
		PhotoURL:          fmt.Sprintf("https://i.pravatar.cc/150?u=%s", f.faker.UUID()),
		FavoriteRecipeIDs: []uint{},
		CreatedAt:         f.pastTime(),
	}

	hash, err := f.passwordHash()
	if err != nil {
		return nil, err
	}
	user.Password = hash

	for _, override := range overrides {
		override(user)
	}

	if f.opts.DryRun {
		user.ID = f.syntheticID()
		log.Printf("[dry-run] CreateUser: %s <%s>", user.Name, user.Email)
		return user, nil
	}
	if err := f.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// CreateCuratedRecipe stores a catalog recipe. Approved recipes are attributed to moderatorID.
func (f *Factory) CreateCuratedRecipe(ctx context.Context, content models.RecipeContent, approve bool, moderatorID uint) (*models.Recipe, error) {
	recipe := &models.Recipe{
		RecipeContent: content,
		Active:        true,
		Status:        models.StatusPending,
		CreatedAt:     f.pastTime(),
	}
	if approve {
		at := recipe.CreatedAt.Add(time.Hour)
		mod := moderatorID
		recipe.Status = models.StatusApproved
		recipe.ModeratorID = &mod
		recipe.ModeratedAt = &at
	}

	if f.opts.DryRun {
		recipe.ID = f.syntheticID()
		log.Printf("[dry-run] CreateCuratedRecipe: %s", recipe.Name)
		return recipe, nil
	}
	if err := f.recipes.Create(ctx, recipe); err != nil {
		return nil, err
	}
	return recipe, nil
}

// BuildRecipeContent generates random recipe content from gofakeit's food data.
func (f *Factory) BuildRecipeContent() models.RecipeContent {
	dishes := []func() string{f.faker.Breakfast, f.faker.Lunch, f.faker.Dinner, f.faker.Dessert, f.faker.Snack}
	name := dishes[f.faker.Number(0, len(dishes)-1)]()

	nIngredients := f.faker.Number(3, 6)
	ingredients := make([]string, 0, nIngredients)
	for i := 0; i < nIngredients; i++ {
		if f.faker.Bool() {
			ingredients = append(ingredients, fmt.Sprintf("%d g de %s", f.faker.Number(1, 10)*50, strings.ToLower(f.faker.Vegetable())))
		} else {
			ingredients = append(ingredients, fmt.Sprintf("%d %s", f.faker.Number(1, 4), strings.ToLower(f.faker.Fruit())))
		}
	}
	nSteps := f.faker.Number(2, 5)
	steps := make([]string, 0, nSteps)
	for i := 0; i < nSteps; i++ {
		steps = append(steps, f.faker.Sentence(f.faker.Number(6, 12)))
	}

	difficulties := []models.Difficulty{models.DifficultyEasy, models.DifficultyMedium, models.DifficultyHard}
	prices := []models.PriceTier{models.PriceLow, models.PriceMedium, models.PriceHigh}

	rc := models.RecipeContent{
		Name:            name,
		Description:     f.faker.Sentence(f.faker.Number(8, 16)),
		ImageURL:        fmt.Sprintf("https://picsum.photos/seed/%s/800/600", f.faker.UUID()),
		PrepTimeMinutes: f.faker.Number(1, 12) * 10,
		Difficulty:      difficulties[f.faker.Number(0, len(difficulties)-1)],
		Servings:        f.faker.Number(1, 8),
		Category:        f.faker.RandomString(communityCategories),
		Country:         f.faker.RandomString(countries),
		Ingredients:     ingredients,
		Steps:           steps,
		PriceTier:       prices[f.faker.Number(0, len(prices)-1)],
	}
	rc.ApplyDietaryFlags()
	return rc
}

// CreateCommunityRecipe stores a generated recipe authored by author.
func (f *Factory) CreateCommunityRecipe(ctx context.Context, author *models.User, overrides ...func(*models.CommunityRecipe)) (*models.CommunityRecipe, error) {
	recipe := &models.CommunityRecipe{
		RecipeContent: f.BuildRecipeContent(),
		AuthorID:      author.ID,
		AuthorName:    author.Name,
		AuthorPhoto:   author.PhotoURL,
		LikedBy:       []uint{},
		Published:     true,
		CreatedAt:     f.pastTime(),
	}
	for _, override := range overrides {
		override(recipe)
	}

	if f.opts.DryRun {
		recipe.ID = f.syntheticID()
		log.Printf("[dry-run] CreateCommunityRecipe: %s by %s", recipe.Name, author.Name)
		return recipe, nil
	}
	if err := f.community.Create(ctx, recipe); err != nil {
		return nil, err
	}
	return recipe, nil
}

// CreateComment stores a comment on recipe. A non-nil parent makes it a reply.
func (f *Factory) CreateComment(ctx context.Context, recipe *models.CommunityRecipe, author *models.User, parent *models.Comment) (*models.Comment, error) {
	comment := &models.Comment{
		RecipeID:    recipe.ID,
		AuthorID:    author.ID,
		AuthorName:  author.Name,
		AuthorPhoto: author.PhotoURL,
		Text:        f.faker.Sentence(f.faker.Number(4, 20)),
		CreatedAt:   recipe.CreatedAt.Add(time.Duration(f.faker.Number(1, 72)) * time.Hour),
	}
	if parent != nil {
		parentID := parent.ID
		comment.ParentID = &parentID
	}

	if f.opts.DryRun {
		comment.ID = f.syntheticID()
		return comment, nil
	}
	if err := f.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// Like makes userID like recipe.
func (f *Factory) Like(ctx context.Context, recipe *models.CommunityRecipe, userID uint) error {
	if f.opts.DryRun {
		recipe.ToggleLike(userID)
		return nil
	}
	if recipe.LikedByUser(userID) {
		return nil
	}
	result, err := f.community.ToggleLike(ctx, recipe.ID, userID)
	if err != nil {
		return err
	}
	recipe.LikedBy = append(recipe.LikedBy, userID)
	recipe.LikesCount = result.LikesCount
	return nil
}

// Favorite adds recipeIDs to the user's favorites.
func (f *Factory) Favorite(ctx context.Context, user *models.User, recipeIDs ...uint) error {
	if f.opts.DryRun {
		for _, id := range recipeIDs {
			user.AddFavorite(id)
		}
		return nil
	}
	updated, err := f.users.UpdateFavorites(ctx, user.ID, func(u *models.User) bool {
		changed := false
		for _, id := range recipeIDs {
			if u.AddFavorite(id) {
				changed = true
			}
		}
		return changed
	})
	if err != nil {
		return err
	}
	user.FavoriteRecipeIDs = updated.FavoriteRecipeIDs
	return nil
}

// pick returns up to n distinct elements of items.
func pick[T any](f *Factory, items []T, n int) []T {
	if n >= len(items) {
		return items
	}
	idx := make([]int, len(items))
	for i := range idx {
		idx[i] = i
	}
	f.faker.ShuffleInts(idx)
	out := make([]T, 0, n)
	for _, i := range idx[:n] {
		out = append(out, items[i])
	}
	return out
}
