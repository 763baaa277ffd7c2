package seed

import (
	"context"
	"testing"

	"recetario/internal/models"
	"recetario/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_ParsesBundledRecipes(t *testing.T) {
	recipes, err := Catalog()
	require.NoError(t, err)
	require.NotEmpty(t, recipes)

	byName := map[string]models.RecipeContent{}
	for _, r := range recipes {
		assert.NotEmpty(t, r.Ingredients, r.Name)
		assert.NotEmpty(t, r.Steps, r.Name)
		byName[r.Name] = r
	}

	gazpacho := byName["Gazpacho andaluz"]
	assert.True(t, gazpacho.IsVegan)
	assert.True(t, gazpacho.IsVegetarian)

	tortilla := byName["Tortilla de patatas"]
	assert.True(t, tortilla.IsVegetarian)
	assert.False(t, tortilla.IsVegan)
	assert.Equal(t, models.DifficultyMedium, tortilla.Difficulty)

	paella := byName["Paella de marisco"]
	assert.Equal(t, models.PriceHigh, paella.PriceTier)
}

func TestParseCatalog_RejectsBadEntries(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"missing name", "recipes:\n  - description: x\n"},
		{"bad difficulty", "recipes:\n  - name: x\n    difficulty: extreme\n"},
		{"bad price", "recipes:\n  - name: x\n    price_tier: gratis\n"},
		{"not yaml", "recipes: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseCatalog([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestSeeder_Seed(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()

	opts := Options{
		SeedOptions:       SeedOptions{Seed: 7, SkipBcrypt: true},
		Users:             6,
		CommunityRecipes:  5,
		CommentsPerRecipe: 3,
	}
	sum, err := NewSeeder(db).Seed(ctx, opts)
	require.NoError(t, err)

	catalog, err := Catalog()
	require.NoError(t, err)

	var users, recipes, approved, community, comments int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	require.NoError(t, db.Model(&models.Recipe{}).Count(&recipes).Error)
	require.NoError(t, db.Model(&models.Recipe{}).Where("status = ?", models.StatusApproved).Count(&approved).Error)
	require.NoError(t, db.Model(&models.CommunityRecipe{}).Count(&community).Error)
	require.NoError(t, db.Model(&models.Comment{}).Count(&comments).Error)

	assert.EqualValues(t, 7, users)
	assert.EqualValues(t, len(catalog), recipes)
	assert.EqualValues(t, len(catalog)-1, approved)
	assert.EqualValues(t, 5, community)
	assert.EqualValues(t, sum.Comments, comments)
	assert.Equal(t, 15, sum.Comments)

	var admin models.User
	require.NoError(t, db.Where("email = ?", AdminEmail).First(&admin).Error)
	assert.True(t, admin.IsAdmin())

	var stored []models.CommunityRecipe
	require.NoError(t, db.Find(&stored).Error)
	totalComments := 0
	for _, r := range stored {
		assert.Equal(t, len(r.LikedBy), r.LikesCount, "recipe %d", r.ID)
		totalComments += r.CommentsCount
	}
	assert.Equal(t, sum.Comments, totalComments)

	var replies []models.Comment
	require.NoError(t, db.Where("parent_id IS NOT NULL").Find(&replies).Error)
	for _, reply := range replies {
		var parent models.Comment
		require.NoError(t, db.First(&parent, *reply.ParentID).Error)
		assert.Nil(t, parent.ParentID, "replies attach to root comments")
		assert.Equal(t, reply.RecipeID, parent.RecipeID)
	}
}

func TestSeeder_ClearAll(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	s := NewSeeder(db)

	_, err := s.Seed(context.Background(), Options{
		SeedOptions:       SeedOptions{Seed: 3, SkipBcrypt: true},
		Users:             2,
		CommunityRecipes:  2,
		CommentsPerRecipe: 1,
	})
	require.NoError(t, err)
	require.NoError(t, s.ClearAll())

	for _, model := range []any{&models.User{}, &models.Recipe{}, &models.CommunityRecipe{}, &models.Comment{}} {
		var n int64
		require.NoError(t, db.Model(model).Count(&n).Error)
		assert.Zero(t, n, "%T", model)
	}
}

func TestFactory_DryRunWritesNothing(t *testing.T) {
	db := testutil.NewSQLiteDB(t)

	opts := DefaultOptions()
	opts.SeedOptions = SeedOptions{Seed: 11, SkipBcrypt: true, DryRun: true}
	sum, err := NewSeeder(db).Seed(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, opts.Users+1, sum.Users)

	var n int64
	require.NoError(t, db.Model(&models.User{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestFactory_BuildRecipeContentIsValid(t *testing.T) {
	f := NewFactory(nil, SeedOptions{Seed: 42})
	for i := 0; i < 20; i++ {
		rc := f.BuildRecipeContent()
		assert.NotEmpty(t, rc.Name)
		assert.GreaterOrEqual(t, len(rc.Ingredients), 3)
		assert.NotEmpty(t, rc.Steps)
		assert.Contains(t, communityCategories, rc.Category)
		veg, vegan := models.DietaryFlags(rc.Category)
		assert.Equal(t, veg, rc.IsVegetarian)
		assert.Equal(t, vegan, rc.IsVegan)
	}
}
