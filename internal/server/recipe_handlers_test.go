package server

import (
	"fmt"
	"net/http"
	"testing"

	"recetario/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecipeLifecycle_VisibilityFollowsModeration(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createAdmin(t)
	adminToken := env.token(t, admin)
	userToken := env.token(t, env.createUser(t))

	resp := env.do(t, http.MethodPost, "/api/admin/recipes", map[string]any{
		"name":              "  Tortilla de patatas ",
		"description":       "Clásica",
		"category":          "Vegetariana",
		"country":           "España",
		"difficulty":        "medium",
		"price_tier":        "low",
		"prep_time_minutes": 45,
		"servings":          4,
		"ingredients":       []string{"6 huevos", " ", "4 patatas"},
		"steps":             []string{"Freír", "Cuajar"},
	}, adminToken)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeJSON[models.Recipe](t, resp)
	assert.Equal(t, "Tortilla de patatas", created.Name)
	assert.Equal(t, models.StatusPending, created.Status)
	assert.True(t, created.IsVegetarian)
	assert.False(t, created.IsVegan)
	assert.Equal(t, []string{"6 huevos", "4 patatas"}, created.Ingredients)

	path := fmt.Sprintf("/api/recipes/%d", created.ID)

	// Pending recipes are hidden from everyone but admins.
	resp = env.do(t, http.MethodGet, path, nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = env.do(t, http.MethodGet, path, nil, userToken)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = env.do(t, http.MethodGet, path, nil, adminToken)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodPut, fmt.Sprintf("/api/admin/recipes/%d/status", created.ID),
		map[string]string{"status": "approved"}, adminToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	moderated := decodeJSON[models.Recipe](t, resp)
	assert.Equal(t, models.StatusApproved, moderated.Status)
	require.NotNil(t, moderated.ModeratorID)
	assert.Equal(t, admin.ID, *moderated.ModeratorID)
	assert.NotNil(t, moderated.ModeratedAt)

	resp = env.do(t, http.MethodGet, path, nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/recipes", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decodeJSON[RecipeListResponse](t, resp)
	assert.EqualValues(t, 1, list.Total)

	resp = env.do(t, http.MethodDelete, fmt.Sprintf("/api/admin/recipes/%d", created.ID), nil, adminToken)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = env.do(t, http.MethodGet, path, nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.do(t, http.MethodPost, fmt.Sprintf("/api/admin/recipes/%d/restore", created.ID), nil, adminToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = env.do(t, http.MethodGet, path, nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestModerateRecipe_Validation(t *testing.T) {
	env := newTestEnv(t)
	adminToken := env.token(t, env.createAdmin(t))
	recipe := env.createRecipe(t, false)
	path := fmt.Sprintf("/api/admin/recipes/%d/status", recipe.ID)

	resp := env.do(t, http.MethodPut, path, map[string]string{"status": "rejected"}, adminToken)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodPut, path, map[string]string{"status": "published"}, adminToken)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodPut, path, map[string]string{"status": "rejected", "reason": "Faltan pasos"}, adminToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rejected := decodeJSON[models.Recipe](t, resp)
	assert.Equal(t, "Faltan pasos", rejected.RejectionReason)

	resp = env.do(t, http.MethodPut, "/api/admin/recipes/9999/status", map[string]string{"status": "approved"}, adminToken)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUpdateRecipe_PartialFields(t *testing.T) {
	env := newTestEnv(t)
	adminToken := env.token(t, env.createAdmin(t))
	recipe := env.createRecipe(t, true, func(rc *models.RecipeContent) {
		rc.Category = "vegana"
		rc.ApplyDietaryFlags()
	})

	resp := env.do(t, http.MethodPut, fmt.Sprintf("/api/admin/recipes/%d", recipe.ID), map[string]any{
		"name":     "Nuevo nombre",
		"category": "carnes",
	}, adminToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decodeJSON[models.Recipe](t, resp)
	assert.Equal(t, "Nuevo nombre", updated.Name)
	assert.Equal(t, recipe.Description, updated.Description)
	assert.Equal(t, "carnes", updated.Category)
	// Curated updates keep the stored dietary flags.
	assert.True(t, updated.IsVegan)

	resp = env.do(t, http.MethodPut, fmt.Sprintf("/api/admin/recipes/%d", recipe.ID),
		map[string]any{"difficulty": "imposible"}, adminToken)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetRecipes_Filters(t *testing.T) {
	env := newTestEnv(t)
	env.createRecipe(t, true, func(rc *models.RecipeContent) {
		rc.Name = "Buddha bowl"
		rc.Category = "vegana"
		rc.Country = "España"
		rc.Difficulty = models.DifficultyEasy
		rc.ApplyDietaryFlags()
	})
	env.createRecipe(t, true, func(rc *models.RecipeContent) {
		rc.Name = "Tortilla"
		rc.Category = "vegetariana"
		rc.Country = "España"
		rc.Difficulty = models.DifficultyMedium
		rc.ApplyDietaryFlags()
	})
	env.createRecipe(t, true, func(rc *models.RecipeContent) {
		rc.Name = "Tacos al pastor"
		rc.Category = "carnes"
		rc.Country = "México"
		rc.Difficulty = models.DifficultyMedium
		rc.ApplyDietaryFlags()
	})
	env.createRecipe(t, false, func(rc *models.RecipeContent) {
		rc.Name = "Borrador vegano"
		rc.Category = "vegana"
		rc.ApplyDietaryFlags()
	})

	tests := []struct {
		query string
		names []string
	}{
		{"vegan=true", []string{"Buddha bowl"}},
		{"vegetarian=true", []string{"Buddha bowl", "Tortilla"}},
		{"country=Espa%C3%B1a&difficulty=media", []string{"Tortilla"}},
		{"category=CARNES", []string{"Tacos al pastor"}},
		{"q=pastor", []string{"Tacos al pastor"}},
		{"vegetarian=false", []string{"Tacos al pastor"}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			resp := env.do(t, http.MethodGet, "/api/recipes?"+tt.query, nil, "")
			require.Equal(t, http.StatusOK, resp.StatusCode)
			list := decodeJSON[RecipeListResponse](t, resp)
			var names []string
			for _, r := range list.Recipes {
				names = append(names, r.Name)
			}
			assert.ElementsMatch(t, tt.names, names)
			assert.EqualValues(t, len(tt.names), list.Total)
		})
	}

	for _, bad := range []string{"difficulty=imposible", "price_tier=gratis", "vegan=quizas"} {
		resp := env.do(t, http.MethodGet, "/api/recipes?"+bad, nil, "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, bad)
	}
}

func TestGetRecipeCategories(t *testing.T) {
	env := newTestEnv(t)
	env.createRecipe(t, true, func(rc *models.RecipeContent) { rc.Category = "postres" })
	env.createRecipe(t, true, func(rc *models.RecipeContent) { rc.Category = "arroces" })
	env.createRecipe(t, false, func(rc *models.RecipeContent) { rc.Category = "sopas" })

	resp := env.do(t, http.MethodGet, "/api/recipes/categories", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeJSON[map[string][]string](t, resp)
	assert.Equal(t, []string{"arroces", "postres"}, body["categories"])
}

func TestGetRecipesByStatus(t *testing.T) {
	env := newTestEnv(t)
	adminToken := env.token(t, env.createAdmin(t))
	env.createRecipe(t, true)
	env.createRecipe(t, false)
	env.createRecipe(t, false)

	resp := env.do(t, http.MethodGet, "/api/admin/recipes?status=pending", nil, adminToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decodeJSON[RecipeListResponse](t, resp)
	assert.EqualValues(t, 2, list.Total)

	resp = env.do(t, http.MethodGet, "/api/admin/recipes", nil, adminToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list = decodeJSON[RecipeListResponse](t, resp)
	assert.EqualValues(t, 3, list.Total)

	resp = env.do(t, http.MethodGet, "/api/admin/recipes?status=bogus", nil, adminToken)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
