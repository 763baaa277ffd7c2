package server

import (
	"fmt"
	"net/http"
	"testing"

	"recetario/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func communityRecipeBody(name, category string) map[string]any {
	return map[string]any{
		"name":              name,
		"description":       "Receta de la abuela",
		"category":          category,
		"country":           "Perú",
		"difficulty":        "facil",
		"prep_time_minutes": 30,
		"servings":          2,
		"ingredients":       []string{"1 kg de pescado", "limón"},
		"steps":             []string{"Cortar", "Marinar"},
	}
}

func TestCommunityRecipe_ReviewFlow(t *testing.T) {
	env := newTestEnv(t)
	author := env.createUser(t)
	authorToken := env.token(t, author)
	adminToken := env.token(t, env.createAdmin(t))

	resp := env.do(t, http.MethodPost, "/api/community", communityRecipeBody("Ceviche", "pescados"), authorToken)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeJSON[models.CommunityRecipe](t, resp)
	assert.False(t, created.Published)
	assert.Equal(t, author.Name, created.AuthorName)
	assert.Equal(t, 0, created.LikesCount)

	path := fmt.Sprintf("/api/community/%d", created.ID)

	resp = env.do(t, http.MethodGet, "/api/community", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decodeJSON[[]models.CommunityRecipe](t, resp))

	// Unpublished recipes are visible to the author only.
	resp = env.do(t, http.MethodGet, path, nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = env.do(t, http.MethodGet, path, nil, env.token(t, env.createUser(t)))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = env.do(t, http.MethodGet, path, nil, authorToken)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodPost, path+"/like", nil, authorToken)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/admin/community/pending", nil, adminToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	pending := decodeJSON[[]models.CommunityRecipe](t, resp)
	require.Len(t, pending, 1)
	assert.Equal(t, created.ID, pending[0].ID)

	resp = env.do(t, http.MethodPost, fmt.Sprintf("/api/admin/community/%d/publish", created.ID), nil, adminToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/community", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	feed := decodeJSON[[]models.CommunityRecipe](t, resp)
	require.Len(t, feed, 1)
	assert.Equal(t, "Ceviche", feed[0].Name)

	// Editing sends the recipe back to review.
	resp = env.do(t, http.MethodPut, path, communityRecipeBody("Ceviche clásico", "pescados"), authorToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	edited := decodeJSON[models.CommunityRecipe](t, resp)
	assert.False(t, edited.Published)

	resp = env.do(t, http.MethodPost, fmt.Sprintf("/api/admin/community/%d/reject", created.ID),
		map[string]string{"reason": ""}, adminToken)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodPost, fmt.Sprintf("/api/admin/community/%d/reject", created.ID),
		map[string]string{"reason": "Foto poco clara"}, adminToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rejected := decodeJSON[models.CommunityRecipe](t, resp)
	assert.True(t, rejected.Rejected)
	assert.Equal(t, "Foto poco clara", rejected.RejectionReason)

	resp = env.do(t, http.MethodGet, "/api/community/mine", nil, authorToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	mine := decodeJSON[[]models.CommunityRecipe](t, resp)
	require.Len(t, mine, 1)
	assert.True(t, mine[0].Rejected)
}

func TestCommunityRecipe_UpdateRederivesDietaryFlagsOnCategoryChange(t *testing.T) {
	env := newTestEnv(t)
	author := env.createUser(t)
	token := env.token(t, author)

	resp := env.do(t, http.MethodPost, "/api/community", communityRecipeBody("Ensalada", "vegana"), token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeJSON[models.CommunityRecipe](t, resp)
	assert.True(t, created.IsVegan)
	assert.True(t, created.IsVegetarian)

	path := fmt.Sprintf("/api/community/%d", created.ID)
	resp = env.do(t, http.MethodPut, path, communityRecipeBody("Ensalada con atún", "pescados"), token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decodeJSON[models.CommunityRecipe](t, resp)
	assert.False(t, updated.IsVegan)
	assert.False(t, updated.IsVegetarian)

	resp = env.do(t, http.MethodPut, path, communityRecipeBody("Ajena", "vegana"), env.token(t, env.createUser(t)))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestToggleCommunityLike(t *testing.T) {
	env := newTestEnv(t)
	author := env.createUser(t)
	recipe := env.createCommunityRecipe(t, author, true)
	fan := env.token(t, env.createUser(t))
	other := env.token(t, env.createUser(t))
	path := fmt.Sprintf("/api/community/%d/like", recipe.ID)

	resp := env.do(t, http.MethodPost, path, nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = env.do(t, http.MethodPost, path, nil, fan)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	result := decodeJSON[models.LikeResult](t, resp)
	assert.True(t, result.Liked)
	assert.Equal(t, 1, result.LikesCount)

	resp = env.do(t, http.MethodPost, path, nil, other)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	result = decodeJSON[models.LikeResult](t, resp)
	assert.Equal(t, 2, result.LikesCount)

	resp = env.do(t, http.MethodPost, path, nil, fan)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	result = decodeJSON[models.LikeResult](t, resp)
	assert.False(t, result.Liked)
	assert.Equal(t, 1, result.LikesCount)

	resp = env.do(t, http.MethodGet, fmt.Sprintf("/api/community/%d", recipe.ID), nil, other)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view := decodeJSON[map[string]any](t, resp)
	assert.Equal(t, true, view["liked_by_me"])
	assert.EqualValues(t, 1, view["likes_count"])
}

func TestDeleteCommunityRecipe(t *testing.T) {
	env := newTestEnv(t)
	author := env.createUser(t)
	stranger := env.token(t, env.createUser(t))
	adminToken := env.token(t, env.createAdmin(t))

	mine := env.createCommunityRecipe(t, author, true)
	resp := env.do(t, http.MethodDelete, fmt.Sprintf("/api/community/%d", mine.ID), nil, stranger)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp = env.do(t, http.MethodDelete, fmt.Sprintf("/api/community/%d", mine.ID), nil, env.token(t, author))
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = env.do(t, http.MethodGet, fmt.Sprintf("/api/community/%d", mine.ID), nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	moderated := env.createCommunityRecipe(t, author, true)
	resp = env.do(t, http.MethodDelete, fmt.Sprintf("/api/community/%d", moderated.ID), nil, adminToken)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}
