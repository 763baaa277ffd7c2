package server

import (
	"fmt"
	"net/http"
	"testing"

	"recetario/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComments_ThreadAndCounts(t *testing.T) {
	env := newTestEnv(t)
	author := env.createUser(t)
	recipe := env.createCommunityRecipe(t, author, true)
	alice := env.createUser(t)
	bob := env.createUser(t)
	commentsPath := fmt.Sprintf("/api/community/%d/comments", recipe.ID)

	resp := env.do(t, http.MethodPost, commentsPath, map[string]any{"text": "  ¡Qué rico!  "}, env.token(t, alice))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	root := decodeJSON[models.Comment](t, resp)
	assert.Equal(t, "¡Qué rico!", root.Text)
	assert.Equal(t, alice.Name, root.AuthorName)
	assert.Nil(t, root.ParentID)

	resp = env.do(t, http.MethodPost, commentsPath, map[string]any{"text": "Gracias", "parent_id": root.ID}, env.token(t, author))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	reply := decodeJSON[models.Comment](t, resp)
	require.NotNil(t, reply.ParentID)
	assert.Equal(t, root.ID, *reply.ParentID)

	// A reply to a reply attaches to the root.
	resp = env.do(t, http.MethodPost, commentsPath, map[string]any{"text": "¡A ti!", "parent_id": reply.ID}, env.token(t, bob))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	nested := decodeJSON[models.Comment](t, resp)
	require.NotNil(t, nested.ParentID)
	assert.Equal(t, root.ID, *nested.ParentID)

	resp = env.do(t, http.MethodPost, commentsPath, map[string]any{"text": "   "}, env.token(t, bob))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodGet, commentsPath, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	top := decodeJSON[[]models.Comment](t, resp)
	require.Len(t, top, 1)
	assert.Equal(t, 2, top[0].RepliesCount)

	resp = env.do(t, http.MethodGet, fmt.Sprintf("/api/community/comments/%d/replies", root.ID), nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	replies := decodeJSON[[]models.Comment](t, resp)
	assert.Len(t, replies, 2)

	resp = env.do(t, http.MethodGet, fmt.Sprintf("/api/community/%d", recipe.ID), nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view := decodeJSON[models.CommunityRecipe](t, resp)
	assert.Equal(t, 3, view.CommentsCount)

	// Only the author of a comment or an admin may delete it.
	resp = env.do(t, http.MethodDelete, fmt.Sprintf("/api/community/comments/%d", root.ID), nil, env.token(t, bob))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = env.do(t, http.MethodDelete, fmt.Sprintf("/api/community/comments/%d", root.ID), nil, env.token(t, alice))
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = env.do(t, http.MethodGet, fmt.Sprintf("/api/community/%d", recipe.ID), nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view = decodeJSON[models.CommunityRecipe](t, resp)
	assert.Equal(t, 0, view.CommentsCount)

	resp = env.do(t, http.MethodGet, commentsPath, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decodeJSON[[]models.Comment](t, resp))
}

func TestCreateComment_RequiresPublishedRecipe(t *testing.T) {
	env := newTestEnv(t)
	author := env.createUser(t)
	draft := env.createCommunityRecipe(t, author, false)

	resp := env.do(t, http.MethodPost, fmt.Sprintf("/api/community/%d/comments", draft.ID),
		map[string]any{"text": "Hola"}, env.token(t, env.createUser(t)))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/community/9999/comments",
		map[string]any{"text": "Hola"}, env.token(t, author))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestComments_HiddenWithRejectedRecipe(t *testing.T) {
	env := newTestEnv(t)
	author := env.createUser(t)
	recipe := env.createCommunityRecipe(t, author, true)
	adminToken := env.token(t, env.createAdmin(t))
	commentsPath := fmt.Sprintf("/api/community/%d/comments", recipe.ID)

	resp := env.do(t, http.MethodPost, commentsPath, map[string]any{"text": "Me encanta"}, env.token(t, env.createUser(t)))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	root := decodeJSON[models.Comment](t, resp)
	repliesPath := fmt.Sprintf("/api/community/comments/%d/replies", root.ID)

	resp = env.do(t, http.MethodPost, fmt.Sprintf("/api/admin/community/%d/reject", recipe.ID),
		map[string]any{"reason": "Contenido duplicado"}, adminToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	stranger := env.token(t, env.createUser(t))
	for name, token := range map[string]string{"anonymous": "", "stranger": stranger} {
		resp = env.do(t, http.MethodGet, commentsPath, nil, token)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, name)
		resp = env.do(t, http.MethodGet, repliesPath, nil, token)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, name)
	}

	for name, token := range map[string]string{"author": env.token(t, author), "admin": adminToken} {
		resp = env.do(t, http.MethodGet, commentsPath, nil, token)
		require.Equal(t, http.StatusOK, resp.StatusCode, name)
		assert.Len(t, decodeJSON[[]models.Comment](t, resp), 1, name)
		resp = env.do(t, http.MethodGet, repliesPath, nil, token)
		assert.Equal(t, http.StatusOK, resp.StatusCode, name)
	}
}
