package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"recetario/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	users             map[uint]*models.User
	getByEmailFn      func(context.Context, string) (*models.User, error)
	createFn          func(context.Context, *models.User) error
	updatePasswordFn  func(context.Context, uint, string) error
	setRoleFn         func(context.Context, uint, string) error
	favoriteListsFn   func(context.Context) ([][]uint, error)
	updateFavoritesFn func(context.Context, uint, func(*models.User) bool) (*models.User, error)
}

func newUserRepoStub(users ...*models.User) *userRepoStub {
	s := &userRepoStub{users: make(map[uint]*models.User)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *userRepoStub) GetByID(_ context.Context, id uint) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, models.NewNotFoundError("User", id)
	}
	cp := *u
	return &cp, nil
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if s.getByEmailFn != nil {
		return s.getByEmailFn(ctx, email)
	}
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	if s.createFn != nil {
		return s.createFn(ctx, user)
	}
	user.ID = uint(len(s.users) + 1)
	s.users[user.ID] = user
	return nil
}
func (s *userRepoStub) Update(_ context.Context, user *models.User) error {
	cp := *user
	s.users[user.ID] = &cp
	return nil
}
func (s *userRepoStub) UpdatePassword(ctx context.Context, id uint, hash string) error {
	if s.updatePasswordFn != nil {
		return s.updatePasswordFn(ctx, id, hash)
	}
	u, ok := s.users[id]
	if !ok {
		return models.NewNotFoundError("User", id)
	}
	u.Password = hash
	return nil
}
func (s *userRepoStub) SetRole(ctx context.Context, id uint, role string) error {
	if s.setRoleFn != nil {
		return s.setRoleFn(ctx, id, role)
	}
	u, ok := s.users[id]
	if !ok {
		return models.NewNotFoundError("User", id)
	}
	u.Role = role
	return nil
}
func (s *userRepoStub) List(_ context.Context, _, _ int) ([]models.User, error) {
	return s.ListAll(context.Background())
}
func (s *userRepoStub) ListByRole(_ context.Context, role string) ([]models.User, error) {
	var out []models.User
	for _, u := range s.users {
		if u.Role == role {
			out = append(out, *u)
		}
	}
	return out, nil
}
func (s *userRepoStub) ListAll(_ context.Context) ([]models.User, error) {
	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, *u)
	}
	return out, nil
}
func (s *userRepoStub) ListFavoriteLists(ctx context.Context) ([][]uint, error) {
	if s.favoriteListsFn != nil {
		return s.favoriteListsFn(ctx)
	}
	var lists [][]uint
	for _, u := range s.users {
		lists = append(lists, u.FavoriteRecipeIDs)
	}
	return lists, nil
}
func (s *userRepoStub) UpdateFavorites(ctx context.Context, id uint, mutate func(*models.User) bool) (*models.User, error) {
	if s.updateFavoritesFn != nil {
		return s.updateFavoritesFn(ctx, id, mutate)
	}
	u, ok := s.users[id]
	if !ok {
		return nil, models.NewNotFoundError("User", id)
	}
	mutate(u)
	cp := *u
	return &cp, nil
}

// recipeRepoStub is a stub for repository.RecipeRepository.
type recipeRepoStub struct {
	recipes    map[uint]*models.Recipe
	nextID     uint
	moderateFn func(context.Context, uint, models.ModerationStatus, uint, time.Time, string) error
	listFn     func(context.Context, models.RecipeFilter) ([]models.Recipe, int64, error)
	recentFn   func(context.Context, int) ([]models.Recipe, error)
}

func newRecipeRepoStub(recipes ...*models.Recipe) *recipeRepoStub {
	s := &recipeRepoStub{recipes: make(map[uint]*models.Recipe), nextID: 1}
	for _, r := range recipes {
		s.recipes[r.ID] = r
		if r.ID >= s.nextID {
			s.nextID = r.ID + 1
		}
	}
	return s
}

func (s *recipeRepoStub) Create(_ context.Context, recipe *models.Recipe) error {
	recipe.ID = s.nextID
	s.nextID++
	cp := *recipe
	s.recipes[recipe.ID] = &cp
	return nil
}
func (s *recipeRepoStub) GetByID(_ context.Context, id uint) (*models.Recipe, error) {
	r, ok := s.recipes[id]
	if !ok {
		return nil, models.NewNotFoundError("Recipe", id)
	}
	cp := *r
	return &cp, nil
}
func (s *recipeRepoStub) Update(_ context.Context, recipe *models.Recipe) error {
	cp := *recipe
	s.recipes[recipe.ID] = &cp
	return nil
}
func (s *recipeRepoStub) SetActive(_ context.Context, id uint, active bool) error {
	r, ok := s.recipes[id]
	if !ok {
		return models.NewNotFoundError("Recipe", id)
	}
	r.Active = active
	return nil
}
func (s *recipeRepoStub) Moderate(ctx context.Context, id uint, status models.ModerationStatus, moderatorID uint, at time.Time, reason string) error {
	if s.moderateFn != nil {
		return s.moderateFn(ctx, id, status, moderatorID, at, reason)
	}
	r, ok := s.recipes[id]
	if !ok {
		return models.NewNotFoundError("Recipe", id)
	}
	r.Status = status
	r.ModeratorID = &moderatorID
	r.ModeratedAt = &at
	r.RejectionReason = reason
	return nil
}
func (s *recipeRepoStub) List(ctx context.Context, filter models.RecipeFilter) ([]models.Recipe, int64, error) {
	if s.listFn != nil {
		return s.listFn(ctx, filter)
	}
	return nil, 0, nil
}
func (s *recipeRepoStub) ListByIDs(_ context.Context, ids []uint) ([]models.Recipe, error) {
	var out []models.Recipe
	for _, id := range ids {
		if r, ok := s.recipes[id]; ok {
			out = append(out, *r)
		}
	}
	return out, nil
}
func (s *recipeRepoStub) ListRecent(ctx context.Context, limit int) ([]models.Recipe, error) {
	if s.recentFn != nil {
		return s.recentFn(ctx, limit)
	}
	return nil, nil
}
func (s *recipeRepoStub) ListAll(_ context.Context) ([]models.Recipe, error) { return nil, nil }
func (s *recipeRepoStub) Categories(_ context.Context) ([]string, error)    { return []string{}, nil }

// communityRepoStub is a stub for repository.CommunityRecipeRepository.
type communityRepoStub struct {
	recipes  map[uint]*models.CommunityRecipe
	nextID   uint
	deleted  []uint
	toggleFn func(context.Context, uint, uint) (*models.LikeResult, error)
}

func newCommunityRepoStub(recipes ...*models.CommunityRecipe) *communityRepoStub {
	s := &communityRepoStub{recipes: make(map[uint]*models.CommunityRecipe), nextID: 1}
	for _, r := range recipes {
		s.recipes[r.ID] = r
		if r.ID >= s.nextID {
			s.nextID = r.ID + 1
		}
	}
	return s
}

func (s *communityRepoStub) Create(_ context.Context, recipe *models.CommunityRecipe) error {
	recipe.ID = s.nextID
	s.nextID++
	cp := *recipe
	s.recipes[recipe.ID] = &cp
	return nil
}
func (s *communityRepoStub) GetByID(_ context.Context, id uint) (*models.CommunityRecipe, error) {
	r, ok := s.recipes[id]
	if !ok {
		return nil, models.NewNotFoundError("Community recipe", id)
	}
	cp := *r
	return &cp, nil
}
func (s *communityRepoStub) Update(_ context.Context, recipe *models.CommunityRecipe) error {
	cp := *recipe
	s.recipes[recipe.ID] = &cp
	return nil
}
func (s *communityRepoStub) Delete(_ context.Context, id uint) error {
	if _, ok := s.recipes[id]; !ok {
		return models.NewNotFoundError("Community recipe", id)
	}
	delete(s.recipes, id)
	s.deleted = append(s.deleted, id)
	return nil
}
func (s *communityRepoStub) ListPublished(_ context.Context, _, _ int) ([]models.CommunityRecipe, error) {
	return nil, nil
}
func (s *communityRepoStub) ListByAuthor(_ context.Context, _ uint) ([]models.CommunityRecipe, error) {
	return nil, nil
}
func (s *communityRepoStub) ListPending(_ context.Context, _, _ int) ([]models.CommunityRecipe, error) {
	return nil, nil
}
func (s *communityRepoStub) ListAll(_ context.Context) ([]models.CommunityRecipe, error) {
	return nil, nil
}
func (s *communityRepoStub) SetReview(_ context.Context, id uint, published, rejected bool, reason string) error {
	r, ok := s.recipes[id]
	if !ok {
		return models.NewNotFoundError("Community recipe", id)
	}
	r.Published, r.Rejected, r.RejectionReason = published, rejected, reason
	return nil
}
func (s *communityRepoStub) ToggleLike(ctx context.Context, id, userID uint) (*models.LikeResult, error) {
	if s.toggleFn != nil {
		return s.toggleFn(ctx, id, userID)
	}
	r, ok := s.recipes[id]
	if !ok {
		return nil, models.NewNotFoundError("Community recipe", id)
	}
	liked := r.ToggleLike(userID)
	return &models.LikeResult{Liked: liked, LikesCount: r.LikesCount}, nil
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	comments map[uint]*models.Comment
	nextID   uint
	created  []*models.Comment
	deleted  []uint
}

func newCommentRepoStub(comments ...*models.Comment) *commentRepoStub {
	s := &commentRepoStub{comments: make(map[uint]*models.Comment), nextID: 1}
	for _, c := range comments {
		s.comments[c.ID] = c
		if c.ID >= s.nextID {
			s.nextID = c.ID + 1
		}
	}
	return s
}

func (s *commentRepoStub) Create(_ context.Context, comment *models.Comment) error {
	comment.ID = s.nextID
	s.nextID++
	s.comments[comment.ID] = comment
	s.created = append(s.created, comment)
	return nil
}
func (s *commentRepoStub) GetByID(_ context.Context, id uint) (*models.Comment, error) {
	c, ok := s.comments[id]
	if !ok {
		return nil, models.NewNotFoundError("Comment", id)
	}
	cp := *c
	return &cp, nil
}
func (s *commentRepoStub) ListTopLevel(_ context.Context, _ uint, _, _ int) ([]models.Comment, error) {
	return nil, nil
}
func (s *commentRepoStub) ListReplies(_ context.Context, _ uint) ([]models.Comment, error) {
	return nil, nil
}
func (s *commentRepoStub) ListAll(_ context.Context) ([]models.Comment, error) { return nil, nil }
func (s *commentRepoStub) Delete(_ context.Context, comment *models.Comment) (int, error) {
	delete(s.comments, comment.ID)
	s.deleted = append(s.deleted, comment.ID)
	return 1, nil
}

func adminChecker(adminIDs ...uint) AdminChecker {
	return func(_ context.Context, userID uint) (bool, error) {
		for _, id := range adminIDs {
			if id == userID {
				return true, nil
			}
		}
		return false, nil
	}
}

func assertAppErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected *models.AppError, got %T", err)
	assert.Equal(t, code, appErr.Code)
}

func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertAppErrorCode(t, err, models.CodeValidation)
}
