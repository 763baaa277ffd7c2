package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"recetario/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := &models.User{Name: "Ana", Email: "ana@example.com", Password: "hash", Role: models.RoleUser}
	require.NoError(t, repo.Create(ctx, user))
	assert.NotZero(t, user.ID)

	got, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", got.Name)

	byEmail, err := repo.GetByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, user.ID, byEmail.ID)

	missing, err := repo.GetByEmail(ctx, "nobody@example.com")
	assert.NoError(t, err)
	assert.Nil(t, missing)

	_, err = repo.GetByID(ctx, 999)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeNotFound, appErr.Code)
}

func TestUserRepository_CreateDuplicateEmail(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.User{Name: "A", Email: "dup@example.com", Password: "x"}))
	err := repo.Create(ctx, &models.User{Name: "B", Email: "dup@example.com", Password: "y"})

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeConflict, appErr.Code)
	assert.Equal(t, "Email already in use", appErr.Message)
}

func TestUserRepository_CreateUniqueViolationPostgres(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "users"`)).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "users_email_key"})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.User{Name: "A", Email: "a@example.com", Password: "x"})

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeConflict, appErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByIDDatabaseError(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users"`)).
		WillReturnError(errors.New("connection reset"))

	_, err := repo.GetByID(context.Background(), 1)

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeInternal, appErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_UpdateFavorites(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	user := seedUser(t, db, "Luis", "luis@example.com")

	updated, err := repo.UpdateFavorites(ctx, user.ID, func(u *models.User) bool { return u.AddFavorite(5) })
	require.NoError(t, err)
	assert.Equal(t, []uint{5}, updated.FavoriteRecipeIDs)

	_, err = repo.UpdateFavorites(ctx, user.ID, func(u *models.User) bool { return u.AddFavorite(2) })
	require.NoError(t, err)

	lists, err := repo.ListFavoriteLists(ctx)
	require.NoError(t, err)
	require.Len(t, lists, 1)
	assert.Equal(t, []uint{5, 2}, lists[0])

	_, err = repo.UpdateFavorites(ctx, 404, func(u *models.User) bool { return true })
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeNotFound, appErr.Code)
}

func TestUserRepository_RolesAndProfile(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	a := seedUser(t, db, "A", "a@example.com")
	seedUser(t, db, "B", "b@example.com")

	require.NoError(t, repo.SetRole(ctx, a.ID, models.RoleAdmin))
	admins, err := repo.ListByRole(ctx, models.RoleAdmin)
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, a.ID, admins[0].ID)

	assert.Error(t, repo.SetRole(ctx, 999, models.RoleAdmin))

	a.Name = "Alicia"
	a.PhotoURL = "/media/a.jpg"
	require.NoError(t, repo.Update(ctx, a))
	got, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alicia", got.Name)
	assert.Equal(t, models.RoleAdmin, got.Role)

	require.NoError(t, repo.UpdatePassword(ctx, a.ID, "new-hash"))
	byEmail, err := repo.GetByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "new-hash", byEmail.Password)

	page, err := repo.List(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "b@example.com", page[0].Email)
}

func TestIsUniqueConstraintError(t *testing.T) {
	assert.True(t, isUniqueConstraintError(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isUniqueConstraintError(&pgconn.PgError{Code: "23503"}))
	assert.True(t, isUniqueConstraintError(errors.New("UNIQUE constraint failed: users.email")))
	assert.False(t, isUniqueConstraintError(nil))
	assert.False(t, isUniqueConstraintError(sqlmock.ErrCancelled))
}
