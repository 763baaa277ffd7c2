package repository

import (
	"testing"

	"recetario/internal/models"
	"recetario/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return testutil.NewSQLiteDB(t)
}

func seedUser(t *testing.T, db *gorm.DB, name, email string) *models.User {
	t.Helper()
	u := &models.User{Name: name, Email: email, Password: "hash", Role: models.RoleUser}
	require.NoError(t, db.Create(u).Error)
	return u
}

func seedCommunityRecipe(t *testing.T, db *gorm.DB, authorID uint, name string, published bool) *models.CommunityRecipe {
	t.Helper()
	r := &models.CommunityRecipe{
		RecipeContent: models.RecipeContent{Name: name, Category: "postres"},
		AuthorID:      authorID,
		LikedBy:       []uint{},
	}
	require.NoError(t, db.Create(r).Error)
	if published {
		require.NoError(t, db.Model(r).Update("published", true).Error)
		r.Published = true
	}
	return r
}
