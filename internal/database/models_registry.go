package database

import "recetario/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Recipe{},
		&models.CommunityRecipe{},
		&models.Comment{},
	}
}
