// Package gorm provides GORM model definitions for the application
package gorm

import (
	"time"

	"gorm.io/gorm"
)

// RecipeModel represents the GORM model for recipes.
// IsActive and Score deliberately carry no gorm default so that false and 0
// are written as given.
type RecipeModel struct {
	ID              int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Title           string    `gorm:"column:titulo;type:varchar(255);not null"`
	Description     string    `gorm:"column:descripcion;type:text;not null"`
	IngredientsData string    `gorm:"column:ingredientes_data;type:text;not null"`
	Score           int       `gorm:"column:sostenibilidad_score;not null"`
	IsActive        bool      `gorm:"column:is_active;not null;index:idx_recetas_is_active"`
	CreatedAt       time.Time `gorm:"column:created_at;not null"`
}

// TableName specifies the table name for RecipeModel
func (RecipeModel) TableName() string {
	return "recetas"
}

// IngredientModel represents the GORM model for the ingredient catalog
type IngredientModel struct {
	ID              int64   `gorm:"column:id;primaryKey;autoIncrement"`
	Name            string  `gorm:"column:nombre;type:varchar(120);not null;uniqueIndex:idx_ingredientes_nombre"`
	CarbonFootprint float64 `gorm:"column:huella_carbono;not null"`
}

// TableName specifies the table name for IngredientModel
func (IngredientModel) TableName() string {
	return "ingredientes"
}

// AutoMigrate creates or updates the catalog tables from the models.
// Deployed databases use the versioned SQL migrations instead.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&RecipeModel{}, &IngredientModel{})
}
