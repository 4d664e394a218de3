// Package domain defines the persistence model for generated recipes.
// Types here are mapped with GORM and form the data layer of the
// recipe backend.
package domain

import "time"

// Recipe represents one generated recipe owned by a user. Records are
// write-once: they are created by the save gateway after a successful
// generation and are never updated or deleted afterwards.
//
// Fields:
//   - ID: store-assigned auto-increment primary key, immutable once set.
//   - UserID: opaque identity-provider subject id; indexed for the
//     owner-scoped history query.
//   - Recipe: unstructured recipe text (ingredients/steps are not modeled).
//   - CreatedAt: store-assigned insertion timestamp.
type Recipe struct {
	ID        uint      `json:"id"         gorm:"primaryKey;autoIncrement"`
	UserID    string    `json:"user_id"    gorm:"type:varchar(64);not null;index:idx_user_recipes"`
	Recipe    string    `json:"recipe"     gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for Recipe.
func (Recipe) TableName() string { return "recipes" }
