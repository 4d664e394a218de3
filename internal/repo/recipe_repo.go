// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Recipe
// model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only
// persistence and query composition.
//
// Error semantics:
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
//
// Functions:
//
//   - CreateRecipe(ctx, db, userID, text) -> *domain.Recipe, error
//     Inserts a new Recipe row with a UTC timestamp; the store assigns
//     the integer ID. Repeated calls with identical content create
//     distinct rows; there is no deduplication or upsert.
//
//   - ListRecipes(ctx, db, userID) -> []domain.Recipe, error
//     Returns all recipes for a user, newest first. Ties on created_at
//     fall back to descending ID (store insertion order).
//
//   - CountRecipes(ctx, db, userID) -> (int64, error)
//     Returns the total number of recipes owned by the user.
//
// This repository is wrapped by services.RecipeService, which enforces
// input validation and orchestrates generation + persistence.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/platewise/go-recipe-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for consistency across layers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateRecipe inserts a new Recipe row owned by userID with the given text.
// CreatedAt is set to UTC; the integer ID is assigned by the store.
//
// On success, it returns the persisted Recipe. On failure, it returns a DB error.
func CreateRecipe(ctx context.Context, db *gorm.DB, userID, text string) (*domain.Recipe, error) {
	r := &domain.Recipe{
		UserID:    userID,
		Recipe:    text,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(r).Error; err != nil {
		return nil, err
	}
	return r, nil
}

// ListRecipes returns all recipes belonging to userID, ordered by creation
// time descending (most recent first) with descending ID as tie-break.
// It returns an empty slice if the user has no recipes. On DB error, it
// returns the error.
func ListRecipes(ctx context.Context, db *gorm.DB, userID string) ([]domain.Recipe, error) {
	var out []domain.Recipe
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&out).Error
	return out, err
}

// CountRecipes returns the total number of recipes owned by userID.
// On DB error, it returns the error.
func CountRecipes(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Recipe{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	return total, err
}
