// Package store defines the persistence interfaces for the recipe box.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound reports a lookup that matched nothing.
var ErrNotFound = errors.New("not found")

// Recipe is one saved recipe-box entry. Document holds the full recipe
// JSON exactly as it was served to the client that saved it.
type Recipe struct {
	ID        string
	Title     string
	Prompt    string
	Document  string
	Favorite  bool
	CreatedAt time.Time
}

// RecipeStore handles recipe-box persistence.
type RecipeStore interface {
	// SaveRecipe inserts a recipe-box entry.
	SaveRecipe(ctx context.Context, rec *Recipe) error

	// GetRecipe retrieves one entry by id.
	GetRecipe(ctx context.Context, id string) (*Recipe, error)

	// ListRecipes returns all entries, favorites first, newest first
	// within each group.
	ListRecipes(ctx context.Context) ([]*Recipe, error)

	// SetFavorite flips the favorite flag on one entry.
	SetFavorite(ctx context.Context, id string, favorite bool) error

	// DeleteRecipe removes one entry.
	DeleteRecipe(ctx context.Context, id string) error
}

// Store aggregates all storage interfaces.
type Store interface {
	RecipeStore

	// Close closes the underlying database connection.
	Close() error
}
