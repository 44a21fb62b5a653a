// Package sqlite implements the store interfaces on SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kaibonsol/recipe-chat/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS recipes (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	prompt     TEXT NOT NULL DEFAULT '',
	document   TEXT NOT NULL,
	favorite   INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_recipes_favorite ON recipes(favorite, created_at);
`

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New opens (creating if needed) the database at dbPath and applies the
// schema.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, func(db *sql.DB) error {
		_, err := db.Exec(schema)
		return err
	})
}

// NewWithSetup opens the database at dbPath and runs a setup function
// before the store is handed out. Tests use it to apply alternative
// schemas or seed data.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single writer connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup sqlite: %w", err)
		}
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ==== RecipeStore implementation ====

// SaveRecipe inserts a recipe-box entry.
func (s *SQLiteStore) SaveRecipe(ctx context.Context, rec *store.Recipe) error {
	query := `
		INSERT INTO recipes (id, title, prompt, document, favorite, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, query,
		rec.ID, rec.Title, rec.Prompt, rec.Document, rec.Favorite, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert recipe: %w", err)
	}
	return nil
}

// GetRecipe retrieves one entry by id.
func (s *SQLiteStore) GetRecipe(ctx context.Context, id string) (*store.Recipe, error) {
	query := `
		SELECT id, title, prompt, document, favorite, created_at
		FROM recipes
		WHERE id = ?
	`
	var rec store.Recipe
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&rec.ID,
		&rec.Title,
		&rec.Prompt,
		&rec.Document,
		&rec.Favorite,
		&rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("recipe %s: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query recipe: %w", err)
	}
	return &rec, nil
}

// ListRecipes returns all entries, favorites first, newest first within
// each group.
func (s *SQLiteStore) ListRecipes(ctx context.Context) ([]*store.Recipe, error) {
	query := `
		SELECT id, title, prompt, document, favorite, created_at
		FROM recipes
		ORDER BY favorite DESC, created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query recipes: %w", err)
	}
	defer rows.Close()

	var recipes []*store.Recipe
	for rows.Next() {
		var rec store.Recipe
		err := rows.Scan(
			&rec.ID,
			&rec.Title,
			&rec.Prompt,
			&rec.Document,
			&rec.Favorite,
			&rec.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan recipe: %w", err)
		}
		recipes = append(recipes, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recipes: %w", err)
	}
	return recipes, nil
}

// SetFavorite flips the favorite flag on one entry.
func (s *SQLiteStore) SetFavorite(ctx context.Context, id string, favorite bool) error {
	query := `UPDATE recipes SET favorite = ? WHERE id = ?`
	result, err := s.db.ExecContext(ctx, query, favorite, id)
	if err != nil {
		return fmt.Errorf("update favorite: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("recipe %s: %w", id, store.ErrNotFound)
	}
	return nil
}

// DeleteRecipe removes one entry.
func (s *SQLiteStore) DeleteRecipe(ctx context.Context, id string) error {
	query := `DELETE FROM recipes WHERE id = ?`
	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete recipe: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("recipe %s: %w", id, store.ErrNotFound)
	}
	return nil
}

// Ensure SQLiteStore implements store.Store
var _ store.Store = (*SQLiteStore)(nil)
