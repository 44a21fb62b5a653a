package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kaibonsol/recipe-chat/internal/llm"
	"github.com/kaibonsol/recipe-chat/internal/recipe"
	"github.com/kaibonsol/recipe-chat/internal/store"
)

// RecipeHandlers provides HTTP handlers for recipe generation and the
// recipe box.
type RecipeHandlers struct {
	generator *recipe.Generator
	store     store.Store
	log       *zerolog.Logger
}

// NewRecipeHandlers creates a new recipe handlers instance.
func NewRecipeHandlers(generator *recipe.Generator, st store.Store, logger *zerolog.Logger) *RecipeHandlers {
	return &RecipeHandlers{
		generator: generator,
		store:     st,
		log:       logger,
	}
}

// GenerateRecipeRequest represents the generate request body.
type GenerateRecipeRequest struct {
	Prompt string `json:"prompt" binding:"required"`
}

// SaveRecipeRequest represents the save-to-box request body.
type SaveRecipeRequest struct {
	Prompt string        `json:"prompt"`
	Recipe recipe.Recipe `json:"recipe"`
}

// SetFavoriteRequest represents the favorite toggle request body.
type SetFavoriteRequest struct {
	Favorite bool `json:"favorite"`
}

// RecipeBoxEntry represents a recipe-box entry in API responses.
type RecipeBoxEntry struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Prompt    string        `json:"prompt,omitempty"`
	Recipe    recipe.Recipe `json:"recipe"`
	Favorite  bool          `json:"favorite"`
	CreatedAt string        `json:"created_at"`
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// GenerateRecipe turns a free-form prompt into a validated recipe.
// POST /api/recipes/generate
func (h *RecipeHandlers) GenerateRecipe(c *gin.Context) {
	var req GenerateRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid generate request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "prompt is empty"})
		return
	}

	rec, err := h.generator.Generate(c.Request.Context(), prompt)
	if err != nil {
		if errors.Is(err, recipe.ErrMalformedOutput) {
			h.log.Warn().Err(err).Msg("model returned invalid recipe")
			c.JSON(http.StatusBadGateway, ErrorResponse{Error: "model returned an invalid recipe"})
			return
		}
		var upstream *llm.UpstreamError
		if errors.As(err, &upstream) {
			h.log.Error().Int("status", upstream.Status).Msg("completion api returned error status")
		} else {
			h.log.Error().Err(err).Msg("completion api unreachable")
		}
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "completion api unavailable"})
		return
	}

	h.log.Info().Str("recipe_id", rec.ID).Str("title", rec.Title).Msg("recipe generated")
	c.JSON(http.StatusOK, rec)
}

// SaveRecipe stores a generated recipe in the recipe box.
// POST /api/recipes
func (h *RecipeHandlers) SaveRecipe(c *gin.Context) {
	var req SaveRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid save recipe request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Recipe.Title) == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "recipe title is required"})
		return
	}

	if req.Recipe.ID == "" {
		req.Recipe.ID = uuid.NewString()
	}
	doc, err := json.Marshal(req.Recipe)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to encode recipe document")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	rec := &store.Recipe{
		ID:       req.Recipe.ID,
		Title:    req.Recipe.Title,
		Prompt:   req.Prompt,
		Document: string(doc),
	}
	if err := h.store.SaveRecipe(c.Request.Context(), rec); err != nil {
		// SQLite UNIQUE constraint on the primary key
		if strings.Contains(err.Error(), "UNIQUE") {
			c.JSON(http.StatusConflict, ErrorResponse{Error: "recipe with this id already exists"})
			return
		}
		h.log.Error().Err(err).Str("recipe_id", rec.ID).Msg("failed to save recipe")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	entry, err := h.entryFromRecord(rec)
	if err != nil {
		h.log.Error().Err(err).Str("recipe_id", rec.ID).Msg("failed to decode saved recipe")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Str("recipe_id", rec.ID).Str("title", rec.Title).Msg("recipe saved")
	c.JSON(http.StatusCreated, entry)
}

// ListRecipes returns all recipe-box entries, favorites first.
// GET /api/recipes
func (h *RecipeHandlers) ListRecipes(c *gin.Context) {
	records, err := h.store.ListRecipes(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list recipes")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]RecipeBoxEntry, 0, len(records))
	for _, rec := range records {
		entry, err := h.entryFromRecord(rec)
		if err != nil {
			h.log.Error().Err(err).Str("recipe_id", rec.ID).Msg("skipping undecodable recipe")
			continue
		}
		response = append(response, entry)
	}

	h.log.Debug().Int("recipe_count", len(response)).Msg("recipes listed")
	c.JSON(http.StatusOK, response)
}

// GetRecipe returns one recipe-box entry.
// GET /api/recipes/:id
func (h *RecipeHandlers) GetRecipe(c *gin.Context) {
	id := c.Param("id")

	rec, err := h.store.GetRecipe(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "recipe not found"})
			return
		}
		h.log.Error().Err(err).Str("recipe_id", id).Msg("failed to get recipe")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	entry, err := h.entryFromRecord(rec)
	if err != nil {
		h.log.Error().Err(err).Str("recipe_id", id).Msg("failed to decode recipe")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, entry)
}

// SetFavorite toggles the favorite flag on one entry.
// PATCH /api/recipes/:id/favorite
func (h *RecipeHandlers) SetFavorite(c *gin.Context) {
	id := c.Param("id")

	var req SetFavoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid favorite request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if err := h.store.SetFavorite(c.Request.Context(), id, req.Favorite); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "recipe not found"})
			return
		}
		h.log.Error().Err(err).Str("recipe_id", id).Msg("failed to update favorite")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Str("recipe_id", id).Bool("favorite", req.Favorite).Msg("favorite updated")
	c.Status(http.StatusNoContent)
}

// DeleteRecipe removes one entry from the recipe box.
// DELETE /api/recipes/:id
func (h *RecipeHandlers) DeleteRecipe(c *gin.Context) {
	id := c.Param("id")

	if err := h.store.DeleteRecipe(c.Request.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "recipe not found"})
			return
		}
		h.log.Error().Err(err).Str("recipe_id", id).Msg("failed to delete recipe")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Str("recipe_id", id).Msg("recipe deleted")
	c.Status(http.StatusNoContent)
}

func (h *RecipeHandlers) entryFromRecord(rec *store.Recipe) (RecipeBoxEntry, error) {
	var doc recipe.Recipe
	if err := json.Unmarshal([]byte(rec.Document), &doc); err != nil {
		return RecipeBoxEntry{}, fmt.Errorf("decode stored recipe %s: %w", rec.ID, err)
	}
	return RecipeBoxEntry{
		ID:        rec.ID,
		Title:     rec.Title,
		Prompt:    rec.Prompt,
		Recipe:    doc,
		Favorite:  rec.Favorite,
		CreatedAt: rec.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}, nil
}
