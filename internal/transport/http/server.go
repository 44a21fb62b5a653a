package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/kaibonsol/recipe-chat/internal/config"
	"github.com/kaibonsol/recipe-chat/internal/core"
	"github.com/kaibonsol/recipe-chat/internal/recipe"
	"github.com/kaibonsol/recipe-chat/internal/store"
)

// NewServer builds the HTTP server: health, the WebSocket relay, and the
// recipe REST API.
func NewServer(registry *core.Registry, generator *recipe.Generator, st store.Store, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	router.GET("/health", healthHandler)
	router.GET("/ws", gin.WrapH(NewWSHandler(registry, cfg.MessagesPerMinute, logger)))

	recipes := NewRecipeHandlers(generator, st, logger)
	rooms := NewRoomHandlers(registry, logger)

	api := router.Group("/api")
	{
		api.POST("/recipes/generate", recipes.GenerateRecipe)
		api.POST("/recipes", recipes.SaveRecipe)
		api.GET("/recipes", recipes.ListRecipes)
		api.GET("/recipes/:id", recipes.GetRecipe)
		api.PATCH("/recipes/:id/favorite", recipes.SetFavorite)
		api.DELETE("/recipes/:id", recipes.DeleteRecipe)
		api.GET("/rooms", rooms.ListRooms)
	}

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
