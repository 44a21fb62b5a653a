package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/kaibonsol/recipe-chat/internal/core"
)

// RoomHandlers provides HTTP handlers for live-room introspection.
type RoomHandlers struct {
	registry *core.Registry
	log      *zerolog.Logger
}

// NewRoomHandlers creates a new room handlers instance.
func NewRoomHandlers(registry *core.Registry, logger *zerolog.Logger) *RoomHandlers {
	return &RoomHandlers{
		registry: registry,
		log:      logger,
	}
}

// RoomResponse represents a live room in API responses.
type RoomResponse struct {
	ID      string `json:"id"`
	Members int    `json:"members"`
}

// ListRooms lists live rooms with member counts.
// GET /api/rooms
func (h *RoomHandlers) ListRooms(c *gin.Context) {
	rooms := h.registry.Rooms()

	response := make([]RoomResponse, 0, len(rooms))
	for _, room := range rooms {
		response = append(response, RoomResponse{
			ID:      room.ID,
			Members: room.MemberCount(),
		})
	}

	h.log.Debug().Int("room_count", len(response)).Msg("rooms listed")
	c.JSON(http.StatusOK, response)
}
