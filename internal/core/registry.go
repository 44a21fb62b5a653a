package core

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Registry resolves room ids to live rooms, creating them on first use.
// Rooms are never evicted; they live for the process lifetime.
type Registry struct {
	completer Completer
	log       *zerolog.Logger

	mu      sync.Mutex
	baseCtx context.Context
	rooms   map[string]*Room
}

// NewRegistry constructs an empty registry.
func NewRegistry(completer Completer, logger *zerolog.Logger) *Registry {
	return &Registry{
		completer: completer,
		log:       logger,
		rooms:     make(map[string]*Room),
	}
}

// Start records the context room loops run under. Rooms created before
// Start fall back to context.Background.
func (r *Registry) Start(ctx context.Context) {
	r.mu.Lock()
	r.baseCtx = ctx
	r.mu.Unlock()
}

// GetOrCreate returns the room for id, starting its loop on first use.
// Concurrent callers for the same id get the same instance.
func (r *Registry) GetOrCreate(id string) *Room {
	r.mu.Lock()
	defer r.mu.Unlock()

	if room, ok := r.rooms[id]; ok {
		return room
	}

	room := NewRoom(id, r.completer, r.log)
	ctx := r.baseCtx
	if ctx == nil {
		ctx = context.Background()
	}
	go room.Run(ctx)
	r.rooms[id] = room
	r.log.Info().Str("room", id).Msg("room created")
	return room
}

// Rooms snapshots the live rooms.
func (r *Registry) Rooms() []*Room {
	r.mu.Lock()
	defer r.mu.Unlock()

	rooms := make([]*Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		rooms = append(rooms, room)
	}
	return rooms
}
