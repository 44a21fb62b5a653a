package http

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kaibonsol/recipe-chat/internal/core"
	"github.com/kaibonsol/recipe-chat/internal/proto"
)

// WSHandler upgrades HTTP connections and bridges them to a room.
type WSHandler struct {
	registry *core.Registry
	msgLimit int
	log      *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler. msgLimit caps user
// messages per connection per minute; zero disables the cap.
func NewWSHandler(registry *core.Registry, msgLimit int, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{registry: registry, msgLimit: msgLimit, log: logger}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	roomID := r.URL.Query().Get("room")
	if roomID == "" {
		stdhttp.Error(w, "missing room query parameter", stdhttp.StatusBadRequest)
		return
	}
	name := r.URL.Query().Get("name")

	ctx := r.Context()

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	client := core.NewClient(uuid.NewString(), name)
	room := h.registry.GetOrCreate(roomID)
	room.Register(client)
	defer room.Unregister(client)

	h.log.Info().Str("client_id", client.ID).Str("room_id", room.ID).Msg("ws client connected")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, room, client)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != 0 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Str("client_id", client.ID).Msg("ws connection closed with error")
		}
	}

	h.log.Info().Str("client_id", client.ID).Str("room_id", room.ID).Msg("ws client disconnected")
	conn.Close(status, reason)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, room *core.Room, client *core.Client) error {
	limiter := newRateLimiter(h.msgLimit)
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}

		ev, err := proto.ParseClientEvent(data)
		if err != nil {
			h.log.Debug().Err(err).Str("client_id", client.ID).Msg("malformed client event")
			h.replyError(client, err.Error())
			continue
		}

		switch ev.Type {
		case proto.TypeJoin:
			// Membership follows the connection; a join frame only
			// confirms the room the client believes it is in.
			h.log.Debug().Str("client_id", client.ID).Str("room_id", ev.RoomID).Msg("join acknowledged")
		case proto.TypeUserMessage:
			if !limiter.allow() {
				h.replyError(client, "message rate limit exceeded")
				continue
			}
			room.PostUserMessage(client, ev.ID, ev.Text)
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		select {
		case frame := <-client.Events:
			if err := conn.Write(ctx, websocket.MessageText, frame); err != nil {
				h.log.Error().Err(err).Str("client_id", client.ID).Msg("write ws event")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// replyError queues an error frame for this client only. It rides the
// same Events channel as broadcasts so the write loop stays the single
// writer on the connection.
func (h *WSHandler) replyError(client *core.Client, message string) {
	frame, err := proto.ErrorFrame(message)
	if err != nil {
		h.log.Error().Err(err).Msg("encode error frame")
		return
	}
	client.TrySend(frame)
}
