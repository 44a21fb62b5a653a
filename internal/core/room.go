package core

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kaibonsol/recipe-chat/internal/proto"
)

type opKind int

const (
	opRegister opKind = iota
	opUnregister
	opUserMessage
	opAssistantDelta
	opAssistantDone
	opGenerationFailed
	opMemberCount
)

// roomOp is one mutation or query handled by the room loop.
type roomOp struct {
	kind   opKind
	client *Client
	id     string
	text   string
	reply  chan int
}

// Room owns the member set and the single-flight generation gate for one
// room id. All state lives in the Run loop; every mutation arrives as a
// roomOp, so no mutex guards the fields below.
type Room struct {
	ID string

	completer Completer
	log       *zerolog.Logger

	ops  chan roomOp
	done chan struct{}

	// Owned by Run.
	members    map[*Client]struct{}
	generating bool
}

// NewRoom constructs a room. It makes no progress until Run is started.
func NewRoom(id string, completer Completer, logger *zerolog.Logger) *Room {
	return &Room{
		ID:        id,
		completer: completer,
		log:       logger,
		ops:       make(chan roomOp, 64),
		done:      make(chan struct{}),
		members:   make(map[*Client]struct{}),
	}
}

// Run processes ops until ctx is cancelled.
func (r *Room) Run(ctx context.Context) {
	defer close(r.done)
	for {
		select {
		case <-ctx.Done():
			return
		case op := <-r.ops:
			r.handle(ctx, op)
		}
	}
}

// Register adds a client to the room. Registering twice is a no-op.
func (r *Room) Register(c *Client) {
	r.post(roomOp{kind: opRegister, client: c})
}

// Unregister removes a client. Safe to call more than once.
func (r *Room) Unregister(c *Client) {
	r.post(roomOp{kind: opUnregister, client: c})
}

// PostUserMessage submits one user message for broadcast and generation.
func (r *Room) PostUserMessage(c *Client, id, text string) {
	r.post(roomOp{kind: opUserMessage, client: c, id: id, text: text})
}

// MemberCount reports the current member count, 0 once the room has shut
// down.
func (r *Room) MemberCount() int {
	reply := make(chan int, 1)
	if !r.post(roomOp{kind: opMemberCount, reply: reply}) {
		return 0
	}
	select {
	case n := <-reply:
		return n
	case <-r.done:
		return 0
	}
}

// post enqueues an op unless the room has shut down.
func (r *Room) post(op roomOp) bool {
	select {
	case r.ops <- op:
		return true
	case <-r.done:
		return false
	}
}

func (r *Room) handle(ctx context.Context, op roomOp) {
	switch op.kind {
	case opRegister:
		r.members[op.client] = struct{}{}
		r.log.Debug().Str("room", r.ID).Str("client", op.client.ID).Int("members", len(r.members)).Msg("client registered")
	case opUnregister:
		if _, ok := r.members[op.client]; !ok {
			return
		}
		delete(r.members, op.client)
		r.log.Debug().Str("room", r.ID).Str("client", op.client.ID).Int("members", len(r.members)).Msg("client unregistered")
	case opUserMessage:
		r.handleUserMessage(ctx, op)
	case opAssistantDelta:
		r.broadcast(proto.AssistantDeltaFrame(op.id, op.text))
	case opAssistantDone:
		// Terminal op: the broadcast and the gate release are one step,
		// so the next user message always sees the gate open.
		r.broadcast(proto.AssistantDoneFrame(op.id))
		r.generating = false
	case opGenerationFailed:
		r.broadcast(proto.ErrorFrame(op.text))
		r.generating = false
	case opMemberCount:
		op.reply <- len(r.members)
	}
}

// handleUserMessage commits the user message, then starts a generation
// session unless one is already running. The user message is committed
// even when the room is busy.
func (r *Room) handleUserMessage(ctx context.Context, op roomOp) {
	if strings.TrimSpace(op.text) == "" {
		r.broadcast(proto.ErrorFrame(MsgEmptyMessage))
		return
	}
	r.broadcast(proto.MessageAddedFrame(proto.RoleUser, op.id, op.text, time.Now().UnixMilli()))

	if r.generating {
		r.broadcast(proto.ErrorFrame(MsgRoomBusy))
		return
	}
	r.generating = true

	assistantID := uuid.NewString()
	r.broadcast(proto.MessageAddedFrame(proto.RoleAssistant, assistantID, "", time.Now().UnixMilli()))
	r.log.Info().Str("room", r.ID).Str("client", op.client.ID).Str("assistant_id", assistantID).Msg("generation started")
	go r.generate(ctx, assistantID, strings.TrimSpace(op.text))
}

// generate runs one completion session. Fragments flow back to the loop
// as ops, so delta order is the production order. The deferred terminal
// op releases the gate on every path; sessions run under the room's
// context and outlive the connection that triggered them.
func (r *Room) generate(ctx context.Context, assistantID, prompt string) {
	terminal := roomOp{kind: opGenerationFailed, id: assistantID, text: MsgGenerationFailed}
	defer func() { r.post(terminal) }()

	stream, err := r.completer.StreamChat(ctx, prompt)
	if err != nil {
		r.log.Warn().Err(err).Str("room", r.ID).Msg("completion request failed")
		terminal.text = MsgGenerationFailed + ": " + err.Error()
		return
	}
	defer stream.Close()

	for {
		frag, err := stream.Next()
		if errors.Is(err, io.EOF) {
			terminal = roomOp{kind: opAssistantDone, id: assistantID}
			return
		}
		if err != nil {
			r.log.Warn().Err(err).Str("room", r.ID).Msg("completion stream failed")
			terminal.text = MsgGenerationFailed + ": " + err.Error()
			return
		}
		if !r.post(roomOp{kind: opAssistantDelta, id: assistantID, text: frag}) {
			return
		}
	}
}

// broadcast fans one encoded frame out to every member. Encoding failures
// are logged and dropped.
func (r *Room) broadcast(frame []byte, err error) {
	if err != nil {
		r.log.Error().Err(err).Str("room", r.ID).Msg("encode event")
		return
	}
	for client := range r.members {
		client.TrySend(frame)
	}
}
