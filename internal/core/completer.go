package core

import (
	"context"

	"github.com/kaibonsol/recipe-chat/internal/llm"
)

// Completer starts one streaming completion per user message. llm.Client
// is the production implementation; tests script streams over canned
// bodies with llm.NewStream.
type Completer interface {
	StreamChat(ctx context.Context, userText string) (*llm.Stream, error)
}
