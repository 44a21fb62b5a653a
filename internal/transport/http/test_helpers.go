package http

import (
	"context"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/kaibonsol/recipe-chat/internal/config"
	"github.com/kaibonsol/recipe-chat/internal/core"
	"github.com/kaibonsol/recipe-chat/internal/llm"
	"github.com/kaibonsol/recipe-chat/internal/recipe"
	"github.com/kaibonsol/recipe-chat/internal/store/sqlite"
)

// stubCompleter streams the same canned fragments for every chat
// request, through the real event-stream reader.
type stubCompleter struct {
	fragments []string
}

func (s *stubCompleter) StreamChat(_ context.Context, _ string) (*llm.Stream, error) {
	var b strings.Builder
	for _, frag := range s.fragments {
		fmt.Fprintf(&b, "data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n\n", frag)
	}
	b.WriteString("data: [DONE]\n\n")
	return llm.NewStream(io.NopCloser(strings.NewReader(b.String()))), nil
}

// jsonRecipeCompleter returns a canned structured completion.
type jsonRecipeCompleter struct {
	raw string
	err error
}

func (f *jsonRecipeCompleter) CompleteJSON(_ context.Context, _, _ string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []byte(f.raw), nil
}

// startTestServer brings up the full HTTP surface over an in-memory
// store and the given fake completers.
func startTestServer(t *testing.T, completer core.Completer, jsonCompleter recipe.JSONCompleter) *httptest.Server {
	t.Helper()

	logger := zerolog.Nop()

	registry := core.NewRegistry(completer, &logger)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	registry.Start(ctx)

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	generator := recipe.NewGenerator(jsonCompleter, &logger)

	cfg := config.Default()
	server := NewServer(registry, generator, st, &cfg, &logger)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return ts
}
