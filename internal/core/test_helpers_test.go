package core

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/kaibonsol/recipe-chat/internal/llm"
)

func testLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

// sseBody builds a canned completion stream carrying the given fragments.
func sseBody(fragments ...string) io.ReadCloser {
	var b strings.Builder
	for _, frag := range fragments {
		quoted, err := json.Marshal(frag)
		if err != nil {
			panic(err)
		}
		fmt.Fprintf(&b, "data: {\"choices\":[{\"delta\":{\"content\":%s}}]}\n\n", quoted)
	}
	b.WriteString("data: [DONE]\n\n")
	return io.NopCloser(strings.NewReader(b.String()))
}

// scriptedCompleter hands out one prepared stream body per call.
type scriptedCompleter struct {
	mu     sync.Mutex
	calls  int
	bodies []io.ReadCloser
	err    error
}

func (s *scriptedCompleter) StreamChat(ctx context.Context, userText string) (*llm.Stream, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if len(s.bodies) == 0 {
		return llm.NewStream(sseBody()), nil
	}
	body := s.bodies[0]
	s.bodies = s.bodies[1:]
	return llm.NewStream(body), nil
}

func (s *scriptedCompleter) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// frame is the decoded union of every relay → client event.
type frame struct {
	Type    string `json:"type"`
	Role    string `json:"role"`
	ID      string `json:"id"`
	Text    string `json:"text"`
	TS      int64  `json:"ts"`
	Message string `json:"message"`
}

func nextFrame(t *testing.T, c *Client) frame {
	t.Helper()

	select {
	case raw := <-c.Events:
		var f frame
		if err := json.Unmarshal(raw, &f); err != nil {
			t.Fatalf("decode frame %s: %v", raw, err)
		}
		return f
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for event")
	}
	return frame{}
}

func waitFrame(t *testing.T, c *Client, eventType string) frame {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case raw := <-c.Events:
			var f frame
			if err := json.Unmarshal(raw, &f); err != nil {
				t.Fatalf("decode frame %s: %v", raw, err)
			}
			if f.Type == eventType {
				return f
			}
		case <-deadline:
			t.Fatalf("expected event type %q not received", eventType)
		}
	}
}
