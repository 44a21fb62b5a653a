// Non-interactive smoke test: send one prompt, wait for the full
// assistant reply, exit non-zero on any relay error.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"

	"github.com/kaibonsol/recipe-chat/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	name := flag.String("name", "smoke", "display name")
	room := flag.String("room", "smoke-test", "room name")
	text := flag.String("text", "suggest a quick pasta dinner", "prompt to send")
	timeout := flag.Duration("timeout", 2*time.Minute, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	target := fmt.Sprintf("%s?room=%s&name=%s", *addr, url.QueryEscape(*room), url.QueryEscape(*name))
	conn, _, err := websocket.Dial(ctx, target, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	msgID := uuid.NewString()
	ev := proto.ClientEvent{Type: proto.TypeUserMessage, ID: msgID, Text: *text}
	if err := wsjson.Write(ctx, conn, ev); err != nil {
		return fmt.Errorf("send user message: %w", err)
	}

	var (
		sawCommit   bool
		assistantID string
		reply       strings.Builder
	)
	for {
		var f struct {
			Type    string `json:"type"`
			Role    string `json:"role,omitempty"`
			ID      string `json:"id,omitempty"`
			Text    string `json:"text,omitempty"`
			Message string `json:"message,omitempty"`
		}
		if err := wsjson.Read(ctx, conn, &f); err != nil {
			return fmt.Errorf("read frame: %w", err)
		}

		switch f.Type {
		case proto.TypeMessageAdded:
			if f.Role == proto.RoleUser && f.ID == msgID {
				sawCommit = true
			}
			if f.Role == proto.RoleAssistant {
				assistantID = f.ID
			}
		case proto.TypeAssistantDelta:
			if f.ID == assistantID {
				reply.WriteString(f.Text)
			}
		case proto.TypeAssistantDone:
			if !sawCommit {
				return fmt.Errorf("assistant finished but the user message was never committed")
			}
			fmt.Printf("ok: %d byte reply for message %s\n%s\n", reply.Len(), msgID, reply.String())
			return nil
		case proto.TypeError:
			return fmt.Errorf("relay error: %s", f.Message)
		}
	}
}
