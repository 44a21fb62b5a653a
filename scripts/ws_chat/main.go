// Interactive WebSocket client for manual testing: type a prompt, watch
// the assistant reply stream in.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"

	"github.com/kaibonsol/recipe-chat/internal/proto"
)

// frame is the union of relay frames the script renders.
type frame struct {
	Type    string `json:"type"`
	Role    string `json:"role,omitempty"`
	ID      string `json:"id,omitempty"`
	Text    string `json:"text,omitempty"`
	TS      int64  `json:"ts,omitempty"`
	Message string `json:"message,omitempty"`
}

func main() {
	if err := run(); err != nil {
		log.Printf("ws_chat: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	name := flag.String("name", "cli-user", "display name")
	room := flag.String("room", "kitchen", "room to join")
	flag.Parse()

	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	target := fmt.Sprintf("%s?room=%s&name=%s", *addr, url.QueryEscape(*room), url.QueryEscape(*name))
	conn, _, err := websocket.Dial(ctx, target, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	join := proto.ClientEvent{Type: proto.TypeJoin, RoomID: *room, DisplayName: *name}
	if err := wsjson.Write(ctx, conn, join); err != nil {
		return fmt.Errorf("send join: %w", err)
	}

	fmt.Printf("Connected to %s as %s in room %s\n", *addr, *name, *room)
	fmt.Println("Type a prompt and press Enter. Ctrl+C to exit.")

	go func() {
		defer cancel()
		readLoop(ctx, conn)
	}()

	writeLoop(ctx, conn)

	stop()
	cancel()
	_ = conn.Close(websocket.StatusNormalClosure, "bye")
	return nil
}

func readLoop(ctx context.Context, conn *websocket.Conn) {
	streaming := false
	for {
		var f frame
		if err := wsjson.Read(ctx, conn, &f); err != nil {
			// Treat expected shutdowns quietly.
			if errors.Is(err, context.Canceled) {
				return
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return
			}
			log.Printf("read error: %v", err)
			return
		}

		switch f.Type {
		case proto.TypeMessageAdded:
			if f.Role == proto.RoleAssistant {
				// Placeholder for the streamed reply.
				fmt.Print("assistant> ")
				streaming = true
				continue
			}
			fmt.Printf("%s> %s\n", f.Role, f.Text)
		case proto.TypeAssistantDelta:
			fmt.Print(f.Text)
		case proto.TypeAssistantDone:
			if streaming {
				fmt.Println()
				streaming = false
			}
		case proto.TypeError:
			if streaming {
				fmt.Println()
				streaming = false
			}
			fmt.Printf("! %s\n", f.Message)
		default:
			fmt.Printf("event=%s %+v\n", f.Type, f)
		}
	}
}

func writeLoop(ctx context.Context, conn *websocket.Conn) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			text := strings.TrimSpace(line)
			if text == "" {
				continue
			}

			ev := proto.ClientEvent{Type: proto.TypeUserMessage, ID: uuid.NewString(), Text: text}
			if err := wsjson.Write(ctx, conn, ev); err != nil {
				log.Printf("send error: %v", err)
				return
			}
		}
	}
}
