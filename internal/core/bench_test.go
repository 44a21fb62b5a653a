package core

import (
	"context"
	"fmt"
	"io"
	"testing"
)

func benchmarkRoomFanout(b *testing.B, recipients int) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Hold the generation gate for the whole run so every message costs a
	// message_added plus a busy error, with no generation goroutines.
	pr, pw := io.Pipe()
	defer pw.Close()
	completer := &scriptedCompleter{bodies: []io.ReadCloser{pr}}
	room := NewRoom("bench", completer, testLogger())
	go room.Run(ctx)

	sender := NewClient("sender", "sender")
	room.Register(sender)

	clients := make([]*Client, 0, recipients)
	for i := 0; i < recipients; i++ {
		c := NewClient(fmt.Sprintf("c%d", i), "client")
		room.Register(c)
		clients = append(clients, c)
	}

	room.PostUserMessage(sender, "m0", "warm up")
	target := clients[0]
	<-target.Events // message_added
	<-target.Events // assistant placeholder

	// Drain events for all but the first recipient to avoid channel backpressure.
	for _, c := range clients[1:] {
		go func(cl *Client) {
			for range cl.Events {
			}
		}(c)
	}
	go func() {
		for range sender.Events {
		}
	}()

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		room.PostUserMessage(sender, "m", "payload")
		<-target.Events // message_added
		<-target.Events // busy error
	}
}

func BenchmarkRoomFanout_10(b *testing.B)  { benchmarkRoomFanout(b, 10) }
func BenchmarkRoomFanout_100(b *testing.B) { benchmarkRoomFanout(b, 100) }
func BenchmarkRoomFanout_500(b *testing.B) { benchmarkRoomFanout(b, 500) }
