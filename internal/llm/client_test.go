package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func testClient(t *testing.T, upstream http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(upstream)
	t.Cleanup(srv.Close)
	logger := zerolog.Nop()
	client := New(Config{
		BaseURL: srv.URL,
		APIKey:  "test-key",
		Model:   "test-model",
		Timeout: 5 * time.Second,
	}, &logger)
	return client, srv
}

func TestStreamChatEmitsFragments(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization header = %q", got)
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if !req.Stream {
			t.Error("expected stream request")
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Content != "make soup" {
			t.Errorf("unexpected messages %+v", req.Messages)
		}

		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, text := range []string{"Chop ", "the ", "leeks."} {
			fmt.Fprintf(w, "%s\n\n", chunkLine(text))
			flusher.Flush()
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	})

	stream, err := client.StreamChat(context.Background(), "make soup")
	if err != nil {
		t.Fatalf("stream chat: %v", err)
	}
	defer stream.Close()

	var got []string
	for {
		frag, err := stream.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		got = append(got, frag)
	}
	if strings.Join(got, "") != "Chop the leeks." {
		t.Fatalf("fragments %v", got)
	}
}

func TestStreamChatUpstreamError(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusBadGateway)
	})

	_, err := client.StreamChat(context.Background(), "make soup")
	var upstreamErr *UpstreamError
	if !errors.As(err, &upstreamErr) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if upstreamErr.Status != http.StatusBadGateway {
		t.Fatalf("status = %d", upstreamErr.Status)
	}
	if !strings.Contains(upstreamErr.Body, "model overloaded") {
		t.Fatalf("body = %q", upstreamErr.Body)
	}
}

func TestCompleteJSON(t *testing.T) {
	const content = `{"title":"Leek soup"}`
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Stream {
			t.Error("json completion must not stream")
		}
		if req.ResponseFormat == nil || req.ResponseFormat.Type != "json_object" {
			t.Errorf("response_format = %+v", req.ResponseFormat)
		}
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": content}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	})

	raw, err := client.CompleteJSON(context.Background(), "return json", "leek soup")
	if err != nil {
		t.Fatalf("complete json: %v", err)
	}
	if string(raw) != content {
		t.Fatalf("content = %s", raw)
	}
}

func TestCompleteJSONNoChoices(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[]}`)
	})

	if _, err := client.CompleteJSON(context.Background(), "sys", "prompt"); err == nil {
		t.Fatal("expected error for empty choices")
	}
}

func TestCompleteJSONUpstreamError(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})

	_, err := client.CompleteJSON(context.Background(), "sys", "prompt")
	var upstreamErr *UpstreamError
	if !errors.As(err, &upstreamErr) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if upstreamErr.Status != http.StatusTooManyRequests {
		t.Fatalf("status = %d", upstreamErr.Status)
	}
}
