package llm

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	dataPrefix   = "data:"
	doneSentinel = "[DONE]"
)

// Stream reads text fragments off a server-sent-events completion body.
// Not safe for concurrent use; one reader drains one stream.
type Stream struct {
	body io.ReadCloser
	r    *bufio.Reader
	done bool
}

// NewStream wraps an SSE body. Production-side callers get one from
// Client.StreamChat; tests can hand it any reader.
func NewStream(body io.ReadCloser) *Stream {
	return &Stream{body: body, r: bufio.NewReader(body)}
}

// Next returns the next non-empty text fragment, or io.EOF after the
// end-of-stream sentinel or the end of the body. Non-data lines and data
// lines that do not decode are skipped. Transport errors mid-stream are
// returned wrapped.
func (s *Stream) Next() (string, error) {
	if s.done {
		return "", io.EOF
	}
	for {
		line, readErr := s.r.ReadString('\n')
		if line != "" {
			frag, stop := parseStreamLine(line)
			if stop {
				s.done = true
				return "", io.EOF
			}
			if frag != "" {
				if readErr != nil {
					s.done = true
				}
				return frag, nil
			}
		}
		if readErr != nil {
			s.done = true
			if errors.Is(readErr, io.EOF) {
				return "", io.EOF
			}
			return "", fmt.Errorf("read completion stream: %w", readErr)
		}
	}
}

// Close releases the underlying body. Unread data is discarded.
func (s *Stream) Close() error {
	s.done = true
	return s.body.Close()
}

// parseStreamLine extracts the fragment from one SSE line. stop is true
// when the line carries the end-of-stream sentinel.
func parseStreamLine(line string) (frag string, stop bool) {
	line = strings.TrimRight(line, "\r\n")
	if !strings.HasPrefix(line, dataPrefix) {
		return "", false
	}
	payload := strings.TrimPrefix(strings.TrimPrefix(line, dataPrefix), " ")
	if payload == doneSentinel {
		return "", true
	}
	var chunk streamChunk
	if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
		// Chunk boundaries can split a block; skip what does not decode.
		return "", false
	}
	if len(chunk.Choices) == 0 {
		return "", false
	}
	return chunk.Choices[0].Delta.Content, false
}
