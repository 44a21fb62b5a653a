package llm

import (
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
)

func chunkLine(text string) string {
	quoted, err := json.Marshal(text)
	if err != nil {
		panic(err)
	}
	return `data: {"choices":[{"delta":{"content":` + string(quoted) + `}}]}`
}

func streamOf(body string) *Stream {
	return NewStream(io.NopCloser(strings.NewReader(body)))
}

func drain(t *testing.T, s *Stream) []string {
	t.Helper()
	var got []string
	for {
		frag, err := s.Next()
		if errors.Is(err, io.EOF) {
			return got
		}
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		got = append(got, frag)
	}
}

func TestStreamYieldsFragmentsInOrder(t *testing.T) {
	body := strings.Join([]string{
		chunkLine("Pre"), "",
		chunkLine("heat "), "",
		chunkLine("oven."), "",
		"data: [DONE]", "",
	}, "\n")
	got := drain(t, streamOf(body))
	want := []string{"Pre", "heat ", "oven."}
	if len(got) != len(want) {
		t.Fatalf("got %d fragments %v, want %v", len(got), got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("fragment %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestStreamNextAfterEOF(t *testing.T) {
	s := streamOf("data: [DONE]\n")
	if _, err := s.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF, got %v", err)
	}
	if _, err := s.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF on repeated call, got %v", err)
	}
}

func TestStreamStopsAtSentinel(t *testing.T) {
	body := strings.Join([]string{
		chunkLine("before"), "",
		"data: [DONE]", "",
		chunkLine("after"), "",
	}, "\n")
	got := drain(t, streamOf(body))
	if len(got) != 1 || got[0] != "before" {
		t.Fatalf("fragments after sentinel must be discarded, got %v", got)
	}
}

func TestStreamSkipsMalformedLines(t *testing.T) {
	body := strings.Join([]string{
		": keep-alive comment",
		"event: chunk",
		chunkLine("one"),
		"data: {broken json",
		"garbage without prefix",
		chunkLine("two"),
		"data: [DONE]",
	}, "\n") + "\n"
	got := drain(t, streamOf(body))
	if len(got) != 2 || got[0] != "one" || got[1] != "two" {
		t.Fatalf("expected [one two], got %v", got)
	}
}

func TestStreamSkipsEmptyFragments(t *testing.T) {
	body := strings.Join([]string{
		`data: {"choices":[{"delta":{"role":"assistant"}}]}`,
		chunkLine(""),
		chunkLine("only"),
		`data: {"choices":[]}`,
		"data: [DONE]",
	}, "\n") + "\n"
	got := drain(t, streamOf(body))
	if len(got) != 1 || got[0] != "only" {
		t.Fatalf("expected [only], got %v", got)
	}
}

func TestStreamEndsWithoutSentinel(t *testing.T) {
	body := chunkLine("tail") + "\n"
	got := drain(t, streamOf(body))
	if len(got) != 1 || got[0] != "tail" {
		t.Fatalf("expected [tail], got %v", got)
	}
}

func TestStreamPartialFinalLine(t *testing.T) {
	// Complete data line that lost its trailing newline still counts.
	got := drain(t, streamOf(chunkLine("cut")))
	if len(got) != 1 || got[0] != "cut" {
		t.Fatalf("expected [cut], got %v", got)
	}

	// Truncated JSON at end of body is skipped.
	got = drain(t, streamOf(chunkLine("ok")+"\n"+`data: {"choices":[{"delta":{"cont`))
	if len(got) != 1 || got[0] != "ok" {
		t.Fatalf("expected [ok], got %v", got)
	}
}

// dripReader returns the body a few bytes per read so lines span reads.
type dripReader struct {
	s string
	i int
}

func (d *dripReader) Read(p []byte) (int, error) {
	if d.i >= len(d.s) {
		return 0, io.EOF
	}
	end := d.i + 3
	if end > len(d.s) {
		end = len(d.s)
	}
	n := copy(p, d.s[d.i:end])
	d.i += n
	return n, nil
}

func (d *dripReader) Close() error { return nil }

func TestStreamReassemblesSplitChunks(t *testing.T) {
	body := strings.Join([]string{
		chunkLine("split "), "",
		chunkLine("across "), "",
		chunkLine("reads"), "",
		"data: [DONE]", "",
	}, "\n")
	s := NewStream(&dripReader{s: body})
	got := drain(t, s)
	if strings.Join(got, "") != "split across reads" {
		t.Fatalf("reassembled %v", got)
	}
}

// failingReader yields its data, then a transport error.
type failingReader struct {
	data []byte
	err  error
}

func (r *failingReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, r.err
	}
	n := copy(p, r.data)
	r.data = r.data[n:]
	return n, nil
}

func (r *failingReader) Close() error { return nil }

func TestStreamTransportError(t *testing.T) {
	cause := errors.New("connection reset")
	s := NewStream(&failingReader{data: []byte(chunkLine("first") + "\n"), err: cause})

	frag, err := s.Next()
	if err != nil || frag != "first" {
		t.Fatalf("first fragment: %q, %v", frag, err)
	}
	if _, err := s.Next(); !errors.Is(err, cause) {
		t.Fatalf("expected wrapped transport error, got %v", err)
	}
	if _, err := s.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("stream must stay terminated, got %v", err)
	}
}
