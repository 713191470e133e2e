package supervisor

import (
	"strings"
	"testing"
)

func TestParseBoundPort(t *testing.T) {
	tests := []struct {
		name string
		line string
		want int
	}{
		{name: "localhost url", line: "Local:            http://localhost:6006/", want: 6006},
		{name: "loopback ip", line: "serving at 127.0.0.1:7007", want: 7007},
		{name: "no address", line: "Storybook 8.1 started", want: 0},
		{name: "port out of range", line: "http://localhost:99999/", want: 0},
		{name: "non-loopback host ignored", line: "http://0.0.0.0:6006/", want: 0},
		{name: "empty", line: "", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseBoundPort(tt.line); got != tt.want {
				t.Errorf("parseBoundPort(%q) = %d, want %d", tt.line, got, tt.want)
			}
		})
	}
}

func TestTailBufferKeepsMostRecent(t *testing.T) {
	tail := newTailBuffer(32)

	tail.WriteLine("first line that is quite long")
	tail.WriteLine("middle")
	tail.WriteLine("last")

	got := tail.String()

	if strings.Contains(got, "first") {
		t.Errorf("tail retained evicted content: %q", got)
	}

	if !strings.Contains(got, "last") {
		t.Errorf("tail lost most recent line: %q", got)
	}

	if strings.HasPrefix(got, "ine") {
		t.Errorf("tail starts mid-line: %q", got)
	}
}

func TestTailBufferTrimsTrailingNewline(t *testing.T) {
	tail := newTailBuffer(64)
	tail.WriteLine("only")

	if got := tail.String(); got != "only" {
		t.Errorf("String() = %q, want %q", got, "only")
	}
}

func TestLineWriterSplitsChunks(t *testing.T) {
	var lines []string
	w := newLineWriter(func(line string) { lines = append(lines, line) })

	for _, chunk := range []string{"par", "tial\r\nsecond line\nthi", "rd\n"} {
		if _, err := w.Write([]byte(chunk)); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}

	want := []string{"partial", "second line", "third"}

	if len(lines) != len(want) {
		t.Fatalf("lines = %v, want %v", lines, want)
	}

	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}
