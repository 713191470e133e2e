package supervisor

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"

	"github.com/charmbracelet/x/ansi"
)

// handleStdoutLine is the pattern-match readiness detector: it watches the
// child's stdout for the tool's ready announcement. Dev servers colorize
// their banners, so escape sequences are stripped before matching.
func (s *Supervisor) handleStdoutLine(raw string) {
	line := ansi.Strip(raw)

	s.logger.Debug("dev server stdout", slog.String("server.line", line))

	if s.spec.MatchesReady(line) {
		s.resolveStart(parseBoundPort(line), nil, "stdout")
	}
}

// handleStderrLine captures stderr into the bounded tail (surfaced when
// the process dies before readiness) and mirrors it into the log.
func (s *Supervisor) handleStderrLine(tail *tailBuffer, raw string) {
	line := ansi.Strip(raw)

	tail.WriteLine(line)

	lower := strings.ToLower(line)
	if strings.Contains(lower, "error") || strings.Contains(lower, "failed") || strings.Contains(lower, "fatal") {
		s.logger.Error("dev server stderr", slog.String("server.line", line))
	} else {
		s.logger.Warn("dev server stderr", slog.String("server.line", line))
	}
}

// lineWriter splits a byte stream into lines and hands each complete line
// to a handler. Attached as the child's stdout/stderr so Wait does not
// return until the stream is fully consumed.
type lineWriter struct {
	mu     sync.Mutex
	handle func(line string)
	buf    []byte
}

func newLineWriter(handle func(line string)) *lineWriter {
	return &lineWriter{handle: handle}
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf = append(w.buf, p...)

	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}

		line := strings.TrimSuffix(string(w.buf[:i]), "\r")
		w.buf = w.buf[i+1:]

		w.handle(line)
	}

	return len(p), nil
}

// tailBuffer keeps the most recent output within a fixed byte budget.
// Writes come from the capture goroutine, reads from the exit handler.
type tailBuffer struct {
	mu    sync.Mutex
	limit int
	buf   []byte
}

func newTailBuffer(limit int) *tailBuffer {
	return &tailBuffer{limit: limit}
}

func (t *tailBuffer) WriteLine(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.buf = append(t.buf, line...)
	t.buf = append(t.buf, '\n')

	if over := len(t.buf) - t.limit; over > 0 {
		// Trim to the budget, then to the next line boundary so the tail
		// never starts mid-line.
		t.buf = t.buf[over:]
		for i, b := range t.buf {
			if b == '\n' {
				t.buf = t.buf[i+1:]
				break
			}
		}
	}
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	return strings.TrimRight(string(t.buf), "\n")
}
