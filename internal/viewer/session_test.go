package viewer

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/storypane-dev/storypane/internal/story"
	"github.com/storypane-dev/storypane/internal/supervisor"
	"github.com/storypane-dev/storypane/internal/toolspec"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestSession(t *testing.T, target *story.Target) *Session {
	t.Helper()

	spec := &toolspec.Spec{
		Name:        "fake",
		DisplayName: "Fake Tool",
		DocsPath:    "?path=/docs/{slug}--docs",
	}

	load := func() (supervisor.Settings, error) {
		return supervisor.Settings{Port: 6006}, nil
	}

	sup := supervisor.New(spec, load, testLogger(), nil)

	return NewSession(sup, target, testLogger())
}

func buttonTarget() *story.Target {
	return &story.Target{
		Path:  "src/Button.tsx",
		Title: "Components/Button",
		Slug:  "components-button",
	}
}

func TestTickDisplaysOnSuccess(t *testing.T) {
	s := newTestSession(t, buttonTarget())
	s.probe = func(context.Context, string) bool { return true }

	if got := s.Tick(context.Background()); got != StateDisplaying {
		t.Fatalf("state after successful probe = %v, want displaying", got)
	}

	// Further ticks are no-ops once displaying.
	s.Tick(context.Background())

	if got := s.Attempts(); got != 1 {
		t.Fatalf("attempts = %d, want 1", got)
	}
}

func TestTickFailsWhenBudgetExhausted(t *testing.T) {
	s := newTestSession(t, buttonTarget())
	s.maxAttempts = 3
	s.probe = func(context.Context, string) bool { return false }

	for range 2 {
		if got := s.Tick(context.Background()); got != StateAwaitingServer {
			t.Fatalf("state before budget exhausted = %v, want awaiting", got)
		}
	}

	if got := s.Tick(context.Background()); got != StateFailed {
		t.Fatalf("state after budget exhausted = %v, want failed", got)
	}

	// A server that comes up late must not flip a failed panel.
	s.probe = func(context.Context, string) bool { return true }

	if got := s.Tick(context.Background()); got != StateFailed {
		t.Fatalf("state after late success = %v, want failed to stick", got)
	}
}

func TestRetargetRestartsProbeSequence(t *testing.T) {
	s := newTestSession(t, buttonTarget())
	s.maxAttempts = 1
	s.probe = func(context.Context, string) bool { return false }

	if got := s.Tick(context.Background()); got != StateFailed {
		t.Fatalf("state = %v, want failed", got)
	}

	s.Retarget(&story.Target{Path: "src/Badge.tsx", Title: "Components/Badge", Slug: "components-badge"})

	if got := s.State(); got != StateAwaitingServer {
		t.Fatalf("state after retarget = %v, want awaiting", got)
	}

	if got := s.Attempts(); got != 0 {
		t.Fatalf("attempts after retarget = %d, want 0", got)
	}

	s.probe = func(context.Context, string) bool { return true }

	if got := s.Tick(context.Background()); got != StateDisplaying {
		t.Fatalf("state = %v, want displaying for new target", got)
	}
}

func TestRetargetRerunsVerificationWhileDisplaying(t *testing.T) {
	s := newTestSession(t, buttonTarget())
	s.probe = func(context.Context, string) bool { return true }
	s.Tick(context.Background())

	// The new address is unverified: the panel must go back to waiting
	// rather than display it on faith.
	s.probe = func(context.Context, string) bool { return false }
	s.Retarget(&story.Target{Path: "src/Badge.tsx", Title: "Components/Badge", Slug: "components-badge"})

	if got := s.State(); got != StateAwaitingServer {
		t.Fatalf("state after retarget = %v, want awaiting", got)
	}

	if got := s.URL(); !strings.Contains(got, "components-badge") {
		t.Fatalf("URL = %q, want new target's slug", got)
	}

	if got := s.Tick(context.Background()); got != StateAwaitingServer {
		t.Fatalf("state after failing probe = %v, want awaiting", got)
	}

	s.probe = func(context.Context, string) bool { return true }

	if got := s.Tick(context.Background()); got != StateDisplaying {
		t.Fatalf("state after new target answers = %v, want displaying", got)
	}
}

func TestStaleProbeResultIgnoredAfterRetarget(t *testing.T) {
	s := newTestSession(t, buttonTarget())

	// The probe retargets the session mid-flight; its success belongs to
	// the old target and must be dropped.
	s.probe = func(context.Context, string) bool {
		s.Retarget(&story.Target{Path: "src/Badge.tsx", Slug: "components-badge"})
		return true
	}

	if got := s.Tick(context.Background()); got != StateAwaitingServer {
		t.Fatalf("state = %v, want awaiting after stale probe", got)
	}
}

func TestHandleFileChangeLeavesPanelAlone(t *testing.T) {
	s := newTestSession(t, buttonTarget())
	s.probe = func(context.Context, string) bool { return true }
	s.Tick(context.Background())

	url := s.URL()

	s.HandleFileChange()

	if got := s.State(); got != StateDisplaying {
		t.Fatalf("state after file change = %v, want displaying", got)
	}

	if got := s.URL(); got != url {
		t.Fatalf("URL changed on file change: %q -> %q", url, got)
	}
}

func TestWriteBootstrap(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", t.TempDir())

	s := newTestSession(t, buttonTarget())

	path, err := s.WriteBootstrap()
	if err != nil {
		t.Fatalf("WriteBootstrap: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read bootstrap: %v", err)
	}

	html := string(data)

	if !strings.Contains(html, "components-button") {
		t.Errorf("bootstrap missing target slug:\n%s", html)
	}

	if !strings.Contains(html, "Components/Button") {
		t.Errorf("bootstrap missing title:\n%s", html)
	}
}
