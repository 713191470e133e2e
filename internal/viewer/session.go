// Package viewer tracks what the preview panel shows for one target: a
// waiting surface while the dev server comes up, the component's docs page
// once it answers, or a terminal error surface when it never does.
package viewer

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/storypane-dev/storypane/internal/observability"
	"github.com/storypane-dev/storypane/internal/story"
	"github.com/storypane-dev/storypane/internal/supervisor"
)

// State is what the panel should currently render.
type State int

const (
	// StateAwaitingServer means the docs page has not answered yet and the
	// panel shows a waiting surface.
	StateAwaitingServer State = iota
	// StateDisplaying means the docs page answered and the panel shows it.
	StateDisplaying
	// StateFailed means the probe budget ran out. Terminal: a server that
	// comes up late does not flip a failed panel back (the user retries
	// explicitly).
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateAwaitingServer:
		return "awaiting-server"
	case StateDisplaying:
		return "displaying"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

const (
	// ProbeInterval is how often the panel re-probes while awaiting.
	ProbeInterval = 1 * time.Second
	// DefaultMaxAttempts bounds the probe sequence before the panel fails.
	DefaultMaxAttempts = 30

	probeTimeout = 1 * time.Second
)

// Session is the panel's state machine for one preview target. It is
// driven externally: the owner calls Tick once per ProbeInterval while the
// session reports StateAwaitingServer.
type Session struct {
	sup    *supervisor.Supervisor
	logger *slog.Logger

	mu          sync.Mutex
	state       State
	target      *story.Target
	attempts    int
	maxAttempts int

	probe func(ctx context.Context, url string) bool
}

// NewSession creates a session awaiting the server for the given target.
func NewSession(sup *supervisor.Supervisor, target *story.Target, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Session{
		sup:         sup,
		logger:      logger.With(slog.String("component", "viewer")),
		state:       StateAwaitingServer,
		target:      target,
		maxAttempts: DefaultMaxAttempts,
	}

	s.probe = defaultProbe

	return s
}

// State returns what the panel should render.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// Target returns the current preview target.
func (s *Session) Target() *story.Target {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.target
}

// Attempts returns how many probes have run in the current sequence.
func (s *Session) Attempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.attempts
}

// URL returns the docs page address for the current target.
func (s *Session) URL() string {
	s.mu.Lock()
	target := s.target
	s.mu.Unlock()

	return s.sup.Spec().DocsURL(s.sup.BaseURL(), target.Slug)
}

// Tick runs one probe attempt. It only acts while awaiting: a displaying
// session stays displaying, and a failed session stays failed no matter
// what a late probe would have said.
func (s *Session) Tick(ctx context.Context) State {
	s.mu.Lock()

	if s.state != StateAwaitingServer {
		state := s.state
		s.mu.Unlock()

		return state
	}

	s.attempts++
	attempt := s.attempts
	max := s.maxAttempts
	s.mu.Unlock()

	ok := s.probe(ctx, s.URL())

	s.mu.Lock()
	defer s.mu.Unlock()

	// The session may have been retargeted or failed while the probe was
	// in flight; its result no longer applies.
	if s.state != StateAwaitingServer || s.attempts != attempt {
		return s.state
	}

	if ok {
		s.state = StateDisplaying
		s.logger.Info("preview displaying",
			slog.String("event.type", "viewer.display"),
			slog.String("viewer.slug", s.target.Slug),
			slog.Int("viewer.attempts", attempt),
		)

		return s.state
	}

	if attempt >= max {
		s.state = StateFailed
		s.logger.Warn("preview failed, server never answered",
			slog.String("event.type", "viewer.fail"),
			slog.String("viewer.slug", s.target.Slug),
			slog.Int("viewer.attempts", attempt),
		)
	}

	return s.state
}

// Retarget points the same panel at a new target without tearing it down.
// The probe sequence restarts from AwaitingServer regardless of the prior
// state: the new address has not been verified yet, and a failed panel
// gets a fresh chance because retargeting is an explicit user action, not
// a late probe.
func (s *Session) Retarget(target *story.Target) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.target = target
	s.attempts = 0
	s.state = StateAwaitingServer

	s.sup.ResetInactivity()
}

// HandleFileChange records activity on the watched file. It only feeds the
// server's inactivity tracking; the panel is never reloaded from here (the
// dev server hot-reloads the page through its own channel).
func (s *Session) HandleFileChange() {
	s.sup.ResetInactivity()
}

func defaultProbe(ctx context.Context, url string) bool {
	client := observability.NewHTTPClient(probeTimeout)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}

	resp, err := client.Do(req)
	if err != nil {
		return false
	}

	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}
