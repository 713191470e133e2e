// Package supervisor owns the external dev-server child process: starting
// it on demand, detecting readiness, stopping it after inactivity, and
// cleaning it up across normal and abnormal exits.
//
// Exactly one Supervisor exists per session. It is constructed by the
// command layer and passed to whichever components need it; all process
// and phase mutation happens here, other packages only read.
package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/storypane-dev/storypane/internal/errors"
	"github.com/storypane-dev/storypane/internal/observability"
	"github.com/storypane-dev/storypane/internal/toolspec"
)

// Phase is the lifecycle state of the supervised dev server.
type Phase int

const (
	// PhaseStopped means no process is owned and none has been adopted.
	PhaseStopped Phase = iota
	// PhaseStarting means a child has been spawned but no readiness signal
	// has been observed yet.
	PhaseStarting
	// PhaseReady means a readiness detector fired (or an external instance
	// was adopted) and the server is presumed reachable.
	PhaseReady
	// PhaseStoppingIntentional means Stop was called and we are waiting for
	// the exit to be observed.
	PhaseStoppingIntentional
	// PhaseStoppingCrashed means the process exited without Stop being
	// called; the exit handler moves through this to PhaseStopped.
	PhaseStoppingCrashed
)

// String returns the phase name for logs and status output.
func (p Phase) String() string {
	switch p {
	case PhaseStopped:
		return "stopped"
	case PhaseStarting:
		return "starting"
	case PhaseReady:
		return "ready"
	case PhaseStoppingIntentional:
		return "stopping"
	case PhaseStoppingCrashed:
		return "crashed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Settings is the configuration snapshot a start request runs with. It is
// re-read from configuration on every start, never cached across restarts.
type Settings struct {
	ProjectDir        string
	Port              int
	InactivityTimeout time.Duration

	// ProbeInterval is how often the HTTP readiness detector polls.
	ProbeInterval time.Duration
	// ProbeTimeout bounds each individual probe request.
	ProbeTimeout time.Duration
	// StartupCeiling bounds how long the detectors run before the start
	// resolves optimistically (the tool may still be compiling).
	StartupCeiling time.Duration
	// StopGrace is how long to wait for a terminated process to exit
	// before escalating to a hard kill.
	StopGrace time.Duration
}

const (
	defaultProbeInterval  = 2 * time.Second
	defaultProbeTimeout   = 1 * time.Second
	defaultStartupCeiling = 30 * time.Second
	defaultStopGrace      = 5 * time.Second

	// stderrTailLimit bounds the captured stderr surfaced in premature-exit
	// errors.
	stderrTailLimit = 4000
)

func (s Settings) withDefaults() Settings {
	if s.ProbeInterval <= 0 {
		s.ProbeInterval = defaultProbeInterval
	}

	if s.ProbeTimeout <= 0 {
		s.ProbeTimeout = defaultProbeTimeout
	}

	if s.StartupCeiling <= 0 {
		s.StartupCeiling = defaultStartupCeiling
	}

	if s.StopGrace <= 0 {
		s.StopGrace = defaultStopGrace
	}

	return s
}

// Status is a read-only snapshot of the supervisor for status displays.
type Status struct {
	Phase Phase
	Port  int
	PID   int
	Owned bool
}

// SettingsLoader reads a fresh configuration snapshot. Called on every
// start request.
type SettingsLoader func() (Settings, error)

// startResult carries the outcome of an in-flight start to its waiters.
type startResult struct {
	port int
	err  error
}

// Supervisor manages the dev-server child process lifecycle.
type Supervisor struct {
	spec         *toolspec.Spec
	loadSettings SettingsLoader
	logger       *slog.Logger

	// notify surfaces user-visible notices (inactivity auto-stop). May be nil.
	notify func(msg string)

	mu           sync.Mutex
	phase        Phase
	cmd          *exec.Cmd
	port         int
	owned        bool
	intentional  bool
	resolved     bool
	waiters      []chan startResult
	cancelDetect context.CancelFunc
	exited       chan struct{}
	settings     Settings
	stderrTail   *tailBuffer
	inactivity   *time.Timer

	// Injection points for tests.
	buildCommand func(set Settings) *exec.Cmd
	portFree     func(port int) bool
	probeHTTP    func(ctx context.Context, port int) bool
}

// New creates a Supervisor for the given tool. notify, when non-nil,
// receives user-visible notices such as the inactivity auto-stop message.
func New(spec *toolspec.Spec, load SettingsLoader, logger *slog.Logger, notify func(msg string)) *Supervisor {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Supervisor{
		spec:         spec,
		loadSettings: load,
		logger:       logger.With(slog.String("component", "supervisor"), slog.String("tool", spec.Name)),
		notify:       notify,
		phase:        PhaseStopped,
	}

	s.buildCommand = s.defaultBuildCommand
	s.portFree = defaultPortFree
	s.probeHTTP = s.defaultProbeHTTP

	return s
}

// Start ensures the dev server is running and returns its port.
//
// A start request while a previous one is still in flight joins that
// request rather than spawning a second process; a request while the
// server is ready returns the current port immediately. If the configured
// port is already occupied by an instance started outside storypane, that
// instance is adopted (and can never be stopped by this supervisor).
func (s *Supervisor) Start(ctx context.Context) (int, error) {
	s.mu.Lock()

	// Let a shutdown in progress finish before starting fresh.
	for s.phase == PhaseStoppingIntentional || s.phase == PhaseStoppingCrashed {
		exited := s.exited
		s.mu.Unlock()

		if exited != nil {
			select {
			case <-exited:
			case <-ctx.Done():
				return 0, ctx.Err()
			}
		}

		s.mu.Lock()
	}

	switch s.phase {
	case PhaseReady:
		port := s.port
		timeout := s.settings.InactivityTimeout
		s.mu.Unlock()

		s.scheduleInactivityStop(timeout)

		return port, nil

	case PhaseStarting:
		// Join the in-flight start; both callers resolve from the same
		// readiness result.
		ch := make(chan startResult, 1)
		s.waiters = append(s.waiters, ch)
		s.mu.Unlock()

		select {
		case res := <-ch:
			return res.port, res.err
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}

	settings, err := s.loadSettings()
	if err != nil {
		s.mu.Unlock()
		return 0, err
	}

	settings = settings.withDefaults()

	if settings.Port <= 0 || settings.Port > 65535 {
		s.mu.Unlock()
		return 0, errors.InvalidPort(settings.Port)
	}

	// An instance already listening on the port is adopted as ready. We
	// did not spawn it, so we may never stop it.
	if !s.portFree(settings.Port) {
		s.phase = PhaseReady
		s.port = settings.Port
		s.owned = false
		s.settings = settings
		s.mu.Unlock()

		s.logger.Info("adopted running dev server",
			slog.String("event.type", "server.adopt"),
			slog.Int("server.port", settings.Port),
		)

		return settings.Port, nil
	}

	// Fail fast before spawning a process doomed to fail.
	markerPath := s.spec.MarkerPath(settings.ProjectDir)
	if _, statErr := os.Stat(markerPath); statErr != nil {
		s.mu.Unlock()
		return 0, errors.MarkerDirMissing(s.spec.DisplayName, markerPath, s.spec.Remediation)
	}

	cmd := s.buildCommand(settings)

	// Writer-backed capture: Wait blocks until both streams are drained,
	// so the stderr tail is complete before the exit is classified.
	tail := newTailBuffer(stderrTailLimit)
	cmd.Stdout = newLineWriter(s.handleStdoutLine)
	cmd.Stderr = newLineWriter(func(line string) { s.handleStderrLine(tail, line) })

	if startErr := cmd.Start(); startErr != nil {
		s.mu.Unlock()
		return 0, errors.SpawnFailed(s.spec.Binary, startErr)
	}

	s.logger.Info("spawned dev server",
		slog.String("event.type", "server.spawn"),
		slog.Int("server.pid", cmd.Process.Pid),
		slog.Int("server.port", settings.Port),
		slog.String("server.dir", settings.ProjectDir),
	)

	if err := writeRecord(Record{
		PID:       cmd.Process.Pid,
		Port:      settings.Port,
		Tool:      s.spec.Name,
		StartedAt: time.Now(),
	}); err != nil {
		s.logger.Warn("could not persist server record", slog.Any("error", err))
	}

	detectCtx, cancelDetect := context.WithCancel(context.Background())
	exited := make(chan struct{})
	waiter := make(chan startResult, 1)

	s.phase = PhaseStarting
	s.cmd = cmd
	s.port = settings.Port
	s.owned = true
	s.intentional = false
	s.resolved = false
	s.waiters = []chan startResult{waiter}
	s.cancelDetect = cancelDetect
	s.exited = exited
	s.settings = settings
	s.stderrTail = tail
	s.mu.Unlock()

	go s.watchExit(cmd, exited)
	go s.pollReadiness(detectCtx, settings)
	go s.awaitCeiling(detectCtx, settings.StartupCeiling)

	s.scheduleInactivityStop(settings.InactivityTimeout)

	select {
	case res := <-waiter:
		return res.port, res.err
	case <-ctx.Done():
		// No mid-start cancellation: the process keeps running and the
		// detectors keep going for any other waiter.
		return 0, ctx.Err()
	}
}

// Stop terminates an owned dev server and waits for its exit to be
// observed. Stopping an adopted (externally started) instance is refused;
// stopping when nothing is running is a no-op.
func (s *Supervisor) Stop(ctx context.Context) error {
	s.mu.Lock()

	if s.cmd == nil || !s.owned {
		if s.phase == PhaseReady && !s.owned {
			port := s.port
			s.mu.Unlock()

			return errors.StopRefused(port)
		}

		s.mu.Unlock()

		return nil
	}

	// The intentional flag must be set before any termination signal is
	// sent so the exit handler classifies this as deliberate.
	s.intentional = true
	s.phase = PhaseStoppingIntentional
	cmd := s.cmd
	exited := s.exited
	grace := s.settings.StopGrace
	s.mu.Unlock()

	s.cancelInactivityStop()

	s.logger.Info("stopping dev server",
		slog.String("event.type", "server.stop"),
		slog.Int("server.pid", cmd.Process.Pid),
	)

	terminateTree(cmd)

	select {
	case <-exited:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(grace):
	}

	killTree(cmd)

	select {
	case <-exited:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(grace):
		return fmt.Errorf("dev server did not exit within %s of SIGKILL", grace)
	}
}

// ResetInactivity pushes the auto-stop deadline forward. Called on every
// user-visible activity: preview opens, watched-file edits, panel
// interaction.
func (s *Supervisor) ResetInactivity() {
	s.mu.Lock()
	timeout := s.settings.InactivityTimeout
	active := s.owned && (s.phase == PhaseStarting || s.phase == PhaseReady)
	s.mu.Unlock()

	if !active {
		return
	}

	s.scheduleInactivityStop(timeout)
}

// IsRunning reports whether a server is reachable: either an owned process
// in flight, or an external instance occupying the configured port.
func (s *Supervisor) IsRunning() bool {
	s.mu.Lock()
	owned := s.owned && (s.phase == PhaseStarting || s.phase == PhaseReady)
	port := s.port
	s.mu.Unlock()

	if owned {
		return true
	}

	if port == 0 {
		settings, err := s.loadSettings()
		if err != nil {
			return false
		}

		port = settings.Port
	}

	return !s.portFree(port)
}

// CanStop reports whether Stop would act: only true for a process this
// supervisor spawned. Adopted instances are never stoppable.
func (s *Supervisor) CanStop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.owned && s.cmd != nil
}

// Port returns the port pinned at the last start. Configuration changes
// while the server runs do not move it; they take effect on the next
// explicit stop/start. Before any start it falls back to the configured
// port.
func (s *Supervisor) Port() int {
	s.mu.Lock()
	port := s.port
	s.mu.Unlock()

	if port != 0 {
		return port
	}

	settings, err := s.loadSettings()
	if err != nil {
		return 0
	}

	return settings.Port
}

// CurrentPhase returns the lifecycle phase.
func (s *Supervisor) CurrentPhase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.phase
}

// GetStatus returns a snapshot for status displays.
func (s *Supervisor) GetStatus() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	pid := 0
	if s.cmd != nil && s.cmd.Process != nil {
		pid = s.cmd.Process.Pid
	}

	return Status{
		Phase: s.phase,
		Port:  s.port,
		PID:   pid,
		Owned: s.owned,
	}
}

// BaseURL returns the root address of the supervised server.
func (s *Supervisor) BaseURL() string {
	return fmt.Sprintf("http://localhost:%d/", s.Port())
}

// Spec returns the tool spec this supervisor runs.
func (s *Supervisor) Spec() *toolspec.Spec {
	return s.spec
}

// --- Internal: readiness resolution ---

// resolveStart completes the in-flight start exactly once. The winning
// detector cancels the loser; late detector fires are ignored here.
func (s *Supervisor) resolveStart(parsedPort int, err error, via string) {
	s.mu.Lock()

	if s.resolved {
		s.mu.Unlock()
		return
	}

	s.resolved = true

	if err == nil {
		if parsedPort != 0 && parsedPort != s.port {
			s.logger.Info("dev server bound a different port than requested",
				slog.Int("server.port.requested", s.port),
				slog.Int("server.port.actual", parsedPort),
			)
			s.port = parsedPort
		}

		if s.phase == PhaseStarting {
			s.phase = PhaseReady
		}
	}

	waiters := s.waiters
	s.waiters = nil
	cancel := s.cancelDetect
	s.cancelDetect = nil
	port := s.port
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	if err == nil {
		s.logger.Info("dev server ready",
			slog.String("event.type", "server.ready"),
			slog.String("server.ready.via", via),
			slog.Int("server.port", port),
		)
	}

	for _, ch := range waiters {
		ch <- startResult{port: port, err: err}
	}
}

// watchExit observes the child's exit and classifies it as intentional or
// a crash. It never propagates errors itself; a crash before readiness
// rejects the pending start, a crash after readiness is logged and
// surfaced as a notice.
func (s *Supervisor) watchExit(cmd *exec.Cmd, exited chan struct{}) {
	waitErr := cmd.Wait()

	exitCode := -1
	if cmd.ProcessState != nil {
		exitCode = cmd.ProcessState.ExitCode()
	}

	s.mu.Lock()
	intentional := s.intentional
	wasReady := s.phase == PhaseReady
	tail := ""
	if s.stderrTail != nil {
		tail = s.stderrTail.String()
	}

	s.cmd = nil
	s.owned = false

	if intentional {
		s.phase = PhaseStopped
	} else {
		s.phase = PhaseStoppingCrashed
	}

	s.mu.Unlock()

	close(exited)
	s.cancelInactivityStop()
	clearRecord()

	if intentional {
		s.logger.Info("dev server exited",
			slog.String("event.type", "server.exit"),
			slog.Int("server.exit_code", exitCode),
		)

		return
	}

	s.logger.Error("dev server exited unexpectedly",
		slog.String("event.type", "server.exit.crash"),
		slog.Int("server.exit_code", exitCode),
		slog.Any("error", waitErr),
	)

	s.mu.Lock()
	if s.phase == PhaseStoppingCrashed {
		s.phase = PhaseStopped
	}
	s.mu.Unlock()

	if wasReady {
		if s.notify != nil {
			s.notify(fmt.Sprintf("Dev server exited unexpectedly (exit code %d)", exitCode))
		}

		return
	}

	// Crash before readiness rejects the pending start.
	s.resolveStart(0, errors.ServerExited(exitCode, tail), "exit")
}

// pollReadiness is the HTTP readiness detector: any 200 from the candidate
// port means the server is up, independent of what stdout said.
func (s *Supervisor) pollReadiness(ctx context.Context, settings Settings) {
	ticker := time.NewTicker(settings.ProbeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.probeHTTP(ctx, settings.Port) {
				s.resolveStart(0, nil, "poll")
				return
			}
		}
	}
}

// awaitCeiling resolves the start optimistically when neither detector has
// fired within the ceiling. The process is likely still compiling; the
// viewer's own polling is the authoritative arbiter from here on.
func (s *Supervisor) awaitCeiling(ctx context.Context, ceiling time.Duration) {
	timer := time.NewTimer(ceiling)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
		s.logger.Warn("readiness not confirmed within ceiling, resolving optimistically",
			slog.String("event.type", "server.ready.ceiling"),
			slog.Duration("server.ceiling", ceiling),
		)
		s.resolveStart(0, nil, "ceiling")
	}
}

// --- Internal: inactivity auto-stop ---

func (s *Supervisor) scheduleInactivityStop(timeout time.Duration) {
	if timeout <= 0 {
		return
	}

	s.mu.Lock()

	if s.inactivity != nil {
		s.inactivity.Stop()
	}

	s.inactivity = time.AfterFunc(timeout, func() {
		s.autoStop(timeout)
	})

	s.mu.Unlock()
}

func (s *Supervisor) cancelInactivityStop() {
	s.mu.Lock()

	if s.inactivity != nil {
		s.inactivity.Stop()
		s.inactivity = nil
	}

	s.mu.Unlock()
}

func (s *Supervisor) autoStop(timeout time.Duration) {
	s.mu.Lock()
	stoppable := s.owned && s.cmd != nil && (s.phase == PhaseReady || s.phase == PhaseStarting)
	s.mu.Unlock()

	if !stoppable {
		return
	}

	s.logger.Info("stopping idle dev server",
		slog.String("event.type", "server.stop.idle"),
		slog.Duration("server.idle_timeout", timeout),
	)

	if s.notify != nil {
		s.notify(fmt.Sprintf("Dev server stopped after %s of inactivity", timeout))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.Stop(ctx); err != nil {
		s.logger.Warn("idle auto-stop failed", slog.Any("error", err))
	}
}

// --- Internal: process construction and probes ---

func (s *Supervisor) defaultBuildCommand(set Settings) *exec.Cmd {
	cmd := exec.Command(s.spec.Binary, s.spec.CommandArgs(set.Port)...)
	cmd.Dir = set.ProjectDir
	cmd.Env = append(os.Environ(), s.spec.Env...)
	configureProcAttr(cmd)

	return cmd
}

// defaultPortFree probes by binding: a failed listen means something is
// already serving on the port.
func defaultPortFree(port int) bool {
	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return false
	}

	_ = ln.Close()

	return true
}

func (s *Supervisor) defaultProbeHTTP(ctx context.Context, port int) bool {
	s.mu.Lock()
	timeout := s.settings.ProbeTimeout
	s.mu.Unlock()

	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}

	client := observability.NewHTTPClient(timeout)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("http://127.0.0.1:%d/", port), nil)
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

// boundPortPattern extracts the port from a stdout line announcing a bound
// loopback address; the tool may have picked a different port than asked.
var boundPortPattern = regexp.MustCompile(`(?:localhost|127\.0\.0\.1):(\d{2,5})`)

func parseBoundPort(line string) int {
	match := boundPortPattern.FindStringSubmatch(line)
	if match == nil {
		return 0
	}

	port, err := strconv.Atoi(match[1])
	if err != nil || port <= 0 || port > 65535 {
		return 0
	}

	return port
}
