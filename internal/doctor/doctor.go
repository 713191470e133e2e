// Package doctor provides diagnostic checks for Storypane health.
//
// This package implements a check framework that validates:
//   - Node.js availability and version
//   - The dev-server tool's launcher command
//   - Project setup (the tool's marker directory)
//   - Dev-server port status
//   - CLI version against latest release
package doctor

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/storypane-dev/storypane/internal/buildinfo"
	"github.com/storypane-dev/storypane/internal/toolspec"
	"github.com/storypane-dev/storypane/internal/update"
)

// minNodeMajor is the oldest Node.js major version current dev-server
// tools support.
const minNodeMajor = 18

// Status represents the result of a diagnostic check.
type Status int

const (
	// StatusPass indicates the check passed.
	StatusPass Status = iota
	// StatusWarn indicates a non-critical issue.
	StatusWarn
	// StatusFail indicates a critical failure.
	StatusFail
)

// Symbol returns the marker printed next to a check result.
func (s Status) Symbol() string {
	switch s {
	case StatusPass:
		return "✓" // ✓
	case StatusWarn:
		return "⚠" // ⚠
	case StatusFail:
		return "✗" // ✗
	default:
		return "?"
	}
}

// Result holds the outcome of a single check.
type Result struct {
	Name    string
	Status  Status
	Message string
	Detail  string // Optional additional detail
}

// Check is a diagnostic check function.
type Check func(ctx context.Context) Result

// Runner executes diagnostic checks.
type Runner struct {
	checks []namedCheck
}

type namedCheck struct {
	name  string
	check Check
}

// New creates a diagnostic runner for the given project and tool.
func New(projectDir string, spec *toolspec.Spec, port int) *Runner {
	r := &Runner{}

	r.AddCheck("Node.js", checkNode)
	r.AddCheck(spec.DisplayName, checkTool(spec))
	r.AddCheck("Project setup", checkMarker(spec, projectDir))
	r.AddCheck("Dev server port", checkPort(port))
	r.AddCheck("CLI version", checkCLIVersion)

	return r
}

// AddCheck registers a diagnostic check.
func (r *Runner) AddCheck(name string, check Check) {
	r.checks = append(r.checks, namedCheck{name: name, check: check})
}

// Run executes all registered checks and returns the results.
func (r *Runner) Run(ctx context.Context) []Result {
	results := make([]Result, 0, len(r.checks))

	for _, nc := range r.checks {
		result := nc.check(ctx)
		result.Name = nc.name
		results = append(results, result)
	}

	return results
}

// Summary returns counts of passed, failed, and warning checks.
func Summary(results []Result) (passed, failed, warnings int) {
	for _, r := range results {
		switch r.Status {
		case StatusPass:
			passed++
		case StatusFail:
			failed++
		case StatusWarn:
			warnings++
		}
	}

	return passed, failed, warnings
}

// checkNode verifies Node.js is installed and recent enough.
func checkNode(ctx context.Context) Result {
	path, err := exec.LookPath("node")
	if err != nil {
		return Result{
			Status:  StatusFail,
			Message: "Not found in PATH",
			Detail:  "Install Node.js from https://nodejs.org",
		}
	}

	cmd := exec.CommandContext(ctx, "node", "--version")

	out, err := cmd.Output()
	if err != nil {
		return Result{
			Status:  StatusWarn,
			Message: "Found but version unknown",
			Detail:  path,
		}
	}

	raw := strings.TrimSpace(string(out))

	version, err := semver.NewVersion(strings.TrimPrefix(raw, "v"))
	if err != nil {
		return Result{
			Status:  StatusWarn,
			Message: fmt.Sprintf("%s at %s (unparseable version)", raw, path),
		}
	}

	if version.Major() < minNodeMajor {
		return Result{
			Status:  StatusFail,
			Message: fmt.Sprintf("%s at %s", raw, path),
			Detail:  fmt.Sprintf("Node.js %d or newer is required", minNodeMajor),
		}
	}

	return Result{
		Status:  StatusPass,
		Message: fmt.Sprintf("%s at %s", raw, path),
	}
}

// checkTool verifies the tool's launcher command is available.
func checkTool(spec *toolspec.Spec) Check {
	return func(_ context.Context) Result {
		path, err := exec.LookPath(spec.Binary)
		if err != nil {
			return Result{
				Status:  StatusFail,
				Message: fmt.Sprintf("%s not found in PATH", spec.Binary),
				Detail:  "Install Node.js; npx ships with npm",
			}
		}

		return Result{
			Status:  StatusPass,
			Message: fmt.Sprintf("launches via %s", path),
		}
	}
}

// checkMarker verifies the project has been initialized for the tool.
func checkMarker(spec *toolspec.Spec, projectDir string) Check {
	return func(_ context.Context) Result {
		markerPath := spec.MarkerPath(projectDir)

		if !dirExists(markerPath) {
			return Result{
				Status:  StatusFail,
				Message: fmt.Sprintf("%s missing", markerPath),
				Detail:  spec.Remediation,
			}
		}

		return Result{
			Status:  StatusPass,
			Message: markerPath,
		}
	}
}

// checkPort reports whether the configured port is free or already serving.
func checkPort(port int) Check {
	return func(_ context.Context) Result {
		ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
		if err != nil {
			return Result{
				Status:  StatusPass,
				Message: fmt.Sprintf("%d in use (a running server will be adopted)", port),
			}
		}

		_ = ln.Close()

		return Result{
			Status:  StatusPass,
			Message: fmt.Sprintf("%d available", port),
		}
	}
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// checkCLIVersion checks the CLI version against the latest release.
func checkCLIVersion(ctx context.Context) Result {
	current := buildinfo.Version

	if current == "dev" {
		return Result{
			Status:  StatusWarn,
			Message: "Development build (version check skipped)",
		}
	}

	if update.IsDisabled() {
		return Result{
			Status:  StatusPass,
			Message: fmt.Sprintf("v%s (update checks disabled)", current),
		}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	updater, err := update.NewUpdater()
	if err != nil {
		return Result{
			Status:  StatusWarn,
			Message: fmt.Sprintf("v%s (could not check for updates)", current),
			Detail:  err.Error(),
		}
	}

	info, err := updater.CheckLatest(checkCtx, current)
	if err != nil {
		return Result{
			Status:  StatusWarn,
			Message: fmt.Sprintf("v%s (could not check for updates)", current),
			Detail:  err.Error(),
		}
	}

	if info.UpdateAvailable {
		return Result{
			Status:  StatusWarn,
			Message: fmt.Sprintf("v%s (v%s available)", current, info.LatestVersion),
			Detail:  "Run 'storypane update' to update",
		}
	}

	return Result{
		Status:  StatusPass,
		Message: fmt.Sprintf("v%s (latest)", current),
	}
}
