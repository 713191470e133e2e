// Package errors provides structured CLI error types for Storypane.
//
// CLIError wraps errors with user-facing messages, hints, and exit codes
// to provide consistent, actionable error output across all commands.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Exit codes for CLI errors.
const (
	ExitSuccess = 0  // Successful execution
	ExitGeneral = 1  // General error
	ExitServer  = 2  // Dev server lifecycle error
	ExitNetwork = 3  // Network error
	ExitConfig  = 4  // Configuration error
	ExitTimeout = 5  // Startup/shutdown timeout
	ExitUsage   = 64 // Command line usage error (BSD convention)
)

// CLIError represents a user-facing CLI error with actionable guidance.
type CLIError struct {
	// Message is the primary error message shown to the user.
	Message string

	// Hint provides actionable guidance on how to fix the error.
	Hint string

	// Cause is the underlying error, if any.
	Cause error

	// Code is the exit code for the CLI.
	Code int
}

// Error implements the error interface.
func (e *CLIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}

	return e.Message
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *CLIError) Unwrap() error {
	return e.Cause
}

// New creates a new CLIError with the given message and exit code.
func New(code int, message string) *CLIError {
	return &CLIError{
		Message: message,
		Code:    code,
	}
}

// Wrap wraps an existing error with a CLIError.
func Wrap(code int, message string, cause error) *CLIError {
	return &CLIError{
		Message: message,
		Cause:   cause,
		Code:    code,
	}
}

// WithHint adds a hint to the error.
func (e *CLIError) WithHint(hint string) *CLIError {
	e.Hint = hint
	return e
}

// As is a convenience function for errors.As with CLIError.
func As(err error, target **CLIError) bool {
	return errors.As(err, target)
}

// --- Common error constructors ---

// ProjectDirMissing returns an error for a nonexistent project directory.
func ProjectDirMissing(dir string) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("Project directory not found: %s", dir),
		Hint:    "Set storybook.dir in your config or pass --dir",
		Code:    ExitConfig,
	}
}

// MarkerDirMissing returns a precondition error for a project that has no
// tool configuration directory (e.g. no .storybook under the project root).
// Reported before any process is spawned.
func MarkerDirMissing(tool, markerPath, remediation string) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("%s is not set up in this project: %s does not exist", tool, markerPath),
		Hint:    remediation,
		Code:    ExitConfig,
	}
}

// SpawnFailed returns an error when the OS could not create the process.
func SpawnFailed(command string, cause error) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("Failed to start %s", command),
		Hint:    "Check that the command is installed and on your PATH",
		Cause:   cause,
		Code:    ExitServer,
	}
}

// ServerExited returns an error for a process that terminated before any
// readiness signal. stderrTail is the bounded captured stderr, possibly empty.
func ServerExited(exitCode int, stderrTail string) *CLIError {
	msg := fmt.Sprintf("Dev server exited before becoming ready (exit code %d)", exitCode)
	hint := "Run the dev server manually in the project directory to reproduce"

	if tail := strings.TrimSpace(stderrTail); tail != "" {
		hint = tail
	}

	return &CLIError{
		Message: msg,
		Hint:    hint,
		Code:    ExitServer,
	}
}

// StopRefused returns an error when stopping a server this process does not
// own. This is distinct from "not running": the server is alive on the port
// but was started outside our control, and killing it would be wrong.
func StopRefused(port int) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("A dev server is running on port %d, but it was not started by storypane", port),
		Hint:    "Stop it from the terminal where it was started",
		Code:    ExitServer,
	}
}

// ServerNotRunning returns an error when no server is available to act on.
func ServerNotRunning() *CLIError {
	return &CLIError{
		Message: "Dev server is not running",
		Hint:    "Run 'storypane server start' or open a preview",
		Code:    ExitServer,
	}
}

// PreviewTargetMissing returns an error for a preview file that does not exist.
func PreviewTargetMissing(path string) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("Component file not found: %s", path),
		Hint:    "Check the path; it should point at a component or story source file",
		Code:    ExitUsage,
	}
}

// ToolNotFound returns an error for an unknown dev-server tool name.
func ToolNotFound(name string, known []string) *CLIError {
	hint := "No dev-server tools registered"
	if len(known) > 0 {
		hint = fmt.Sprintf("Known tools: %s", strings.Join(known, ", "))
	}

	return &CLIError{
		Message: fmt.Sprintf("Unknown dev-server tool: %s", name),
		Hint:    hint,
		Code:    ExitConfig,
	}
}

// InvalidPort returns an error for an out-of-range port value.
func InvalidPort(port int) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("Invalid port: %d", port),
		Hint:    "Set storybook.port to a value between 1 and 65535",
		Code:    ExitConfig,
	}
}

// ConfigFailed returns an error for configuration save failures.
func ConfigFailed(operation string, cause error) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("Failed to %s", operation),
		Hint:    "Check file permissions for your Storypane config directory or run 'storypane doctor'",
		Cause:   cause,
		Code:    ExitConfig,
	}
}

// OverlayExists returns an error when 'init' would clobber a project overlay.
func OverlayExists(path string) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("Project overlay already exists: %s", path),
		Hint:    "Use --force to overwrite it",
		Code:    ExitUsage,
	}
}

// BrowserOpenFailed returns an error when the platform browser could not be launched.
func BrowserOpenFailed(url string, cause error) *CLIError {
	return &CLIError{
		Message: "Failed to open browser",
		Hint:    fmt.Sprintf("Open %s manually", url),
		Cause:   cause,
		Code:    ExitGeneral,
	}
}

// NodeNotFound returns an error when no Node.js runtime is available.
func NodeNotFound() *CLIError {
	return &CLIError{
		Message: "Node.js not found",
		Hint:    "Storybook requires Node.js; install it from https://nodejs.org",
		Code:    ExitConfig,
	}
}
