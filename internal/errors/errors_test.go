package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestServerExited(t *testing.T) {
	tests := []struct {
		name     string
		exitCode int
		stderr   string
		wantMsg  string
		wantHint string
	}{
		{
			name:     "with stderr tail",
			exitCode: 1,
			stderr:   "Error: Cannot find module '@storybook/react'",
			wantMsg:  "exit code 1",
			wantHint: "Cannot find module",
		},
		{
			name:     "empty stderr falls back to generic hint",
			exitCode: 127,
			stderr:   "",
			wantMsg:  "exit code 127",
			wantHint: "Run the dev server manually",
		},
		{
			name:     "whitespace-only stderr treated as empty",
			exitCode: 2,
			stderr:   "  \n\t ",
			wantMsg:  "exit code 2",
			wantHint: "Run the dev server manually",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ServerExited(tt.exitCode, tt.stderr)

			if !strings.Contains(err.Message, tt.wantMsg) {
				t.Errorf("message = %q, want to contain %q", err.Message, tt.wantMsg)
			}

			if !strings.Contains(err.Hint, tt.wantHint) {
				t.Errorf("hint = %q, want to contain %q", err.Hint, tt.wantHint)
			}

			if err.Code != ExitServer {
				t.Errorf("code = %d, want %d", err.Code, ExitServer)
			}
		})
	}
}

func TestStopRefused_DistinctFromNotRunning(t *testing.T) {
	refused := StopRefused(6006)
	notRunning := ServerNotRunning()

	if !strings.Contains(refused.Message, "6006") {
		t.Errorf("StopRefused message should name the port, got %q", refused.Message)
	}

	if !strings.Contains(refused.Message, "not started by storypane") {
		t.Errorf("StopRefused message should say the server is not ours, got %q", refused.Message)
	}

	if refused.Message == notRunning.Message {
		t.Error("StopRefused and ServerNotRunning must produce distinct messages")
	}
}

func TestMarkerDirMissing_NamesPath(t *testing.T) {
	err := MarkerDirMissing("Storybook", "/proj/.storybook", "Run 'npx storybook init' in the project")

	if !strings.Contains(err.Message, "/proj/.storybook") {
		t.Errorf("message should name the checked path, got %q", err.Message)
	}

	if !strings.Contains(err.Hint, "storybook init") {
		t.Errorf("hint should carry the remediation command, got %q", err.Hint)
	}

	if err.Code != ExitConfig {
		t.Errorf("code = %d, want %d", err.Code, ExitConfig)
	}
}

func TestToolNotFound(t *testing.T) {
	err := ToolNotFound("ladle", []string{"storybook", "histoire"})

	if !strings.Contains(err.Hint, "storybook, histoire") {
		t.Errorf("hint = %q, want known tools listed", err.Hint)
	}

	empty := ToolNotFound("ladle", nil)
	if !strings.Contains(empty.Hint, "No dev-server tools") {
		t.Errorf("hint = %q, want empty-registry fallback", empty.Hint)
	}
}

func TestCLIError_ErrorAndUnwrap(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := Wrap(ExitNetwork, "Probe failed", cause)

	if got := err.Error(); got != "Probe failed: connection refused" {
		t.Errorf("Error() = %q", got)
	}

	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}

	var cliErr *CLIError
	if !As(fmt.Errorf("outer: %w", err), &cliErr) {
		t.Error("As should unwrap nested CLIError")
	}

	if cliErr.Code != ExitNetwork {
		t.Errorf("code = %d, want %d", cliErr.Code, ExitNetwork)
	}
}

func TestWithHint(t *testing.T) {
	err := New(ExitGeneral, "something broke").WithHint("try again")

	if err.Hint != "try again" {
		t.Errorf("hint = %q, want %q", err.Hint, "try again")
	}
}
