package output

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/storypane-dev/storypane/internal/terminal"
)

func newTestWriter() (*Writer, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer

	term := &terminal.Info{IsTTY: false, NoColor: true}

	return NewWriter(&out, &errOut, term), &out, &errOut
}

func TestWriter_StatusMessages(t *testing.T) {
	tests := []struct {
		name       string
		write      func(w *Writer)
		wantStdout string
		wantStderr string
	}{
		{
			name:       "success goes to stdout with checkmark",
			write:      func(w *Writer) { w.Success("server ready on port %d", 6006) },
			wantStdout: CheckMark + " server ready on port 6006\n",
		},
		{
			name:       "failure goes to stderr with x mark",
			write:      func(w *Writer) { w.Failure("spawn failed") },
			wantStderr: XMark + " spawn failed\n",
		},
		{
			name:       "warning goes to stdout",
			write:      func(w *Writer) { w.Warning("port in use") },
			wantStdout: WarningMark + " port in use\n",
		},
		{
			name:       "info goes to stdout",
			write:      func(w *Writer) { w.Info("watching file") },
			wantStdout: InfoMark + " watching file\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, out, errOut := newTestWriter()
			tt.write(w)

			if got := out.String(); got != tt.wantStdout {
				t.Errorf("stdout = %q, want %q", got, tt.wantStdout)
			}

			if got := errOut.String(); got != tt.wantStderr {
				t.Errorf("stderr = %q, want %q", got, tt.wantStderr)
			}
		})
	}
}

func TestWriter_QuietSilencesAllButFailure(t *testing.T) {
	w, out, errOut := newTestWriter()
	w.Quiet = true

	w.Print("hello")
	w.Println("world")
	w.Success("ok")
	w.Warning("careful")
	w.Info("note")
	w.Muted("dim")

	if out.Len() != 0 {
		t.Errorf("stdout not empty in quiet mode: %q", out.String())
	}

	w.Failure("broken")

	if !strings.Contains(errOut.String(), "broken") {
		t.Errorf("failure suppressed in quiet mode: %q", errOut.String())
	}
}

func TestWriter_DebugOnlyInVerbose(t *testing.T) {
	w, out, _ := newTestWriter()

	w.Debug("hidden")
	if out.Len() != 0 {
		t.Errorf("debug output without verbose: %q", out.String())
	}

	w.Verbose = true
	w.Debug("shown %d", 1)

	if !strings.Contains(out.String(), "[debug] shown 1") {
		t.Errorf("debug output = %q", out.String())
	}
}

func TestWriter_PrintJSON(t *testing.T) {
	w, out, _ := newTestWriter()

	payload := map[string]any{"running": true, "port": 6006}
	if err := w.PrintJSON(payload); err != nil {
		t.Fatalf("PrintJSON() error = %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(out.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, out.String())
	}

	if decoded["port"] != float64(6006) {
		t.Errorf("port = %v, want 6006", decoded["port"])
	}
}

func TestWriter_ContextRoundTrip(t *testing.T) {
	w, _, _ := newTestWriter()

	ctx := w.WithContext(context.Background())

	if got := FromContext(ctx); got != w {
		t.Error("FromContext did not return the stored writer")
	}

	if got := FromContext(context.Background()); got == nil {
		t.Error("FromContext should fall back to Default, not nil")
	}
}

func TestSpinner_DisabledFallback(t *testing.T) {
	w, out, _ := newTestWriter() // non-TTY disables spinners

	s := w.Spinner("starting dev server")
	s.Start()
	s.StopWithSuccess("ready")

	got := out.String()
	if !strings.Contains(got, "starting dev server... ") {
		t.Errorf("plain fallback missing start message: %q", got)
	}

	if !strings.Contains(got, "done") || !strings.Contains(got, "ready") {
		t.Errorf("plain fallback missing completion: %q", got)
	}
}

func TestSpinner_DisabledFailure(t *testing.T) {
	w, out, errOut := newTestWriter()

	s := w.Spinner("starting dev server")
	s.Start()
	s.StopWithFailure("exited early")

	if !strings.Contains(out.String(), "failed") {
		t.Errorf("stdout = %q, want 'failed' marker", out.String())
	}

	if !strings.Contains(errOut.String(), "exited early") {
		t.Errorf("stderr = %q, want failure message", errOut.String())
	}
}
