package terminal

import "testing"

func TestColorEnabled(t *testing.T) {
	tests := []struct {
		name string
		info Info
		want bool
	}{
		{"tty with color", Info{IsTTY: true}, true},
		{"not a tty", Info{IsTTY: false}, false},
		{"no-color env", Info{IsTTY: true, NoColor: true}, false},
		{"no-color flag wins over tty", Info{IsTTY: true, ForceFlag: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.info.ColorEnabled(); got != tt.want {
				t.Errorf("ColorEnabled() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSpinnersEnabled(t *testing.T) {
	tests := []struct {
		name string
		info Info
		want bool
	}{
		{"tty with color", Info{IsTTY: true}, true},
		{"not a tty", Info{IsTTY: false}, false},
		{"no-color env", Info{IsTTY: true, NoColor: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.info.SpinnersEnabled(); got != tt.want {
				t.Errorf("SpinnersEnabled() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDetectRespectsNoColorEnv(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	if info := Detect(); !info.NoColor {
		t.Error("Detect() ignored NO_COLOR")
	}
}

func TestDetectTreatsDumbTermAsNoColor(t *testing.T) {
	t.Setenv("TERM", "dumb")

	if info := Detect(); !info.NoColor {
		t.Error("Detect() treated TERM=dumb as color-capable")
	}
}
