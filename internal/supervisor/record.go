package supervisor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/storypane-dev/storypane/internal/paths"
)

// Record is the on-disk note of a dev server Storypane spawned. It is what
// lets a later invocation distinguish "ours" from "started externally":
// only a recorded, still-alive process may be stopped from another
// process.
type Record struct {
	PID       int       `json:"pid"`
	Port      int       `json:"port"`
	Tool      string    `json:"tool"`
	StartedAt time.Time `json:"startedAt"`
}

func recordPath() (string, error) {
	root, err := paths.StateRoot()
	if err != nil {
		return "", err
	}

	return filepath.Join(root, "server.json"), nil
}

// ReadRecord loads the server record, reporting false when none exists.
func ReadRecord() (*Record, bool) {
	path, err := recordPath()
	if err != nil {
		return nil, false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, false
	}

	return &rec, true
}

// Alive reports whether the recorded process still exists. A stale record
// (machine reboot, crash without cleanup) must never authorize killing an
// unrelated process that reused the PID's port.
func (r *Record) Alive() bool {
	return r != nil && r.PID > 0 && processAlive(r.PID)
}

func writeRecord(rec Record) error {
	path, err := recordPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}

func clearRecord() {
	path, err := recordPath()
	if err != nil {
		return
	}

	_ = os.Remove(path)
}

// StopRecorded terminates a dev server recorded by an earlier invocation:
// soft signal first, hard kill after the grace period. The record is
// cleared on success.
func StopRecorded(rec *Record, grace time.Duration) error {
	if !rec.Alive() {
		clearRecord()
		return nil
	}

	if grace <= 0 {
		grace = defaultStopGrace
	}

	signalPIDTree(rec.PID, false)

	deadline := time.Now().Add(grace)
	for time.Now().Before(deadline) {
		if !processAlive(rec.PID) {
			clearRecord()
			return nil
		}

		time.Sleep(100 * time.Millisecond)
	}

	signalPIDTree(rec.PID, true)

	deadline = time.Now().Add(grace)
	for time.Now().Before(deadline) {
		if !processAlive(rec.PID) {
			clearRecord()
			return nil
		}

		time.Sleep(100 * time.Millisecond)
	}

	return fmt.Errorf("dev server (pid %d) did not exit", rec.PID)
}
