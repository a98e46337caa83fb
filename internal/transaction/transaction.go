// Package transaction provides the install lock and a small on-disk journal
// of install runs, so an interrupted install can be reported on the next run.
package transaction

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// State represents the current state of an install run.
type State string

const (
	StatePending    State = "pending"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

// Step names the install phase a journal entry last reached.
type Step string

const (
	StepResolve Step = "resolve"
	StepFetch   Step = "fetch"
	StepVerify  Step = "verify"
	StepPlace   Step = "place"
	StepDone    Step = "done"
)

const filePrefix = "txn-install-"

// InstallTxn is the journal entry for one install run.
type InstallTxn struct {
	Version   int       `json:"version"` // Schema version for future evolution
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Platform  string    `json:"platform"`
	SourceURL string    `json:"source_url"`
	Target    string    `json:"target"`
	State     State     `json:"state"`
	Step      Step      `json:"step"`
	LastError string    `json:"last_error,omitempty"`
}

// New creates a pending journal entry for installing sourceURL to target.
func New(platform, sourceURL, target string) *InstallTxn {
	return &InstallTxn{
		Version:   1,
		ID:        uuid.New().String(),
		Timestamp: time.Now().UTC(),
		Platform:  platform,
		SourceURL: sourceURL,
		Target:    target,
		State:     StatePending,
		Step:      StepResolve,
	}
}

// FileName returns the journal file name for t.
func (t *InstallTxn) FileName() string {
	return filePrefix + t.ID + ".json"
}

// Advance records that the run reached step.
func (t *InstallTxn) Advance(step Step) {
	t.Step = step
	t.State = StateInProgress
	if step == StepDone {
		t.State = StateCompleted
	}
}

// Fail marks the run as failed at its current step.
func (t *InstallTxn) Fail(err error) {
	t.State = StateFailed
	if err != nil {
		t.LastError = err.Error()
	}
}

// Finished reports whether the run completed or failed.
func (t *InstallTxn) Finished() bool {
	return t.State == StateCompleted || t.State == StateFailed
}

// Save writes the journal entry to dir atomically.
// Uses write-then-rename pattern for atomicity.
func (t *InstallTxn) Save(dir string) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create transaction directory: %w", err)
	}

	finalPath := filepath.Join(dir, t.FileName())
	tmpPath := finalPath + ".tmp"

	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal transaction: %w", err)
	}

	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("write temporary transaction file: %w", err)
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename transaction file: %w", err)
	}

	return nil
}

// Remove deletes the journal entry from dir.
func (t *InstallTxn) Remove(dir string) error {
	err := os.Remove(filepath.Join(dir, t.FileName()))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove transaction file: %w", err)
	}
	return nil
}

// Load reads a journal entry from disk.
func Load(path string) (*InstallTxn, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read transaction file: %w", err)
	}

	var txn InstallTxn
	if err := json.Unmarshal(data, &txn); err != nil {
		return nil, fmt.Errorf("unmarshal transaction: %w", err)
	}

	return &txn, nil
}

// List returns every journal entry in dir, oldest first. Unreadable
// entries are skipped and a missing dir is empty.
func List(dir string) ([]*InstallTxn, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read transaction directory: %w", err)
	}

	var out []*InstallTxn
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, ".json") {
			continue
		}
		txn, err := Load(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		out = append(out, txn)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

// Unfinished returns journal entries in dir that never completed or failed,
// oldest first.
func Unfinished(dir string) ([]*InstallTxn, error) {
	all, err := List(dir)
	if err != nil {
		return nil, err
	}

	var out []*InstallTxn
	for _, txn := range all {
		if !txn.Finished() {
			out = append(out, txn)
		}
	}
	return out, nil
}
