// Package state persists the per-command failure ledger between runs.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/afero"

	"github.com/cronguard/cronguard/internal/model"
	"github.com/cronguard/cronguard/internal/runner"
)

// ErrCorrupt reports a state file that exists but cannot be decoded. It has
// to be inspected or removed by hand.
var ErrCorrupt = errors.New("state file corrupt")

// RunState is the ledger for one command fingerprint: how many times in a
// row it failed and the not-yet-reported failure records.
type RunState struct {
	Cmd      []string        `json:"cmd"`
	Shell    bool            `json:"shell,omitempty"`
	NumFails int             `json:"num_fails"`
	Failures []runner.Result `json:"failures"`
}

// New returns the ledger for a command without recorded history.
func New(cmd model.Command) *RunState {
	return &RunState{
		Cmd:      cmd.Argv,
		Shell:    cmd.Shell,
		Failures: []runner.Result{},
	}
}

// CLI returns the stored command line for report rendering.
func (s *RunState) CLI() string {
	return strings.Join(s.Cmd, " ")
}

// Reset clears the ledger after a successful run.
func (s *RunState) Reset() {
	s.NumFails = 0
	s.Failures = s.Failures[:0]
}

// ClearFailures drops the buffered records once a report went out. The
// consecutive-failure counter keeps counting until a success.
func (s *RunState) ClearFailures() {
	s.Failures = s.Failures[:0]
}

// Store reads and writes one ledger file.
type Store struct {
	fs   afero.Fs
	path string
}

func NewStore(fs afero.Fs, path string) *Store {
	return &Store{fs: fs, path: path}
}

func (s *Store) Path() string {
	return s.path
}

// Load reads the ledger. A missing file is a fresh start and returns
// (nil, nil); a file that cannot be parsed is ErrCorrupt.
func (s *Store) Load() (*RunState, error) {
	raw, err := afero.ReadFile(s.fs, s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading state file %s: %w", s.path, err)
	}
	var st RunState
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, s.path, err)
	}
	return &st, nil
}

// Save writes the ledger wholesale, truncating in place. The write is not
// atomic: a crash mid-write can corrupt the file, and Load will say so.
func (s *Store) Save(st *RunState) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}
	if err := afero.WriteFile(s.fs, s.path, raw, 0o600); err != nil {
		return fmt.Errorf("writing state file %s: %w", s.path, err)
	}
	return nil
}
