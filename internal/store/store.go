package store

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/docledger/docledger/internal/ledger"
)

// Store persists the ledger snapshot as a single structured JSON file
// holding the chain and the derived document index. The full state is
// rewritten on every save; durability over write throughput, which fits
// the low event volume.
type Store struct {
	path string
}

func New(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string {
	return s.path
}

// Load restores the snapshot from disk. A missing file yields a nil
// snapshot and no error, so the caller starts with an empty chain. An
// unreadable or corrupt file is returned as an error for the caller to
// log; it is an explicit data-loss tradeoff, not a silent one.
func (s *Store) Load() (*ledger.Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read ledger file %s: %w", s.path, err)
	}

	var snap ledger.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("corrupt ledger file %s: %w", s.path, err)
	}

	if snap.DocumentIndex == nil {
		snap.DocumentIndex = make(map[string]ledger.Provenance)
	}

	return &snap, nil
}

// Save writes the snapshot to a temporary file and renames it into place,
// so a crash mid-write never destroys the previous snapshot.
func (s *Store) Save(snap *ledger.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal ledger snapshot: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write ledger file: %w", err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace ledger file: %w", err)
	}

	return nil
}
