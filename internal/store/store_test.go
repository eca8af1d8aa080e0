package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/docledger/docledger/internal/ledger"
)

func TestLoadMissingFile(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "ledger.json"))

	snap, err := s.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if snap != nil {
		t.Error("Missing file should yield a nil snapshot")
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "ledger.json"))

	ts := time.Now().UTC()
	accessed := ts.Add(time.Minute)
	snap := &ledger.Snapshot{
		Chain: []ledger.Block{
			{
				Index:        0,
				Timestamp:    ts,
				DocID:        "GENESIS",
				ContentHash:  "0000",
				Action:       ledger.ActionGenesis,
				Actor:        "system",
				PreviousHash: "0000",
				Hash:         "aaaa",
			},
			{
				Index:        1,
				Timestamp:    ts.Add(time.Second),
				DocID:        "DOC001",
				ContentHash:  "bbbb",
				Action:       ledger.ActionCreated,
				Actor:        "clerk1",
				PreviousHash: "aaaa",
				Hash:         "cccc",
			},
		},
		DocumentIndex: map[string]ledger.Provenance{
			"DOC001": {
				OriginalHash: "bbbb",
				CreatedAt:    ts.Add(time.Second),
				CreatedBy:    "clerk1",
				AccessCount:  2,
				LastAccessed: &accessed,
			},
		},
	}

	if err := s.Save(snap); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := s.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded == nil {
		t.Fatal("Expected a snapshot, got nil")
	}

	if len(loaded.Chain) != len(snap.Chain) {
		t.Fatalf("Expected %d blocks, got %d", len(snap.Chain), len(loaded.Chain))
	}
	for i := range snap.Chain {
		if loaded.Chain[i].Hash != snap.Chain[i].Hash {
			t.Errorf("Block %d hash mismatch: %s != %s", i, loaded.Chain[i].Hash, snap.Chain[i].Hash)
		}
		if !loaded.Chain[i].Timestamp.Equal(snap.Chain[i].Timestamp) {
			t.Errorf("Block %d timestamp mismatch", i)
		}
	}

	prov, ok := loaded.DocumentIndex["DOC001"]
	if !ok {
		t.Fatal("Document index entry missing after reload")
	}
	if prov.AccessCount != 2 {
		t.Errorf("Expected access count 2, got %d", prov.AccessCount)
	}
	if prov.LastAccessed == nil || !prov.LastAccessed.Equal(accessed) {
		t.Error("LastAccessed not preserved across reload")
	}
}

func TestSaveIsIdempotent(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "ledger.json"))

	snap := &ledger.Snapshot{
		Chain:         []ledger.Block{{Index: 0, DocID: "GENESIS", Hash: "aaaa"}},
		DocumentIndex: map[string]ledger.Provenance{},
	}

	if err := s.Save(snap); err != nil {
		t.Fatalf("first Save failed: %v", err)
	}
	if err := s.Save(snap); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	loaded, err := s.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded.Chain) != 1 {
		t.Errorf("Expected 1 block, got %d", len(loaded.Chain))
	}
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}

	s := New(path)
	if _, err := s.Load(); err == nil {
		t.Error("Corrupt file should return an error")
	}
}

func TestLoadEmptyIndexDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	if err := os.WriteFile(path, []byte(`{"chain": []}`), 0600); err != nil {
		t.Fatal(err)
	}

	s := New(path)
	snap, err := s.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if snap.DocumentIndex == nil {
		t.Error("DocumentIndex should default to an empty map")
	}
}
