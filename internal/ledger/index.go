package ledger

import (
	"time"
)

// Provenance is the derived summary of a document's registration and access
// history. It is rebuilt from the persisted snapshot at startup and updated
// alongside every chain append.
type Provenance struct {
	OriginalHash string     `json:"original_hash"`
	CreatedAt    time.Time  `json:"created_at"`
	CreatedBy    string     `json:"created_by"`
	AccessCount  int        `json:"access_count"`
	LastAccessed *time.Time `json:"last_accessed"`
}

// DocumentIndex maps document identifiers to provenance records. Like Chain
// it relies on the owning Ledger for serialization.
type DocumentIndex struct {
	docs map[string]Provenance
}

func NewDocumentIndex() *DocumentIndex {
	return &DocumentIndex{docs: make(map[string]Provenance)}
}

// Restore replaces the index contents with a previously persisted snapshot.
func (ix *DocumentIndex) Restore(docs map[string]Provenance) {
	ix.docs = make(map[string]Provenance, len(docs))
	for id, p := range docs {
		ix.docs[id] = p
	}
}

// Register creates the provenance entry for a newly recorded document.
// Re-registering a live doc_id is rejected.
func (ix *DocumentIndex) Register(docID, contentHash, actor string, ts time.Time) error {
	if _, exists := ix.docs[docID]; exists {
		return ErrDocumentExists
	}

	ix.docs[docID] = Provenance{
		OriginalHash: contentHash,
		CreatedAt:    ts,
		CreatedBy:    actor,
		AccessCount:  0,
		LastAccessed: nil,
	}
	return nil
}

// RecordAccess bumps the access counter and timestamp. An unregistered
// doc_id leaves the index untouched.
func (ix *DocumentIndex) RecordAccess(docID string, ts time.Time) error {
	p, exists := ix.docs[docID]
	if !exists {
		return ErrDocumentNotFound
	}

	p.AccessCount++
	p.LastAccessed = &ts
	ix.docs[docID] = p
	return nil
}

// Lookup returns the provenance record for a document, if any.
func (ix *DocumentIndex) Lookup(docID string) (Provenance, bool) {
	p, ok := ix.docs[docID]
	return p, ok
}

// drop removes an entry. Used only to roll back a registration whose
// persistence failed.
func (ix *DocumentIndex) drop(docID string) {
	delete(ix.docs, docID)
}

// restoreEntry puts back a prior provenance value during rollback.
func (ix *DocumentIndex) restoreEntry(docID string, p Provenance) {
	ix.docs[docID] = p
}

func (ix *DocumentIndex) Len() int {
	return len(ix.docs)
}

// Snapshot returns a copy of the index for persistence.
func (ix *DocumentIndex) Snapshot() map[string]Provenance {
	out := make(map[string]Provenance, len(ix.docs))
	for id, p := range ix.docs {
		out[id] = p
	}
	return out
}
