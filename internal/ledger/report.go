package ledger

import (
	"fmt"
	"time"

	"github.com/docledger/docledger/internal/hash"
)

// HistoryEntry is one document lifecycle event projected for display.
type HistoryEntry struct {
	Timestamp  time.Time `json:"timestamp"`
	Action     Action    `json:"action"`
	Actor      string    `json:"actor"`
	Hash       string    `json:"hash"`
	BlockIndex int       `json:"block_index"`
}

// AuditReport combines a document's provenance, its full event history and
// the current chain verdict into one structure.
type AuditReport struct {
	DocID          string         `json:"doc_id"`
	RegisteredOn   time.Time      `json:"registered_on"`
	RegisteredBy   string         `json:"registered_by"`
	OriginalHash   string         `json:"original_hash"`
	TotalAccesses  int            `json:"total_accesses"`
	LastAccessed   *time.Time     `json:"last_accessed"`
	ChainIntegrity string         `json:"chain_integrity"`
	History        []HistoryEntry `json:"history"`
	TotalEvents    int            `json:"total_events"`
}

// Stats summarizes the whole ledger.
type Stats struct {
	TotalBlocks    int        `json:"total_blocks"`
	TotalDocuments int        `json:"total_documents"`
	ChainValid     bool       `json:"chain_valid"`
	LastBlockTime  *time.Time `json:"last_block_time"`
}

// History returns every block referencing the document, in ascending block
// index order. An unknown document yields an empty history.
func (l *Ledger) History(docID string) []HistoryEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.historyLocked(docID)
}

// Report builds the audit report for a registered document.
func (l *Ledger) Report(docID string) (AuditReport, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	prov, exists := l.index.Lookup(docID)
	if !exists {
		return AuditReport{}, fmt.Errorf("audit report %s: %w", docID, ErrDocumentNotFound)
	}

	integrity := "valid"
	if l.verifyIntegrityLocked() != nil {
		integrity = "compromised"
	}

	history := l.historyLocked(docID)

	return AuditReport{
		DocID:          docID,
		RegisteredOn:   prov.CreatedAt,
		RegisteredBy:   prov.CreatedBy,
		OriginalHash:   hash.Truncate(prov.OriginalHash),
		TotalAccesses:  prov.AccessCount,
		LastAccessed:   prov.LastAccessed,
		ChainIntegrity: integrity,
		History:        history,
		TotalEvents:    len(history),
	}, nil
}

// Stats reports ledger-wide totals.
func (l *Ledger) Stats() Stats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	stats := Stats{
		TotalBlocks:    l.chain.Len(),
		TotalDocuments: l.index.Len(),
		ChainValid:     l.verifyIntegrityLocked() == nil,
	}

	if l.chain.Len() > 0 {
		tail := l.chain.Tail().Timestamp
		stats.LastBlockTime = &tail
	}

	return stats
}

func (l *Ledger) historyLocked(docID string) []HistoryEntry {
	entries := make([]HistoryEntry, 0)

	for _, block := range l.chain.Blocks() {
		if block.DocID != docID {
			continue
		}
		entries = append(entries, HistoryEntry{
			Timestamp:  block.Timestamp,
			Action:     block.Action,
			Actor:      block.Actor,
			Hash:       hash.Truncate(block.ContentHash),
			BlockIndex: block.Index,
		})
	}

	return entries
}
