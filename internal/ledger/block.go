package ledger

import (
	"time"

	"github.com/docledger/docledger/internal/hash"
)

// Action is the document lifecycle event a block records.
type Action string

const (
	ActionGenesis  Action = "genesis"
	ActionCreated  Action = "created"
	ActionAccessed Action = "accessed"
	ActionVerified Action = "verified"
)

// GenesisDocID marks the synthetic first block of the chain.
const GenesisDocID = "GENESIS"

// Block is one append-only record of a single document lifecycle event.
// Hash covers every other field through the canonical serialization; any
// change to a persisted block is detectable by recomputing it.
type Block struct {
	Index        int       `json:"index"`
	Timestamp    time.Time `json:"timestamp"`
	DocID        string    `json:"doc_id"`
	ContentHash  string    `json:"content_hash"`
	Action       Action    `json:"action"`
	Actor        string    `json:"actor"`
	PreviousHash string    `json:"previous_hash"`
	Hash         string    `json:"hash"`
}

// ComputeHash digests the block's fields excluding Hash itself. The field
// set is serialized key-sorted, so the digest is stable across processes
// and reloads.
func (b *Block) ComputeHash() (string, error) {
	return hash.Canonical(map[string]any{
		"index":         b.Index,
		"timestamp":     b.Timestamp.UTC().Format(time.RFC3339Nano),
		"doc_id":        b.DocID,
		"content_hash":  b.ContentHash,
		"action":        string(b.Action),
		"actor":         b.Actor,
		"previous_hash": b.PreviousHash,
	})
}
