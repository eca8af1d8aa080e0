package ledger

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/docledger/docledger/internal/hash"
)

// VerificationResult is the outcome of checking a document's current
// content against its recorded provenance and the chain's own integrity.
type VerificationResult struct {
	DocID                string     `json:"doc_id"`
	IsValid              bool       `json:"is_valid"`
	OriginalHash         string     `json:"original_hash"`
	CurrentHash          string     `json:"current_hash"`
	CreatedAt            time.Time  `json:"created_at"`
	LastAccessed         *time.Time `json:"last_accessed"`
	AccessCount          int        `json:"access_count"`
	ModificationDetected bool       `json:"modification_detected"`
	ChainValid           bool       `json:"chain_valid"`
}

// Verify compares current content against the document's recorded original
// hash and re-validates the chain. Verification is itself a logged action:
// a verified block is appended so the audit trail records who checked what
// and when. A doc_id with no provenance is treated as untrustworthy and no
// provenance entry is created for it.
func (l *Ledger) Verify(docID, content string) (VerificationResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	currentHash := hash.Content(content)

	prov, exists := l.index.Lookup(docID)
	if !exists {
		l.logger.Warn("verification requested for unknown document",
			zap.String("doc_id", docID))
		return VerificationResult{
			DocID:                docID,
			IsValid:              false,
			CurrentHash:          currentHash,
			ModificationDetected: true,
			ChainValid:           l.verifyIntegrityLocked() == nil,
		}, nil
	}

	// The append metric starts here: the unknown-document path above
	// appends nothing and must not count as one.
	started := time.Now()
	var err error
	defer func() { l.metrics.ObserveAppend(string(ActionVerified), err, started) }()

	isValid := currentHash == prov.OriginalHash
	if !isValid {
		l.metrics.RecordTamperDetected()
		l.logger.Error("document modification detected",
			zap.String("doc_id", docID),
			zap.String("original_hash", hash.Truncate(prov.OriginalHash)),
			zap.String("current_hash", hash.Truncate(currentHash)))
		if l.alerts != nil {
			if alertErr := l.alerts.SendTamperAlert(docID, VerifierActor, prov.OriginalHash, currentHash); alertErr != nil {
				l.logger.Error("failed to send tamper alert", zap.Error(alertErr))
			}
		}
	}

	if _, appendErr := l.chain.Append(docID, currentHash, ActionVerified, VerifierActor, l.now()); appendErr != nil {
		err = appendErr
		return VerificationResult{}, err
	}

	if saveErr := l.persist(); saveErr != nil {
		l.chain.dropTail()
		err = fmt.Errorf("failed to persist ledger: %w", saveErr)
		return VerificationResult{}, err
	}

	return VerificationResult{
		DocID:                docID,
		IsValid:              isValid,
		OriginalHash:         prov.OriginalHash,
		CurrentHash:          currentHash,
		CreatedAt:            prov.CreatedAt,
		LastAccessed:         prov.LastAccessed,
		AccessCount:          prov.AccessCount,
		ModificationDetected: !isValid,
		ChainValid:           l.verifyIntegrityLocked() == nil,
	}, nil
}
