package ledger

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/docledger/docledger/internal/hash"
	"github.com/docledger/docledger/internal/metrics"
)

// Persister loads and saves the full ledger state. The ledger persists a
// snapshot after every mutating operation; a save failure is a hard error
// and the in-memory mutation is rolled back.
type Persister interface {
	Load() (*Snapshot, error)
	Save(*Snapshot) error
}

// Snapshot is the persisted layout: the whole chain plus the derived
// document index, as one structured file.
type Snapshot struct {
	Chain         []Block               `json:"chain"`
	DocumentIndex map[string]Provenance `json:"document_index"`
}

// VerifierActor is recorded on blocks appended by integrity verification.
const VerifierActor = "verification_system"

// Notifier receives document-level tamper detections and operational
// conditions. A nil Notifier disables both.
type Notifier interface {
	SendTamperAlert(docID, actor, originalHash, currentHash string) error
	SendSystemAlert(title, message, severity string) error
}

// Ledger owns the hash chain and the derived document index. All mutation
// goes through a single writer lock so block indices stay unique and
// monotonic; read-only projections take the read side.
type Ledger struct {
	mu      sync.RWMutex
	chain   *Chain
	index   *DocumentIndex
	store   Persister
	logger  *zap.Logger
	metrics *metrics.Ledger
	alerts  Notifier
	now     func() time.Time
}

// New loads the ledger from storage, or initializes an empty chain with a
// genesis block. Unreadable storage is a logged warning, not a fatal error:
// the ledger restarts empty rather than refusing to run.
func New(store Persister, logger *zap.Logger) (*Ledger, error) {
	return NewWithAlerts(store, logger, nil)
}

// NewWithAlerts is New with a notification sink: verify mismatches raise a
// tamper alert and a corrupt-snapshot recovery raises a system alert.
func NewWithAlerts(store Persister, logger *zap.Logger, alerts Notifier) (*Ledger, error) {
	l := &Ledger{
		chain:   NewChain(),
		index:   NewDocumentIndex(),
		store:   store,
		logger:  logger,
		metrics: metrics.NewLedger(),
		alerts:  alerts,
		now:     func() time.Time { return time.Now().UTC() },
	}

	snap, err := store.Load()
	if err != nil {
		logger.Warn("ledger storage unreadable, starting with an empty chain",
			zap.Error(err))
		if alerts != nil {
			if alertErr := alerts.SendSystemAlert("Ledger Storage Unreadable",
				fmt.Sprintf("snapshot could not be loaded, restarting with an empty chain: %v", err),
				"warning"); alertErr != nil {
				logger.Error("failed to send system alert", zap.Error(alertErr))
			}
		}
	} else if snap != nil {
		l.chain.Restore(snap.Chain)
		l.index.Restore(snap.DocumentIndex)
	}

	if l.chain.Len() == 0 {
		if _, err := l.chain.Genesis(l.now()); err != nil {
			return nil, err
		}
		if err := l.persist(); err != nil {
			return nil, fmt.Errorf("failed to persist genesis block: %w", err)
		}
		logger.Info("created genesis block")
	} else {
		logger.Info("loaded ledger",
			zap.Int("blocks", l.chain.Len()),
			zap.Int("documents", l.index.Len()))
	}

	return l, nil
}

// Register records a new document on the chain and creates its provenance
// entry. A doc_id with live provenance is rejected with ErrDocumentExists.
func (l *Ledger) Register(docID, content, actor string) (Block, error) {
	started := time.Now()
	var err error
	defer func() { l.metrics.ObserveAppend(string(ActionCreated), err, started) }()

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.index.Lookup(docID); exists {
		err = fmt.Errorf("register %s: %w", docID, ErrDocumentExists)
		return Block{}, err
	}

	contentHash := hash.Content(content)

	block, appendErr := l.chain.Append(docID, contentHash, ActionCreated, actor, l.now())
	if appendErr != nil {
		err = appendErr
		return Block{}, err
	}

	if regErr := l.index.Register(docID, contentHash, actor, block.Timestamp); regErr != nil {
		l.chain.dropTail()
		err = regErr
		return Block{}, err
	}

	if saveErr := l.persist(); saveErr != nil {
		l.chain.dropTail()
		l.index.drop(docID)
		err = fmt.Errorf("failed to persist ledger: %w", saveErr)
		return Block{}, err
	}

	l.logger.Info("registered document",
		zap.String("doc_id", docID),
		zap.String("actor", actor),
		zap.Int("block_index", block.Index))

	return block, nil
}

// RecordAccess appends an accessed block and bumps the document's access
// statistics. Unknown documents are reported, not recorded.
func (l *Ledger) RecordAccess(docID, actor string) (Block, error) {
	started := time.Now()
	var err error
	defer func() { l.metrics.ObserveAppend(string(ActionAccessed), err, started) }()

	l.mu.Lock()
	defer l.mu.Unlock()

	prior, exists := l.index.Lookup(docID)
	if !exists {
		err = fmt.Errorf("record access %s: %w", docID, ErrDocumentNotFound)
		return Block{}, err
	}

	block, appendErr := l.chain.Append(docID, prior.OriginalHash, ActionAccessed, actor, l.now())
	if appendErr != nil {
		err = appendErr
		return Block{}, err
	}

	if accErr := l.index.RecordAccess(docID, block.Timestamp); accErr != nil {
		l.chain.dropTail()
		err = accErr
		return Block{}, err
	}

	if saveErr := l.persist(); saveErr != nil {
		l.chain.dropTail()
		l.index.restoreEntry(docID, prior)
		err = fmt.Errorf("failed to persist ledger: %w", saveErr)
		return Block{}, err
	}

	return block, nil
}

// VerifyIntegrity re-validates the whole chain's linkage and returns the
// first violation found. Violations are reported, never auto-repaired.
func (l *Ledger) VerifyIntegrity() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.verifyIntegrityLocked()
}

// ChainValid reports whether the whole chain checks out.
func (l *Ledger) ChainValid() bool {
	return l.VerifyIntegrity() == nil
}

// Flush persists the current state. Called by the composition root on
// shutdown; every mutating operation already saved its own effect.
func (l *Ledger) Flush() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.persist()
}

func (l *Ledger) verifyIntegrityLocked() error {
	started := time.Now()
	err := l.chain.VerifyIntegrity()
	l.metrics.ObserveIntegrityCheck(err == nil, started)
	if err != nil {
		l.logger.Error("chain integrity violation", zap.Error(err))
	}
	return err
}

// persist writes the full current state. Callers hold at least the read
// lock; mutating callers hold the write lock so the snapshot is consistent.
func (l *Ledger) persist() error {
	started := time.Now()
	snap := &Snapshot{
		Chain:         l.chain.Blocks(),
		DocumentIndex: l.index.Snapshot(),
	}
	err := l.store.Save(snap)
	l.metrics.ObserveSave(err, started)
	return err
}
