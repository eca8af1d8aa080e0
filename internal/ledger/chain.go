package ledger

import (
	"fmt"
	"time"

	"github.com/docledger/docledger/internal/hash"
)

// Chain is the full ordered sequence of blocks from genesis to tail. It is
// not safe for concurrent use on its own; the owning Ledger serializes all
// mutation behind its writer lock.
type Chain struct {
	blocks []Block
}

func NewChain() *Chain {
	return &Chain{blocks: make([]Block, 0)}
}

// Restore replaces the chain contents with previously persisted blocks.
func (c *Chain) Restore(blocks []Block) {
	c.blocks = make([]Block, len(blocks))
	copy(c.blocks, blocks)
}

// Genesis creates the chain's first block. It is an error to call it on a
// non-empty chain.
func (c *Chain) Genesis(now time.Time) (Block, error) {
	if len(c.blocks) != 0 {
		return Block{}, fmt.Errorf("genesis on non-empty chain (%d blocks)", len(c.blocks))
	}

	genesis := Block{
		Index:        0,
		Timestamp:    now,
		DocID:        GenesisDocID,
		ContentHash:  hash.ZeroDigest,
		Action:       ActionGenesis,
		Actor:        "system",
		PreviousHash: hash.ZeroDigest,
	}

	blockHash, err := genesis.ComputeHash()
	if err != nil {
		return Block{}, fmt.Errorf("failed to hash genesis block: %w", err)
	}
	genesis.Hash = blockHash

	c.blocks = append(c.blocks, genesis)
	return genesis, nil
}

// Append builds a block linked to the current tail, hashes it and makes it
// visible. The block is fully constructed before it joins the chain.
func (c *Chain) Append(docID, contentHash string, action Action, actor string, now time.Time) (Block, error) {
	if len(c.blocks) == 0 {
		return Block{}, fmt.Errorf("append on empty chain: genesis block missing")
	}

	tail := c.blocks[len(c.blocks)-1]

	block := Block{
		Index:        tail.Index + 1,
		Timestamp:    now,
		DocID:        docID,
		ContentHash:  contentHash,
		Action:       action,
		Actor:        actor,
		PreviousHash: tail.Hash,
	}

	blockHash, err := block.ComputeHash()
	if err != nil {
		return Block{}, fmt.Errorf("failed to hash block %d: %w", block.Index, err)
	}
	block.Hash = blockHash

	c.blocks = append(c.blocks, block)
	return block, nil
}

// dropTail removes the most recent block. Used only to roll back an append
// whose persistence failed, so memory never diverges from disk.
func (c *Chain) dropTail() {
	if len(c.blocks) > 0 {
		c.blocks = c.blocks[:len(c.blocks)-1]
	}
}

func (c *Chain) Len() int {
	return len(c.blocks)
}

// Tail returns the most recent block. Calling Tail on an empty chain is a
// programming error.
func (c *Chain) Tail() Block {
	return c.blocks[len(c.blocks)-1]
}

// Blocks returns a copy of the chain for read-only projection.
func (c *Chain) Blocks() []Block {
	out := make([]Block, len(c.blocks))
	copy(out, c.blocks)
	return out
}

// VerifyIntegrity walks the chain from block 1, checking each link and
// recomputing each block's own hash. It returns the first violation found,
// or nil if the whole chain checks out.
func (c *Chain) VerifyIntegrity() error {
	for i := 1; i < len(c.blocks); i++ {
		current := &c.blocks[i]
		previous := &c.blocks[i-1]

		if current.PreviousHash != previous.Hash {
			return &IntegrityError{
				BlockIndex: current.Index,
				Reason:     "broken link to previous block",
				Expected:   previous.Hash,
				Actual:     current.PreviousHash,
			}
		}

		recomputed, err := current.ComputeHash()
		if err != nil {
			return fmt.Errorf("failed to recompute hash of block %d: %w", current.Index, err)
		}
		if current.Hash != recomputed {
			return &IntegrityError{
				BlockIndex: current.Index,
				Reason:     "block hash mismatch",
				Expected:   recomputed,
				Actual:     current.Hash,
			}
		}
	}

	return nil
}
