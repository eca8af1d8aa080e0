package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/docledger/docledger/internal/ledger"
)

// tamper-ledger corrupts the content hash of one block in a ledger
// snapshot file so integrity detection can be exercised end to end.
func main() {
	if len(os.Args) != 3 {
		fmt.Fprintf(os.Stderr, "Usage: %s <ledger-file> <block-index>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "This tool corrupts the content hash of the given block\n")
		os.Exit(1)
	}

	ledgerPath := os.Args[1]
	blockIndex, err := strconv.Atoi(os.Args[2])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid block index: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Opening ledger: %s\n", ledgerPath)

	data, err := os.ReadFile(ledgerPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read ledger file: %v\n", err)
		os.Exit(1)
	}

	var snap ledger.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse ledger file: %v\n", err)
		os.Exit(1)
	}

	if blockIndex < 0 || blockIndex >= len(snap.Chain) {
		fmt.Fprintf(os.Stderr, "Block index %d out of range (chain has %d blocks)\n",
			blockIndex, len(snap.Chain))
		os.Exit(1)
	}
	if blockIndex == 0 {
		fmt.Fprintln(os.Stderr, "Refusing to tamper with the genesis block; pick index >= 1")
		os.Exit(1)
	}

	block := &snap.Chain[blockIndex]
	fmt.Printf("Target block %d (doc_id=%s, action=%s)\n", block.Index, block.DocID, block.Action)
	fmt.Printf("  Original ContentHash: %s\n", preview(block.ContentHash))

	corrupted, err := corruptDigest(block.ContentHash)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cannot corrupt block %d: %v\n", block.Index, err)
		os.Exit(1)
	}
	block.ContentHash = corrupted

	fmt.Printf("  Corrupted ContentHash: %s\n", preview(block.ContentHash))

	out, err := json.MarshalIndent(&snap, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to marshal ledger: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile(ledgerPath, out, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write ledger file: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("✓ Successfully corrupted block hash")
	fmt.Println("Ledger tampering completed")
}

// corruptDigest flips the first character of a digest (change first
// character). Hand-edited snapshots can carry short or empty hash fields,
// so the digest is validated before slicing.
func corruptDigest(digest string) (string, error) {
	if digest == "" {
		return "", fmt.Errorf("content hash is empty")
	}

	if digest[0] == 'a' {
		return "b" + digest[1:], nil
	}
	return "a" + digest[1:], nil
}

// preview shortens a digest for display, tolerating malformed values.
func preview(digest string) string {
	if len(digest) <= 32 {
		return digest
	}
	return digest[:32] + "..."
}
