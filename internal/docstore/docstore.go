package docstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	DocumentsBucket = []byte("documents")
	MetadataBucket  = []byte("metadata")
)

// ErrNotFound is returned when no archive record exists for a doc_id.
var ErrNotFound = errors.New("document record not found")

// Store is the bbolt-backed document archive. It keeps the registered
// document's text and descriptive metadata; the ledger keeps only hashes,
// so the archive is what lets audit reports show what a doc_id refers to.
type Store struct {
	db *bolt.DB
}

// Document is an archived document record.
type Document struct {
	DocID       string    `json:"doc_id"`
	Title       string    `json:"title"`
	DocType     string    `json:"doc_type"`
	Content     string    `json:"content"`
	ContentHash string    `json:"content_hash"`
	UploadedBy  string    `json:"uploaded_by"`
	CreatedAt   time.Time `json:"created_at"`
}

func New(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{
		Timeout: 1 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{DocumentsBucket, MetadataBucket} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) SaveDocument(doc *Document) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(DocumentsBucket)

		data, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("failed to marshal document record: %w", err)
		}

		return bucket.Put([]byte(doc.DocID), data)
	})
}

func (s *Store) GetDocument(docID string) (*Document, error) {
	var doc Document

	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(DocumentsBucket)

		data := bucket.Get([]byte(docID))
		if data == nil {
			return ErrNotFound
		}

		return json.Unmarshal(data, &doc)
	})

	if err != nil {
		return nil, err
	}

	return &doc, nil
}

// ListDocuments returns every archived record in key order.
func (s *Store) ListDocuments() ([]*Document, error) {
	docs := make([]*Document, 0)

	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(DocumentsBucket)
		cursor := bucket.Cursor()

		for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
			var doc Document
			if err := json.Unmarshal(v, &doc); err != nil {
				continue
			}
			docs = append(docs, &doc)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return docs, nil
}

func (s *Store) SetMetadata(key, value string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(MetadataBucket)
		return bucket.Put([]byte(key), []byte(value))
	})
}

func (s *Store) GetMetadata(key string) (string, error) {
	var value string

	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(MetadataBucket)
		data := bucket.Get([]byte(key))
		if data == nil {
			return fmt.Errorf("metadata key not found: %s", key)
		}
		value = string(data)
		return nil
	})

	return value, err
}
