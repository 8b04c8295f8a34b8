// Package storage adapts BadgerDB to the content-addressed storage
// delegate contract used for attachments.
package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// BlobMeta describes one stored blob. It lives under a separate key so
// the raw bytes can be streamed without decoding metadata.
type BlobMeta struct {
	Filename    string    `json:"filename"`
	ContentType string    `json:"contentType"`
	Owner       string    `json:"owner"`
	Size        int64     `json:"size"`
	At          time.Time `json:"at"`
}

// BlobStore is a content-addressed blob store over BadgerDB. Keys are
// derived from the sha256 of the content, so storing the same bytes
// twice is idempotent and returns the same hash.
type BlobStore struct {
	log  *slog.Logger
	path string
	db   *badger.DB
}

func NewBlobStore(log *slog.Logger, path string) *BlobStore {
	return &BlobStore{log: log, path: path}
}

func (s *BlobStore) Connect(_ context.Context) error {
	db, err := badger.Open(badger.DefaultOptions(s.path).WithLoggingLevel(badger.ERROR))
	if err != nil {
		return fmt.Errorf("blob store opening failed: %w", err)
	}
	s.db = db
	return nil
}

// Store writes the blob and its metadata, returning the content hash.
// Re-storing existing content only refreshes the metadata.
func (s *BlobStore) Store(ctx context.Context, data []byte, filename, contentType, ownerID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])

	meta, err := json.Marshal(BlobMeta{
		Filename:    filename,
		ContentType: contentType,
		Owner:       ownerID,
		Size:        int64(len(data)),
		At:          time.Now().UTC(),
	})
	if err != nil {
		return "", err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte("blob:"+hash), data); err != nil {
			return err
		}
		return txn.Set([]byte("meta:"+hash), meta)
	})
	if err != nil {
		return "", err
	}

	s.log.Debug("Blob stored", "hash", hash, "size", len(data))
	return hash, nil
}

// Load retrieves a blob and its metadata by content hash.
func (s *BlobStore) Load(hash string) ([]byte, BlobMeta, error) {
	var data []byte
	var meta BlobMeta
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte("blob:" + hash))
		if err != nil {
			return err
		}
		if data, err = item.ValueCopy(nil); err != nil {
			return err
		}
		item, err = txn.Get([]byte("meta:" + hash))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &meta)
		})
	})
	if err != nil {
		return nil, BlobMeta{}, err
	}
	return data, meta, nil
}

func (s *BlobStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
