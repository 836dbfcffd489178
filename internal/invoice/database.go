package invoice

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.etcd.io/bbolt"
)

const (
	bucketName = "invoices"
	recordsKey = "records"
)

// ErrNotFound is returned when an invoice id does not exist in the store
var ErrNotFound = errors.New("invoice not found")

// DB defines the interface for record store operations. The collection is
// persisted as one blob, newest first; every write replaces the whole blob.
type DB interface {
	// LoadAll returns the full collection in stored order. An absent or
	// corrupt payload yields an empty collection, not an error.
	LoadAll() ([]*Invoice, error)

	// SaveAll replaces the persisted collection with the given sequence
	SaveAll(invoices []*Invoice) error

	// Insert prepends an invoice to the collection
	Insert(inv *Invoice) error

	// DeleteByID removes the invoice with the given id; missing ids are a no-op
	DeleteByID(id string) error

	// UpdateByID applies a field-level mutation to one invoice and persists
	// the collection back. Returns ErrNotFound if the id does not exist.
	UpdateByID(id string, mutate func(*Invoice) error) error

	// Close closes the database connection
	Close() error
}

// BoltDB implements the DB interface using BoltDB
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB creates a new BoltDB instance
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating bucket: %w", err)
	}

	return &BoltDB{db: db}, nil
}

// decodeRecords unmarshals the stored blob. Corruption is treated as "no
// data": logged, never fatal.
func decodeRecords(data []byte) []*Invoice {
	if data == nil {
		return []*Invoice{}
	}
	var invoices []*Invoice
	if err := json.Unmarshal(data, &invoices); err != nil {
		slog.Warn("Corrupt invoice collection, treating as empty", "error", err)
		return []*Invoice{}
	}
	if invoices == nil {
		invoices = []*Invoice{}
	}
	return invoices
}

func putRecords(tx *bbolt.Tx, invoices []*Invoice) error {
	data, err := json.Marshal(invoices)
	if err != nil {
		return fmt.Errorf("marshaling invoices: %w", err)
	}
	return tx.Bucket([]byte(bucketName)).Put([]byte(recordsKey), data)
}

// LoadAll returns the full collection in stored order
func (b *BoltDB) LoadAll() ([]*Invoice, error) {
	var invoices []*Invoice
	err := b.db.View(func(tx *bbolt.Tx) error {
		invoices = decodeRecords(tx.Bucket([]byte(bucketName)).Get([]byte(recordsKey)))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return invoices, nil
}

// SaveAll replaces the persisted collection
func (b *BoltDB) SaveAll(invoices []*Invoice) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		return putRecords(tx, invoices)
	})
}

// Insert prepends an invoice to the collection
func (b *BoltDB) Insert(inv *Invoice) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		invoices := decodeRecords(tx.Bucket([]byte(bucketName)).Get([]byte(recordsKey)))
		invoices = append([]*Invoice{inv}, invoices...)
		return putRecords(tx, invoices)
	})
}

// DeleteByID removes the first invoice whose id matches; no-op if absent
func (b *BoltDB) DeleteByID(id string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		invoices := decodeRecords(tx.Bucket([]byte(bucketName)).Get([]byte(recordsKey)))
		for i, inv := range invoices {
			if inv.ID == id {
				invoices = append(invoices[:i], invoices[i+1:]...)
				return putRecords(tx, invoices)
			}
		}
		return nil
	})
}

// UpdateByID applies a mutation to one invoice inside a single update
// transaction, so the whole-collection write is all-or-nothing.
func (b *BoltDB) UpdateByID(id string, mutate func(*Invoice) error) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		invoices := decodeRecords(tx.Bucket([]byte(bucketName)).Get([]byte(recordsKey)))
		for _, inv := range invoices {
			if inv.ID == id {
				if err := mutate(inv); err != nil {
					return err
				}
				return putRecords(tx, invoices)
			}
		}
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	})
}

// Close closes the database connection
func (b *BoltDB) Close() error {
	return b.db.Close()
}
