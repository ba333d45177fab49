// Package store provides the thin key-value contract the standalone core
// needs: read/write/remove one well-known key, with a key-not-found result
// distinguished from any other store error, and a transactional remove that
// a caller can fold another write into.
//
// It is backed by an embedded badger database rather than a flat file, the
// same way a device's real key-value store is a transactional embedded
// store rather than a loose collection of files: the core's commit and
// broken-artifact paths need the standalone-state removal and the provides
// write to land in a single transaction.
package store

import (
	"path/filepath"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/amazonlinux/bottlerocket/standalone-update/pkg/logging"
)

// StandaloneStateKey is the fixed, well-known key under which the single
// in-progress StandaloneState record lives.
const StandaloneStateKey = "standalone-update"

// Store wraps a badger database with the narrow surface the core uses.
type Store struct {
	db  *badger.DB
	log logging.Logger
}

// Open opens (creating if necessary) a badger database at dir.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "unable to open store")
	}
	return &Store{db: db, log: logging.New("store")}, nil
}

// OpenInMemory opens a badger database with no on-disk footprint, for tests
// and for the scenarios in spec that operate against a "fresh store".
func OpenInMemory() (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "unable to open in-memory store")
	}
	return &Store{db: db, log: logging.New("store")}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// LoadResult is the three-way outcome of a Load: present with a value,
// absent, or an actual store error.
type LoadResult struct {
	Present bool
	Value   []byte
}

// Load reads key, distinguishing key-not-found (Present=false, err=nil)
// from every other store error, which propagates.
func (s *Store) Load(key string) (LoadResult, error) {
	var out LoadResult
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		value, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		out.Present = true
		out.Value = value
		return nil
	})
	if err != nil {
		return LoadResult{}, errors.Wrap(err, "unable to read store")
	}
	return out, nil
}

// Save writes the whole record for key.
func (s *Store) Save(key string, value []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
	if err != nil {
		return errors.Wrap(err, "unable to write store")
	}
	return nil
}

// Remove deletes key. Removing an absent key is not an error.
func (s *Store) Remove(key string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete([]byte(key))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		return err
	})
	if err != nil {
		return errors.Wrap(err, "unable to remove from store")
	}
	return nil
}

// Txn is the minimal transactional surface a caller folds its own write
// into: remove one key. *Transaction satisfies it; callers that only need
// to remove a key (the core's commit and broken-artifact paths) should
// depend on this interface rather than the concrete type.
type Txn interface {
	Remove(key string) error
}

// Transaction lets a caller fold a write and the standalone-state removal
// into one atomic unit, for the commit and broken-artifact-commit paths.
type Transaction struct {
	txn *badger.Txn
}

// Remove deletes key within the open transaction.
func (t *Transaction) Remove(key string) error {
	err := t.txn.Delete([]byte(key))
	if err == badger.ErrKeyNotFound {
		return nil
	}
	return err
}

// Set writes key within the open transaction.
func (t *Transaction) Set(key string, value []byte) error {
	return t.txn.Set([]byte(key), value)
}

// WithTransaction runs fn inside a single read-write transaction, committing
// on success and discarding on error.
func (s *Store) WithTransaction(fn func(*Transaction) error) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return fn(&Transaction{txn: txn})
	})
	if err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"path": filepath.Base(s.db.Opts().Dir),
		}).Error("transaction failed")
		return errors.Wrap(err, "unable to commit transaction")
	}
	return nil
}
