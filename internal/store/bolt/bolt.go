package bolt

import (
	"fmt"
	"time"

	"prefstore/internal/store"

	bolt "go.etcd.io/bbolt"
)

// lockTimeout bounds how long Open waits for the file lock held by another
// handle on the same file.
const lockTimeout = time.Second

// Store implements store.Store using bbolt (embedded B+ tree).
type Store struct {
	db   *bolt.DB
	path string
}

var _ store.Store = (*Store)(nil)

// Open creates or opens a bbolt database at the given path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: lockTimeout})
	if err != nil {
		return nil, fmt.Errorf("opening bolt db: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Get(bucket, key []byte) ([]byte, error) {
	var val []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		val = (&boltTx{tx: tx}).Get(bucket, key)
		return nil
	})
	return val, err
}

// View runs fn in a read-only transaction.
func (s *Store) View(fn func(tx store.Tx) error) error {
	return s.db.View(func(tx *bolt.Tx) error {
		return fn(&boltTx{tx: tx})
	})
}

// Update runs fn in a read-write transaction. If fn returns an error the
// transaction is rolled back and none of its writes are visible.
func (s *Store) Update(fn func(tx store.Tx) error) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return fn(&boltTx{tx: tx})
	})
}

func (s *Store) Close() error {
	return s.db.Close()
}

// boltTx adapts a bbolt transaction to store.Tx. Missing buckets read as
// empty and are created on first write.
type boltTx struct {
	tx *bolt.Tx
}

func (t *boltTx) Get(bucket, key []byte) []byte {
	b := t.tx.Bucket(bucket)
	if b == nil {
		return nil
	}
	v := b.Get(key)
	if v == nil {
		return nil
	}
	val := make([]byte, len(v))
	copy(val, v)
	return val
}

func (t *boltTx) Set(bucket, key, value []byte) error {
	b, err := t.tx.CreateBucketIfNotExists(bucket)
	if err != nil {
		return fmt.Errorf("creating bucket: %w", err)
	}
	return b.Put(key, value)
}

func (t *boltTx) Delete(bucket, key []byte) error {
	b := t.tx.Bucket(bucket)
	if b == nil {
		return nil
	}
	return b.Delete(key)
}

func (t *boltTx) ForEach(bucket []byte, fn func(key, value []byte) error) error {
	b := t.tx.Bucket(bucket)
	if b == nil {
		return nil
	}
	return b.ForEach(fn)
}
