package store

// Tx is a view over the buckets of a Store. It is only valid inside the
// callback passed to View or Update; writes on a View transaction fail.
type Tx interface {
	Get(bucket, key []byte) []byte
	Set(bucket, key, value []byte) error
	Delete(bucket, key []byte) error
	ForEach(bucket []byte, fn func(key, value []byte) error) error
}

// Store is an abstract key-value storage interface backed by buckets.
// Get reads one key in its own transaction; Update groups several writes
// so they commit or roll back together.
type Store interface {
	Get(bucket, key []byte) ([]byte, error)
	View(fn func(tx Tx) error) error
	Update(fn func(tx Tx) error) error
	Path() string
	Close() error
}
