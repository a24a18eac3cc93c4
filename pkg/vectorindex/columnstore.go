package vectorindex

import (
	"encoding/binary"
	"fmt"
	"math"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/orneryd/graphrag-core/pkg/model"
)

// columnStorePrefix is the single key prefix used for the (id, vector)
// columnar table, following the teacher's one-byte-prefix-per-family
// convention (see pkg/kvstore/badger.go) applied to a dedicated Badger
// instance used purely for vector persistence.
const columnStorePrefix = byte(0xA0)

// ColumnStore is a columnar (id, vector) table backed by Badger,
// persisting the raw vectors an ANN structure is built from on demand.
// Rows are keyed by id: Put overwrites an existing row and Delete
// removes one. Writes are batched via badger.Txn for atomicity; this mirrors
// the teacher's batch/transaction style in pkg/storage/badger.go,
// repurposed here for vector persistence instead of graph storage.
type ColumnStore struct {
	db        *badger.DB
	dimension int
}

// NewColumnStore opens (creating if absent) a columnar vector table
// rooted at dataDir, fixed to dimension dim.
func NewColumnStore(dataDir string, dim int, inMemory bool) (*ColumnStore, error) {
	opts := badger.DefaultOptions(dataDir).WithInMemory(inMemory).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("vectorindex: open column store: %w", err)
	}
	return &ColumnStore{db: db, dimension: dim}, nil
}

func (c *ColumnStore) Close() error { return c.db.Close() }

func columnKey(id model.NodeID) []byte {
	key := make([]byte, 1+len(id))
	key[0] = columnStorePrefix
	copy(key[1:], id[:])
	return key
}

func encodeVector(v []float32) []byte {
	out := make([]byte, 4*len(v))
	for i, x := range v {
		binary.BigEndian.PutUint32(out[i*4:], math.Float32bits(x))
	}
	return out
}

func decodeVector(data []byte, dim int) []float32 {
	out := make([]float32, dim)
	for i := 0; i < dim; i++ {
		out[i] = math.Float32frombits(binary.BigEndian.Uint32(data[i*4:]))
	}
	return out
}

// Put appends (or overwrites) one (id, vector) row.
func (c *ColumnStore) Put(id model.NodeID, vector []float32) error {
	if err := checkDimension(c.dimension, vector); err != nil {
		return err
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(columnKey(id), encodeVector(vector))
	})
}

// PutBatch writes rows in fixed-size batches (default 1000), invoking
// progress after each batch commits — the migration path spec.md §4.3
// describes for moving from the in-memory flat index to a persistent
// backend.
func (c *ColumnStore) PutBatch(items []IDVector, batchSize int, progress func(done, total int)) error {
	if batchSize <= 0 {
		batchSize = 1000
	}
	for _, it := range items {
		if err := checkDimension(c.dimension, it.Vector); err != nil {
			return err
		}
	}
	for start := 0; start < len(items); start += batchSize {
		end := start + batchSize
		if end > len(items) {
			end = len(items)
		}
		err := c.db.Update(func(txn *badger.Txn) error {
			for _, it := range items[start:end] {
				if err := txn.Set(columnKey(it.ID), encodeVector(it.Vector)); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("vectorindex: batch write: %w", err)
		}
		if progress != nil {
			progress(end, len(items))
		}
	}
	return nil
}

// Get reads a single row.
func (c *ColumnStore) Get(id model.NodeID) ([]float32, bool, error) {
	var vec []float32
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(columnKey(id))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			vec = decodeVector(val, c.dimension)
			return nil
		})
	})
	if err != nil {
		return nil, false, err
	}
	return vec, vec != nil, nil
}

// Delete removes a row.
func (c *ColumnStore) Delete(id model.NodeID) error {
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(columnKey(id))
	})
}

// All streams every (id, vector) row in key order.
func (c *ColumnStore) All() ([]IDVector, error) {
	var out []IDVector
	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte{columnStorePrefix}
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			item := it.Item()
			var id model.NodeID
			copy(id[:], item.Key()[1:])
			err := item.Value(func(val []byte) error {
				out = append(out, IDVector{ID: id, Vector: decodeVector(val, c.dimension)})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return out, err
}

// Count returns the number of persisted rows.
func (c *ColumnStore) Count() (int, error) {
	count := 0
	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte{columnStorePrefix}
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

// BuildIndex loads every persisted row into a fresh Index of the given
// backend kind, via InsertBatch. This is the "auxiliary ANN structure
// built on demand" spec.md describes for the persistent backend.
func (c *ColumnStore) BuildIndex(kind BackendKind) (Index, error) {
	rows, err := c.All()
	if err != nil {
		return nil, err
	}
	idx := newBackend(kind, c.dimension, len(rows))
	if len(rows) == 0 {
		return idx, nil
	}
	if err := idx.InsertBatch(rows); err != nil {
		return nil, err
	}
	return idx, nil
}
