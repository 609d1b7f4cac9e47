package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"export-tracking-service/tracking/models"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

// BadgerRepository stores every collection in an embedded Badger database.
// Entities live under "<collection>/<id>" so a single record can be read or
// written without touching the rest of its collection.
type BadgerRepository struct {
	db *badger.DB
}

func NewBadgerRepository(db *badger.DB) *BadgerRepository {
	return &BadgerRepository{db: db}
}

// OpenBadger opens (or creates) the database at path. An empty path opens an
// in-memory database.
func OpenBadger(path string, logger *zap.Logger) (*BadgerRepository, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	if logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger.Sugar()})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening badger at %q: %w", path, err)
	}
	return NewBadgerRepository(db), nil
}

func (r *BadgerRepository) Close() error {
	return r.db.Close()
}

func entityKey(collection, id string) []byte {
	return []byte(collection + "/" + id)
}

// Producers

func (r *BadgerRepository) GetProducer(_ context.Context, id string) (*models.Producer, error) {
	var producer *models.Producer
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		producer, err = getJSON[models.Producer](txn, entityKey(ProducersCollection, id))
		return err
	})
	return producer, err
}

func (r *BadgerRepository) ListProducers(_ context.Context) ([]models.Producer, error) {
	return listJSON[models.Producer](r.db, ProducersCollection)
}

func (r *BadgerRepository) PutProducer(_ context.Context, producer *models.Producer) error {
	return r.update(func(txn *badger.Txn) error {
		return setJSON(txn, entityKey(ProducersCollection, producer.ID), producer)
	})
}

// Batches

func (r *BadgerRepository) GetBatch(_ context.Context, id string) (*models.Batch, error) {
	var batch *models.Batch
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		batch, err = getJSON[models.Batch](txn, entityKey(BatchesCollection, id))
		return err
	})
	return batch, err
}

func (r *BadgerRepository) ListBatches(_ context.Context) ([]models.Batch, error) {
	return listJSON[models.Batch](r.db, BatchesCollection)
}

func (r *BadgerRepository) PutBatch(_ context.Context, batch *models.Batch) error {
	key := entityKey(BatchesCollection, batch.ID)
	next := *batch
	err := r.update(func(txn *badger.Txn) error {
		stored, err := getJSON[models.Batch](txn, key)
		var version int64
		if stored != nil {
			version = stored.Version
		}
		if err := checkVersion(stored != nil, version, batch.Version, err); err != nil {
			return err
		}
		next.Version = batch.Version + 1
		return setJSON(txn, key, &next)
	})
	if err != nil {
		return err
	}
	batch.Version = next.Version
	return nil
}

func (r *BadgerRepository) UpdateBatch(_ context.Context, id string, fn func(*models.Batch) error) (*models.Batch, error) {
	key := entityKey(BatchesCollection, id)
	var batch *models.Batch
	err := r.update(func(txn *badger.Txn) error {
		var err error
		batch, err = getJSON[models.Batch](txn, key)
		if err != nil {
			return err
		}
		if err := fn(batch); err != nil {
			return err
		}
		batch.Version++
		return setJSON(txn, key, batch)
	})
	if err != nil {
		return nil, err
	}
	return batch, nil
}

func (r *BadgerRepository) AppendBatchCheckpoint(ctx context.Context, id string, cp models.Checkpoint) (*models.Batch, error) {
	return r.UpdateBatch(ctx, id, func(b *models.Batch) error {
		return b.AppendCheckpoint(cp)
	})
}

// Products

func (r *BadgerRepository) GetProduct(_ context.Context, id string) (*models.Product, error) {
	var product *models.Product
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		product, err = getJSON[models.Product](txn, entityKey(ProductsCollection, id))
		return err
	})
	return product, err
}

func (r *BadgerRepository) ListProducts(_ context.Context) ([]models.Product, error) {
	return listJSON[models.Product](r.db, ProductsCollection)
}

func (r *BadgerRepository) PutProduct(_ context.Context, product *models.Product) error {
	key := entityKey(ProductsCollection, product.ID)
	next := *product
	err := r.update(func(txn *badger.Txn) error {
		stored, err := getJSON[models.Product](txn, key)
		var version int64
		if stored != nil {
			version = stored.Version
		}
		if err := checkVersion(stored != nil, version, product.Version, err); err != nil {
			return err
		}
		next.Version = product.Version + 1
		return setJSON(txn, key, &next)
	})
	if err != nil {
		return err
	}
	product.Version = next.Version
	return nil
}

func (r *BadgerRepository) UpdateProduct(_ context.Context, id string, fn func(*models.Product) error) (*models.Product, error) {
	key := entityKey(ProductsCollection, id)
	var product *models.Product
	err := r.update(func(txn *badger.Txn) error {
		var err error
		product, err = getJSON[models.Product](txn, key)
		if err != nil {
			return err
		}
		if err := fn(product); err != nil {
			return err
		}
		product.Version++
		return setJSON(txn, key, product)
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

func (r *BadgerRepository) AppendProductCheckpoint(ctx context.Context, id string, cp models.Checkpoint) (*models.Product, error) {
	return r.UpdateProduct(ctx, id, func(p *models.Product) error {
		p.AppendCheckpoint(cp)
		return nil
	})
}

// Session

func (r *BadgerRepository) CurrentUser(_ context.Context) (string, error) {
	var name string
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(UserKey))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			name = string(val)
			return nil
		})
	})
	return name, err
}

func (r *BadgerRepository) SetCurrentUser(_ context.Context, name string) error {
	return r.update(func(txn *badger.Txn) error {
		return txn.Set([]byte(UserKey), []byte(name))
	})
}

func (r *BadgerRepository) ClearCurrentUser(_ context.Context) error {
	return r.update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(UserKey))
	})
}

// update runs fn in a read-write transaction. Badger aborts a commit that
// raced with another writer on the same keys; that surfaces as a version
// conflict.
func (r *BadgerRepository) update(fn func(txn *badger.Txn) error) error {
	err := r.db.Update(fn)
	if errors.Is(err, badger.ErrConflict) {
		return ErrVersionConflict
	}
	return err
}

// checkVersion validates a versioned write. A zero expected version means
// the caller is creating the record.
func checkVersion(exists bool, stored, expected int64, getErr error) error {
	if getErr != nil && !errors.Is(getErr, ErrNotFound) {
		return getErr
	}
	if expected == 0 {
		if exists {
			return ErrAlreadyExists
		}
		return nil
	}
	if !exists {
		return ErrNotFound
	}
	if stored != expected {
		return ErrVersionConflict
	}
	return nil
}

func getJSON[T any](txn *badger.Txn, key []byte) (*T, error) {
	item, err := txn.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var v T
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &v)
	})
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", key, err)
	}
	return &v, nil
}

func setJSON(txn *badger.Txn, key []byte, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	return txn.Set(key, raw)
}

func listJSON[T any](db *badger.DB, collection string) ([]T, error) {
	prefix := []byte(collection + "/")
	out := []T{}
	err := db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			var v T
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &v)
			})
			if err != nil {
				return fmt.Errorf("decoding %s: %w", item.Key(), err)
			}
			out = append(out, v)
		}
		return nil
	})
	return out, err
}

// badgerLogger routes Badger's internal logging through zap.
type badgerLogger struct {
	*zap.SugaredLogger
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.Warnf(format, args...)
}
