package repositories

import (
	"context"
	"errors"

	"export-tracking-service/tracking/models"
)

// Collection keys. Each collection is an independent table or key prefix.
const (
	ProducersCollection = "producersDB"
	BatchesCollection   = "batchesDB"
	ProductsCollection  = "productsDB"
	UserKey             = "user"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrAlreadyExists   = errors.New("record already exists")
	ErrVersionConflict = errors.New("record was modified concurrently")
)

type ProducerStore interface {
	GetProducer(ctx context.Context, id string) (*models.Producer, error)
	ListProducers(ctx context.Context) ([]models.Producer, error)
	PutProducer(ctx context.Context, producer *models.Producer) error
}

// BatchStore persists batches. PutBatch creates a batch when its Version is
// zero and otherwise overwrites it only if the stored Version still matches.
type BatchStore interface {
	GetBatch(ctx context.Context, id string) (*models.Batch, error)
	ListBatches(ctx context.Context) ([]models.Batch, error)
	PutBatch(ctx context.Context, batch *models.Batch) error
	UpdateBatch(ctx context.Context, id string, fn func(*models.Batch) error) (*models.Batch, error)
	AppendBatchCheckpoint(ctx context.Context, id string, cp models.Checkpoint) (*models.Batch, error)
}

type ProductStore interface {
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	ListProducts(ctx context.Context) ([]models.Product, error)
	PutProduct(ctx context.Context, product *models.Product) error
	UpdateProduct(ctx context.Context, id string, fn func(*models.Product) error) (*models.Product, error)
	AppendProductCheckpoint(ctx context.Context, id string, cp models.Checkpoint) (*models.Product, error)
}

// SessionStore keeps the name of the operator currently logged in.
type SessionStore interface {
	CurrentUser(ctx context.Context) (string, error)
	SetCurrentUser(ctx context.Context, name string) error
	ClearCurrentUser(ctx context.Context) error
}

type Repository interface {
	ProducerStore
	BatchStore
	ProductStore
	SessionStore
	Close() error
}
