package repositories

import (
	"context"
	"errors"

	"export-tracking-service/tracking/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const pgErrUniqueViolation = "23505"

const (
	batchOwnerType   = "batches"
	productOwnerType = "products"
)

// Setting represents settings table
type Setting struct {
	Key   string `gorm:"primaryKey;size:64"`
	Value string `gorm:"size:256;not null"`
}

// GormRepository stores the collections in PostgreSQL, one table each, with
// checkpoints kept in their own append-only table.
type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) Migrate() error {
	return r.db.AutoMigrate(
		&models.Producer{},
		&models.Batch{},
		&models.Product{},
		&models.Checkpoint{},
		&Setting{},
	)
}

func (r *GormRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func orderedCheckpoints(db *gorm.DB) *gorm.DB {
	return db.Order("seq ASC")
}

// Producers

func (r *GormRepository) GetProducer(ctx context.Context, id string) (*models.Producer, error) {
	var producer models.Producer
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&producer).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &producer, nil
}

func (r *GormRepository) ListProducers(ctx context.Context) ([]models.Producer, error) {
	var producers []models.Producer
	err := r.db.WithContext(ctx).Order("created_at ASC").Find(&producers).Error
	return producers, translateError(err)
}

func (r *GormRepository) PutProducer(ctx context.Context, producer *models.Producer) error {
	return translateError(r.db.WithContext(ctx).Save(producer).Error)
}

// Batches

func (r *GormRepository) GetBatch(ctx context.Context, id string) (*models.Batch, error) {
	return getBatch(r.db.WithContext(ctx), id)
}

func getBatch(tx *gorm.DB, id string) (*models.Batch, error) {
	var batch models.Batch
	err := tx.Preload("Checkpoints", orderedCheckpoints).Where("id = ?", id).First(&batch).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &batch, nil
}

func (r *GormRepository) ListBatches(ctx context.Context) ([]models.Batch, error) {
	var batches []models.Batch
	err := r.db.WithContext(ctx).
		Preload("Checkpoints", orderedCheckpoints).
		Order("created_at DESC").
		Find(&batches).Error
	return batches, translateError(err)
}

func (r *GormRepository) PutBatch(ctx context.Context, batch *models.Batch) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if batch.Version == 0 {
			batch.Version = 1
			if err := tx.Omit(clause.Associations).Create(batch).Error; err != nil {
				batch.Version = 0
				return translateError(err)
			}
			return syncCheckpoints(tx, batch.ID, batchOwnerType, batch.Checkpoints)
		}

		expected := batch.Version
		batch.Version++
		res := tx.Model(&models.Batch{}).
			Where("id = ? AND version = ?", batch.ID, expected).
			Select("*").
			Omit(clause.Associations).
			Updates(batch)
		if res.Error != nil {
			batch.Version = expected
			return translateError(res.Error)
		}
		if res.RowsAffected == 0 {
			batch.Version = expected
			return ErrVersionConflict
		}
		return syncCheckpoints(tx, batch.ID, batchOwnerType, batch.Checkpoints)
	})
}

func (r *GormRepository) UpdateBatch(ctx context.Context, id string, fn func(*models.Batch) error) (*models.Batch, error) {
	var batch *models.Batch
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		batch, err = getBatch(tx.Clauses(clause.Locking{Strength: "UPDATE"}), id)
		if err != nil {
			return err
		}
		if err := fn(batch); err != nil {
			return err
		}
		batch.Version++
		if err := tx.Omit(clause.Associations).Save(batch).Error; err != nil {
			return translateError(err)
		}
		return syncCheckpoints(tx, batch.ID, batchOwnerType, batch.Checkpoints)
	})
	if err != nil {
		return nil, err
	}
	return batch, nil
}

func (r *GormRepository) AppendBatchCheckpoint(ctx context.Context, id string, cp models.Checkpoint) (*models.Batch, error) {
	return r.UpdateBatch(ctx, id, func(b *models.Batch) error {
		return b.AppendCheckpoint(cp)
	})
}

// Products

func (r *GormRepository) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	return getProduct(r.db.WithContext(ctx), id)
}

func getProduct(tx *gorm.DB, id string) (*models.Product, error) {
	var product models.Product
	err := tx.Preload("Checkpoints", orderedCheckpoints).Where("id = ?", id).First(&product).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &product, nil
}

func (r *GormRepository) ListProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).
		Preload("Checkpoints", orderedCheckpoints).
		Order("created_at DESC").
		Find(&products).Error
	return products, translateError(err)
}

func (r *GormRepository) PutProduct(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if product.Version == 0 {
			product.Version = 1
			if err := tx.Omit(clause.Associations).Create(product).Error; err != nil {
				product.Version = 0
				return translateError(err)
			}
			return syncCheckpoints(tx, product.ID, productOwnerType, product.Checkpoints)
		}

		expected := product.Version
		product.Version++
		res := tx.Model(&models.Product{}).
			Where("id = ? AND version = ?", product.ID, expected).
			Select("*").
			Omit(clause.Associations).
			Updates(product)
		if res.Error != nil {
			product.Version = expected
			return translateError(res.Error)
		}
		if res.RowsAffected == 0 {
			product.Version = expected
			return ErrVersionConflict
		}
		return syncCheckpoints(tx, product.ID, productOwnerType, product.Checkpoints)
	})
}

func (r *GormRepository) UpdateProduct(ctx context.Context, id string, fn func(*models.Product) error) (*models.Product, error) {
	var product *models.Product
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		product, err = getProduct(tx.Clauses(clause.Locking{Strength: "UPDATE"}), id)
		if err != nil {
			return err
		}
		if err := fn(product); err != nil {
			return err
		}
		product.Version++
		if err := tx.Omit(clause.Associations).Save(product).Error; err != nil {
			return translateError(err)
		}
		return syncCheckpoints(tx, product.ID, productOwnerType, product.Checkpoints)
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

func (r *GormRepository) AppendProductCheckpoint(ctx context.Context, id string, cp models.Checkpoint) (*models.Product, error) {
	return r.UpdateProduct(ctx, id, func(p *models.Product) error {
		p.AppendCheckpoint(cp)
		return nil
	})
}

// Session

func (r *GormRepository) CurrentUser(ctx context.Context) (string, error) {
	var setting Setting
	err := r.db.WithContext(ctx).Where("key = ?", UserKey).First(&setting).Error
	if err != nil {
		return "", translateError(err)
	}
	return setting.Value, nil
}

func (r *GormRepository) SetCurrentUser(ctx context.Context, name string) error {
	setting := Setting{Key: UserKey, Value: name}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&setting).Error
	return translateError(err)
}

func (r *GormRepository) ClearCurrentUser(ctx context.Context) error {
	err := r.db.WithContext(ctx).Where("key = ?", UserKey).Delete(&Setting{}).Error
	return translateError(err)
}

// syncCheckpoints inserts new checkpoints. Product checkpoints may also have
// their description and operator edited in place. Rows are never deleted.
func syncCheckpoints(tx *gorm.DB, ownerID, ownerType string, checkpoints []models.Checkpoint) error {
	for i := range checkpoints {
		cp := &checkpoints[i]
		cp.OwnerID = ownerID
		cp.OwnerType = ownerType
		cp.Seq = i
		if cp.ID == 0 {
			if err := tx.Create(cp).Error; err != nil {
				return translateError(err)
			}
			continue
		}
		if ownerType != productOwnerType {
			continue
		}
		err := tx.Model(cp).Updates(map[string]interface{}{
			"description": cp.Desc,
			"operator":    cp.Operator,
		}).Error
		if err != nil {
			return translateError(err)
		}
	}
	return nil
}

func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation {
		return ErrAlreadyExists
	}
	return err
}
