package delivery

import (
	"context"
	"sync"
	"time"

	"export-tracking-service/tracking/models"
	"export-tracking-service/tracking/services"

	"go.uber.org/zap"
)

const DefaultSchedule = "*/15 * * * *"

// Worker periodically runs the proximity delivery check over every product
// that is still moving.
type Worker struct {
	logger   *zap.Logger
	products *services.ProductService
	schedule string
	timeout  time.Duration
	mu       sync.Mutex
	busy     bool
}

func NewWorker(logger *zap.Logger, products *services.ProductService, schedule string) *Worker {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	return &Worker{
		logger:   logger,
		products: products,
		schedule: schedule,
		timeout:  5 * time.Minute,
	}
}

func (w *Worker) Name() string {
	return "delivery"
}

func (w *Worker) Schedule() string {
	return w.schedule
}

func (w *Worker) Ready(time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return !w.busy
}

func (w *Worker) Execute() {
	w.mu.Lock()
	if w.busy {
		w.mu.Unlock()
		return
	}
	w.busy = true
	w.mu.Unlock()
	defer func() {
		w.mu.Lock()
		w.busy = false
		w.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()
	w.Run(ctx)
}

// Run checks every pending product once and returns how many were marked
// delivered.
func (w *Worker) Run(ctx context.Context) int {
	w.logger.Info("Starting delivery check.")

	products, err := w.products.List(ctx)
	if err != nil {
		w.logger.Error("Failed to list products", zap.Error(err))
		return 0
	}

	pending := w.getProductsToCheck(products)
	if len(pending) == 0 {
		w.logger.Info("No products in transit. Delivery check completed")
		return 0
	}

	delivered := 0
	for _, p := range pending {
		if ctx.Err() != nil {
			w.logger.Warn("Delivery check interrupted", zap.Error(ctx.Err()))
			break
		}
		if w.checkProduct(ctx, p) {
			delivered++
		}
	}

	w.logger.Info("Delivery check completed",
		zap.Int("checked", len(pending)),
		zap.Int("delivered", delivered),
	)
	return delivered
}

func (w *Worker) getProductsToCheck(products []models.Product) (ret []models.Product) {
	for _, p := range products {
		if p.Status.IsFinal() || len(p.Checkpoints) == 0 {
			continue
		}
		ret = append(ret, p)
	}
	return
}

func (w *Worker) checkProduct(ctx context.Context, p models.Product) bool {
	result, err := w.products.CheckDelivered(ctx, p.ID)
	if err != nil {
		w.logger.Error("Failed to check delivery",
			zap.String("product_id", p.ID),
			zap.String("destination", p.Destination),
			zap.Error(err),
		)
		return false
	}
	return result.Delivered
}
