package services

import (
	"context"
	"errors"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"export-tracking-service/core"
	"export-tracking-service/tracking/aggregation"
	"export-tracking-service/tracking/codes"
	"export-tracking-service/tracking/geocoding"
	"export-tracking-service/tracking/models"
	"export-tracking-service/tracking/repositories"
	"export-tracking-service/tracking/timeline"

	"go.uber.org/zap"
)

type CreateBatchInput struct {
	Name          string                     `json:"name"`
	Origin        models.Place               `json:"origin"`
	Destination   models.Place               `json:"destination"`
	TransportMode models.TransportMode       `json:"modoTransporte"`
	Producers     []models.ProducerSelection `json:"producers"`
}

// BatchFilter narrows a batch listing. Query matches the name, the batch code
// or any product name, case-insensitively.
type BatchFilter struct {
	Query  string
	Status models.BatchStatus
}

// SelectionSummary is the live total of a producer selection.
type SelectionSummary struct {
	Totals    map[string]float64 `json:"totals"`
	Total     float64            `json:"total"`
	Formatted string             `json:"formatted"`
}

// PublicBatch is the read-only projection served without a session.
type PublicBatch struct {
	ID            string                 `json:"id"`
	BatchCode     string                 `json:"batchCode"`
	Name          string                 `json:"name,omitempty"`
	Origin        models.Place           `json:"origin"`
	Destination   models.Place           `json:"destination"`
	TransportMode models.TransportMode   `json:"modoTransporte"`
	TotalQuantity float64                `json:"totalQuantity"`
	ProductTotals map[string]float64     `json:"productTotals"`
	Producers     []models.BatchProducer `json:"producers"`
	Status        models.BatchStatus     `json:"status"`
	Sealed        bool                   `json:"sealed"`
	SealedBy      string                 `json:"sealedBy,omitempty"`
	SealedAt      *time.Time             `json:"sealedAt,omitempty"`
	Checkpoints   []models.Checkpoint    `json:"checkpoints"`
	Timeline      []models.Event         `json:"timeline"`
	PublicURL     string                 `json:"publicUrl"`
}

type BatchService struct {
	batches       repositories.BatchStore
	producers     repositories.ProducerStore
	planner       *geocoding.Planner
	checkpoints   checkpointBuilder
	publicBaseURL string
	logger        *zap.Logger
	now           clock

	mu         sync.Mutex
	lastMillis int64
}

func NewBatchService(
	batches repositories.BatchStore,
	producers repositories.ProducerStore,
	planner *geocoding.Planner,
	publicBaseURL string,
	logger *zap.Logger,
) *BatchService {
	s := &BatchService{
		batches:       batches,
		producers:     producers,
		planner:       planner,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		logger:        logger,
		now:           utcNow,
	}
	s.checkpoints = checkpointBuilder{planner: planner, now: func() time.Time { return s.now() }}
	return s
}

func (in CreateBatchInput) validate() error {
	if in.Origin.IsZero() {
		return invalid("origin", "origin is required")
	}
	if in.Destination.IsZero() {
		return invalid("destination", "destination is required")
	}
	if !in.TransportMode.Valid() {
		return invalid("modoTransporte", "unknown transport mode %q", in.TransportMode)
	}
	if len(in.Producers) == 0 {
		return invalid("producers", "select at least one producer")
	}
	if len(in.Producers) > codes.MaxProducersPerBatch {
		return invalid("producers", "a batch holds at most %d producers", codes.MaxProducersPerBatch)
	}

	seen := make(map[string]struct{}, len(in.Producers))
	for i, sel := range in.Producers {
		field := "producers[" + strconv.Itoa(i) + "]"
		if strings.TrimSpace(sel.ProducerID) == "" {
			return invalid(field+".producerId", "producer id is required")
		}
		if _, dup := seen[sel.ProducerID]; dup {
			return invalid(field+".producerId", "producer %s selected twice", sel.ProducerID)
		}
		seen[sel.ProducerID] = struct{}{}

		if len(sel.Products) == 0 {
			return invalid(field+".products", "select at least one product")
		}
		for name, qty := range sel.Products {
			if strings.TrimSpace(name) == "" {
				return invalid(field+".products", "product name is required")
			}
			if qty <= 0 || math.IsNaN(qty) || math.IsInf(qty, 0) {
				return invalid(field+".products."+name, "quantity must be positive")
			}
		}
	}
	return nil
}

// Create builds a batch from the selected producers. Creation is serialized
// and every batch gets a creation instant at least one millisecond after the
// previous one, so ids and codes never collide within the process.
func (s *BatchService) Create(ctx context.Context, session models.Session, in CreateBatchInput) (*models.Batch, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	producers := make([]models.Producer, 0, len(in.Producers))
	for i, sel := range in.Producers {
		p, err := s.producers.GetProducer(ctx, sel.ProducerID)
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, invalid("producers["+strconv.Itoa(i)+"].producerId", "unknown producer %s", sel.ProducerID)
		}
		if err != nil {
			return nil, err
		}
		producers = append(producers, *p)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	createdAt := s.nextCreationInstant()
	batchCode := codes.GenerateBatchCode(createdAt)
	members := codes.GenerateSubCodes(batchCode, producers)
	for i := range members {
		products := make(map[string]float64, len(in.Producers[i].Products))
		for name, qty := range in.Producers[i].Products {
			products[strings.TrimSpace(name)] += qty
		}
		members[i].BatchProducts = products
		members[i].BatchQuantity = aggregation.ProducerTotal(products)
	}

	batch := &models.Batch{
		ID:            strconv.FormatInt(createdAt.UnixMilli(), 10),
		BatchCode:     batchCode,
		Name:          strings.TrimSpace(in.Name),
		Origin:        trimPlace(in.Origin),
		Destination:   trimPlace(in.Destination),
		TransportMode: in.TransportMode,
		TotalQuantity: aggregation.BatchTotal(members),
		Producers:     members,
		CreatedAt:     createdAt,
		Status:        models.BatchCreated,
		Checkpoints:   []models.Checkpoint{},
	}
	if err := s.batches.PutBatch(ctx, batch); err != nil {
		return nil, err
	}

	core.BatchesCreated.Inc()
	s.logger.Info("Batch created",
		zap.String("batch_id", batch.ID),
		zap.String("batch_code", batch.BatchCode),
		zap.Int("producers", len(members)),
		zap.Float64("total_quantity", batch.TotalQuantity),
		zap.String("operator", session.Actor),
	)
	return batch, nil
}

// nextCreationInstant must be called with mu held.
func (s *BatchService) nextCreationInstant() time.Time {
	millis := s.now().UnixMilli()
	if millis <= s.lastMillis {
		millis = s.lastMillis + 1
	}
	s.lastMillis = millis
	return time.UnixMilli(millis).UTC()
}

func (s *BatchService) Get(ctx context.Context, id string) (*models.Batch, error) {
	batch, err := s.batches.GetBatch(ctx, id)
	return batch, wrapEntity("batch", id, err)
}

// List returns the batches matching f, newest first.
func (s *BatchService) List(ctx context.Context, f BatchFilter) ([]models.Batch, error) {
	batches, err := s.batches.ListBatches(ctx)
	if err != nil {
		return nil, err
	}

	query := strings.ToLower(strings.TrimSpace(f.Query))
	out := make([]models.Batch, 0, len(batches))
	for _, b := range batches {
		if f.Status != "" && b.Status != f.Status {
			continue
		}
		if query != "" && !matchesQuery(b, query) {
			continue
		}
		out = append(out, b)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func matchesQuery(b models.Batch, query string) bool {
	if strings.Contains(strings.ToLower(b.Name), query) ||
		strings.Contains(strings.ToLower(b.BatchCode), query) {
		return true
	}
	for _, name := range b.ProductNames() {
		if strings.Contains(strings.ToLower(name), query) {
			return true
		}
	}
	return false
}

func (s *BatchService) Seal(ctx context.Context, session models.Session, id string) (*models.Batch, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}
	at := s.now()
	batch, err := s.batches.UpdateBatch(ctx, id, func(b *models.Batch) error {
		return b.Seal(session.Actor, at)
	})
	if err != nil {
		return nil, wrapEntity("batch", id, err)
	}

	core.BatchesSealed.Inc()
	s.logger.Info("Batch sealed",
		zap.String("batch_id", id),
		zap.String("operator", session.Actor),
	)
	return batch, nil
}

// AddCheckpoint records a checkpoint against a sealed batch. The checkpoint
// is built (and reverse geocoded) before the store is touched, so a rejected
// precondition costs one lookup and no write.
func (s *BatchService) AddCheckpoint(ctx context.Context, session models.Session, id string, in CheckpointInput) (*models.Batch, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}
	current, err := s.batches.GetBatch(ctx, id)
	if err != nil {
		return nil, wrapEntity("batch", id, err)
	}
	if err := current.CanRecordCheckpoint(); err != nil {
		return nil, err
	}

	cp, err := s.checkpoints.build(ctx, session, in)
	if err != nil {
		return nil, err
	}

	batch, err := s.batches.AppendBatchCheckpoint(ctx, id, cp)
	if err != nil {
		return nil, wrapEntity("batch", id, err)
	}

	core.CheckpointsRecorded.WithLabelValues("batch").Inc()
	s.logger.Info("Batch checkpoint recorded",
		zap.String("batch_id", id),
		zap.String("status", cp.Status),
		zap.String("batch_status", string(batch.Status)),
		zap.String("operator", session.Actor),
	)
	return batch, nil
}

func (s *BatchService) Timeline(ctx context.Context, id string) ([]models.Event, error) {
	batch, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return timeline.Build(*batch), nil
}

// Route plans the path between the batch's origin and destination.
func (s *BatchService) Route(ctx context.Context, id string) (*geocoding.RoutePlan, error) {
	batch, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.planner == nil {
		return nil, ErrRoutingUnavailable
	}
	return s.planner.Plan(ctx, batch.Origin.String(), batch.Destination.String(), batch.TransportMode)
}

func (s *BatchService) PublicURL(id string) string {
	return s.publicBaseURL + "/public/batch/" + id
}

func (s *BatchService) PublicView(ctx context.Context, id string) (*PublicBatch, error) {
	batch, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &PublicBatch{
		ID:            batch.ID,
		BatchCode:     batch.BatchCode,
		Name:          batch.Name,
		Origin:        batch.Origin,
		Destination:   batch.Destination,
		TransportMode: batch.TransportMode,
		TotalQuantity: batch.TotalQuantity,
		ProductTotals: aggregation.ProductTotals(batch.Producers),
		Producers:     batch.Producers,
		Status:        batch.Status,
		Sealed:        batch.Sealed,
		SealedBy:      batch.SealedBy,
		SealedAt:      batch.SealedAt,
		Checkpoints:   batch.Checkpoints,
		Timeline:      timeline.Build(*batch),
		PublicURL:     s.PublicURL(batch.ID),
	}, nil
}

// SelectionTotals aggregates a candidate selection without persisting it.
func (s *BatchService) SelectionTotals(selections []models.ProducerSelection) SelectionSummary {
	totals := aggregation.SelectionProductTotals(selections)
	return SelectionSummary{
		Totals:    totals,
		Total:     aggregation.SelectionTotal(selections),
		Formatted: aggregation.FormatTotals(totals),
	}
}

func trimPlace(p models.Place) models.Place {
	return models.Place{Country: strings.TrimSpace(p.Country), City: strings.TrimSpace(p.City)}
}
