package services

import (
	"context"
	"math"
	"sort"
	"strings"

	"export-tracking-service/tracking/models"
	"export-tracking-service/tracking/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ProducerInput struct {
	Name     string  `json:"name"`
	Location string  `json:"location"`
	Document string  `json:"bi"`
	Type     string  `json:"type"`
	Quantity float64 `json:"quantity"`
}

func (in ProducerInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return invalid("name", "producer name is required")
	}
	if in.Quantity < 0 || math.IsNaN(in.Quantity) || math.IsInf(in.Quantity, 0) {
		return invalid("quantity", "must be a non-negative number")
	}
	return nil
}

type ProducerService struct {
	store  repositories.ProducerStore
	logger *zap.Logger
	now    clock
}

func NewProducerService(store repositories.ProducerStore, logger *zap.Logger) *ProducerService {
	return &ProducerService{store: store, logger: logger, now: utcNow}
}

func (s *ProducerService) Create(ctx context.Context, session models.Session, in ProducerInput) (*models.Producer, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	producer := &models.Producer{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(in.Name),
		Location:  strings.TrimSpace(in.Location),
		Document:  strings.TrimSpace(in.Document),
		Type:      strings.TrimSpace(in.Type),
		Quantity:  in.Quantity,
		CreatedAt: s.now(),
	}
	if err := s.store.PutProducer(ctx, producer); err != nil {
		return nil, err
	}

	s.logger.Info("Producer registered",
		zap.String("producer_id", producer.ID),
		zap.String("operator", session.Actor),
	)
	return producer, nil
}

func (s *ProducerService) Get(ctx context.Context, id string) (*models.Producer, error) {
	producer, err := s.store.GetProducer(ctx, id)
	return producer, wrapEntity("producer", id, err)
}

// List returns producers in registration order.
func (s *ProducerService) List(ctx context.Context) ([]models.Producer, error) {
	producers, err := s.store.ListProducers(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(producers, func(i, j int) bool {
		return producers[i].CreatedAt.Before(producers[j].CreatedAt)
	})
	return producers, nil
}
