package services

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"
	"time"

	"export-tracking-service/core"
	"export-tracking-service/tracking/geo"
	"export-tracking-service/tracking/geocoding"
	"export-tracking-service/tracking/models"
	"export-tracking-service/tracking/repositories"
	"export-tracking-service/tracking/timeline"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ProductInput struct {
	Name          string               `json:"name"`
	Quantity      float64              `json:"quantity"`
	Origin        string               `json:"origin"`
	Destination   string               `json:"destination"`
	TransportMode models.TransportMode `json:"modoTransporte"`
}

func (in ProductInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return invalid("name", "product name is required")
	}
	if in.Quantity <= 0 || math.IsNaN(in.Quantity) || math.IsInf(in.Quantity, 0) {
		return invalid("quantity", "must be positive")
	}
	if strings.TrimSpace(in.Origin) == "" {
		return invalid("origin", "origin is required")
	}
	if strings.TrimSpace(in.Destination) == "" {
		return invalid("destination", "destination is required")
	}
	return nil
}

// ProductView is a product with its derived read state.
type ProductView struct {
	*models.Product
	DisplayStatus models.ProductStatus `json:"displayStatus"`
	Timeline      []models.Event       `json:"timeline"`
	// Legs flags, per consecutive checkpoint pair, whether the hop is long
	// enough to be an international connection.
	Legs []Leg `json:"legs"`
}

type Leg struct {
	From          int     `json:"from"`
	To            int     `json:"to"`
	DistanceKm    float64 `json:"distanceKm"`
	International bool    `json:"international"`
}

// DeliveryCheck is the outcome of a proximity check.
type DeliveryCheck struct {
	Delivered   bool            `json:"delivered"`
	DistanceKm  float64         `json:"distanceKm"`
	ThresholdKm float64         `json:"thresholdKm"`
	Product     *models.Product `json:"product"`
}

// ProductService drives the legacy single-item path. Products are never
// sealed and accept checkpoints at any status.
type ProductService struct {
	store       repositories.ProductStore
	planner     *geocoding.Planner
	checkpoints checkpointBuilder
	thresholdKm float64
	logger      *zap.Logger
	now         clock
}

func NewProductService(store repositories.ProductStore, planner *geocoding.Planner, thresholdKm float64, logger *zap.Logger) *ProductService {
	if thresholdKm <= 0 {
		thresholdKm = geo.DefaultDeliveryThresholdKm
	}
	s := &ProductService{
		store:       store,
		planner:     planner,
		thresholdKm: thresholdKm,
		logger:      logger,
		now:         utcNow,
	}
	s.checkpoints = checkpointBuilder{planner: planner, now: func() time.Time { return s.now() }}
	return s
}

func (s *ProductService) Create(ctx context.Context, session models.Session, in ProductInput) (*models.Product, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	mode := in.TransportMode
	if mode == "" {
		mode = models.TransportCar
	}
	if !mode.Valid() {
		return nil, invalid("modoTransporte", "unknown transport mode %q", in.TransportMode)
	}

	product := &models.Product{
		ID:            uuid.NewString(),
		Name:          strings.TrimSpace(in.Name),
		Quantity:      in.Quantity,
		Origin:        strings.TrimSpace(in.Origin),
		Destination:   strings.TrimSpace(in.Destination),
		TransportMode: mode,
		Status:        models.ProductAwaitingDispatch,
		Checkpoints:   []models.Checkpoint{},
		CreatedAt:     s.now(),
	}
	if err := s.store.PutProduct(ctx, product); err != nil {
		return nil, err
	}

	s.logger.Info("Product registered",
		zap.String("product_id", product.ID),
		zap.String("operator", session.Actor),
	)
	return product, nil
}

func (s *ProductService) Get(ctx context.Context, id string) (*models.Product, error) {
	product, err := s.store.GetProduct(ctx, id)
	return product, wrapEntity("product", id, err)
}

// View returns the product with its display status, timeline and legs.
func (s *ProductService) View(ctx context.Context, id string) (*ProductView, error) {
	product, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ProductView{
		Product:       product,
		DisplayStatus: product.DisplayStatus(),
		Timeline:      timeline.BuildProduct(*product),
		Legs:          legs(product.Checkpoints),
	}, nil
}

func legs(checkpoints []models.Checkpoint) []Leg {
	out := make([]Leg, 0)
	for i := 1; i < len(checkpoints); i++ {
		a, b := checkpoints[i-1].Position(), checkpoints[i].Position()
		out = append(out, Leg{
			From:          i - 1,
			To:            i,
			DistanceKm:    geo.Distance(a, b),
			International: geo.IsInternationalConnection(a, b),
		})
	}
	return out
}

// List returns every product, newest first.
func (s *ProductService) List(ctx context.Context) ([]models.Product, error) {
	products, err := s.store.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(products, func(i, j int) bool {
		return products[i].CreatedAt.After(products[j].CreatedAt)
	})
	return products, nil
}

// Update edits the descriptive fields. The transport mode and checkpoints
// are not touched.
func (s *ProductService) Update(ctx context.Context, session models.Session, id string, in ProductInput) (*models.Product, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	product, err := s.store.UpdateProduct(ctx, id, func(p *models.Product) error {
		p.Name = strings.TrimSpace(in.Name)
		p.Quantity = in.Quantity
		p.Origin = strings.TrimSpace(in.Origin)
		p.Destination = strings.TrimSpace(in.Destination)
		return nil
	})
	return product, wrapEntity("product", id, err)
}

func (s *ProductService) AddCheckpoint(ctx context.Context, session models.Session, id string, in CheckpointInput) (*models.Product, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	cp, err := s.checkpoints.build(ctx, session, in)
	if err != nil {
		return nil, err
	}

	product, err := s.store.AppendProductCheckpoint(ctx, id, cp)
	if err != nil {
		return nil, wrapEntity("product", id, err)
	}

	core.CheckpointsRecorded.WithLabelValues("product").Inc()
	s.logger.Info("Product checkpoint recorded",
		zap.String("product_id", id),
		zap.String("status", cp.Status),
		zap.String("operator", session.Actor),
	)
	return product, nil
}

func (s *ProductService) EditCheckpoint(ctx context.Context, session models.Session, id string, index int, desc string) (*models.Product, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}
	product, err := s.store.UpdateProduct(ctx, id, func(p *models.Product) error {
		return p.EditCheckpoint(index, desc, session.Actor)
	})
	return product, wrapEntity("product", id, err)
}

func (s *ProductService) Route(ctx context.Context, id string) (*geocoding.RoutePlan, error) {
	product, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.planner == nil {
		return nil, ErrRoutingUnavailable
	}
	return s.planner.Plan(ctx, product.Origin, product.Destination, product.TransportMode)
}

// CheckDelivered geocodes the destination and marks the product delivered
// when its last checkpoint lies within the proximity threshold. Products
// without checkpoints are never delivered by proximity.
func (s *ProductService) CheckDelivered(ctx context.Context, id string) (*DeliveryCheck, error) {
	product, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	result := &DeliveryCheck{ThresholdKm: s.thresholdKm, Product: product}
	if product.Status == models.ProductDelivered {
		result.Delivered = true
		return result, nil
	}
	last, ok := product.LastCheckpoint()
	if !ok {
		return result, nil
	}
	if s.planner == nil {
		return nil, ErrRoutingUnavailable
	}

	destination, err := s.planner.Locate(ctx, product.Destination)
	if err != nil {
		return nil, err
	}
	result.DistanceKm = geo.Distance(last.Position(), destination)
	if !geo.IsDeliveredByProximity(last.Position(), destination, s.thresholdKm) {
		return result, nil
	}

	updated, err := s.store.UpdateProduct(ctx, id, func(p *models.Product) error {
		p.MarkDelivered()
		return nil
	})
	if err != nil {
		if errors.Is(err, repositories.ErrVersionConflict) {
			s.logger.Warn("Delivery check lost a concurrent update", zap.String("product_id", id))
		}
		return nil, wrapEntity("product", id, err)
	}

	core.DeliveriesDetected.Inc()
	s.logger.Info("Product delivered by proximity",
		zap.String("product_id", id),
		zap.Float64("distance_km", result.DistanceKm),
	)
	result.Delivered = true
	result.Product = updated
	return result, nil
}
