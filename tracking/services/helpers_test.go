package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"export-tracking-service/tracking/geo"
	"export-tracking-service/tracking/geocoding"
	"export-tracking-service/tracking/models"
	"export-tracking-service/tracking/repositories"

	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
)

var (
	luanda = geo.Coordinates{Lat: -8.8383, Lng: 13.2344}
	lisboa = geo.Coordinates{Lat: 38.7223, Lng: -9.1393}

	alice = models.Session{Actor: "Alice"}
	bob   = models.Session{Actor: "Bob"}
)

type stubGeocoder struct {
	places  map[string]geo.Coordinates
	address geocoding.Address
	err     error
}

func (g *stubGeocoder) Search(_ context.Context, query string) (geo.Coordinates, error) {
	if c, ok := g.places[query]; ok {
		return c, nil
	}
	return geo.Coordinates{}, geocoding.ErrNoResults
}

func (g *stubGeocoder) Reverse(context.Context, geo.Coordinates) (geocoding.Address, error) {
	return g.address, g.err
}

type stubRouter struct{}

func (stubRouter) Route(_ context.Context, from, to geo.Coordinates) (*geom.LineString, error) {
	return nil, errors.New("no road across the ocean")
}

func newStubGeocoder() *stubGeocoder {
	return &stubGeocoder{
		places: map[string]geo.Coordinates{
			"Luanda, Angola":   luanda,
			"Lisboa, Portugal": lisboa,
			"Luanda":           luanda,
			"Lisboa":           lisboa,
		},
		address: geocoding.Address{State: "Luanda", City: "Luanda"},
	}
}

func newRepository(t *testing.T) *repositories.BadgerRepository {
	t.Helper()
	repo, err := repositories.OpenBadger("", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

type fixture struct {
	repo      *repositories.BadgerRepository
	geocoder  *stubGeocoder
	producers *ProducerService
	batches   *BatchService
	products  *ProductService
	sessions  *SessionService
	dashboard *DashboardService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := newRepository(t)
	geocoder := newStubGeocoder()
	planner := geocoding.NewPlanner(geocoder, stubRouter{}, zap.NewNop())
	return &fixture{
		repo:      repo,
		geocoder:  geocoder,
		producers: NewProducerService(repo, zap.NewNop()),
		batches:   NewBatchService(repo, repo, planner, "https://tracking.example.ao/", zap.NewNop()),
		products:  NewProductService(repo, planner, 5, zap.NewNop()),
		sessions:  NewSessionService(repo, zap.NewNop()),
		dashboard: NewDashboardService(repo, repo),
	}
}

func (f *fixture) producer(t *testing.T, name string) *models.Producer {
	t.Helper()
	p, err := f.producers.Create(context.Background(), alice, ProducerInput{Name: name, Location: "Uíge"})
	require.NoError(t, err)
	return p
}

// sampleBatch creates the A(Café 2.5) + B(Café 1.0, Cacau 0.5) batch.
func (f *fixture) sampleBatch(t *testing.T) *models.Batch {
	t.Helper()
	a := f.producer(t, "A")
	b := f.producer(t, "B")
	batch, err := f.batches.Create(context.Background(), alice, CreateBatchInput{
		Name:          "Café do Uíge",
		Origin:        models.Place{Country: "Angola", City: "Luanda"},
		Destination:   models.Place{Country: "Portugal", City: "Lisboa"},
		TransportMode: models.TransportShip,
		Producers: []models.ProducerSelection{
			{ProducerID: a.ID, Products: map[string]float64{"Café": 2.5}},
			{ProducerID: b.ID, Products: map[string]float64{"Café": 1.0, "Cacau": 0.5}},
		},
	})
	require.NoError(t, err)
	return batch
}

func position(lat, lng float64) CheckpointInput {
	return CheckpointInput{Lat: &lat, Lng: &lng}
}

func fixedClock(t time.Time) clock {
	return func() time.Time { return t }
}
