package services

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"export-tracking-service/tracking/codes"
	"export-tracking-service/tracking/geo"
	"export-tracking-service/tracking/models"
	"export-tracking-service/tracking/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchService_CreateAggregates(t *testing.T) {
	f := newFixture(t)
	created := time.Date(2025, 1, 15, 11, 22, 3, 456_000_000, time.UTC)
	f.batches.now = fixedClock(created)

	batch := f.sampleBatch(t)

	assert.Equal(t, strconv.FormatInt(created.UnixMilli(), 10), batch.ID)
	assert.Equal(t, codes.GenerateBatchCode(created), batch.BatchCode)
	assert.Equal(t, models.BatchCreated, batch.Status)
	assert.False(t, batch.Sealed)
	assert.InDelta(t, 4.0, batch.TotalQuantity, 1e-9)
	require.Len(t, batch.Producers, 2)

	suffix := codes.Suffix(batch.BatchCode)
	assert.Equal(t, suffix+"-A", batch.Producers[0].SubCode)
	assert.Equal(t, suffix+"-B", batch.Producers[1].SubCode)
	assert.InDelta(t, 2.5, batch.Producers[0].BatchQuantity, 1e-9)
	assert.InDelta(t, 1.5, batch.Producers[1].BatchQuantity, 1e-9)

	stored, err := f.batches.Get(context.Background(), batch.ID)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, stored.TotalQuantity, 1e-9)
	assert.Equal(t, created, stored.CreatedAt)
}

func TestBatchService_CreateSameMillisecond(t *testing.T) {
	f := newFixture(t)
	f.batches.now = fixedClock(time.UnixMilli(1736940123456).UTC())

	first := f.sampleBatch(t)
	second := f.sampleBatch(t)

	assert.NotEqual(t, first.ID, second.ID)
	assert.NotEqual(t, first.BatchCode, second.BatchCode)
	assert.Equal(t, "1736940123457", second.ID)
	assert.True(t, second.CreatedAt.After(first.CreatedAt))
}

func TestBatchService_CreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.producer(t, "A")
	base := func() CreateBatchInput {
		return CreateBatchInput{
			Origin:        models.Place{Country: "Angola", City: "Luanda"},
			Destination:   models.Place{Country: "Portugal", City: "Lisboa"},
			TransportMode: models.TransportPlane,
			Producers:     []models.ProducerSelection{{ProducerID: p.ID, Products: map[string]float64{"Café": 1}}},
		}
	}

	tooMany := base()
	tooMany.Producers = nil
	for i := 0; i <= codes.MaxProducersPerBatch; i++ {
		tooMany.Producers = append(tooMany.Producers, models.ProducerSelection{
			ProducerID: "p" + strconv.Itoa(i),
			Products:   map[string]float64{"Café": 1},
		})
	}

	cases := map[string]struct {
		mutate func(*CreateBatchInput)
		field  string
	}{
		"no producers":   {func(in *CreateBatchInput) { in.Producers = nil }, "producers"},
		"too many":       {func(in *CreateBatchInput) { *in = tooMany }, "producers"},
		"no origin":      {func(in *CreateBatchInput) { in.Origin = models.Place{} }, "origin"},
		"no destination": {func(in *CreateBatchInput) { in.Destination = models.Place{City: " "} }, "destination"},
		"bad transport":  {func(in *CreateBatchInput) { in.TransportMode = "Bicicleta" }, "modoTransporte"},
		"unknown producer": {func(in *CreateBatchInput) {
			in.Producers[0].ProducerID = "missing"
		}, "producers[0].producerId"},
		"duplicate producer": {func(in *CreateBatchInput) {
			in.Producers = append(in.Producers, in.Producers[0])
		}, "producers[1].producerId"},
		"no products": {func(in *CreateBatchInput) {
			in.Producers[0].Products = nil
		}, "producers[0].products"},
		"zero quantity": {func(in *CreateBatchInput) {
			in.Producers[0].Products = map[string]float64{"Café": 0}
		}, "producers[0].products.Café"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			in := base()
			tc.mutate(&in)

			_, err := f.batches.Create(ctx, alice, in)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
		})
	}

	_, err := f.batches.Create(ctx, models.Session{}, base())
	assert.ErrorIs(t, err, ErrUnauthenticated)

	all, err := f.batches.List(ctx, BatchFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestBatchService_SealOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	batch := f.sampleBatch(t)

	_, err := f.batches.Seal(ctx, models.Session{}, batch.ID)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	t1 := time.Date(2025, 1, 16, 8, 0, 0, 0, time.UTC)
	f.batches.now = fixedClock(t1)
	sealed, err := f.batches.Seal(ctx, alice, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BatchSealed, sealed.Status)

	f.batches.now = fixedClock(t1.Add(time.Hour))
	_, err = f.batches.Seal(ctx, bob, batch.ID)
	assert.ErrorIs(t, err, models.ErrAlreadySealed)

	stored, err := f.batches.Get(ctx, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", stored.SealedBy)
	require.NotNil(t, stored.SealedAt)
	assert.True(t, t1.Equal(*stored.SealedAt))

	_, err = f.batches.Seal(ctx, alice, "404")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestBatchService_AddCheckpoint(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	batch := f.sampleBatch(t)

	_, err := f.batches.AddCheckpoint(ctx, alice, batch.ID, position(-8.8, 13.2))
	assert.ErrorIs(t, err, models.ErrNotSealed)

	_, err = f.batches.Seal(ctx, alice, batch.ID)
	require.NoError(t, err)

	_, err = f.batches.AddCheckpoint(ctx, models.Session{}, batch.ID, position(-8.8, 13.2))
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = f.batches.AddCheckpoint(ctx, alice, batch.ID, CheckpointInput{})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	updated, err := f.batches.AddCheckpoint(ctx, bob, batch.ID, position(-8.8, 13.2))
	require.NoError(t, err)
	assert.Equal(t, models.BatchInTransit, updated.Status)
	cp := updated.Checkpoints[0]
	assert.Equal(t, "Luanda, Luanda", cp.Desc)
	assert.Equal(t, "Bob", cp.Operator)
	assert.Equal(t, models.TransportTruck, cp.Transport)
	assert.Equal(t, models.CheckpointInTransit, cp.Status)

	f.geocoder.err = errors.New("offline")
	in := position(-5, 12)
	in.Timestamp = "15/01/2025, 10:30:00"
	in.Transport = models.TransportShip
	updated, err = f.batches.AddCheckpoint(ctx, bob, batch.ID, in)
	require.NoError(t, err)
	cp = updated.Checkpoints[1]
	assert.Equal(t, "Checkpoint automático", cp.Desc)
	assert.Equal(t, time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC), cp.Timestamp)

	in = position(38.72, -9.14)
	in.Location = "Porto de Lisboa"
	in.Status = models.CheckpointDelivered
	updated, err = f.batches.AddCheckpoint(ctx, bob, batch.ID, in)
	require.NoError(t, err)
	assert.Equal(t, models.BatchDelivered, updated.Status)
	assert.Equal(t, "Porto de Lisboa", updated.Checkpoints[2].Desc)

	_, err = f.batches.AddCheckpoint(ctx, bob, batch.ID, position(38.72, -9.14))
	assert.ErrorIs(t, err, models.ErrAlreadyDelivered)

	stored, err := f.batches.Get(ctx, batch.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Checkpoints, 3)
}

func TestBatchService_AddCheckpointBadTimestamp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	batch := f.sampleBatch(t)
	_, err := f.batches.Seal(ctx, alice, batch.ID)
	require.NoError(t, err)

	in := position(1, 1)
	in.Timestamp = "yesterday"
	_, err = f.batches.AddCheckpoint(ctx, alice, batch.ID, in)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "timestamp", verr.Field)
}

func TestBatchService_ListFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	f.batches.now = fixedClock(start)
	older := f.sampleBatch(t)

	f.batches.now = fixedClock(start.Add(time.Hour))
	p := f.producer(t, "C")
	newer, err := f.batches.Create(ctx, alice, CreateBatchInput{
		Name:          "Mel",
		Origin:        models.Place{City: "Huambo"},
		Destination:   models.Place{City: "Lisboa"},
		TransportMode: models.TransportPlane,
		Producers:     []models.ProducerSelection{{ProducerID: p.ID, Products: map[string]float64{"Mel": 1}}},
	})
	require.NoError(t, err)
	_, err = f.batches.Seal(ctx, alice, newer.ID)
	require.NoError(t, err)

	all, err := f.batches.List(ctx, BatchFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, newer.ID, all[0].ID)
	assert.Equal(t, older.ID, all[1].ID)

	byProduct, err := f.batches.List(ctx, BatchFilter{Query: "CACAU"})
	require.NoError(t, err)
	require.Len(t, byProduct, 1)
	assert.Equal(t, older.ID, byProduct[0].ID)

	byCode, err := f.batches.List(ctx, BatchFilter{Query: strings.ToLower(newer.BatchCode)})
	require.NoError(t, err)
	require.Len(t, byCode, 1)
	assert.Equal(t, newer.ID, byCode[0].ID)

	sealed, err := f.batches.List(ctx, BatchFilter{Status: models.BatchSealed})
	require.NoError(t, err)
	require.Len(t, sealed, 1)
	assert.Equal(t, newer.ID, sealed[0].ID)
}

func TestBatchService_TimelineAndPublicView(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	t0 := time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)
	f.batches.now = fixedClock(t0)
	batch := f.sampleBatch(t)

	f.batches.now = fixedClock(t0.Add(2 * time.Hour))
	_, err := f.batches.Seal(ctx, alice, batch.ID)
	require.NoError(t, err)

	in := position(-8.8, 13.2)
	in.Timestamp = t0.Add(3 * time.Hour).Format(time.RFC3339)
	_, err = f.batches.AddCheckpoint(ctx, alice, batch.ID, in)
	require.NoError(t, err)

	events, err := f.batches.Timeline(ctx, batch.ID)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, models.EventCreated, events[0].Category)
	assert.Equal(t, "2 produtores agregados • Cacau: 0.5t, Café: 3.5t", events[0].Description)
	assert.Equal(t, models.EventSealed, events[1].Category)
	assert.Equal(t, models.EventCheckpoint, events[2].Category)

	view, err := f.batches.PublicView(ctx, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://tracking.example.ao/public/batch/"+batch.ID, view.PublicURL)
	assert.InDelta(t, 3.5, view.ProductTotals["Café"], 1e-9)
	assert.Len(t, view.Timeline, 3)

	_, err = f.batches.PublicView(ctx, "missing")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestBatchService_Route(t *testing.T) {
	f := newFixture(t)
	batch := f.sampleBatch(t)

	plan, err := f.batches.Route(context.Background(), batch.ID)

	require.NoError(t, err)
	assert.True(t, plan.Straight, "routing failure falls back to a straight line")
	assert.Equal(t, luanda, plan.Origin)
	assert.Equal(t, lisboa, plan.Destination)
	assert.InDelta(t, geo.Distance(luanda, lisboa), plan.LengthKm, 1e-6)
}

func TestBatchService_SelectionTotals(t *testing.T) {
	f := newFixture(t)

	summary := f.batches.SelectionTotals([]models.ProducerSelection{
		{Products: map[string]float64{"Café": 2.5}},
		{Products: map[string]float64{"Café": 1.0, "Cacau": 0.5}},
		{},
	})

	assert.InDelta(t, 4.0, summary.Total, 1e-9)
	assert.InDelta(t, 3.5, summary.Totals["Café"], 1e-9)
	assert.Equal(t, "Cacau: 0.5t, Café: 3.5t", summary.Formatted)
}
