package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"export-tracking-service/tracking/geo"
	"export-tracking-service/tracking/geocoding"
	"export-tracking-service/tracking/reports"
	"export-tracking-service/tracking/repositories"
	"export-tracking-service/tracking/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mapGeocoder map[string]geo.Coordinates

func (g mapGeocoder) Search(_ context.Context, query string) (geo.Coordinates, error) {
	if c, ok := g[query]; ok {
		return c, nil
	}
	return geo.Coordinates{}, geocoding.ErrNoResults
}

func (mapGeocoder) Reverse(context.Context, geo.Coordinates) (geocoding.Address, error) {
	return geocoding.Address{Province: "Luanda", Municipality: "Viana"}, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Meta    *Meta           `json:"meta"`
	Error   APIError        `json:"error"`
}

type testServer struct {
	t      *testing.T
	router *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo, err := repositories.OpenBadger("", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	logger := zap.NewNop()
	planner := geocoding.NewPlanner(mapGeocoder{
		"Luanda, Angola":   {Lat: -8.8383, Lng: 13.2344},
		"Lisboa, Portugal": {Lat: 38.7223, Lng: -9.1393},
		"Luanda":           {Lat: -8.8383, Lng: 13.2344},
		"Lisboa":           {Lat: 38.7223, Lng: -9.1393},
	}, nil, logger)

	router := NewRouter(Services{
		Sessions:  services.NewSessionService(repo, logger),
		Producers: services.NewProducerService(repo, logger),
		Batches:   services.NewBatchService(repo, repo, planner, "https://tracking.example.ao", logger),
		Products:  services.NewProductService(repo, planner, 5, logger),
		Dashboard: services.NewDashboardService(repo, repo),
	}, logger, Options{MetricsEnabled: true})

	return &testServer{t: t, router: router}
}

func (s *testServer) do(method, path, operator string, body any) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if operator != "" {
		req.Header.Set(OperatorHeader, operator)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

type idOnly struct {
	ID string `json:"id"`
}

func (s *testServer) createBatch() string {
	s.t.Helper()
	_, env := s.do(http.MethodPost, "/api/v1/producers", "Alice", gin.H{"name": "A"})
	a := decode[idOnly](s.t, env.Data)
	_, env = s.do(http.MethodPost, "/api/v1/producers", "Alice", gin.H{"name": "B"})
	b := decode[idOnly](s.t, env.Data)

	w, env := s.do(http.MethodPost, "/api/v1/batches", "Alice", gin.H{
		"name":           "Café do Uíge",
		"origin":         gin.H{"country": "Angola", "city": "Luanda"},
		"destination":    gin.H{"country": "Portugal", "city": "Lisboa"},
		"modoTransporte": "Navio",
		"producers": []gin.H{
			{"producerId": a.ID, "products": gin.H{"Café": 2.5}},
			{"producerId": b.ID, "products": gin.H{"Café": 1.0, "Cacau": 0.5}},
		},
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[struct {
		Batch struct {
			ID            string  `json:"id"`
			TotalQuantity float64 `json:"totalQuantity"`
		} `json:"batch"`
		PublicURL string `json:"publicUrl"`
	}](s.t, env.Data)
	assert.InDelta(s.t, 4.0, created.Batch.TotalQuantity, 1e-9)
	assert.Equal(s.t, "https://tracking.example.ao/public/batch/"+created.Batch.ID, created.PublicURL)
	return created.Batch.ID
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	w, _ = s.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "export_tracking_batches_created_total")
}

func TestSessionFlow(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(http.MethodGet, "/api/v1/session", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "UNAUTHENTICATED", env.Error.Code)

	w, _ = s.do(http.MethodPost, "/api/v1/producers", "", gin.H{"name": "A"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, env = s.do(http.MethodPost, "/api/v1/session/login", "", gin.H{"name": " "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "name", env.Error.Field)

	w, _ = s.do(http.MethodPost, "/api/v1/session/login", "", gin.H{"name": "Alice"})
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(http.MethodPost, "/api/v1/producers", "", gin.H{"name": "A"})
	assert.Equal(t, http.StatusCreated, w.Code, "stored login acts as the session")

	w, _ = s.do(http.MethodPost, "/api/v1/session/logout", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = s.do(http.MethodPost, "/api/v1/producers", "", gin.H{"name": "B"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBatchLifecycle(t *testing.T) {
	s := newTestServer(t)
	id := s.createBatch()
	base := "/api/v1/batches/" + id

	w, env := s.do(http.MethodPost, base+"/checkpoints", "Bob", gin.H{"lat": -8.8, "lng": 13.2})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "NOT_SEALED", env.Error.Code)

	w, _ = s.do(http.MethodPost, base+"/seal", "Alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, env = s.do(http.MethodPost, base+"/seal", "Bob", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "ALREADY_SEALED", env.Error.Code)

	w, env = s.do(http.MethodPost, base+"/checkpoints", "Bob", gin.H{"lat": 200, "lng": 13.2})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "lat", env.Error.Field)

	w, env = s.do(http.MethodPost, base+"/checkpoints", "Bob", gin.H{"lat": -8.8, "lng": 13.2, "transport": "Camião"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	batch := decode[struct {
		Status      string `json:"status"`
		SealedBy    string `json:"sealedBy"`
		Checkpoints []struct {
			Desc     string `json:"desc"`
			Operator string `json:"operator"`
		} `json:"checkpoints"`
	}](t, env.Data)
	assert.Equal(t, "Em trânsito", batch.Status)
	assert.Equal(t, "Alice", batch.SealedBy)
	assert.Equal(t, "Luanda, Viana", batch.Checkpoints[0].Desc)
	assert.Equal(t, "Bob", batch.Checkpoints[0].Operator)

	w, env = s.do(http.MethodGet, base+"/timeline", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, env.Meta.Count)
	assert.Equal(t, 3, *env.Meta.Count)

	w, env = s.do(http.MethodGet, "/public/batch/"+id, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	public := decode[services.PublicBatch](t, env.Data)
	assert.Equal(t, "Alice", public.SealedBy)
	assert.Len(t, public.Timeline, 3)

	w, _ = s.do(http.MethodGet, base+"/manifest", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, reports.ContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "manifesto_LOTE-")

	w, env = s.do(http.MethodGet, base+"/route", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	route := decode[struct {
		Plan     geocoding.RoutePlan `json:"plan"`
		Geometry struct {
			Type string `json:"type"`
		} `json:"geometry"`
	}](t, env.Data)
	assert.True(t, route.Plan.Straight)
	assert.Equal(t, "LineString", route.Geometry.Type)

	w, env = s.do(http.MethodPost, base+"/checkpoints", "Bob", gin.H{"lat": 38.72, "lng": -9.14, "status": "Entregue"})
	require.Equal(t, http.StatusCreated, w.Code)
	w, env = s.do(http.MethodPost, base+"/checkpoints", "Bob", gin.H{"lat": 38.72, "lng": -9.14})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "ALREADY_DELIVERED", env.Error.Code)

	w, env = s.do(http.MethodGet, "/api/v1/batches?status=Entregue&q=cacau", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, *env.Meta.Count)

	w, _ = s.do(http.MethodGet, "/api/v1/batches?status=Perdido", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = s.do(http.MethodGet, "/api/v1/dashboard", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[services.DashboardStats](t, env.Data)
	assert.Equal(t, 1, stats.TotalBatches)
	assert.Equal(t, 100.0, stats.SealedPercentage)
	assert.Equal(t, 2, stats.Checkpoints)
}

func TestBatchNotFoundAndValidation(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(http.MethodGet, "/api/v1/batches/42", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)

	w, env = s.do(http.MethodPost, "/api/v1/batches", "Alice", gin.H{
		"origin":         gin.H{"city": "Luanda"},
		"destination":    gin.H{"city": "Lisboa"},
		"modoTransporte": "Avião",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "producers", env.Error.Field)

	w, _ = s.do(http.MethodPost, "/api/v1/batches", "Alice", "not an object")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSelectionTotals(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(http.MethodPost, "/api/v1/batches/totals", "", gin.H{
		"producers": []gin.H{
			{"producerId": "a", "products": gin.H{"Café": 2.5}},
			{"producerId": "b", "products": gin.H{"Café": 1.0, "Cacau": 0.5}},
		},
	})

	require.Equal(t, http.StatusOK, w.Code)
	summary := decode[services.SelectionSummary](t, env.Data)
	assert.InDelta(t, 4.0, summary.Total, 1e-9)
	assert.Equal(t, "Cacau: 0.5t, Café: 3.5t", summary.Formatted)
}

func TestProductLifecycle(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(http.MethodPost, "/api/v1/products", "Alice", gin.H{
		"name": "Café", "quantity": 3, "origin": "Luanda", "destination": "Lisboa",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := decode[idOnly](t, env.Data).ID
	base := "/api/v1/products/" + id

	w, _ = s.do(http.MethodPost, base+"/checkpoints", "Bob", gin.H{"lat": 38.7403, "lng": -9.1393, "location": "Lisboa"})
	require.Equal(t, http.StatusCreated, w.Code)

	w, _ = s.do(http.MethodPut, base+"/checkpoints/x", "Alice", gin.H{"desc": "Porto"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, env = s.do(http.MethodPut, base+"/checkpoints/9", "Alice", gin.H{"desc": "Porto"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "CHECKPOINT_NOT_FOUND", env.Error.Code)

	w, env = s.do(http.MethodPut, base+"/checkpoints/0", "Alice", gin.H{"desc": "Porto de Lisboa"})
	require.Equal(t, http.StatusOK, w.Code)
	edited := decode[struct {
		Checkpoints []struct {
			Desc string `json:"desc"`
		} `json:"checkpoints"`
	}](t, env.Data)
	assert.Equal(t, "Porto de Lisboa (editado por Alice)", edited.Checkpoints[0].Desc)

	w, env = s.do(http.MethodPost, base+"/delivery-check", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	check := decode[services.DeliveryCheck](t, env.Data)
	assert.True(t, check.Delivered)

	w, env = s.do(http.MethodGet, base, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	view := decode[struct {
		Status        string `json:"status"`
		DisplayStatus string `json:"displayStatus"`
	}](t, env.Data)
	assert.Equal(t, "Entregue", view.Status)
	assert.Equal(t, "Entregue", view.DisplayStatus)

	w, _ = s.do(http.MethodPut, base, "Alice", gin.H{"name": "Café", "quantity": 4, "origin": "Luanda", "destination": "Porto"})
	assert.Equal(t, http.StatusOK, w.Code)
}
