package nominatim

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"export-tracking-service/tracking/geo"
	"export-tracking-service/tracking/geocoding"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURI: srv.URL, UserAgent: "export-tracking-test"}, zap.NewNop())
}

func TestSearch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Luanda, Angola", r.URL.Query().Get("q"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.Equal(t, "export-tracking-test", r.Header.Get("User-Agent"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		_, _ = w.Write([]byte(`[{"lat":"-8.8383","lon":"13.2344","display_name":"Luanda"}]`))
	})

	c, err := client.Search(context.Background(), "Luanda, Angola")

	require.NoError(t, err)
	assert.Equal(t, geo.Coordinates{Lat: -8.8383, Lng: 13.2344}, c)
}

func TestSearch_NoResults(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})

	_, err := client.Search(context.Background(), "Nowhere")

	assert.ErrorIs(t, err, geocoding.ErrNoResults)
}

func TestSearch_BadStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	})

	_, err := client.Search(context.Background(), "Luanda")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestReverse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reverse", r.URL.Path)
		assert.Equal(t, "-12.5763", r.URL.Query().Get("lat"))
		assert.Equal(t, "13.4055", r.URL.Query().Get("lon"))
		assert.Equal(t, "1", r.URL.Query().Get("addressdetails"))
		_, _ = w.Write([]byte(`{"lat":"-12.5763","lon":"13.4055","address":{"state":"Benguela","town":"Benguela"}}`))
	})

	addr, err := client.Reverse(context.Background(), geo.Coordinates{Lat: -12.5763, Lng: 13.4055})

	require.NoError(t, err)
	assert.Equal(t, "Benguela, Benguela", addr.Describe())
}

func TestReverse_ErrorPayload(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"Unable to geocode"}`))
	})

	_, err := client.Reverse(context.Background(), geo.Coordinates{})

	assert.ErrorIs(t, err, geocoding.ErrNoResults)
}
