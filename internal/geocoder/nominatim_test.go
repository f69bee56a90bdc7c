package geocoder

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestNominatim(t *testing.T, handler http.HandlerFunc) *Nominatim {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := DefaultNominatimConfig()
	cfg.BaseURL = srv.URL
	cfg.RequestsPerSecond = 0
	n, err := NewNominatim(cfg, zap.NewNop())
	require.NoError(t, err)
	return n
}

func TestNominatim_Geocode(t *testing.T) {
	var calls atomic.Int32
	n := newTestNominatim(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "서울특별시 강남구", r.URL.Query().Get("q"))
		assert.Equal(t, "jsonv2", r.URL.Query().Get("format"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.Equal(t, "kr", r.URL.Query().Get("countrycodes"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))

		w.Write([]byte(`[{"display_name": "강남구, 서울특별시, 대한민국", "lat": "37.4959854", "lon": "127.0664091"}]`))
	})

	res, err := n.Geocode(context.Background(), "서울특별시 강남구")
	require.NoError(t, err)
	assert.InDelta(t, 37.4959854, res.Latitude, 1e-9)
	assert.InDelta(t, 127.0664091, res.Longitude, 1e-9)
	assert.Equal(t, "강남구, 서울특별시, 대한민국", res.Address)
	assert.Equal(t, "nominatim", res.Provider)

	// lần hai lấy từ cache
	_, err = n.Geocode(context.Background(), "서울특별시 강남구")
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 1, n.CacheLen())
}

func TestNominatim_NotFoundIsCached(t *testing.T) {
	var calls atomic.Int32
	n := newTestNominatim(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`[]`))
	})

	_, err := n.Geocode(context.Background(), "없는 주소")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = n.Geocode(context.Background(), "없는 주소")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, int32(1), calls.Load())
}

func TestNominatim_ServerErrorNotCached(t *testing.T) {
	var calls atomic.Int32
	n := newTestNominatim(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := n.Geocode(context.Background(), "서울특별시")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	_, _ = n.Geocode(context.Background(), "서울특별시")
	assert.Equal(t, int32(2), calls.Load())
}

func TestNominatim_EmptyAddress(t *testing.T) {
	n := newTestNominatim(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})
	_, err := n.Geocode(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNewNominatim_RequiresUserAgent(t *testing.T) {
	cfg := DefaultNominatimConfig()
	cfg.UserAgent = ""
	_, err := NewNominatim(cfg, nil)
	assert.Error(t, err)
}

func TestNoop(t *testing.T) {
	_, err := Noop{}.Geocode(context.Background(), "서울")
	assert.ErrorIs(t, err, ErrNotFound)
}
