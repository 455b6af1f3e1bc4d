package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carrent/internal/domain"
	"carrent/internal/maps"
	"carrent/internal/redis"
)

type recordingTileObserver struct {
	outcomes []string
}

func (o *recordingTileObserver) ObserveTile(outcome string) {
	o.outcomes = append(o.outcomes, outcome)
}

func newTileRouter(t *testing.T, source *maps.TileSource, observer TileObserver) *gin.Engine {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	h := NewTileHandler(source, redis.NewCacheStore(client), nil, "carrent-test", observer, nil)
	r := gin.New()
	r.GET("/tiles/:z/:x/:y", h.Tile)
	return r
}

func TestTile_FetchesAndCaches(t *testing.T) {
	var hits int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		assert.Equal(t, "/3/4/5.png", r.URL.Path)
		assert.Equal(t, "carrent-test", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("png-bytes"))
	}))
	defer upstream.Close()

	observer := &recordingTileObserver{}
	r := newTileRouter(t, maps.NewTileSource(upstream.URL+"/{z}/{x}/{y}.png", "", 3), observer)

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tiles/3/4/5.png", nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "png-bytes", w.Body.String())
		assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	}

	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	assert.Equal(t, []string{"fetched", "hit"}, observer.outcomes)
}

func TestTile_FailsOverToAlternate(t *testing.T) {
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer primary.Close()
	alternate := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("alt"))
	}))
	defer alternate.Close()

	source := maps.NewTileSource(primary.URL+"/{z}/{x}/{y}.png", alternate.URL+"/{z}/{x}/{y}.png", 2)
	var switched int32
	source.OnSwitch(func(from, to string) { atomic.AddInt32(&switched, 1) })
	r := newTileRouter(t, source, nil)

	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	assert.Equal(t, http.StatusBadGateway, get("/tiles/1/0/0").Code)
	assert.Equal(t, int32(0), atomic.LoadInt32(&switched))
	assert.Equal(t, http.StatusBadGateway, get("/tiles/1/0/1").Code)
	assert.Equal(t, int32(1), atomic.LoadInt32(&switched))

	w := get("/tiles/1/1/1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alt", w.Body.String())
}

func TestTile_ClientAbortDoesNotFailOver(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer upstream.Close()

	source := maps.NewTileSource(upstream.URL+"/a/{z}/{x}/{y}", upstream.URL+"/b/{z}/{x}/{y}", 2)
	primary := source.Template()
	observer := &recordingTileObserver{}
	r := newTileRouter(t, source, observer)

	for i := 0; i < 3; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		req := httptest.NewRequest(http.MethodGet, "/tiles/1/0/0", nil).WithContext(ctx)
		cancel()

		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.NotEqual(t, http.StatusBadGateway, w.Code)
	}

	assert.Equal(t, primary, source.Template())
	assert.Equal(t, []string{"aborted", "aborted", "aborted"}, observer.outcomes)
}

func TestTile_InvalidCoordinates(t *testing.T) {
	r := newTileRouter(t, maps.NewTileSource("http://tiles.invalid/{z}/{x}/{y}.png", "", 1), nil)

	for _, path := range []string{"/tiles/a/0/0", "/tiles/1/2/0", "/tiles/-1/0/0", "/tiles/23/0/0"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
	}
}

type stubGeocoder struct {
	addr string
	err  error
}

func (g stubGeocoder) ReverseGeocode(ctx context.Context, p domain.LatLng) (string, error) {
	return g.addr, g.err
}

func TestReverseGeocode(t *testing.T) {
	serve := func(g maps.Geocoder, query string) *httptest.ResponseRecorder {
		r := gin.New()
		r.GET("/v1/geocode/reverse", NewGeocodeHandler(g, nil).Reverse)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/geocode/reverse"+query, nil))
		return w
	}

	w := serve(stubGeocoder{addr: "Siam Square, Bangkok"}, "?lat=13.7466&lng=100.5393")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Siam Square, Bangkok", decode[AddressResponse](t, w).Address)

	w = serve(stubGeocoder{err: errors.New("rate limited")}, "?lat=13.7466&lng=100.5393")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "", decode[AddressResponse](t, w).Address)

	for _, q := range []string{"", "?lat=abc&lng=100", "?lat=91&lng=100", "?lat=13&lng=181"} {
		assert.Equal(t, http.StatusBadRequest, serve(stubGeocoder{}, q).Code, q)
	}
}
