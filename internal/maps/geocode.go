package maps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"carrent/internal/domain"
)

var (
	ErrBadStatusCode = errors.New("invalid status code from geocoder")
	ErrGeocoder      = errors.New("geocoder returned an error")
)

// Geocoder resolves a coordinate to a human-readable address. An empty
// address with a nil error means nothing was found.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, p domain.LatLng) (string, error)
}

// GeocoderOption configures the provider clients.
type GeocoderOption func(*geocoderClient)

type geocoderClient struct {
	httpClient HTTPClient
	baseURL    string
	limiter    *rate.Limiter
	userAgent  string
	language   string
}

// WithGeocoderBaseURL overrides the provider endpoint.
func WithGeocoderBaseURL(u string) GeocoderOption {
	return func(c *geocoderClient) { c.baseURL = u }
}

// WithGeocoderHTTPClient sets the HTTP client.
func WithGeocoderHTTPClient(hc HTTPClient) GeocoderOption {
	return func(c *geocoderClient) { c.httpClient = hc }
}

// WithRateLimit caps outgoing requests per second.
func WithRateLimit(perSecond float64) GeocoderOption {
	return func(c *geocoderClient) {
		if perSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// WithUserAgent sets the User-Agent sent to the provider.
func WithUserAgent(ua string) GeocoderOption {
	return func(c *geocoderClient) { c.userAgent = ua }
}

// WithLanguage sets the preferred response language.
func WithLanguage(lang string) GeocoderOption {
	return func(c *geocoderClient) { c.language = lang }
}

func newGeocoderClient(baseURL string, opts []GeocoderOption) geocoderClient {
	c := geocoderClient{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
		limiter:    rate.NewLimiter(rate.Limit(1), 1),
		userAgent:  "carrent-booking/1.0",
		language:   "th,en",
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func (c *geocoderClient) getJSON(ctx context.Context, u string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if c.language != "" {
		req.Header.Set("Accept-Language", c.language)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %d", ErrBadStatusCode, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// NominatimGeocoder uses the OpenStreetMap Nominatim reverse endpoint.
type NominatimGeocoder struct {
	geocoderClient
}

// NewNominatimGeocoder creates a Nominatim client.
func NewNominatimGeocoder(opts ...GeocoderOption) *NominatimGeocoder {
	return &NominatimGeocoder{newGeocoderClient("https://nominatim.openstreetmap.org", opts)}
}

type nominatimResponse struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
}

// ReverseGeocode resolves p through Nominatim.
func (g *NominatimGeocoder) ReverseGeocode(ctx context.Context, p domain.LatLng) (string, error) {
	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", formatCoord(p.Lat))
	q.Set("lon", formatCoord(p.Lng))
	q.Set("zoom", "18")

	var resp nominatimResponse
	if err := g.getJSON(ctx, g.baseURL+"/reverse?"+q.Encode(), &resp); err != nil {
		return "", fmt.Errorf("nominatim reverse: %w", err)
	}
	if resp.Error != "" {
		if resp.Error == "Unable to geocode" {
			return "", nil
		}
		return "", fmt.Errorf("%w: %s", ErrGeocoder, resp.Error)
	}
	return resp.DisplayName, nil
}

// GoogleGeocoder uses the Google Geocoding API.
type GoogleGeocoder struct {
	geocoderClient
	apiKey string
}

// NewGoogleGeocoder creates a Google Geocoding client.
func NewGoogleGeocoder(apiKey string, opts ...GeocoderOption) *GoogleGeocoder {
	return &GoogleGeocoder{
		geocoderClient: newGeocoderClient("https://maps.googleapis.com", opts),
		apiKey:         apiKey,
	}
}

type googleGeocodeResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		FormattedAddress string `json:"formatted_address"`
	} `json:"results"`
}

// ReverseGeocode resolves p through Google.
func (g *GoogleGeocoder) ReverseGeocode(ctx context.Context, p domain.LatLng) (string, error) {
	q := url.Values{}
	q.Set("latlng", formatCoord(p.Lat)+","+formatCoord(p.Lng))
	q.Set("key", g.apiKey)
	if g.language != "" {
		q.Set("language", g.language)
	}

	var resp googleGeocodeResponse
	if err := g.getJSON(ctx, g.baseURL+"/maps/api/geocode/json?"+q.Encode(), &resp); err != nil {
		return "", fmt.Errorf("google reverse: %w", err)
	}

	switch resp.Status {
	case "OK":
		if len(resp.Results) == 0 {
			return "", nil
		}
		return resp.Results[0].FormattedAddress, nil
	case "ZERO_RESULTS":
		return "", nil
	default:
		return "", fmt.Errorf("%w: %s %s", ErrGeocoder, resp.Status, resp.ErrorMessage)
	}
}

// AddressCache stores resolved addresses.
type AddressCache interface {
	GetAddress(ctx context.Context, key string) (string, bool, error)
	SetAddress(ctx context.Context, key, address string) error
}

// CachedGeocoder wraps a Geocoder with an address cache. Cache errors are
// logged and otherwise ignored.
type CachedGeocoder struct {
	next   Geocoder
	cache  AddressCache
	logger *zap.Logger
}

// NewCachedGeocoder creates a caching geocoder.
func NewCachedGeocoder(next Geocoder, cache AddressCache, logger *zap.Logger) *CachedGeocoder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedGeocoder{next: next, cache: cache, logger: logger}
}

// ReverseGeocode returns the cached address for p or resolves it.
func (g *CachedGeocoder) ReverseGeocode(ctx context.Context, p domain.LatLng) (string, error) {
	key := GeocodeKey(p)

	addr, ok, err := g.cache.GetAddress(ctx, key)
	if err != nil {
		g.logger.Warn("geocode cache read failed", zap.String("key", key), zap.Error(err))
	} else if ok {
		return addr, nil
	}

	addr, err = g.next.ReverseGeocode(ctx, p)
	if err != nil {
		return "", err
	}
	if addr == "" {
		return "", nil
	}
	if err := g.cache.SetAddress(ctx, key, addr); err != nil {
		g.logger.Warn("geocode cache write failed", zap.String("key", key), zap.Error(err))
	}
	return addr, nil
}

// GeocodeKey rounds p to roughly one metre so nearby pins share a key.
func GeocodeKey(p domain.LatLng) string {
	return strconv.FormatFloat(p.Lat, 'f', 5, 64) + "," + strconv.FormatFloat(p.Lng, 'f', 5, 64)
}
