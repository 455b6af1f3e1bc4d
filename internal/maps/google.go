package maps

import "net/url"

const googleMapsScript = "https://maps.googleapis.com/maps/api/js"

// GoogleSurface renders through the Google Maps JavaScript API.
type GoogleSurface struct {
	baseSurface
	apiKey string
}

const (
	googleMinZoom = 3
	googleMaxZoom = 21
)

// NewGoogleSurface creates a Google Maps adapter.
func NewGoogleSurface(opts SurfaceOptions) *GoogleSurface {
	s := &GoogleSurface{apiKey: opts.GoogleAPIKey}
	s.view = CountryView()
	return s
}

// Provider returns the provider name.
func (s *GoogleSurface) Provider() string { return ProviderGoogle }

// SetView moves the viewport within Google's zoom range.
func (s *GoogleSurface) SetView(v View) {
	s.setView(v, googleMinZoom, googleMaxZoom)
}

// Config returns the page configuration for Google Maps.
func (s *GoogleSurface) Config() SurfaceConfig {
	view, marker := s.snapshot()
	return SurfaceConfig{
		Provider:  ProviderGoogle,
		View:      view,
		Marker:    marker,
		ScriptURL: GoogleScriptURL(s.apiKey),
		MinZoom:   googleMinZoom,
		MaxZoom:   googleMaxZoom,
	}
}

// GoogleScriptURL returns the Maps JavaScript API URL for apiKey.
func GoogleScriptURL(apiKey string) string {
	q := url.Values{}
	q.Set("key", apiKey)
	q.Set("v", "weekly")
	return googleMapsScript + "?" + q.Encode()
}
