package maps

// LeafletSurface renders through Leaflet with raster tiles served by the
// tile proxy.
type LeafletSurface struct {
	baseSurface
	assets      AssetSource
	tileURL     string
	attribution string
}

const (
	leafletMinZoom = 5
	leafletMaxZoom = 19
)

// NewLeafletSurface creates a Leaflet adapter.
func NewLeafletSurface(opts SurfaceOptions) *LeafletSurface {
	tileURL := opts.TileURL
	if tileURL == "" {
		tileURL = "/tiles/{z}/{x}/{y}"
	}
	attribution := opts.Attribution
	if attribution == "" {
		attribution = "&copy; OpenStreetMap contributors"
	}
	s := &LeafletSurface{
		assets:      opts.Assets,
		tileURL:     tileURL,
		attribution: attribution,
	}
	s.view = CountryView()
	return s
}

// Provider returns the provider name.
func (s *LeafletSurface) Provider() string { return ProviderLeaflet }

// SetView moves the viewport within Leaflet's zoom range.
func (s *LeafletSurface) SetView(v View) {
	s.setView(v, leafletMinZoom, leafletMaxZoom)
}

// Config returns the page configuration for Leaflet.
func (s *LeafletSurface) Config() SurfaceConfig {
	view, marker := s.snapshot()
	return SurfaceConfig{
		Provider:      ProviderLeaflet,
		View:          view,
		Marker:        marker,
		TileURL:       s.tileURL,
		Attribution:   s.attribution,
		StylesheetURL: s.assets.StylesheetURL,
		ScriptURL:     s.assets.ScriptURL,
		MinZoom:       leafletMinZoom,
		MaxZoom:       leafletMaxZoom,
	}
}
