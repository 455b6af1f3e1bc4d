package maps

import (
	"errors"
	"sync"

	"carrent/internal/domain"
)

// Map providers.
const (
	ProviderLeaflet = "leaflet"
	ProviderGoogle  = "google"
)

var (
	ErrSurfaceDestroyed = errors.New("map surface destroyed")
	ErrNoMarker         = errors.New("no draggable marker on the map")
	ErrUnknownProvider  = errors.New("unknown map provider")
	ErrUnknownEvent     = errors.New("unknown map event")
)

// MarkerKind distinguishes the fixed shop marker from the delivery pin.
type MarkerKind string

const (
	MarkerShop     MarkerKind = "shop"
	MarkerDelivery MarkerKind = "delivery"
)

// Marker is the single marker shown on a surface.
type Marker struct {
	Kind      MarkerKind    `json:"kind"`
	Position  domain.LatLng `json:"position"`
	Label     string        `json:"label,omitempty"`
	Draggable bool          `json:"draggable"`
}

// View is a map viewport.
type View struct {
	Center domain.LatLng `json:"center"`
	Zoom   int           `json:"zoom"`
}

// EventKind identifies a user interaction reported by the browser.
type EventKind string

const (
	EventClick   EventKind = "click"
	EventDragEnd EventKind = "drag"
)

// Event is a map interaction forwarded from the page.
type Event struct {
	Kind  EventKind
	Point domain.LatLng
}

// Surface is the capability set the booking wizard needs from an
// interactive map, independent of the mapping library behind it.
type Surface interface {
	Provider() string
	SetMarker(m Marker)
	ClearMarker()
	SetView(v View)
	OnClick(fn func(domain.LatLng))
	OnMarkerDrag(fn func(domain.LatLng))
	// Emit replays a browser interaction into the registered handlers.
	Emit(ev Event) error
	Config() SurfaceConfig
	Destroy()
}

// SurfaceConfig is what the page script needs to render the surface.
type SurfaceConfig struct {
	Provider      string  `json:"provider"`
	View          View    `json:"view"`
	Marker        *Marker `json:"marker,omitempty"`
	TileURL       string  `json:"tile_url,omitempty"`
	Attribution   string  `json:"attribution,omitempty"`
	StylesheetURL string  `json:"stylesheet_url,omitempty"`
	ScriptURL     string  `json:"script_url,omitempty"`
	MinZoom       int     `json:"min_zoom"`
	MaxZoom       int     `json:"max_zoom"`
}

// SurfaceOptions configures a new surface.
type SurfaceOptions struct {
	Assets       AssetSource
	TileURL      string
	Attribution  string
	GoogleAPIKey string
}

// NewSurface builds the adapter for provider.
func NewSurface(provider string, opts SurfaceOptions) (Surface, error) {
	switch provider {
	case ProviderLeaflet, "":
		return NewLeafletSurface(opts), nil
	case ProviderGoogle:
		return NewGoogleSurface(opts), nil
	default:
		return nil, ErrUnknownProvider
	}
}

// baseSurface holds the state shared by all adapters.
type baseSurface struct {
	mu        sync.Mutex
	view      View
	marker    *Marker
	onClick   func(domain.LatLng)
	onDrag    func(domain.LatLng)
	destroyed bool
}

func (s *baseSurface) SetMarker(m Marker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return
	}
	s.marker = &m
}

func (s *baseSurface) ClearMarker() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marker = nil
}

func (s *baseSurface) setView(v View, minZoom, maxZoom int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return
	}
	v.Zoom = clampZoom(v.Zoom, minZoom, maxZoom)
	s.view = v
}

func (s *baseSurface) OnClick(fn func(domain.LatLng)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onClick = fn
}

func (s *baseSurface) OnMarkerDrag(fn func(domain.LatLng)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onDrag = fn
}

// Emit dispatches ev outside the surface lock so handlers may call back
// into the surface.
func (s *baseSurface) Emit(ev Event) error {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return ErrSurfaceDestroyed
	}

	var handler func(domain.LatLng)
	switch ev.Kind {
	case EventClick:
		handler = s.onClick
	case EventDragEnd:
		if s.marker == nil || !s.marker.Draggable {
			s.mu.Unlock()
			return ErrNoMarker
		}
		handler = s.onDrag
	default:
		s.mu.Unlock()
		return ErrUnknownEvent
	}
	s.mu.Unlock()

	if handler != nil {
		handler(ev.Point)
	}
	return nil
}

func (s *baseSurface) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.destroyed = true
	s.marker = nil
	s.onClick = nil
	s.onDrag = nil
}

func (s *baseSurface) snapshot() (View, *Marker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.marker == nil {
		return s.view, nil
	}
	m := *s.marker
	return s.view, &m
}

func clampZoom(zoom, lo, hi int) int {
	if zoom < lo {
		return lo
	}
	if zoom > hi {
		return hi
	}
	return zoom
}
