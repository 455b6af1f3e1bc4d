package app

import (
	"context"

	"go.uber.org/zap"

	"carrent/internal/config"
	"carrent/internal/maps"
)

// NewMapLoader builds the loader for the configured provider. Google has
// a single script source, Leaflet falls back to a second CDN.
func NewMapLoader(cfg config.MapsConfig, logger *zap.Logger, hook func(from, to maps.LoadState)) *maps.Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := []maps.LoaderOption{maps.WithLoaderLogger(logger)}
	if hook != nil {
		opts = append(opts, maps.WithStateHook(hook))
	}

	if cfg.Provider == maps.ProviderGoogle {
		primary := maps.AssetSource{Name: "google", ScriptURL: maps.GoogleScriptURL(cfg.GoogleAPIKey)}
		return maps.NewLoader(primary, maps.AssetSource{}, opts...)
	}

	primary := maps.AssetSource{
		Name:          "primary",
		StylesheetURL: cfg.PrimaryStylesheet,
		ScriptURL:     cfg.PrimaryScript,
	}
	fallback := maps.AssetSource{
		Name:          "fallback",
		StylesheetURL: cfg.FallbackStylesheet,
		ScriptURL:     cfg.FallbackScript,
	}
	return maps.NewLoader(primary, fallback, opts...)
}

// StartMapLoader probes the map library in the background. A failure is
// terminal and only disables delivery pinning.
func StartMapLoader(ctx context.Context, loader *maps.Loader, logger *zap.Logger) {
	go func() {
		if err := loader.Load(ctx); err != nil {
			logger.Warn("map library unavailable", zap.Error(err))
			return
		}
		assets, _ := loader.Assets()
		logger.Info("map library ready", zap.String("source", assets.Name))
	}()
}

// NewGeocoder builds the provider geocoder wrapped with the address cache.
func NewGeocoder(cfg config.MapsConfig, cache maps.AddressCache, logger *zap.Logger) maps.Geocoder {
	opts := []maps.GeocoderOption{
		maps.WithRateLimit(cfg.GeocoderRate),
		maps.WithUserAgent(cfg.UserAgent),
	}

	var g maps.Geocoder
	if cfg.Provider == maps.ProviderGoogle {
		g = maps.NewGoogleGeocoder(cfg.GoogleAPIKey, opts...)
	} else {
		if cfg.GeocoderURL != "" {
			opts = append(opts, maps.WithGeocoderBaseURL(cfg.GeocoderURL))
		}
		g = maps.NewNominatimGeocoder(opts...)
	}

	if cache == nil {
		return g
	}
	return maps.NewCachedGeocoder(g, cache, logger)
}
