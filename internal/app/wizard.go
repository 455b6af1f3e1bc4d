package app

import (
	"context"
	"fmt"

	"carrent/internal/config"
	"carrent/internal/domain"
	"carrent/internal/maps"
	"carrent/internal/wizard"
)

// Catalog lists the cars offered in the picker.
type Catalog interface {
	ActiveCars(ctx context.Context) ([]*domain.Car, error)
}

// WizardDeps are the collaborators shared by every wizard session.
type WizardDeps struct {
	Config    *config.Config
	Catalog   Catalog
	Fetcher   wizard.AvailabilityFetcher
	Submitter wizard.Submitter
	Loader    *maps.Loader
	Geocoder  maps.Geocoder
	Observer  wizard.Observer
}

// NewWizardFactory returns the constructor of a session controller. Each
// session gets its own map surface built from whichever CDN loaded.
func NewWizardFactory(d WizardDeps) wizard.Factory {
	cfg := d.Config
	loc := cfg.Location()
	shop := wizard.Shop{
		Name:     cfg.Shop.Name,
		Address:  cfg.Shop.Address,
		Location: domain.LatLng{Lat: cfg.Shop.Lat, Lng: cfg.Shop.Lng},
	}

	return func(ctx context.Context) (*wizard.Controller, error) {
		cars, err := d.Catalog.ActiveCars(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading catalog: %w", err)
		}

		var status wizard.MapStatus
		assets := maps.AssetSource{
			StylesheetURL: cfg.Maps.PrimaryStylesheet,
			ScriptURL:     cfg.Maps.PrimaryScript,
		}
		if d.Loader != nil {
			status = d.Loader
			if loaded, ok := d.Loader.Assets(); ok {
				assets = loaded
			}
		}

		surface, err := maps.NewSurface(cfg.Maps.Provider, maps.SurfaceOptions{
			Assets:       assets,
			TileURL:      "/tiles/{z}/{x}/{y}",
			Attribution:  cfg.Maps.Attribution,
			GoogleAPIKey: cfg.Maps.GoogleAPIKey,
		})
		if err != nil {
			return nil, err
		}

		return wizard.New(wizard.Config{
			Cars:      wizard.CarRefs(cars),
			Fetcher:   d.Fetcher,
			Submitter: d.Submitter,
			Surface:   surface,
			MapStatus: status,
			Geocoder:  d.Geocoder,
			Shop:      shop,
			Observer:  d.Observer,
			Location:  loc,
		}), nil
	}
}
