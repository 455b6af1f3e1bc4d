package wizard

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"carrent/internal/domain"
	"carrent/internal/maps"
)

const msgDeliveryPrompt = "Click on the map to set the delivery point. You can drag the pin to adjust it."

// SetProvinces records the current and destination provinces. Without a
// pin the delivery map recentres on the new provinces.
func (c *Controller) SetProvinces(current, destination string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.guardLocked(StepLocation); err != nil {
		return err
	}
	c.draft.CurrentProvince = strings.TrimSpace(current)
	c.draft.DestinationProvince = strings.TrimSpace(destination)
	if c.draft.PickupType == domain.PickupDelivery && c.draft.DeliveryCoordinate == nil {
		c.setViewLocked(c.viewportLocked())
	}
	return nil
}

// SetPickupType toggles between self pickup and delivery. A delivery pin
// is kept while self pickup is shown so toggling back restores it.
func (c *Controller) SetPickupType(t domain.PickupType) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.guardLocked(StepLocation); err != nil {
		return err
	}
	if !t.Valid() {
		return invalid("pickup_type", "Please choose self pickup or delivery.")
	}
	c.draft.PickupType = t
	c.showPickupLocked()
	return nil
}

// SetDeliveryAddress records a free-text address note for the pin.
func (c *Controller) SetDeliveryAddress(addr string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.guardLocked(StepLocation); err != nil {
		return err
	}
	c.draft.DeliveryAddress = strings.TrimSpace(addr)
	return nil
}

// MapEvent forwards a browser click or marker drag to the surface. Once
// the pin is placed its address is resolved, if a geocoder is configured,
// without holding the lock; a lookup that lost the race to a newer pin is
// dropped and a failed lookup leaves the address blank.
func (c *Controller) MapEvent(ctx context.Context, ev maps.Event) error {
	c.mu.Lock()
	if err := c.guardLocked(StepLocation); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.surface == nil {
		c.mu.Unlock()
		return nil
	}
	before := c.pinSeq
	// Handlers registered in New run synchronously under c.mu.
	if err := c.surface.Emit(ev); err != nil && !errors.Is(err, maps.ErrNoMarker) {
		c.mu.Unlock()
		return err
	}
	placed := c.pinSeq != before
	seq := c.pinSeq
	var p domain.LatLng
	if c.draft.DeliveryCoordinate != nil {
		p = *c.draft.DeliveryCoordinate
	}
	geocoder := c.geocoder
	c.mu.Unlock()

	if !placed || geocoder == nil {
		return nil
	}

	addr, err := geocoder.ReverseGeocode(ctx, p)

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.pinSeq || err != nil || addr == "" {
		return nil
	}
	c.draft.DeliveryAddress = addr
	c.locationMsg = "Delivery point: " + addr
	return nil
}

func (c *Controller) handleMapClick(p domain.LatLng) {
	c.setDeliveryPinLocked(p)
}

func (c *Controller) handleMarkerDrag(p domain.LatLng) {
	c.setDeliveryPinLocked(p)
}

// setDeliveryPinLocked is the single path that places the delivery pin.
// Outside delivery mode, or without a working map, it does nothing.
func (c *Controller) setDeliveryPinLocked(p domain.LatLng) bool {
	if c.draft.PickupType != domain.PickupDelivery || !c.mapStatus.Ready() || !p.Valid() {
		return false
	}
	c.draft.DeliveryCoordinate = &p
	c.draft.DeliveryAddress = ""
	c.pinSeq++
	if c.surface != nil {
		c.surface.SetMarker(maps.Marker{Kind: maps.MarkerDelivery, Position: p, Draggable: true})
	}
	c.locationMsg = fmt.Sprintf("Delivery point set at %.5f, %.5f", p.Lat, p.Lng)
	return true
}

// ClearPin removes the delivery pin. It only applies in delivery mode.
func (c *Controller) ClearPin() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.guardLocked(StepLocation); err != nil {
		return err
	}
	if c.draft.PickupType != domain.PickupDelivery {
		return nil
	}
	c.draft.DeliveryCoordinate = nil
	c.draft.DeliveryAddress = ""
	c.pinSeq++
	if c.surface != nil {
		c.surface.ClearMarker()
	}
	c.setViewLocked(c.viewportLocked())
	c.locationMsg = c.deliveryPromptLocked()
	return nil
}

// showPickupLocked syncs the surface with the pickup type.
func (c *Controller) showPickupLocked() {
	if c.draft.PickupType == domain.PickupSelf {
		if c.surface != nil {
			c.surface.SetMarker(maps.Marker{
				Kind:     maps.MarkerShop,
				Position: c.shop.Location,
				Label:    c.shop.Name,
			})
		}
		c.setViewLocked(maps.View{Center: c.shop.Location, Zoom: maps.ShopZoom})
		c.locationMsg = "Pick up the car at " + c.shop.Name
		return
	}

	if p := c.draft.DeliveryCoordinate; p != nil {
		if c.surface != nil {
			c.surface.SetMarker(maps.Marker{Kind: maps.MarkerDelivery, Position: *p, Draggable: true})
		}
		c.locationMsg = fmt.Sprintf("Delivery point set at %.5f, %.5f", p.Lat, p.Lng)
	} else {
		if c.surface != nil {
			c.surface.ClearMarker()
		}
		c.locationMsg = c.deliveryPromptLocked()
	}
	c.setViewLocked(c.viewportLocked())
}

func (c *Controller) deliveryPromptLocked() string {
	if !c.mapStatus.Ready() {
		if msg := c.mapStatus.Message(); msg != "" {
			return msg
		}
	}
	return msgDeliveryPrompt
}

// viewportLocked centres on the pin, else on the provinces.
func (c *Controller) viewportLocked() maps.View {
	if p := c.draft.DeliveryCoordinate; p != nil {
		return maps.View{Center: *p, Zoom: maps.PinZoom}
	}
	return maps.ViewportFor(c.draft.DestinationProvince, c.draft.CurrentProvince)
}

func (c *Controller) setViewLocked(v maps.View) {
	if c.surface != nil {
		c.surface.SetView(v)
	}
}

// ValidateStep2 checks the location panel.
func (c *Controller) ValidateStep2() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.validateStep2Locked()
}

func (c *Controller) validateStep2Locked() error {
	if c.draft.CurrentProvince == "" {
		return invalid("current_province", "Please choose the province you are in.")
	}
	if c.draft.DestinationProvince == "" {
		return invalid("destination_province", "Please choose your destination province.")
	}
	if c.draft.PickupType != domain.PickupDelivery {
		return nil
	}
	if !c.mapStatus.Ready() {
		return invalid("delivery", "The map is not available, so a delivery point cannot be set. Please choose self pickup.")
	}
	if c.draft.DeliveryCoordinate == nil {
		return invalid("delivery", "Please pin the delivery location on the map.")
	}
	return nil
}
