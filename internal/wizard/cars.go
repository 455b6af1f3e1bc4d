package wizard

import "fmt"

// Select picks carID. Cars that are not currently available are rejected
// and the held selection is kept.
func (c *Controller) Select(carID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.guardLocked(StepDatesAndCar); err != nil {
		return err
	}

	i, ok := c.carIndex[carID]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownCar, carID)
	}
	entry := c.cars[i]
	if !entry.Selectable() {
		return fmt.Errorf("%w: %s is %s", ErrCarNotSelectable, entry.Car.Name, entry.Status)
	}

	car := entry.Car
	c.draft.SelectedCar = &car
	c.selectionMsg = ""
	return nil
}

func (c *Controller) revalidateSelectionLocked() {
	sel := c.draft.SelectedCar
	if sel == nil {
		return
	}
	if i, ok := c.carIndex[sel.ID]; ok && c.cars[i].Selectable() {
		return
	}
	c.clearSelectionLocked(fmt.Sprintf("%s is no longer available for the selected dates. Please choose another car.", sel.Name))
}

func (c *Controller) clearSelectionLocked(msg string) {
	if c.draft.SelectedCar == nil {
		return
	}
	c.draft.SelectedCar = nil
	c.selectionMsg = msg
}
