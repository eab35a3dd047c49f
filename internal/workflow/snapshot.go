package workflow

import "travelease/internal/models"

// Snapshot is the client-facing view of one workflow instance: its tagged
// state, the wizard position, the draft, the held booking and the
// affordances the UI may currently offer.
type Snapshot struct {
	ID           string              `json:"id"`
	State        State               `json:"state"`
	Step         int                 `json:"step"`
	Package      *models.TourPackage `json:"package,omitempty"`
	Draft        Draft               `json:"draft"`
	Booking      *models.Booking     `json:"booking,omitempty"`
	StartDateMin string              `json:"start_date_min"`
	EndDateMin   string              `json:"end_date_min"`
	LastError    string              `json:"last_error,omitempty"`

	CanSubmit     bool `json:"can_submit"`
	CanPay        bool `json:"can_pay"`
	CanCancel     bool `json:"can_cancel"`
	RedirectReady bool `json:"redirect_ready"`
}

// Snapshot returns a consistent copy of the workflow's current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	startMin, endMin := c.draft.DateBounds(c.now())

	snap := Snapshot{
		ID:           c.ID,
		State:        c.state,
		Step:         c.step,
		Package:      c.pkg,
		Draft:        *c.draft,
		StartDateMin: startMin,
		EndDateMin:   endMin,
		LastError:    c.lastErr,
	}

	if c.booking != nil {
		booking := *c.booking
		snap.Booking = &booking
	}

	active := c.booking.Active()
	if !c.state.InFlight() {
		snap.CanSubmit = !active && c.state.CanTransitionTo(StateBooking)
		snap.CanPay = active && c.state.CanTransitionTo(StatePaymentInitiating)
		snap.CanCancel = active && c.state.CanTransitionTo(StateCancelling)
	}
	snap.RedirectReady = c.intent != nil && !c.intent.Consumed()

	return snap
}
