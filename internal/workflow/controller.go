package workflow

import (
	"context"
	"sync"
	"time"

	apperrors "travelease/internal/errors"
	"travelease/internal/external"
	"travelease/internal/logger"
	"travelease/internal/metrics"
	"travelease/internal/models"
	"travelease/internal/redirect"
	"travelease/internal/session"
)

// Fallback messages shown when the remote service gave none
const (
	msgBookingFailed = "Booking failed. Please try again."
	msgPaymentFailed = "Payment could not be started. Please try again."
	msgCancelFailed  = "Could not cancel the booking. Please try again."
	msgConfirmFailed = "Could not confirm the booking. Please try again."
)

// Publisher emits workflow lifecycle events. Publishing is best-effort and
// never fails the operation that triggered it.
type Publisher interface {
	Publish(subject string, data interface{}) error
}

// Deps are the external collaborators a controller orchestrates.
type Deps struct {
	Backend  *external.BookingClient
	Gateway  *external.PaymentClient
	Profiles *session.Provider
	Events   Publisher
}

// Controller drives one booking-and-payment workflow: it creates a booking,
// tracks its identifier and last-known status, initiates payment and hands
// the gateway payload to the redirect bridge. All state is owned by this
// instance; the mutex serializes the interleaved HTTP callbacks the same
// way a UI event loop would.
type Controller struct {
	ID string

	mu         sync.Mutex
	state      State
	step       int
	token      string
	userID     string
	pkg        *models.TourPackage
	draft      *Draft
	booking    *models.Booking
	intent     *redirect.Intent
	lastErr    string
	lastActive time.Time

	deps Deps

	// now is swapped out in tests
	now func() time.Time
}

func NewController(id, token, userID string, deps Deps) *Controller {
	return &Controller{
		ID:         id,
		state:      StateIdle,
		step:       StepTripDetails,
		token:      token,
		userID:     userID,
		draft:      NewDraft(),
		deps:       deps,
		now:        time.Now,
		lastActive: time.Now(),
	}
}

// Open loads the target package and, in parallel, looks for an existing
// non-cancelled booking of the same package and for the user's profile.
// Only the package lookup is fatal; the other two are best-effort.
func (c *Controller) Open(ctx context.Context, packageID string) error {
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return apperrors.ErrWorkflowClosed
	}
	c.state = StatePackageLoading
	token := c.token
	c.mu.Unlock()

	var (
		wg       sync.WaitGroup
		pkg      *models.TourPackage
		pkgErr   error
		existing []models.Booking
		profile  *models.Profile
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		pkg, pkgErr = c.deps.Backend.GetPackage(ctx, token, packageID)
	}()
	go func() {
		defer wg.Done()
		if token == "" {
			return
		}
		bookings, err := c.deps.Backend.ListMyBookings(ctx, token)
		if err != nil {
			// Best-effort: the user can still create a fresh booking
			logger.WithWorkflow(c.ID).Warn("Existing-bookings lookup failed", "error", err)
		} else {
			existing = bookings
		}
		if c.deps.Profiles != nil {
			p, err := c.deps.Profiles.Profile(ctx, token)
			if err != nil {
				logger.WithWorkflow(c.ID).Warn("Profile fetch failed", "error", err)
			} else {
				profile = p
			}
		}
	}()
	wg.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()

	if pkgErr != nil {
		c.state = StateLoadError
		c.lastErr = external.ErrorMessage(pkgErr, "Package not found")
		return pkgErr
	}

	c.pkg = pkg
	c.draft.ApplyProfile(profile)

	// Seed wins: a known non-cancelled booking for this package moves the
	// workflow straight to the pay-or-cancel affordance.
	for i := range existing {
		b := existing[i]
		if b.TourPackageID == pkg.ID && b.Active() {
			c.booking = &b
			c.state = StateBooked
			c.step = StepReview
			metrics.WorkflowsOpened.Inc()
			return nil
		}
	}

	c.state = StatePackageReady
	metrics.WorkflowsOpened.Inc()
	return nil
}

// UpdateField sets one draft field. Rejected while a call is outstanding.
func (c *Controller) UpdateField(name, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()

	if c.state.InFlight() {
		return apperrors.ErrOperationInFlight
	}
	return c.draft.SetField(name, value)
}

// AdjustGuests bumps a clamped guest counter.
func (c *Controller) AdjustGuests(counter string, delta int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()

	if c.state.InFlight() {
		return apperrors.ErrOperationInFlight
	}
	return c.draft.AdjustGuests(counter, delta)
}

// NextStep advances the wizard. Leaving the trip-details step requires a
// valid date range. Entering the personal-info step re-applies the profile
// in case it became available after Open.
func (c *Controller) NextStep(ctx context.Context) error {
	c.mu.Lock()
	if c.state.InFlight() {
		c.mu.Unlock()
		return apperrors.ErrOperationInFlight
	}
	if c.step == StepTripDetails {
		if err := c.draft.ValidateTripDetails(c.now()); err != nil {
			c.mu.Unlock()
			return err
		}
	}
	if c.step >= StepReview {
		c.mu.Unlock()
		return nil
	}
	next := c.step + 1
	token := c.token
	c.step = next
	c.touch()
	c.mu.Unlock()

	if next == StepPersonalInfo && c.deps.Profiles != nil {
		if profile, err := c.deps.Profiles.Profile(ctx, token); err == nil {
			c.mu.Lock()
			c.draft.ApplyProfile(profile)
			c.mu.Unlock()
		}
	}
	return nil
}

// PrevStep moves back one wizard step.
func (c *Controller) PrevStep() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()

	if c.step > StepTripDetails {
		c.step--
	}
}

// Submit creates the booking. Single-flight; suppressed whenever a
// non-cancelled booking is already held, so a duplicate create can never be
// issued in one workflow session.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	if c.state.InFlight() {
		c.mu.Unlock()
		return apperrors.ErrOperationInFlight
	}
	if c.booking.Active() {
		c.mu.Unlock()
		return apperrors.ErrBookingActive
	}
	if !c.state.CanTransitionTo(StateBooking) {
		c.mu.Unlock()
		return apperrors.ErrInvalidState
	}
	if err := c.draft.ValidateTripDetails(c.now()); err != nil {
		c.mu.Unlock()
		return err
	}

	req := &external.CreateBookingRequest{
		TourPackageID:   c.pkg.ID,
		StartDate:       c.draft.StartDate,
		EndDate:         c.draft.EndDate,
		Adults:          c.draft.Adults,
		Children:        c.draft.Children,
		FullName:        c.draft.FullName,
		Email:           c.draft.Email,
		Phone:           c.draft.Phone,
		Country:         c.draft.Country,
		SpecialRequests: c.draft.SpecialRequests,
		Status:          models.BookingStatusPending,
	}
	token := c.token
	c.state = StateBooking
	c.touch()
	c.mu.Unlock()

	booking, err := c.deps.Backend.CreateBooking(ctx, token, req)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()

	if err != nil {
		// Draft survives so the user can retry without re-entering data
		c.state = StateBookingError
		c.lastErr = external.ErrorMessage(err, msgBookingFailed)
		return err
	}

	c.booking = booking
	c.state = StateBooked
	c.lastErr = ""
	metrics.BookingsCreated.Inc()
	c.publish(models.EventBookingCreated, models.BookingCreatedEvent{
		WorkflowID: c.ID,
		BookingID:  booking.ID,
		PackageID:  c.pkg.ID,
		UserID:     c.userID,
		Timestamp:  c.now(),
	})
	return nil
}

// InitiatePayment asks the gateway for a redirect payload for the held
// booking. Never called without a booking id in hand; single-flight.
func (c *Controller) InitiatePayment(ctx context.Context) error {
	c.mu.Lock()
	if c.state.InFlight() {
		c.mu.Unlock()
		return apperrors.ErrOperationInFlight
	}
	if !c.booking.Active() {
		c.mu.Unlock()
		return apperrors.ErrNoActiveBooking
	}
	if !c.state.CanTransitionTo(StatePaymentInitiating) {
		c.mu.Unlock()
		return apperrors.ErrInvalidState
	}
	bookingID := c.booking.ID
	token := c.token
	c.state = StatePaymentInitiating
	c.touch()
	c.mu.Unlock()

	fields, err := c.deps.Gateway.InitiatePayment(ctx, token, bookingID)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()

	if err != nil {
		// Booking id survives so retry does not re-create the booking
		c.state = StatePaymentError
		c.lastErr = external.ErrorMessage(err, msgPaymentFailed)
		return err
	}

	intent, err := redirect.NewIntent(c.deps.Gateway.HostedPageURL(), fields)
	if err != nil {
		c.state = StatePaymentError
		c.lastErr = msgPaymentFailed
		return err
	}

	c.intent = intent
	c.state = StateRedirecting
	c.lastErr = ""
	metrics.PaymentsInitiated.Inc()
	c.publish(models.EventPaymentInitiated, models.PaymentInitiatedEvent{
		WorkflowID: c.ID,
		BookingID:  bookingID,
		PackageID:  c.pkg.ID,
		Timestamp:  c.now(),
	})
	return nil
}

// RedirectPage renders the pending redirect exactly once. A fresh
// initiation replaces the intent and arms the bridge again.
func (c *Controller) RedirectPage() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()

	if c.intent == nil {
		return nil, apperrors.ErrNoPendingRedirect
	}
	page, err := c.intent.Fire()
	if err != nil {
		return nil, err
	}
	metrics.RedirectsServed.Inc()
	return page, nil
}

// Cancel cancels the held booking. On success the active-booking slot is
// released and a fresh create becomes possible; on failure the local status
// is left untouched and nothing is retried automatically.
func (c *Controller) Cancel(ctx context.Context) error {
	c.mu.Lock()
	if c.state.InFlight() {
		c.mu.Unlock()
		return apperrors.ErrOperationInFlight
	}
	if !c.booking.Active() {
		c.mu.Unlock()
		return apperrors.ErrNoActiveBooking
	}
	if !c.state.CanTransitionTo(StateCancelling) {
		c.mu.Unlock()
		return apperrors.ErrInvalidState
	}
	prev := c.state
	bookingID := c.booking.ID
	token := c.token
	c.state = StateCancelling
	c.touch()
	c.mu.Unlock()

	booking, err := c.deps.Backend.CancelBooking(ctx, token, bookingID)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()

	if err != nil {
		c.state = prev
		c.lastErr = external.ErrorMessage(err, msgCancelFailed)
		return err
	}

	if booking != nil && booking.ID != "" {
		c.booking = booking
	}
	c.booking.Status = models.BookingStatusCancelled
	c.intent = nil
	c.state = StateCancelled
	c.lastErr = ""
	metrics.BookingsCancelled.Inc()
	c.publish(models.EventBookingCancelled, models.BookingCancelledEvent{
		WorkflowID: c.ID,
		BookingID:  bookingID,
		PackageID:  c.pkg.ID,
		Reason:     "user cancellation",
		Timestamp:  c.now(),
	})
	return nil
}

// Confirm flips the held booking to confirmed via the backend. It does not
// move the workflow state; confirmation is an out-of-band transition the
// workflow merely mirrors.
func (c *Controller) Confirm(ctx context.Context) error {
	c.mu.Lock()
	if c.state.InFlight() {
		c.mu.Unlock()
		return apperrors.ErrOperationInFlight
	}
	if !c.booking.Active() {
		c.mu.Unlock()
		return apperrors.ErrNoActiveBooking
	}
	bookingID := c.booking.ID
	token := c.token
	c.mu.Unlock()

	booking, err := c.deps.Backend.ConfirmBooking(ctx, token, bookingID)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()

	if err != nil {
		c.lastErr = external.ErrorMessage(err, msgConfirmFailed)
		return err
	}
	if booking != nil && booking.ID != "" {
		c.booking = booking
	} else {
		c.booking.Status = models.BookingStatusConfirmed
	}
	c.lastErr = ""
	return nil
}

// LastActive returns the time of the last user interaction, used by the
// registry janitor to discard abandoned workflows.
func (c *Controller) LastActive() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActive
}

func (c *Controller) touch() {
	c.lastActive = time.Now()
}

func (c *Controller) publish(subject string, data interface{}) {
	if c.deps.Events == nil {
		return
	}
	if err := c.deps.Events.Publish(subject, data); err != nil {
		logger.WithWorkflow(c.ID).Error("Failed to publish workflow event",
			"error", err,
			"event_type", subject)
	}
}
