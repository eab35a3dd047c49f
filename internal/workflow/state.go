package workflow

// State is the single tagged state of a booking workflow. Every in-flight
// network operation is its own state, which makes the single-flight guard
// and the "no invalid flag combination" property structural.
type State string

const (
	// StateIdle - instance constructed, Open not called yet
	StateIdle State = "idle"
	// StatePackageLoading - package fetch and existing-bookings lookup running
	StatePackageLoading State = "package_loading"
	// StatePackageReady - package loaded, no active booking yet
	StatePackageReady State = "package_ready"
	// StateBooking - create-booking call in flight
	StateBooking State = "booking"
	// StateBooked - a booking exists, payment not started
	StateBooked State = "booked"
	// StatePaymentInitiating - initiate-payment call in flight
	StatePaymentInitiating State = "payment_initiating"
	// StateRedirecting - gateway payload handed to the redirect bridge
	StateRedirecting State = "redirecting"
	// StateCancelling - cancel call in flight
	StateCancelling State = "cancelling"
	// StateCancelled - booking cancelled, a fresh create is permitted
	StateCancelled State = "cancelled"
	// StateLoadError - package lookup failed, workflow unusable
	StateLoadError State = "load_error"
	// StateBookingError - create failed, draft kept for retry
	StateBookingError State = "booking_error"
	// StatePaymentError - initiation failed, booking kept for retry
	StatePaymentError State = "payment_error"
)

var validTransitions = map[State][]State{
	StateIdle:           {StatePackageLoading},
	StatePackageLoading: {StatePackageReady, StateBooked, StateLoadError},
	StatePackageReady:   {StateBooking},
	StateBooking:        {StateBooked, StateBookingError},
	StateBookingError:   {StateBooking},
	StateBooked:         {StatePaymentInitiating, StateCancelling},
	// Payment can be retried after a failure or after the user came back
	// from the hosted page without completing it.
	StatePaymentInitiating: {StateRedirecting, StatePaymentError},
	StatePaymentError:      {StatePaymentInitiating, StateCancelling},
	StateRedirecting:       {StatePaymentInitiating, StateCancelling},
	// A failed cancel rolls back to wherever it started from.
	StateCancelling: {StateCancelled, StateBooked, StatePaymentError, StateRedirecting},
	StateCancelled:  {StateBooking},
	StateLoadError:  {},
}

// CanTransitionTo reports whether moving from s to target is a legal step.
func (s State) CanTransitionTo(target State) bool {
	for _, next := range validTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// InFlight reports whether a network operation of this workflow is
// currently outstanding. While true, every user-triggered operation of the
// same workflow is suppressed.
func (s State) InFlight() bool {
	switch s {
	case StatePackageLoading, StateBooking, StatePaymentInitiating, StateCancelling:
		return true
	}
	return false
}
