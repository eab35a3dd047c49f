package models

import "time"

// Event subjects for workflow lifecycle notifications
const (
	EventBookingCreated   = "travelease.booking.created"
	EventPaymentInitiated = "travelease.payment.initiated"
	EventBookingCancelled = "travelease.booking.cancelled"
)

// BookingCreatedEvent is published after the remote service accepts a create
type BookingCreatedEvent struct {
	WorkflowID string    `json:"workflow_id"`
	BookingID  string    `json:"booking_id"`
	PackageID  string    `json:"package_id"`
	UserID     string    `json:"user_id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// PaymentInitiatedEvent is published once a gateway payload has been obtained
type PaymentInitiatedEvent struct {
	WorkflowID string    `json:"workflow_id"`
	BookingID  string    `json:"booking_id"`
	PackageID  string    `json:"package_id"`
	Timestamp  time.Time `json:"timestamp"`
}

// BookingCancelledEvent is published after a successful cancellation
type BookingCancelledEvent struct {
	WorkflowID string    `json:"workflow_id"`
	BookingID  string    `json:"booking_id"`
	PackageID  string    `json:"package_id"`
	Reason     string    `json:"reason"`
	Timestamp  time.Time `json:"timestamp"`
}
