package errors

import "errors"

var ErrWorkflowNotFound = errors.New("workflow not found")
var ErrWorkflowClosed = errors.New("workflow already opened")
var ErrOperationInFlight = errors.New("operation already in progress")
var ErrBookingActive = errors.New("a non-cancelled booking already exists for this package")
var ErrNoActiveBooking = errors.New("no active booking to operate on")
var ErrInvalidState = errors.New("operation not allowed in current workflow state")
var ErrMissingPayload = errors.New("payment gateway returned no redirect payload")
var ErrNoPendingRedirect = errors.New("no pending payment redirect")
var ErrRedirectConsumed = errors.New("payment redirect already used")
