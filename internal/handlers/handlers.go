package handlers

import (
	"errors"
	"net/http"

	apperrors "travelease/internal/errors"
	"travelease/internal/external"
	"travelease/internal/middleware"
	"travelease/internal/models"
	"travelease/internal/workflow"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handlers struct {
	registry *workflow.Registry
	deps     workflow.Deps
}

func NewHandlers(registry *workflow.Registry, deps workflow.Deps) *Handlers {
	return &Handlers{
		registry: registry,
		deps:     deps,
	}
}

// OpenWorkflow - POST /api/workflows
// Opens a booking workflow for a package: the package fetch and the
// existing-bookings lookup run concurrently, and a prior non-cancelled
// booking immediately seeds the pay-or-cancel affordance.
func (h *Handlers) OpenWorkflow(c *gin.Context) {
	var req models.OpenWorkflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	token := middleware.TokenFromContext(ctx)
	userID, _ := middleware.UserIDFromContext(ctx)

	wf := workflow.NewController(uuid.New().String(), token, userID, h.deps)
	if err := wf.Open(ctx, req.PackageID); err != nil {
		snap := wf.Snapshot()
		c.JSON(upstreamStatus(err), gin.H{"error": snap.LastError})
		return
	}

	h.registry.Add(wf)
	c.JSON(http.StatusCreated, wf.Snapshot())
}

// GetWorkflow - GET /api/workflows/:id
func (h *Handlers) GetWorkflow(c *gin.Context) {
	wf, err := h.registry.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Workflow not found"})
		return
	}
	c.JSON(http.StatusOK, wf.Snapshot())
}

// UpdateDraftField - PATCH /api/workflows/:id/draft
func (h *Handlers) UpdateDraftField(c *gin.Context) {
	wf, err := h.registry.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Workflow not found"})
		return
	}

	var req models.UpdateFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := wf.UpdateField(req.Name, req.Value); err != nil {
		c.JSON(errStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, wf.Snapshot())
}

// AdjustGuests - PATCH /api/workflows/:id/guests
func (h *Handlers) AdjustGuests(c *gin.Context) {
	wf, err := h.registry.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Workflow not found"})
		return
	}

	var req models.AdjustGuestsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := wf.AdjustGuests(req.Counter, req.Delta); err != nil {
		c.JSON(errStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, wf.Snapshot())
}

// NextStep - POST /api/workflows/:id/steps/next
// Leaving the trip-details step is guarded by the date-range check.
func (h *Handlers) NextStep(c *gin.Context) {
	wf, err := h.registry.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Workflow not found"})
		return
	}

	if err := wf.NextStep(c.Request.Context()); err != nil {
		c.JSON(errStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, wf.Snapshot())
}

// PrevStep - POST /api/workflows/:id/steps/prev
func (h *Handlers) PrevStep(c *gin.Context) {
	wf, err := h.registry.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Workflow not found"})
		return
	}

	wf.PrevStep()
	c.JSON(http.StatusOK, wf.Snapshot())
}

// CreateBooking - POST /api/workflows/:id/booking
// Explicit user confirmation; never automatic and never a duplicate while
// a non-cancelled booking is held.
func (h *Handlers) CreateBooking(c *gin.Context) {
	wf, err := h.registry.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Workflow not found"})
		return
	}

	if err := wf.Submit(c.Request.Context()); err != nil {
		h.respondOperationError(c, wf, err)
		return
	}
	c.JSON(http.StatusCreated, wf.Snapshot())
}

// InitiatePayment - POST /api/workflows/:id/payment
// On success the browser is pointed at the single-use redirect page.
func (h *Handlers) InitiatePayment(c *gin.Context) {
	wf, err := h.registry.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Workflow not found"})
		return
	}

	if err := wf.InitiatePayment(c.Request.Context()); err != nil {
		h.respondOperationError(c, wf, err)
		return
	}

	c.JSON(http.StatusOK, models.InitiatePaymentResponse{
		RedirectURL: "/api/workflows/" + wf.ID + "/redirect",
	})
}

// RedirectPage - GET /api/workflows/:id/redirect
// Serves the auto-submitting form that posts the gateway payload to the
// hosted payment page. Each payload renders exactly once.
func (h *Handlers) RedirectPage(c *gin.Context) {
	wf, err := h.registry.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Workflow not found"})
		return
	}

	page, err := wf.RedirectPage()
	if err != nil {
		c.JSON(errStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}

// ConfirmBooking - POST /api/workflows/:id/confirm
func (h *Handlers) ConfirmBooking(c *gin.Context) {
	wf, err := h.registry.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Workflow not found"})
		return
	}

	if err := wf.Confirm(c.Request.Context()); err != nil {
		h.respondOperationError(c, wf, err)
		return
	}
	c.JSON(http.StatusOK, wf.Snapshot())
}

// CancelBooking - POST /api/workflows/:id/cancel
func (h *Handlers) CancelBooking(c *gin.Context) {
	wf, err := h.registry.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Workflow not found"})
		return
	}

	if err := wf.Cancel(c.Request.Context()); err != nil {
		h.respondOperationError(c, wf, err)
		return
	}
	c.JSON(http.StatusOK, wf.Snapshot())
}

// respondOperationError surfaces the guard error itself for local
// rejections, and the user-facing message the controller recorded for any
// remote failure (network, HTTP error, missing payload).
func (h *Handlers) respondOperationError(c *gin.Context, wf *workflow.Controller, err error) {
	if isGuardError(err) {
		c.JSON(errStatus(err), gin.H{"error": err.Error()})
		return
	}

	snap := wf.Snapshot()
	msg := snap.LastError
	if msg == "" {
		msg = err.Error()
	}
	c.JSON(http.StatusBadGateway, gin.H{"error": msg})
}

// isGuardError reports whether the operation was rejected locally before
// any network call was made.
func isGuardError(err error) bool {
	switch {
	case errors.Is(err, apperrors.ErrOperationInFlight),
		errors.Is(err, apperrors.ErrBookingActive),
		errors.Is(err, apperrors.ErrNoActiveBooking),
		errors.Is(err, apperrors.ErrInvalidState),
		errors.Is(err, workflow.ErrStartRequired),
		errors.Is(err, workflow.ErrStartInPast),
		errors.Is(err, workflow.ErrEndBeforeStart),
		errors.Is(err, workflow.ErrBadDate):
		return true
	}
	return false
}

// errStatus maps guard errors to HTTP statuses
func errStatus(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrWorkflowNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrOperationInFlight),
		errors.Is(err, apperrors.ErrBookingActive),
		errors.Is(err, apperrors.ErrInvalidState),
		errors.Is(err, apperrors.ErrWorkflowClosed):
		return http.StatusConflict
	case errors.Is(err, apperrors.ErrNoPendingRedirect),
		errors.Is(err, apperrors.ErrRedirectConsumed):
		return http.StatusGone
	case errors.Is(err, apperrors.ErrNoActiveBooking):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

// upstreamStatus distinguishes a missing package from other load failures
func upstreamStatus(err error) int {
	var apiErr *external.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		return http.StatusNotFound
	}
	return http.StatusBadGateway
}
